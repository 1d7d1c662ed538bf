package redissink

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carelane/authcore/audit"
)

func TestRedisSink(t *testing.T) {
	// Skip test if Redis is not available
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	const stream = "authcore:audit:test"
	defer client.Del(ctx, stream)
	s, err := New(Config{RedisAddr: "127.0.0.1:6379", StreamKey: stream, MaxLen: 100})
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	defer s.Close()

	entry := audit.Entry{
		ID:          "e-1",
		Outcome:     audit.OutcomeAllow,
		OperationID: "patients.read",
		SubjectID:   "sub-1",
		TenantID:    "clinic-a",
		Timestamp:   time.Now().UTC(),
	}
	if err := s.Write(ctx, entry); err != nil {
		t.Fatalf("write: %v", err)
	}

	msgs, err := client.XRange(ctx, stream, "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("want 1 stream entry, got %d", len(msgs))
	}
	raw, _ := msgs[0].Values["d"].(string)
	var got audit.Entry
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != "e-1" || got.OperationID != "patients.read" {
		t.Errorf("entry = %+v", got)
	}
}
