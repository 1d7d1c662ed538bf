package authcore

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/authcore/audit"
	"github.com/carelane/authcore/internal/logctx"
	"github.com/carelane/authcore/policy"
	"github.com/carelane/authcore/userstore"
)

const defaultAuditBuffer = 256

// EvaluatorConfig wires the pipeline's collaborators. Verifier, Registry
// and Users are required; Hierarchy defaults to policy.DefaultHierarchy,
// Audit and Logger are optional.
type EvaluatorConfig struct {
	Verifier  CredentialVerifier
	Registry  *policy.Registry
	Hierarchy *policy.Hierarchy
	Users     userstore.Lookup

	// Audit receives one entry per decision, dispatched from a background
	// goroutine. Entries are dropped rather than blocking the request path.
	Audit audit.Sink
	// AuditBuffer sizes the dispatch queue (default 256).
	AuditBuffer int

	Logger *slog.Logger
}

// Evaluator runs the full authorization pipeline for inbound operations.
// It is stateless per request and safe for unbounded concurrent use; the
// only shared mutable state is the signing-key cache inside the verifier,
// which handles its own locking.
type Evaluator struct {
	verifier  CredentialVerifier
	registry  *policy.Registry
	hierarchy *policy.Hierarchy
	users     userstore.Lookup
	log       *slog.Logger

	// auditCh is never closed; Close signals shutdown through closing so
	// that an Evaluate in flight can never send on a closed channel.
	auditCh   chan audit.Entry
	closing   chan struct{}
	auditDone chan struct{}
	closeOnce sync.Once
}

// NewEvaluator validates the configuration and starts the audit dispatcher
// if a sink is configured. Call Close when the evaluator is no longer
// needed to drain the audit queue.
func NewEvaluator(cfg EvaluatorConfig) (*Evaluator, error) {
	if cfg.Verifier == nil {
		return nil, errors.New("authcore: verifier is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("authcore: policy registry is required")
	}
	if cfg.Users == nil {
		return nil, errors.New("authcore: user lookup is required")
	}
	if cfg.Hierarchy == nil {
		cfg.Hierarchy = policy.DefaultHierarchy()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	e := &Evaluator{
		verifier:  cfg.Verifier,
		registry:  cfg.Registry,
		hierarchy: cfg.Hierarchy,
		users:     cfg.Users,
		log:       cfg.Logger,
	}
	if cfg.Audit != nil {
		buf := cfg.AuditBuffer
		if buf <= 0 {
			buf = defaultAuditBuffer
		}
		e.auditCh = make(chan audit.Entry, buf)
		e.closing = make(chan struct{})
		e.auditDone = make(chan struct{})
		go e.auditLoop(cfg.Audit)
	}
	return e, nil
}

// Close stops the audit dispatcher after draining queued entries. Safe to
// call multiple times and safe to race with in-flight Evaluate calls;
// entries produced while closing are dropped, never panicked on.
func (e *Evaluator) Close() {
	e.closeOnce.Do(func() {
		if e.auditCh != nil {
			close(e.closing)
			<-e.auditDone
		}
	})
}

// Evaluate runs the pipeline for one inbound operation. credential is the
// raw bearer token, empty when none was presented; targetTenantID is the
// tenant owning the specific target resource, nil when the operation has no
// specific target.
//
// Evaluation is deterministic: identical arguments against an unchanged key
// cache and user record yield identical results.
func (e *Evaluator) Evaluate(ctx context.Context, operationID string, credential string, targetTenantID *string) PipelineResult {
	pol, err := e.registry.Lookup(operationID)
	if err != nil {
		// Startup validation should make this unreachable; fail closed and
		// say so loudly.
		e.log.ErrorContext(ctx, "authorization for undeclared operation", slog.String("operation_id", operationID))
		return e.finish(ctx, operationID, "", "", rejected(KindUnknownOperation, "operation is not registered"))
	}

	if pol.Public {
		return e.finish(ctx, operationID, "", "", authorized(nil))
	}

	if credential == "" {
		return e.finish(ctx, operationID, "", "", rejected(KindCredentialRequired, "credential required"))
	}

	claims, err := e.verifier.Verify(ctx, credential)
	if err != nil {
		kind := verificationKind(err)
		// Detail stays generic: the credential and the verifier's internal
		// reason never reach the caller.
		return e.finish(ctx, operationID, "", "", rejected(kind, "credential verification failed"))
	}

	uc, err := BuildUserContext(ctx, claims, e.users)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			return e.finish(ctx, operationID, claims.Subject, "", rejected(KindUserNotFound, "unknown principal"))
		case errors.Is(err, ErrUserInactive):
			return e.finish(ctx, operationID, claims.Subject, "", rejected(KindUserInactive, "principal is inactive"))
		default:
			e.log.ErrorContext(ctx, "user lookup failed", slog.String("operation_id", operationID), slog.Any("error", err))
			return e.finish(ctx, operationID, claims.Subject, "", rejected(KindInternal, "authorization unavailable"))
		}
	}

	if d := AuthorizeScopes(pol, uc, e.hierarchy); !d.Allow {
		res := rejected(KindInsufficientScope, "caller lacks a required scope")
		res.RequiredScopes = d.RequiredScopes
		return e.finish(ctx, operationID, uc.SubjectID, uc.TenantID, res)
	}

	if d := EnforceTenant(pol, uc, targetTenantID, e.hierarchy); !d.Allow {
		return e.finish(ctx, operationID, uc.SubjectID, uc.TenantID, rejected(KindCrossTenantAccess, "resource belongs to another tenant"))
	}

	return e.finish(ctx, operationID, uc.SubjectID, uc.TenantID, authorized(uc))
}

// finish logs the decision and routes it to the audit dispatcher.
func (e *Evaluator) finish(ctx context.Context, operationID, subjectID, tenantID string, res PipelineResult) PipelineResult {
	outcome := audit.OutcomeAllow
	if !res.Authorized {
		outcome = audit.OutcomeDeny
	}

	ctx = logctx.WithDecisionData(ctx, &logctx.DecisionData{
		OperationID: operationID,
		SubjectID:   subjectID,
		Outcome:     string(outcome),
		Kind:        string(res.Kind),
	})
	if !res.Authorized {
		e.log.InfoContext(ctx, "authorization denied")
	}

	if e.auditCh != nil {
		entry := audit.Entry{
			ID:          uuid.NewString(),
			Outcome:     outcome,
			OperationID: operationID,
			SubjectID:   subjectID,
			TenantID:    tenantID,
			Timestamp:   time.Now().UTC(),
		}
		if !res.Authorized {
			entry.Reason = string(res.Kind)
		}
		select {
		case e.auditCh <- entry:
		case <-e.closing:
			// Shutting down. The decision stands; only its audit entry is lost.
		default:
			// Queue full. Dropping an audit entry is preferable to delaying
			// the authorization decision.
			e.log.WarnContext(ctx, "audit entry dropped", slog.String("operation_id", operationID))
		}
	}
	return res
}

// auditLoop drains the dispatch queue into the sink. Sink failures are
// logged and otherwise ignored. On Close it writes out whatever is already
// buffered before exiting.
func (e *Evaluator) auditLoop(sink audit.Sink) {
	defer close(e.auditDone)
	for {
		select {
		case entry := <-e.auditCh:
			e.writeAudit(sink, entry)
		case <-e.closing:
			for {
				select {
				case entry := <-e.auditCh:
					e.writeAudit(sink, entry)
				default:
					return
				}
			}
		}
	}
}

func (e *Evaluator) writeAudit(sink audit.Sink, entry audit.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sink.Write(ctx, entry); err != nil {
		e.log.Warn("audit sink write failed", slog.Any("error", err))
	}
}

func verificationKind(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrExpiredCredential):
		return KindExpiredCredential
	case errors.Is(err, ErrMalformedCredential):
		return KindMalformedCredential
	case errors.Is(err, ErrMissingClaim):
		return KindMissingClaim
	default:
		return KindSignatureMismatch
	}
}
