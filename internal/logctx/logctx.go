// Package logctx enriches slog records with request and decision data
// carried in the context, so handlers and the pipeline can log without
// threading identifiers through every call.
package logctx

import (
	"context"
	"log/slog"
)

// Handler wraps another slog.Handler and appends context-carried groups.
type Handler struct {
	slog.Handler
}

// Wrap returns next wrapped with context enrichment.
func Wrap(next slog.Handler) Handler {
	return Handler{Handler: next}
}

// WithAttrs and WithGroup re-wrap so derived loggers keep the enrichment.
func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h Handler) WithGroup(name string) slog.Handler {
	return Handler{Handler: h.Handler.WithGroup(name)}
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		r.AddAttrs(slog.Group("req",
			slog.String("id", rd.RequestID),
			slog.String("method", rd.Method),
			slog.String("path", rd.Path),
			slog.String("remote_addr", rd.RemoteAddr),
		))
	}

	if dd, ok := ctx.Value(decisionDataKey{}).(*DecisionData); ok {
		r.AddAttrs(slog.Group("authz",
			slog.String("operation_id", dd.OperationID),
			slog.String("subject_id", dd.SubjectID),
			slog.String("outcome", dd.Outcome),
			slog.String("kind", dd.Kind),
		))
	}

	return h.Handler.Handle(ctx, r)
}

type requestDataKey struct{}

type RequestData struct {
	RequestID  string
	Method     string
	Path       string
	RemoteAddr string
}

func WithRequestData(ctx context.Context, data *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, data)
}

type decisionDataKey struct{}

type DecisionData struct {
	OperationID string
	SubjectID   string
	Outcome     string
	Kind        string
}

func WithDecisionData(ctx context.Context, data *DecisionData) context.Context {
	return context.WithValue(ctx, decisionDataKey{}, data)
}
