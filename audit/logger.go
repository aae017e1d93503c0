// Package audit logs AuthzDecisions for observability: a structured
// log/slog line for every decision and, when a store is configured, a
// persisted AuditRecord carrying the serialized cause tree.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/oops"

	"github.com/dotrongnhan/xacml-pdp/model"
	"github.com/dotrongnhan/xacml-pdp/store"
)

var writeFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "pdp_audit_write_failures_total",
	Help: "Total audit records that failed to persist to the configured AuditStore.",
})

// Logger writes a structured log line for every AuthzDecision and,
// when a store.AuditStore is configured, an AuditRecord row.
type Logger struct {
	log   *slog.Logger
	store store.AuditStore
}

// New builds a Logger over the given slog.Logger. store may be nil, in
// which case only the structured log line is written.
func New(log *slog.Logger, auditStore store.AuditStore) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{log: log, store: auditStore}
}

// LogDecision records req/decision. It never returns an error that
// should block the caller's response to its own client: a failed audit
// write is logged and counted, not propagated.
func (l *Logger) LogDecision(ctx context.Context, req *model.AuthzRequest, decision *model.AuthzDecision) {
	requestID := uuid.NewString()

	attrs := []any{
		"request_id", requestID,
		"decision", string(decision.Decision),
		"decided_at", decision.Timestamp.Format(time.RFC3339Nano),
	}
	if req.Subject != nil {
		attrs = append(attrs, "subject_id", req.Subject.UserID)
	}
	if req.Resource != nil {
		attrs = append(attrs, "resource", req.Resource.Name)
	}
	if req.Action != nil {
		attrs = append(attrs, "action", req.Action.Method+" "+req.Action.Path)
	}
	if decision.Details != nil {
		attrs = append(attrs, "details", decision.Details)
	}

	if decision.Decision == model.DecisionDeny {
		l.log.LogAttrs(ctx, slog.LevelWarn, "authz decision", toSlogAttrs(attrs)...)
	} else {
		l.log.LogAttrs(ctx, slog.LevelInfo, "authz decision", toSlogAttrs(attrs)...)
	}

	if l.store == nil {
		return
	}
	if err := l.persist(requestID, req, decision); err != nil {
		writeFailures.Inc()
		l.log.Error("audit: failed to persist decision", "request_id", requestID, "error", err)
	}
}

func (l *Logger) persist(requestID string, req *model.AuthzRequest, decision *model.AuthzDecision) error {
	var causeJSON []byte
	if decision.Details != nil {
		encoded, err := json.Marshal(decision.Details)
		if err != nil {
			return oops.With("request_id", requestID).Wrap(err)
		}
		causeJSON = encoded
	}

	record := &store.AuditRecord{
		RequestID: requestID,
		Decision:  string(decision.Decision),
		CauseJSON: causeJSON,
		DecidedAt: decision.Timestamp,
	}
	if req.Subject != nil {
		record.SubjectID = req.Subject.UserID
	}
	if req.Resource != nil {
		record.ResourceID = req.Resource.Name
	}
	if req.Action != nil {
		record.ActionName = req.Action.Method + " " + req.Action.Path
	}

	if err := l.store.SaveAudit(record); err != nil {
		return oops.With("request_id", requestID).Wrap(err)
	}
	return nil
}

func toSlogAttrs(kv []any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		attrs = append(attrs, slog.Any(key, kv[i+1]))
	}
	return attrs
}
