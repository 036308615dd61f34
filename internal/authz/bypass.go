package authz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tenonhq/tenon/internal/log"
)

// bypassKey is an unexported key type to prevent external forgery.
type bypassKey struct{}

// bypassInfo stores bypass metadata.
type bypassInfo struct {
	Reason    string
	Timestamp time.Time
	Actor     string
}

// WithSystemBypass creates a context whose storage operations skip tenant
// filtering. For background tasks and cross-tenant internal operations
// only. reason must be a stable audit identifier (e.g. "cycle-renewal",
// "quota-check").
func WithSystemBypass(ctx context.Context, reason string) context.Context {
	a, _ := GetActor(ctx)

	info := bypassInfo{
		Reason:    reason,
		Timestamp: time.Now(),
		Actor:     a.String(),
	}

	recordBypassAudit(ctx, info)

	return context.WithValue(ctx, bypassKey{}, info)
}

// RunWithSystemBypass executes the bypass operation within a closure,
// limiting how far the bypass context spreads along the call chain.
//
// Example usage:
//
//	quota, err := authz.RunWithSystemBypass(ctx, "quota-check", func(ctx context.Context) (*db.Quota, error) {
//	    return repo.GetByID(ctx, quotaID)
//	})
func RunWithSystemBypass[T any](ctx context.Context, reason string, fn func(ctx context.Context) (T, error)) (T, error) {
	return fn(WithSystemBypass(ctx, reason))
}

// GetBypassInfo retrieves current bypass information, for audit and
// debugging.
func GetBypassInfo(ctx context.Context) (reason string, at time.Time, ok bool) {
	info, ok := ctx.Value(bypassKey{}).(bypassInfo)
	return info.Reason, info.Timestamp, ok
}

// IsBypassActive checks if the current context is in bypass state.
func IsBypassActive(ctx context.Context) bool {
	_, ok := ctx.Value(bypassKey{}).(bypassInfo)
	return ok
}

// BypassAuditRecord represents a tenant-scope bypass audit record.
type BypassAuditRecord struct {
	Timestamp   time.Time
	Actor       string
	Reason      string
	Operation   string
	Description string
}

// auditLogger is the bypass audit logger. Can be customized via
// SetAuditLogger. Guarded by auditMu; writers come and go across the
// process lifecycle while bypasses may fire concurrently.
var (
	auditMu     sync.RWMutex
	auditLogger func(ctx context.Context, record BypassAuditRecord)
)

// SetAuditLogger sets a custom audit logger. If not set, the default
// structured log output is used. Audit delivery is best effort and never
// fails the bypassed operation.
func SetAuditLogger(fn func(ctx context.Context, record BypassAuditRecord)) {
	auditMu.Lock()
	auditLogger = fn
	auditMu.Unlock()
}

func getAuditLogger() func(ctx context.Context, record BypassAuditRecord) {
	auditMu.RLock()
	defer auditMu.RUnlock()

	return auditLogger
}

func recordBypassAudit(ctx context.Context, info bypassInfo) {
	record := BypassAuditRecord{
		Timestamp:   info.Timestamp,
		Actor:       info.Actor,
		Reason:      info.Reason,
		Operation:   "bypass",
		Description: fmt.Sprintf("Tenant-scope bypass triggered: reason=%s, actor=%s", info.Reason, info.Actor),
	}

	if logger := getAuditLogger(); logger != nil {
		logger(ctx, record)
	} else {
		log.Debug(ctx, "authz: tenant-scope bypass",
			log.String("actor", record.Actor),
			log.String("reason", record.Reason),
			log.String("operation", record.Operation),
		)
	}
}
