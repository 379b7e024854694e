package bootstrap

import "context"

type AuditLog struct {
	Action  string
	Message string
	Meta    map[string]any
}

// AuditLogger records operational events that must survive in the logs
// even when the structured logger is reconfigured.
type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
