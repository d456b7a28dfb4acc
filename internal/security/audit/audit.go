package audit

import (
	"context"
	"log/slog"
	"time"
)

// Logger writes an audit trail of resource mutations on top of slog.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

// LogRequest records a mutating HTTP request with the acting user.
func (al *Logger) LogRequest(ctx context.Context, userID, username, method, path string) {
	al.logger.Info("audit",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("user_id", userID),
		slog.String("username", username),
		slog.Time("timestamp", time.Now()),
	)
}

// LogFileChange records a filesystem transition tied to a database write.
// These are the operations with partial-failure windows, so they get their
// own trail entry. Safe on a nil receiver so services can run without an
// audit trail in tests.
func (al *Logger) LogFileChange(action, resource, resourceID, path string) {
	if al == nil {
		return
	}
	al.logger.Info("audit_file",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("path", path),
		slog.Time("timestamp", time.Now()),
	)
}
