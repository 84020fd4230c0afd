// Package notify is the fire-and-forget toast channel. Delivery is
// best-effort by contract, so the server-side implementation records the
// message for the client to pick up and nothing in the core waits on it.
package notify

import (
	"go.uber.org/zap"
)

type Toast struct {
	logger *zap.Logger
}

func New(log *zap.Logger) *Toast {
	return &Toast{logger: log}
}

func (t *Toast) Success(owner *uint64, message string) {
	t.logger.Info("toast", zap.String("level", "success"),
		zap.Uint64p("owner", owner), zap.String("message", message))
}

func (t *Toast) Warning(owner *uint64, message string) {
	t.logger.Warn("toast", zap.String("level", "warning"),
		zap.Uint64p("owner", owner), zap.String("message", message))
}

func (t *Toast) Error(owner *uint64, message string) {
	t.logger.Error("toast", zap.String("level", "error"),
		zap.Uint64p("owner", owner), zap.String("message", message))
}
