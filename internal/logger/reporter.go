package logger

import (
	"sync"

	"github.com/dbokser/hairball/pkg/kernel"
	"go.uber.org/zap"
)

// Reporter logs every warning at warn level and keeps it for the caller.
type Reporter struct {
	log *zap.Logger

	mu       sync.Mutex
	warnings []string
}

var _ kernel.Reporter = (*Reporter)(nil)

// NewReporter returns a Reporter writing to log. A nil log uses the global
// logger at the time of each warning.
func NewReporter(log *zap.Logger) *Reporter {
	return &Reporter{log: log}
}

// Warn records msg.
func (r *Reporter) Warn(msg string) {
	log := r.log
	if log == nil {
		log = Log
	}
	log.Warn(msg)

	r.mu.Lock()
	r.warnings = append(r.warnings, msg)
	r.mu.Unlock()
}

// Warnings returns the warnings recorded so far, oldest first.
func (r *Reporter) Warnings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.warnings...)
}

// Reset drops the recorded warnings.
func (r *Reporter) Reset() {
	r.mu.Lock()
	r.warnings = nil
	r.mu.Unlock()
}
