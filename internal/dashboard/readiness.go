package dashboard

import (
	"fmt"
	"sync"

	apperrors "cnes-dashboard/internal/common/errors"
)

// Readiness is flipped to not-ready by the first fatal error and stays
// there until the process restarts with fixed configuration.
type Readiness struct {
	mu     sync.RWMutex
	ready  bool
	reason string
}

func NewReadiness() *Readiness {
	return &Readiness{ready: true}
}

func (r *Readiness) Fail(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ready {
		return
	}
	r.ready = false
	r.reason = reason
}

func (r *Readiness) Ready() (bool, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ready, r.reason
}

// NewErrorHandler returns an error handler that marks readiness failed on
// the first fatal error.
func NewErrorHandler(log apperrors.Logger, readiness *Readiness) *apperrors.ErrorHandler {
	return apperrors.NewErrorHandler(log, func(err *apperrors.StandardError) {
		readiness.Fail(fmt.Sprintf("%s: %s", err.Code, err.Message))
	})
}
