// Package crash collects non-fatal failures from background work so the
// owner can surface them later without the failing goroutine unwinding.
package crash

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"chunkmesh/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sink receives failures from worker goroutines.
type Sink interface {
	DelayCrash(label string, err error)
}

// Report is one recorded failure.
type Report struct {
	ID    uuid.UUID
	Label string
	Err   error
	Time  time.Time
}

func (r Report) String() string {
	return fmt.Sprintf("%s [%s]: %v", r.Label, r.ID, r.Err)
}

// Reporter is a Sink that logs each failure and keeps it until drained.
type Reporter struct {
	mu      sync.Mutex
	reports []Report
	limit   int
	dropped int
}

// DefaultLimit bounds how many undrained reports a Reporter keeps.
const DefaultLimit = 64

func NewReporter() *Reporter {
	return &Reporter{limit: DefaultLimit}
}

// DelayCrash records err under label. Once the limit is reached the oldest
// report is dropped.
func (r *Reporter) DelayCrash(label string, err error) {
	rep := Report{ID: uuid.New(), Label: label, Err: err, Time: time.Now()}
	logger.Log.Error("delayed crash",
		zap.String("label", label),
		zap.Stringer("id", rep.ID),
		zap.Error(err))

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.reports) == r.limit {
		r.reports = r.reports[1:]
		r.dropped++
	}
	r.reports = append(r.reports, rep)
}

// Reports returns a copy of the pending reports.
func (r *Reporter) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Report(nil), r.reports...)
}

// Drain returns and clears the pending reports.
func (r *Reporter) Drain() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.reports
	r.reports = nil
	return out
}

// Dropped returns how many reports were discarded over the limit.
func (r *Reporter) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// PanicError wraps a recovered panic value with the stack it was raised on.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Recovered converts a value returned by recover into an error. It returns
// nil for a nil value.
func Recovered(v any) error {
	if v == nil {
		return nil
	}
	if err, ok := v.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return &PanicError{Value: v, Stack: debug.Stack()}
}
