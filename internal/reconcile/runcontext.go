package reconcile

import (
	"sync"

	"github.com/google/uuid"
)

// RunContext carries per-run state that sticky prompt answers and failure
// bookkeeping accumulate into.
type RunContext struct {
	// RunID tags every log line of this run.
	RunID string

	mu          sync.Mutex
	skipAll     bool
	useExisting bool
	retries     []string
}

// NewRunContext mints a fresh run identity.
func NewRunContext() *RunContext {
	return &RunContext{RunID: uuid.NewString()}
}

// MarkSkipAll records that the user chose to skip all remaining logged
// references without further prompts.
func (rc *RunContext) MarkSkipAll() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.skipAll = true
}

// SkipAll reports whether logged references should be skipped silently.
func (rc *RunContext) SkipAll() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.skipAll
}

// MarkUseExistingAll records that cached files should be reused without
// further prompts.
func (rc *RunContext) MarkUseExistingAll() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.useExisting = true
}

// UseExistingAll reports whether cached files are reused without asking.
func (rc *RunContext) UseExistingAll() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.useExisting
}

// RecordRetry queues a failed source for the retry file written at run end.
func (rc *RunContext) RecordRetry(source string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.retries = append(rc.retries, source)
}

// Retries returns the failed sources in failure order.
func (rc *RunContext) Retries() []string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	out := make([]string, len(rc.retries))
	copy(out, rc.retries)
	return out
}
