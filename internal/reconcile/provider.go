package reconcile

import "context"

// ReuseChoice answers the "a file for this reference already exists" prompt.
type ReuseChoice int

const (
	// ReuseOnce infers on the existing file this time only.
	ReuseOnce ReuseChoice = iota
	// ReuseAll infers on existing files for the rest of the batch too.
	ReuseAll
	// Redownload discards the existing file and fetches it again.
	Redownload
)

// RerunChoice answers the "this reference is already logged" prompt.
type RerunChoice int

const (
	// RerunNo skips the reference.
	RerunNo RerunChoice = iota
	// RerunYes reruns inference on it.
	RerunYes
	// RerunSkipAll skips it and every later logged reference without asking.
	RerunSkipAll
)

// Provider supplies the interactive decisions reconciliation needs. The CLI
// implements it with terminal prompts; tests script it.
type Provider interface {
	// ConfirmRerunAll is asked when every reference in the batch is already
	// processed and present. True reruns the whole batch.
	ConfirmRerunAll(ctx context.Context, counts Counts) (bool, error)
	// ChooseBatchPolicy is asked when a batch mixes processed and new
	// references.
	ChooseBatchPolicy(ctx context.Context, counts Counts) (BatchPolicy, error)
	// ConfirmReuseExisting is asked when a download would collide with a
	// cached file for an unlogged reference.
	ConfirmReuseExisting(ctx context.Context, identifier, title string) (ReuseChoice, error)
	// ConfirmReinfer is asked before rerunning inference on a logged
	// reference outside a full rerun.
	ConfirmReinfer(ctx context.Context, identifier, title string) (RerunChoice, error)
}

// DefaultProvider makes the non-interactive choices used with --yes or when
// stdin is not a terminal: skip what's logged, reuse what's cached.
type DefaultProvider struct{}

func (DefaultProvider) ConfirmRerunAll(context.Context, Counts) (bool, error) {
	return false, nil
}

func (DefaultProvider) ChooseBatchPolicy(context.Context, Counts) (BatchPolicy, error) {
	return PolicySkipLogged, nil
}

func (DefaultProvider) ConfirmReuseExisting(context.Context, string, string) (ReuseChoice, error) {
	return ReuseAll, nil
}

func (DefaultProvider) ConfirmReinfer(context.Context, string, string) (RerunChoice, error) {
	return RerunSkipAll, nil
}
