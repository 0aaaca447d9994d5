// Package reconcile decides, for every reference in a batch, whether to skip,
// reuse, redownload or freshly process it, based on the ledger and the asset
// cache. The decisions keep repeated runs idempotent.
package reconcile

import (
	"context"
	"errors"

	"bdetect/internal/assets"
	"bdetect/internal/events"
	"bdetect/internal/ledger"
	"bdetect/internal/references"
)

// ErrCleanExit signals that the run should stop with nothing to do. It is not
// a failure; the CLI exits zero on it.
var ErrCleanExit = errors.New("nothing to process")

// BatchPolicy is the user's batch-level choice when a batch mixes already
// processed and new references.
type BatchPolicy int

const (
	// PolicyNone means no batch decision was needed.
	PolicyNone BatchPolicy = iota
	// PolicyProcessAll reprocesses every reference, logged or not.
	PolicyProcessAll
	// PolicySkipLogged skips logged references and processes only new ones.
	PolicySkipLogged
	// PolicyRedownloadMissing refetches logged references whose audio file
	// is gone, and nothing else.
	PolicyRedownloadMissing
	// PolicyExit abandons the run.
	PolicyExit
)

func (p BatchPolicy) String() string {
	switch p {
	case PolicyProcessAll:
		return "process all"
	case PolicySkipLogged:
		return "skip logged"
	case PolicyRedownloadMissing:
		return "redownload missing"
	case PolicyExit:
		return "exit"
	default:
		return "none"
	}
}

// Disposition is the per-reference outcome of reconciliation.
type Disposition int

const (
	// Skip leaves the reference untouched.
	Skip Disposition = iota
	// ReuseExisting runs inference on the cached file without downloading.
	ReuseExisting
	// RedownloadMissing refetches a logged reference whose file is gone,
	// then runs inference.
	RedownloadMissing
	// DownloadNew fetches and processes a reference seen for the first time.
	DownloadNew
	// ReinferExisting reruns inference on a logged reference that still has
	// its cached file.
	ReinferExisting
)

func (d Disposition) String() string {
	switch d {
	case ReuseExisting:
		return "reuse existing"
	case RedownloadMissing:
		return "redownload missing"
	case DownloadNew:
		return "download"
	case ReinferExisting:
		return "reinfer"
	default:
		return "skip"
	}
}

// Counts summarizes a batch before processing starts.
type Counts struct {
	Total          int
	Logged         int
	Cached         int
	LoggedMissing  int
	CachedUnlogged int
	ToProcess      int
}

// Dispose maps one reference's (logged, cached) state and the batch policy to
// its disposition.
func Dispose(logged, cached bool, policy BatchPolicy) Disposition {
	switch policy {
	case PolicyProcessAll:
		switch {
		case logged && cached:
			return ReinferExisting
		case logged && !cached:
			return RedownloadMissing
		case !logged && cached:
			return ReuseExisting
		default:
			return DownloadNew
		}
	case PolicyRedownloadMissing:
		// Only logged references respond to this policy; anything not yet
		// logged is processed regardless.
		switch {
		case logged && cached:
			return Skip
		case logged && !cached:
			return RedownloadMissing
		case cached:
			return ReuseExisting
		default:
			return DownloadNew
		}
	case PolicyNone:
		switch {
		case cached:
			return ReuseExisting
		case logged:
			return RedownloadMissing
		default:
			return DownloadNew
		}
	default:
		// Skip-logged is the default for unknown values.
		switch {
		case logged:
			return Skip
		case cached:
			return ReuseExisting
		default:
			return DownloadNew
		}
	}
}

// Plan is the reconciled work list for a batch.
type Plan struct {
	Policy BatchPolicy
	// FullRerun marks a run where the user asked to reprocess everything, so
	// per-item reinfer prompts are suppressed.
	FullRerun    bool
	Counts       Counts
	Dispositions map[string]Disposition
	Order        []references.Reference
}

// Engine computes reconciliation plans.
type Engine struct {
	classes []events.Class
}

// NewEngine builds an engine that reconciles against the given event classes.
// A reference counts as logged when any class has a ledger entry for it.
func NewEngine(classes []events.Class) *Engine {
	return &Engine{classes: classes}
}

// Count tallies the batch against the ledger snapshot and asset index.
func (e *Engine) Count(refs []references.Reference, snapshot *ledger.Snapshot, index *assets.Index) Counts {
	var c Counts
	c.Total = len(refs)
	for _, ref := range refs {
		logged := e.isLogged(ref, snapshot)
		cached := e.isCached(ref, index)
		if logged {
			c.Logged++
			if !cached {
				c.LoggedMissing++
			}
		}
		if cached {
			c.Cached++
			if !logged {
				c.CachedUnlogged++
			}
		}
	}
	c.ToProcess = c.Total - c.Logged
	if c.ToProcess < 0 {
		c.ToProcess = 0
	}
	return c
}

// Plan reconciles the batch. Interactive decisions go through the provider;
// a clean exit is reported as ErrCleanExit.
func (e *Engine) Plan(ctx context.Context, refs []references.Reference, snapshot *ledger.Snapshot, index *assets.Index, provider Provider) (*Plan, error) {
	if len(refs) == 0 {
		return nil, references.ErrNoReferences
	}

	counts := e.Count(refs, snapshot, index)
	plan := &Plan{
		Counts:       counts,
		Dispositions: make(map[string]Disposition, len(refs)),
		Order:        refs,
	}

	switch {
	case counts.Logged == counts.Total && counts.LoggedMissing == 0:
		// Everything already processed and still on disk. Offer a full rerun.
		rerun, err := provider.ConfirmRerunAll(ctx, counts)
		if err != nil {
			return nil, err
		}
		if !rerun {
			return nil, ErrCleanExit
		}
		plan.Policy = PolicyProcessAll
		plan.FullRerun = true

	case counts.Logged > 0:
		policy, err := provider.ChooseBatchPolicy(ctx, counts)
		if err != nil {
			return nil, err
		}
		switch policy {
		case PolicyExit:
			return nil, ErrCleanExit
		case PolicyRedownloadMissing:
			if counts.LoggedMissing == 0 {
				return nil, ErrCleanExit
			}
		case PolicyProcessAll:
			plan.FullRerun = true
		case PolicySkipLogged:
			// Logged references are skipped under this policy, missing file
			// or not, so a batch with nothing new has nothing to do.
			if counts.ToProcess == 0 {
				return nil, ErrCleanExit
			}
		default:
			policy = PolicySkipLogged
		}
		plan.Policy = policy

	default:
		// Nothing logged, so no prompt; references pass straight through.
		plan.Policy = PolicyNone
	}

	for _, ref := range refs {
		logged := e.isLogged(ref, snapshot)
		cached := e.isCached(ref, index)
		plan.Dispositions[ref.Identifier] = Dispose(logged, cached, plan.Policy)
	}

	return plan, nil
}

func (e *Engine) isLogged(ref references.Reference, snapshot *ledger.Snapshot) bool {
	if ref.Local {
		// Local files are never logged; they are always inferred fresh.
		return false
	}
	// An entry for any class marks the reference as processed; per-class
	// gaps are what the reinfer prompt is for.
	for _, class := range e.classes {
		if snapshot.LoggedFor(ref.Identifier, class.Code) {
			return true
		}
	}
	return false
}

func (e *Engine) isCached(ref references.Reference, index *assets.Index) bool {
	if ref.Local {
		return true
	}
	return index.Cached(ref.Identifier)
}
