// Package acquire turns reconciliation dispositions into on-disk audio files,
// downloading, reusing or skipping as decided.
package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"bdetect/internal/assets"
	"bdetect/internal/fetch"
	"bdetect/internal/fileutil"
	"bdetect/internal/reconcile"
	"bdetect/internal/references"
)

// Outcome is the result of acquiring one reference.
type Outcome struct {
	// Path is the audio file to run inference on. Empty when skipped.
	Path string
	// Title is the resolved media title, used for ledger entries and logs.
	Title string
	// Process is false when the reference should be skipped.
	Process bool
	// Downloaded marks outcomes that fetched the file this run, as opposed to
	// reusing a cached one.
	Downloaded bool
}

// Coordinator acquires audio for references according to a reconciliation plan.
type Coordinator struct {
	fetcher  fetch.Fetcher
	index    *assets.Index
	provider reconcile.Provider
	run      *reconcile.RunContext
	logger   *slog.Logger

	// Directory is where downloads land and cached files live.
	Directory string
	// Batch marks multi-reference runs: fetch failures are queued for retry
	// instead of aborting.
	Batch bool

	fetchOpts fetch.Options
}

// NewCoordinator wires an acquisition coordinator.
func NewCoordinator(fetcher fetch.Fetcher, index *assets.Index, provider reconcile.Provider, run *reconcile.RunContext, opts fetch.Options, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		fetcher:   fetcher,
		index:     index,
		provider:  provider,
		run:       run,
		logger:    logger,
		Directory: opts.Directory,
		fetchOpts: opts,
	}
}

// Acquire resolves one reference into a processable audio file. A false
// Process with a nil error means the reference is skipped; in batch mode fetch
// failures are recorded for retry and also reported as skips.
func (c *Coordinator) Acquire(ctx context.Context, ref references.Reference, disposition reconcile.Disposition, fullRerun bool) (Outcome, error) {
	if ref.Local {
		title := strings.TrimSuffix(filepath.Base(ref.Source), filepath.Ext(ref.Source))
		return Outcome{Path: ref.Source, Title: title, Process: true}, nil
	}

	if disposition == reconcile.Skip {
		c.logger.Debug("skipping reference", "identifier", ref.Identifier)
		return Outcome{}, nil
	}

	meta, err := c.fetcher.ResolveMetadata(ctx, ref.Source, c.fetchOpts)
	if err != nil {
		return c.fetchFailure(ref, err)
	}
	title := meta.Title

	switch disposition {
	case reconcile.ReuseExisting:
		path := c.index.Path(ref.Identifier)
		if path == "" || !fileutil.Exists(path) {
			// Index went stale between scan and acquire. Fall through to a
			// fresh download.
			c.index.Invalidate(ref.Identifier)
			return c.download(ctx, ref, title)
		}
		if c.run.UseExistingAll() {
			return Outcome{Path: path, Title: title, Process: true}, nil
		}
		choice, err := c.provider.ConfirmReuseExisting(ctx, ref.Identifier, title)
		if err != nil {
			return Outcome{}, err
		}
		switch choice {
		case reconcile.ReuseAll:
			c.run.MarkUseExistingAll()
			fallthrough
		case reconcile.ReuseOnce:
			return Outcome{Path: path, Title: title, Process: true}, nil
		default:
			if err := c.index.Remove(ref.Identifier); err != nil {
				return Outcome{}, err
			}
			return c.download(ctx, ref, title)
		}

	case reconcile.ReinferExisting:
		if !fullRerun {
			if c.run.SkipAll() {
				return Outcome{}, nil
			}
			choice, err := c.provider.ConfirmReinfer(ctx, ref.Identifier, title)
			if err != nil {
				return Outcome{}, err
			}
			switch choice {
			case reconcile.RerunSkipAll:
				c.run.MarkSkipAll()
				return Outcome{}, nil
			case reconcile.RerunNo:
				return Outcome{}, nil
			}
		}
		path := c.index.Path(ref.Identifier)
		if path == "" || !fileutil.Exists(path) {
			c.index.Invalidate(ref.Identifier)
			return c.download(ctx, ref, title)
		}
		return Outcome{Path: path, Title: title, Process: true}, nil

	case reconcile.RedownloadMissing, reconcile.DownloadNew:
		return c.download(ctx, ref, title)

	default:
		return Outcome{}, nil
	}
}

func (c *Coordinator) download(ctx context.Context, ref references.Reference, title string) (Outcome, error) {
	if err := c.fetcher.Download(ctx, ref.Source, c.fetchOpts); err != nil {
		return c.fetchFailure(ref, err)
	}

	path, err := assets.Find(c.Directory, ref.Identifier)
	if err != nil {
		return Outcome{}, err
	}
	if path == "" {
		return c.fetchFailure(ref, fmt.Errorf("downloaded file for %s not found in %s", ref.Identifier, c.Directory))
	}

	c.index.Record(ref.Identifier, path)
	c.logger.Info("audio ready", "identifier", ref.Identifier, "path", path)
	return Outcome{Path: path, Title: title, Process: true, Downloaded: true}, nil
}

// fetchFailure queues the reference for retry in batch mode, or surfaces the
// error for single-reference runs.
func (c *Coordinator) fetchFailure(ref references.Reference, err error) (Outcome, error) {
	if c.Batch {
		c.logger.Warn("fetch failed, queued for retry", "identifier", ref.Identifier, "error", err)
		c.run.RecordRetry(ref.Source)
		return Outcome{}, nil
	}
	return Outcome{}, err
}
