// Package pipeline runs the whole detection flow: source expansion,
// reconciliation against the ledger, acquisition, decoding, inference and
// durable result logging.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"bdetect/internal/acquire"
	"bdetect/internal/assets"
	"bdetect/internal/config"
	"bdetect/internal/events"
	"bdetect/internal/fetch"
	"bdetect/internal/fileutil"
	"bdetect/internal/inference"
	"bdetect/internal/ledger"
	"bdetect/internal/logging"
	"bdetect/internal/reconcile"
	"bdetect/internal/references"
)

// ErrLocked indicates another run holds the working directory lock.
var ErrLocked = errors.New("working directory is locked by another run")

// errLedgerAppend marks failures writing the ledger, which always abort the
// run: continuing would let a rerun double-process the asset.
var errLedgerAppend = errors.New("ledger append failed")

// Decoder converts a media file into normalized mono samples.
type Decoder interface {
	Decode(ctx context.Context, path string, sampleRate int) ([]float32, error)
}

// Result summarizes a completed run.
type Result struct {
	Total      int
	Processed  int
	Downloaded int
	Reused     int
	Skipped    int
	Failed     int
	Detections int
	RetryFile  string
	Elapsed    time.Duration
}

// Pipeline wires the run components together.
type Pipeline struct {
	cfg        *config.Config
	store      *ledger.Store
	fetcher    fetch.Fetcher
	decoder    Decoder
	classifier inference.Classifier
	provider   reconcile.Provider
	classes    []events.Class
	logger     *slog.Logger
	out        io.Writer
}

// New assembles a pipeline. The provider supplies interactive decisions; pass
// reconcile.DefaultProvider for unattended runs.
func New(cfg *config.Config, store *ledger.Store, fetcher fetch.Fetcher, decoder Decoder, classifier inference.Classifier, provider reconcile.Provider, classes []events.Class, logger *slog.Logger, out io.Writer) *Pipeline {
	logger = logging.NewComponentLogger(logger, "pipeline")
	return &Pipeline{
		cfg:        cfg,
		store:      store,
		fetcher:    fetcher,
		decoder:    decoder,
		classifier: classifier,
		provider:   provider,
		classes:    classes,
		logger:     logger,
		out:        out,
	}
}

// Run processes the given sources end to end. A reconciliation outcome of
// "nothing to do" is reported as reconcile.ErrCleanExit.
func (p *Pipeline) Run(ctx context.Context, sources []string) (*Result, error) {
	start := time.Now()

	lock := flock.New(p.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}
	defer func() { _ = lock.Unlock() }()

	refs, label, err := p.expand(ctx, sources)
	if err != nil {
		return nil, err
	}

	snapshot, err := p.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	index, err := assets.Scan(p.cfg.Paths.WorkDir, identifiers(refs))
	if err != nil {
		return nil, err
	}

	engine := reconcile.NewEngine(p.classes)
	plan, err := engine.Plan(ctx, refs, snapshot, index, p.provider)
	if err != nil {
		return nil, err
	}

	run := reconcile.NewRunContext()
	logger := p.logger.With(logging.String(logging.FieldRunID, run.RunID))
	logger.Info("run planned",
		"sources", len(sources),
		"references", len(refs),
		"policy", plan.Policy.String(),
		"to_process", plan.Counts.ToProcess)

	coordinator := acquire.NewCoordinator(p.fetcher, index, p.provider, run, p.fetchOptions(), logger)
	coordinator.Batch = len(refs) > 1

	result := &Result{Total: len(refs)}
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outcome, err := coordinator.Acquire(ctx, ref, plan.Dispositions[ref.Identifier], plan.FullRerun)
		if err != nil {
			return nil, err
		}
		if !outcome.Process {
			result.Skipped++
			continue
		}

		detections, err := p.process(ctx, ref, outcome, logger)
		if err != nil {
			if coordinator.Batch && !fatal(err) {
				logger.Warn("processing failed, queued for retry",
					logging.String(logging.FieldIdentifier, ref.Identifier),
					logging.Error(err))
				run.RecordRetry(ref.Source)
				result.Failed++
				continue
			}
			return nil, err
		}

		result.Processed++
		result.Detections += detections
		if outcome.Downloaded {
			result.Downloaded++
		} else {
			result.Reused++
		}
	}

	if retries := run.Retries(); len(retries) > 0 {
		result.Failed = len(retries)
		retryPath := filepath.Join(p.cfg.Paths.WorkDir, "retry-"+label+".txt")
		if err := fileutil.WriteLines(retryPath, retries); err != nil {
			logger.Warn("could not write retry file", logging.Error(err))
		} else {
			result.RetryFile = retryPath
			logger.Info("wrote retry file", "path", retryPath, "entries", len(retries))
		}
	}

	result.Elapsed = time.Since(start)
	logger.Info("run complete",
		logging.Int("processed", result.Processed),
		logging.Int("skipped", result.Skipped),
		logging.Int("failed", result.Failed),
		logging.Int("detections", result.Detections),
		logging.Duration("elapsed", result.Elapsed))
	return result, nil
}

// process decodes one asset, runs inference for every class and appends the
// ledger entries.
func (p *Pipeline) process(ctx context.Context, ref references.Reference, outcome acquire.Outcome, logger *slog.Logger) (int, error) {
	logger.Info("processing",
		logging.String(logging.FieldIdentifier, ref.Identifier),
		"title", outcome.Title)

	samples, err := p.decoder.Decode(ctx, outcome.Path, p.cfg.Detector.SampleRate)
	if err != nil {
		return 0, err
	}

	engine := inference.NewEngine(p.classifier, inference.Params{
		SampleRate: p.cfg.Detector.SampleRate,
		ChunkSize:  p.cfg.Detector.BatchSize,
		Precision:  p.cfg.Detector.Precision,
		Threshold:  p.cfg.Detector.Threshold,
	}, logger)

	results, err := engine.Analyze(ctx, samples, p.classes)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, class := range p.classes {
		detections := results[class.Code]
		p.printDetections(outcome.Title, class, detections)
		total += len(detections)

		if ref.Local {
			// Local files are inferred every run, never logged.
			continue
		}
		entry := ledger.Entry{
			Identifier:  ref.Identifier,
			ClassCode:   class.Code,
			ProcessedAt: time.Now().UTC(),
			Title:       outcome.Title,
		}
		if err := p.store.Append(ctx, entry); err != nil {
			return 0, fmt.Errorf("%w: %s: %v", errLedgerAppend, ref.Identifier, err)
		}
		logger.Debug("result recorded",
			logging.String(logging.FieldIdentifier, ref.Identifier),
			logging.String(logging.FieldEventClass, class.Name),
			logging.String(logging.FieldAsset, outcome.Path),
			logging.Int("detections", len(detections)))
	}

	return total, nil
}

func (p *Pipeline) printDetections(title string, class events.Class, detections []events.Detection) {
	if len(detections) == 0 {
		fmt.Fprintf(p.out, "No %s detected in %q.\n", class.Name, title)
		return
	}
	fmt.Fprintf(p.out, "%s in %q:\n", strings.ToUpper(class.Name[:1])+class.Name[1:], title)
	for _, d := range detections {
		fmt.Fprintf(p.out, "  %s  %d%%\n", events.FormatTimestamp(d.Timestamp), d.Confidence)
	}
}

// expand resolves every source into concrete references, deduplicated across
// sources, plus a label used for the retry file name.
func (p *Pipeline) expand(ctx context.Context, sources []string) ([]references.Reference, string, error) {
	var refs []references.Reference
	seen := make(map[string]struct{})
	label := "batch"

	add := func(batch []references.Reference) {
		for _, ref := range batch {
			if _, dup := seen[ref.Identifier]; dup {
				continue
			}
			seen[ref.Identifier] = struct{}{}
			refs = append(refs, ref)
		}
	}

	for _, source := range sources {
		switch references.Classify(source) {
		case references.KindSingle:
			add([]references.Reference{references.Single(source)})
		case references.KindLocalFile:
			ref, err := references.LocalFile(source)
			if err != nil {
				return nil, "", err
			}
			add([]references.Reference{ref})
		case references.KindListFile:
			batch, err := references.FromListFile(source)
			if err != nil {
				return nil, "", err
			}
			label = strings.TrimSuffix(filepath.Base(source), ".txt")
			add(batch)
		case references.KindPlaylist:
			urls, err := p.fetcher.ListEntries(ctx, source, p.fetchOptions())
			if err != nil {
				return nil, "", err
			}
			label = "playlist"
			add(references.FromURLs(urls))
		case references.KindAccount:
			urls, err := p.accountURLs(ctx, source)
			if err != nil {
				return nil, "", err
			}
			label = references.AccountSlug(source)
			add(references.FromURLs(urls))
		default:
			return nil, "", fmt.Errorf("%w: cannot interpret source %q", references.ErrNoReferences, source)
		}
	}

	if len(refs) == 0 {
		return nil, "", references.ErrNoReferences
	}
	return refs, label, nil
}

// accountURLs lists an account's media, preferring the cached listing from a
// previous run so reruns don't re-enumerate the whole channel.
func (p *Pipeline) accountURLs(ctx context.Context, source string) ([]string, error) {
	cachePath := references.AccountCachePath(p.cfg.Paths.WorkDir, source)
	if urls, ok, err := references.ReadAccountCache(cachePath); err != nil {
		return nil, err
	} else if ok {
		p.logger.Info("using cached account listing", "path", cachePath, "entries", len(urls))
		return urls, nil
	}

	urls, err := p.fetcher.ListEntries(ctx, source, p.fetchOptions())
	if err != nil {
		return nil, err
	}
	if err := references.WriteAccountCache(cachePath, urls); err != nil {
		p.logger.Warn("could not cache account listing", logging.Error(err))
	}
	return urls, nil
}

// fetchOptions builds the downloader options from the configuration. The same
// options feed metadata resolution, listing and downloads so cookies apply to
// all of them.
func (p *Pipeline) fetchOptions() fetch.Options {
	return fetch.Options{
		Directory:           p.cfg.Paths.WorkDir,
		Format:              p.cfg.Fetch.AudioFormat,
		CookiesFile:         p.cfg.Fetch.CookiesFile,
		ConcurrentFragments: p.cfg.Fetch.ConcurrentFragments,
	}
}

// fatal reports whether an error must abort the batch instead of being queued
// for retry. Ledger failures and cancellations are fatal.
func fatal(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, errLedgerAppend)
}

func identifiers(refs []references.Reference) []string {
	ids := make([]string, len(refs))
	for i, ref := range refs {
		ids[i] = ref.Identifier
	}
	return ids
}
