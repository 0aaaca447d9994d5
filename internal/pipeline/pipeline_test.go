package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bdetect/internal/events"
	"bdetect/internal/fetch"
	"bdetect/internal/logging"
	"bdetect/internal/pipeline"
	"bdetect/internal/reconcile"
	"bdetect/internal/references"
	"bdetect/internal/testsupport"
)

// fakeFetcher materializes downloads as small files in the work directory.
type fakeFetcher struct {
	entries   map[string][]string
	failURLs  map[string]bool
	downloads int
}

func (f *fakeFetcher) ResolveMetadata(_ context.Context, url string, _ fetch.Options) (fetch.Metadata, error) {
	if f.failURLs[url] {
		return fetch.Metadata{}, errors.New("resolve failed")
	}
	id := references.Identifier(url)
	return fetch.Metadata{ID: id, Title: "title " + id, URL: url}, nil
}

func (f *fakeFetcher) Download(_ context.Context, url string, opts fetch.Options) error {
	if f.failURLs[url] {
		return errors.New("download failed")
	}
	f.downloads++
	id := references.Identifier(url)
	return os.WriteFile(filepath.Join(opts.Directory, "clip ["+id+"].m4a"), []byte("audio"), 0o644)
}

func (f *fakeFetcher) ListEntries(_ context.Context, url string, _ fetch.Options) ([]string, error) {
	urls, ok := f.entries[url]
	if !ok {
		return nil, errors.New("no listing")
	}
	return urls, nil
}

// fakeDecoder emits a fixed number of samples regardless of the file.
type fakeDecoder struct {
	samples int
}

func (d *fakeDecoder) Decode(context.Context, string, int) ([]float32, error) {
	return make([]float32, d.samples), nil
}

// fakeClassifier flags one confident event per chunk for the farts class.
type fakeClassifier struct {
	calls int
}

func (c *fakeClassifier) Infer([]float32) ([][]float32, error) {
	c.calls++
	row := make([]float32, 64)
	row[events.ClassFarts.Code] = 0.95
	return [][]float32{row}, nil
}

func (c *fakeClassifier) Close() error { return nil }

type fixture struct {
	pipeline   *pipeline.Pipeline
	fetcher    *fakeFetcher
	classifier *fakeClassifier
	out        *strings.Builder
	workDir    string
}

func newFixture(t *testing.T, provider reconcile.Provider) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithDetectorParams(10, 100, 100, 50))
	store := testsupport.MustOpenLedger(t, cfg)

	fetcher := &fakeFetcher{entries: map[string][]string{}, failURLs: map[string]bool{}}
	classifier := &fakeClassifier{}
	out := &strings.Builder{}

	p := pipeline.New(cfg, store, fetcher, &fakeDecoder{samples: 100}, classifier,
		provider, events.DefaultClasses(), logging.NewNop(), out)

	return &fixture{pipeline: p, fetcher: fetcher, classifier: classifier, out: out, workDir: cfg.Paths.WorkDir}
}

func watch(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func TestRunProcessesFreshBatch(t *testing.T) {
	fx := newFixture(t, reconcile.DefaultProvider{})
	sources := []string{watch("aaa111"), watch("bbb222")}

	result, err := fx.pipeline.Run(context.Background(), sources)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Total != 2 || result.Processed != 2 || result.Skipped != 0 {
		t.Errorf("result = %+v", result)
	}
	if result.Detections != 2 {
		t.Errorf("detections = %d, want 2", result.Detections)
	}
	if result.Downloaded != 2 || result.Reused != 0 {
		t.Errorf("downloaded/reused = %d/%d, want 2/0", result.Downloaded, result.Reused)
	}
	if fx.fetcher.downloads != 2 {
		t.Errorf("downloads = %d, want 2", fx.fetcher.downloads)
	}
	if !strings.Contains(fx.out.String(), "Farts in") {
		t.Errorf("output missing detections:\n%s", fx.out.String())
	}
}

func TestRunIsIdempotent(t *testing.T) {
	fx := newFixture(t, reconcile.DefaultProvider{})
	sources := []string{watch("aaa111"), watch("bbb222")}

	if _, err := fx.pipeline.Run(context.Background(), sources); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Second run: everything logged and cached, default provider declines the
	// full rerun, so the run cleanly exits with nothing to do.
	_, err := fx.pipeline.Run(context.Background(), sources)
	if !errors.Is(err, reconcile.ErrCleanExit) {
		t.Fatalf("second run err = %v, want ErrCleanExit", err)
	}
	if fx.fetcher.downloads != 2 {
		t.Errorf("second run downloaded again: %d", fx.fetcher.downloads)
	}
}

func TestRunSkipsLoggedProcessesNew(t *testing.T) {
	fx := newFixture(t, reconcile.DefaultProvider{})

	if _, err := fx.pipeline.Run(context.Background(), []string{watch("aaa111")}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	result, err := fx.pipeline.Run(context.Background(), []string{watch("aaa111"), watch("ccc333")})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.Processed != 1 || result.Skipped != 1 {
		t.Errorf("result = %+v, want 1 processed 1 skipped", result)
	}
	if fx.fetcher.downloads != 2 {
		t.Errorf("downloads = %d, want 2 in total", fx.fetcher.downloads)
	}
}

func TestRunListFileWithFailuresWritesRetryFile(t *testing.T) {
	fx := newFixture(t, reconcile.DefaultProvider{})
	fx.fetcher.failURLs[watch("bad999")] = true

	list := filepath.Join(t.TempDir(), "mylist.txt")
	content := watch("aaa111") + "\n" + watch("bad999") + "\n"
	if err := os.WriteFile(list, []byte(content), 0o644); err != nil {
		t.Fatalf("write list: %v", err)
	}

	result, err := fx.pipeline.Run(context.Background(), []string{list})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Processed != 1 || result.Failed != 1 {
		t.Errorf("result = %+v", result)
	}
	if result.RetryFile == "" {
		t.Fatal("no retry file written")
	}
	if filepath.Base(result.RetryFile) != "retry-mylist.txt" {
		t.Errorf("retry file = %q", result.RetryFile)
	}
	data, err := os.ReadFile(result.RetryFile)
	if err != nil {
		t.Fatalf("read retry file: %v", err)
	}
	if !strings.Contains(string(data), "bad999") {
		t.Errorf("retry file content = %q", data)
	}
}

func TestRunAccountListingIsCached(t *testing.T) {
	fx := newFixture(t, reconcile.DefaultProvider{})
	account := "https://www.youtube.com/@creator"
	fx.fetcher.entries[account] = []string{watch("aaa111")}

	if _, err := fx.pipeline.Run(context.Background(), []string{account}); err != nil {
		t.Fatalf("run: %v", err)
	}

	cache := filepath.Join(fx.workDir, "urls-creator.txt")
	if _, err := os.Stat(cache); err != nil {
		t.Fatalf("account cache not written: %v", err)
	}

	// Remove the listing; the cache must satisfy the second run's expansion.
	delete(fx.fetcher.entries, account)
	if _, err := fx.pipeline.Run(context.Background(), []string{account}); !errors.Is(err, reconcile.ErrCleanExit) {
		t.Fatalf("cached rerun err = %v, want ErrCleanExit", err)
	}
}

func TestRunLocalFileNeverLogged(t *testing.T) {
	fx := newFixture(t, reconcile.DefaultProvider{})

	local := testsupport.WriteAsset(t, t.TempDir(), "clip.m4a")

	for i := 0; i < 2; i++ {
		result, err := fx.pipeline.Run(context.Background(), []string{local})
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if result.Processed != 1 || result.Reused != 1 {
			t.Errorf("run %d result = %+v, want 1 processed via reuse", i, result)
		}
	}
	if fx.fetcher.downloads != 0 {
		t.Errorf("local file triggered downloads: %d", fx.fetcher.downloads)
	}
}

func TestRunUnknownSource(t *testing.T) {
	fx := newFixture(t, reconcile.DefaultProvider{})
	if _, err := fx.pipeline.Run(context.Background(), []string{"/no/such/file.m4a"}); !errors.Is(err, references.ErrNoReferences) {
		t.Fatalf("err = %v, want ErrNoReferences", err)
	}
}
