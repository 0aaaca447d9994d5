package reconcile

import (
	"context"
	"errors"
	"testing"

	"bdetect/internal/assets"
	"bdetect/internal/events"
	"bdetect/internal/ledger"
	"bdetect/internal/references"
)

// scriptedProvider returns canned answers and records what was asked.
type scriptedProvider struct {
	rerunAll bool
	policy   BatchPolicy

	askedRerunAll bool
	askedPolicy   bool
}

func (p *scriptedProvider) ConfirmRerunAll(context.Context, Counts) (bool, error) {
	p.askedRerunAll = true
	return p.rerunAll, nil
}

func (p *scriptedProvider) ChooseBatchPolicy(context.Context, Counts) (BatchPolicy, error) {
	p.askedPolicy = true
	return p.policy, nil
}

func (p *scriptedProvider) ConfirmReuseExisting(context.Context, string, string) (ReuseChoice, error) {
	return ReuseOnce, nil
}

func (p *scriptedProvider) ConfirmReinfer(context.Context, string, string) (RerunChoice, error) {
	return RerunNo, nil
}

func ref(id string) references.Reference {
	return references.Reference{Source: "https://www.youtube.com/watch?v=" + id, Identifier: id}
}

func fullyLogged(id string) []ledger.Entry {
	return []ledger.Entry{
		{Identifier: id, ClassCode: events.ClassFarts.Code},
		{Identifier: id, ClassCode: events.ClassBurps.Code},
	}
}

func TestDisposeCoversAllStates(t *testing.T) {
	policies := []BatchPolicy{PolicyNone, PolicyProcessAll, PolicySkipLogged, PolicyRedownloadMissing}
	states := []struct{ logged, cached bool }{
		{true, true}, {true, false}, {false, true}, {false, false},
	}
	want := map[BatchPolicy]map[[2]bool]Disposition{
		PolicyNone: {
			{true, true}: ReuseExisting, {true, false}: RedownloadMissing,
			{false, true}: ReuseExisting, {false, false}: DownloadNew,
		},
		PolicySkipLogged: {
			{true, true}: Skip, {true, false}: Skip,
			{false, true}: ReuseExisting, {false, false}: DownloadNew,
		},
		PolicyProcessAll: {
			{true, true}: ReinferExisting, {true, false}: RedownloadMissing,
			{false, true}: ReuseExisting, {false, false}: DownloadNew,
		},
		PolicyRedownloadMissing: {
			{true, true}: Skip, {true, false}: RedownloadMissing,
			{false, true}: ReuseExisting, {false, false}: DownloadNew,
		},
	}
	for _, policy := range policies {
		for _, state := range states {
			got := Dispose(state.logged, state.cached, policy)
			expect := want[policy][[2]bool{state.logged, state.cached}]
			if got != expect {
				t.Errorf("Dispose(logged=%v cached=%v, %v) = %v, want %v",
					state.logged, state.cached, policy, got, expect)
			}
		}
	}
}

func TestCount(t *testing.T) {
	engine := NewEngine(events.DefaultClasses())
	refs := []references.Reference{ref("a"), ref("b"), ref("c"), ref("d")}

	// a: logged+cached, b: logged missing, c: cached unlogged, d: new.
	snapshot := ledger.SnapshotOf(append(fullyLogged("a"), fullyLogged("b")...)...)
	index := assets.NewIndex("")
	index.Record("a", "/tmp/a.m4a")
	index.Record("c", "/tmp/c.m4a")

	counts := engine.Count(refs, snapshot, index)
	if counts.Total != 4 || counts.Logged != 2 || counts.Cached != 2 {
		t.Errorf("counts = %+v", counts)
	}
	if counts.LoggedMissing != 1 || counts.CachedUnlogged != 1 {
		t.Errorf("counts = %+v", counts)
	}
	if counts.ToProcess != 2 {
		t.Errorf("ToProcess = %d, want 2", counts.ToProcess)
	}
}

func TestSingleClassEntryCountsAsLogged(t *testing.T) {
	engine := NewEngine(events.DefaultClasses())
	refs := []references.Reference{ref("a")}
	snapshot := ledger.SnapshotOf(ledger.Entry{Identifier: "a", ClassCode: events.ClassFarts.Code})
	index := assets.NewIndex("")
	index.Record("a", "/tmp/a.m4a")

	if counts := engine.Count(refs, snapshot, index); counts.Logged != 1 {
		t.Fatalf("reference logged for one class not counted as logged: %+v", counts)
	}

	// Logged and cached means the batch is fully satisfied even when only one
	// class has an entry; declining the rerun prompt ends the run cleanly.
	provider := &scriptedProvider{rerunAll: false}
	_, err := engine.Plan(context.Background(), refs, snapshot, index, provider)
	if !errors.Is(err, ErrCleanExit) {
		t.Fatalf("err = %v, want ErrCleanExit", err)
	}
	if !provider.askedRerunAll {
		t.Error("rerun-all prompt not asked for a single-class logged batch")
	}
}

func TestPlanAllSatisfiedDeclineRerun(t *testing.T) {
	engine := NewEngine(events.DefaultClasses())
	refs := []references.Reference{ref("a"), ref("b")}
	snapshot := ledger.SnapshotOf(append(fullyLogged("a"), fullyLogged("b")...)...)
	index := assets.NewIndex("")
	index.Record("a", "/tmp/a.m4a")
	index.Record("b", "/tmp/b.m4a")

	provider := &scriptedProvider{rerunAll: false}
	_, err := engine.Plan(context.Background(), refs, snapshot, index, provider)
	if !errors.Is(err, ErrCleanExit) {
		t.Fatalf("err = %v, want ErrCleanExit", err)
	}
	if !provider.askedRerunAll {
		t.Error("rerun-all prompt not asked")
	}
	if provider.askedPolicy {
		t.Error("batch policy prompt should not be asked when all satisfied")
	}
}

func TestPlanAllSatisfiedAcceptRerun(t *testing.T) {
	engine := NewEngine(events.DefaultClasses())
	refs := []references.Reference{ref("a")}
	snapshot := ledger.SnapshotOf(fullyLogged("a")...)
	index := assets.NewIndex("")
	index.Record("a", "/tmp/a.m4a")

	plan, err := engine.Plan(context.Background(), refs, snapshot, index, &scriptedProvider{rerunAll: true})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.Policy != PolicyProcessAll || !plan.FullRerun {
		t.Errorf("plan = %+v, want full rerun", plan)
	}
	if plan.Dispositions["a"] != ReinferExisting {
		t.Errorf("disposition = %v, want reinfer", plan.Dispositions["a"])
	}
}

func TestPlanMixedBatchSkipLogged(t *testing.T) {
	engine := NewEngine(events.DefaultClasses())
	refs := []references.Reference{ref("old"), ref("new")}
	snapshot := ledger.SnapshotOf(fullyLogged("old")...)
	index := assets.NewIndex("")
	index.Record("old", "/tmp/old.m4a")

	provider := &scriptedProvider{policy: PolicySkipLogged}
	plan, err := engine.Plan(context.Background(), refs, snapshot, index, provider)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !provider.askedPolicy {
		t.Error("mixed batch must ask for a policy")
	}
	if plan.Dispositions["old"] != Skip {
		t.Errorf("old disposition = %v, want skip", plan.Dispositions["old"])
	}
	if plan.Dispositions["new"] != DownloadNew {
		t.Errorf("new disposition = %v, want download", plan.Dispositions["new"])
	}
}

func TestPlanRedownloadMissingProcessesUnlogged(t *testing.T) {
	engine := NewEngine(events.DefaultClasses())
	refs := []references.Reference{ref("old"), ref("mid"), ref("fresh")}
	// old: logged, file gone. mid: cached, never logged. fresh: brand new.
	snapshot := ledger.SnapshotOf(fullyLogged("old")...)
	index := assets.NewIndex("")
	index.Record("mid", "/tmp/mid.m4a")

	plan, err := engine.Plan(context.Background(), refs, snapshot, index, &scriptedProvider{policy: PolicyRedownloadMissing})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	want := map[string]Disposition{
		"old":   RedownloadMissing,
		"mid":   ReuseExisting,
		"fresh": DownloadNew,
	}
	for id, expect := range want {
		if got := plan.Dispositions[id]; got != expect {
			t.Errorf("disposition[%s] = %v, want %v", id, got, expect)
		}
	}
}

func TestPlanRedownloadMissingWithNoneMissing(t *testing.T) {
	engine := NewEngine(events.DefaultClasses())
	refs := []references.Reference{ref("old"), ref("new")}
	snapshot := ledger.SnapshotOf(fullyLogged("old")...)
	index := assets.NewIndex("")
	index.Record("old", "/tmp/old.m4a")

	_, err := engine.Plan(context.Background(), refs, snapshot, index, &scriptedProvider{policy: PolicyRedownloadMissing})
	if !errors.Is(err, ErrCleanExit) {
		t.Fatalf("err = %v, want ErrCleanExit", err)
	}
}

func TestPlanSkipLoggedWithNothingNew(t *testing.T) {
	engine := NewEngine(events.DefaultClasses())
	refs := []references.Reference{ref("old")}
	snapshot := ledger.SnapshotOf(fullyLogged("old")...)

	// Logged but missing its file, so the batch is not fully satisfied; the
	// policy prompt fires, but skipping logged items leaves nothing to do.
	_, err := engine.Plan(context.Background(), refs, snapshot, assets.NewIndex(""), &scriptedProvider{policy: PolicySkipLogged})
	if !errors.Is(err, ErrCleanExit) {
		t.Fatalf("err = %v, want ErrCleanExit", err)
	}
}

func TestPlanExitPolicy(t *testing.T) {
	engine := NewEngine(events.DefaultClasses())
	refs := []references.Reference{ref("old"), ref("new")}
	snapshot := ledger.SnapshotOf(fullyLogged("old")...)

	_, err := engine.Plan(context.Background(), refs, snapshot, assets.NewIndex(""), &scriptedProvider{policy: PolicyExit})
	if !errors.Is(err, ErrCleanExit) {
		t.Fatalf("err = %v, want ErrCleanExit", err)
	}
}

func TestPlanEmptyBatch(t *testing.T) {
	engine := NewEngine(events.DefaultClasses())
	_, err := engine.Plan(context.Background(), nil, ledger.SnapshotOf(), assets.NewIndex(""), DefaultProvider{})
	if !errors.Is(err, references.ErrNoReferences) {
		t.Fatalf("err = %v, want ErrNoReferences", err)
	}
}

func TestPlanFreshBatchNeedsNoPrompts(t *testing.T) {
	engine := NewEngine(events.DefaultClasses())
	refs := []references.Reference{ref("a"), ref("b")}

	provider := &scriptedProvider{}
	plan, err := engine.Plan(context.Background(), refs, ledger.SnapshotOf(), assets.NewIndex(""), provider)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if provider.askedRerunAll || provider.askedPolicy {
		t.Error("fresh batch must not prompt")
	}
	for _, r := range refs {
		if plan.Dispositions[r.Identifier] != DownloadNew {
			t.Errorf("disposition[%s] = %v, want download", r.Identifier, plan.Dispositions[r.Identifier])
		}
	}
}

func TestLocalReferencesAreAlwaysProcessed(t *testing.T) {
	engine := NewEngine(events.DefaultClasses())
	local := references.Reference{Source: "/tmp/clip.m4a", Identifier: "/tmp/clip.m4a", Local: true}

	plan, err := engine.Plan(context.Background(), []references.Reference{local}, ledger.SnapshotOf(), assets.NewIndex(""), DefaultProvider{})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.Dispositions[local.Identifier] != ReuseExisting {
		t.Errorf("local disposition = %v, want reuse existing", plan.Dispositions[local.Identifier])
	}
}

func TestRunContextStickyFlags(t *testing.T) {
	rc := NewRunContext()
	if rc.RunID == "" {
		t.Fatal("run id empty")
	}
	if rc.SkipAll() || rc.UseExistingAll() {
		t.Fatal("flags should start unset")
	}
	rc.MarkSkipAll()
	rc.MarkUseExistingAll()
	if !rc.SkipAll() || !rc.UseExistingAll() {
		t.Fatal("flags did not stick")
	}

	rc.RecordRetry("https://youtu.be/fail1")
	rc.RecordRetry("https://youtu.be/fail2")
	got := rc.Retries()
	if len(got) != 2 || got[0] != "https://youtu.be/fail1" {
		t.Errorf("retries = %v", got)
	}
}
