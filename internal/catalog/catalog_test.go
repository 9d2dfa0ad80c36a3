package catalog

import (
	"context"
	"errors"
	"testing"
)

// fakeFetcher serves a fixed two-level tree and counts fetches per parent.
type fakeFetcher struct {
	children map[string][]Node
	calls    map[string]int
	failOn   map[string]bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		children: map[string][]Node{
			"": {
				{ID: "cardio", Name: "Cardiology", Path: "cardio", Level: 0, Done: 1, Total: 5},
				{ID: "pharm", Name: "Pharmacology", Path: "pharm", Level: 0, Total: 3},
			},
			"cardio": {
				{ID: "cardio/arr", Name: "Arrhythmia", Path: "cardio/arr", Leaf: true, Level: 1, Count: 3},
				{ID: "cardio/hf", Name: "Heart Failure", Path: "cardio/hf", Leaf: true, Level: 1, Count: 2},
			},
			"pharm": {
				{ID: "pharm/abx", Name: "Antibiotics", Path: "pharm/abx", Leaf: true, Level: 1, Count: 3},
			},
		},
		calls:  map[string]int{},
		failOn: map[string]bool{},
	}
}

func (f *fakeFetcher) ChildNodes(_ context.Context, _ string, parentID string) ([]Node, error) {
	f.calls[parentID]++
	if f.failOn[parentID] {
		return nil, errors.New("backend unavailable")
	}
	return f.children[parentID], nil
}

type fakeProgress struct {
	done map[string]int
}

func (f *fakeProgress) DoneCount(_ context.Context, _ string, category string) (int, error) {
	return f.done[category], nil
}

func TestToggleFetchesOncePerNode(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher()
	tree := New(f, nil, "bank-a")

	if err := tree.LoadRoot(ctx); err != nil {
		t.Fatalf("LoadRoot: %v", err)
	}

	// Expand, collapse, expand again: one fetch total.
	for _, step := range []string{"expand", "collapse", "expand"} {
		if err := tree.Toggle(ctx, "cardio"); err != nil {
			t.Fatalf("Toggle (%s): %v", step, err)
		}
	}
	if got := f.calls["cardio"]; got != 1 {
		t.Errorf("cardio fetched %d times, want 1", got)
	}
	if !tree.IsExpanded("cardio") {
		t.Error("cardio should be expanded after expand-collapse-expand")
	}
}

func TestToggleLeafIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher()
	tree := New(f, nil, "bank-a")
	if err := tree.LoadRoot(ctx); err != nil {
		t.Fatalf("LoadRoot: %v", err)
	}
	if err := tree.Expand(ctx, "cardio"); err != nil {
		t.Fatalf("Expand: %v", err)
	}

	if err := tree.Toggle(ctx, "cardio/arr"); err != nil {
		t.Errorf("Toggle on leaf: %v", err)
	}
	if tree.IsExpanded("cardio/arr") {
		t.Error("leaf must never be expanded")
	}
	if f.calls["cardio/arr"] != 0 {
		t.Error("leaf toggle must not fetch")
	}
}

func TestFailedExpandLeavesNodeRetryable(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher()
	f.failOn["cardio"] = true
	tree := New(f, nil, "bank-a")
	if err := tree.LoadRoot(ctx); err != nil {
		t.Fatalf("LoadRoot: %v", err)
	}

	if err := tree.Toggle(ctx, "cardio"); err == nil {
		t.Fatal("expected expand error")
	}
	if tree.IsExpanded("cardio") || tree.HasFetched("cardio") {
		t.Error("failed expand must leave node collapsed and unfetched")
	}

	// The rest of the tree is untouched and the node can be retried.
	f.failOn["cardio"] = false
	if err := tree.Toggle(ctx, "cardio"); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if len(tree.Children("cardio")) != 2 {
		t.Errorf("got %d children after retry, want 2", len(tree.Children("cardio")))
	}
}

func TestSetSourceInvalidatesEverything(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher()
	tree := New(f, nil, "bank-a")
	if err := tree.LoadRoot(ctx); err != nil {
		t.Fatalf("LoadRoot: %v", err)
	}
	if err := tree.Expand(ctx, "cardio"); err != nil {
		t.Fatalf("Expand: %v", err)
	}

	if err := tree.SetSource(ctx, "bank-b"); err != nil {
		t.Fatalf("SetSource: %v", err)
	}
	if tree.Source() != "bank-b" {
		t.Errorf("source = %q, want bank-b", tree.Source())
	}
	if tree.IsExpanded("cardio") || tree.HasFetched("cardio") {
		t.Error("expansion state must not survive a source switch")
	}
	if f.calls[""] != 2 {
		t.Errorf("root fetched %d times, want 2", f.calls[""])
	}

	// A second LoadRoot on the fresh tree is a no-op.
	if err := tree.LoadRoot(ctx); err != nil {
		t.Fatalf("LoadRoot: %v", err)
	}
	if f.calls[""] != 2 {
		t.Error("LoadRoot must be idempotent after SetSource")
	}
}

func TestVisibleHonorsExpansion(t *testing.T) {
	ctx := context.Background()
	tree := New(newFakeFetcher(), nil, "bank-a")
	if err := tree.LoadRoot(ctx); err != nil {
		t.Fatalf("LoadRoot: %v", err)
	}

	ids := func() []string {
		var out []string
		for _, n := range tree.Visible() {
			out = append(out, n.ID)
		}
		return out
	}

	want := []string{"cardio", "pharm"}
	if got := ids(); !equal(got, want) {
		t.Errorf("collapsed: got %v, want %v", got, want)
	}

	if err := tree.Expand(ctx, "cardio"); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	want = []string{"cardio", "cardio/arr", "cardio/hf", "pharm"}
	if got := ids(); !equal(got, want) {
		t.Errorf("expanded: got %v, want %v", got, want)
	}
}

func TestProgressAggregation(t *testing.T) {
	ctx := context.Background()
	prog := &fakeProgress{done: map[string]int{"cardio/arr": 2, "cardio/hf": 1}}
	tree := New(newFakeFetcher(), prog, "bank-a")
	if err := tree.LoadRoot(ctx); err != nil {
		t.Fatalf("LoadRoot: %v", err)
	}

	// Before fetching children the server pair is used.
	done, total := tree.Progress("cardio")
	if done != 1 || total != 5 {
		t.Errorf("unfetched branch progress = %d/%d, want 1/5", done, total)
	}

	if err := tree.Expand(ctx, "cardio"); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	done, total = tree.Progress("cardio")
	if done != 3 || total != 5 {
		t.Errorf("fetched branch progress = %d/%d, want 3/5", done, total)
	}

	done, total = tree.Progress("cardio/arr")
	if done != 2 || total != 3 {
		t.Errorf("leaf progress = %d/%d, want 2/3", done, total)
	}
}

func TestRefreshDone(t *testing.T) {
	ctx := context.Background()
	prog := &fakeProgress{done: map[string]int{"cardio/arr": 0}}
	tree := New(newFakeFetcher(), prog, "bank-a")
	if err := tree.LoadRoot(ctx); err != nil {
		t.Fatalf("LoadRoot: %v", err)
	}
	if err := tree.Expand(ctx, "cardio"); err != nil {
		t.Fatalf("Expand: %v", err)
	}

	prog.done["cardio/arr"] = 3
	tree.RefreshDone(ctx)

	if done, _ := tree.Progress("cardio/arr"); done != 3 {
		t.Errorf("done after refresh = %d, want 3", done)
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
