package question

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNormalizeChoice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"A", "A"},
		{"a", "A"},
		{"BA", "AB"},
		{"b, a", "AB"},
		{"A B D", "ABD"},
		{"", ""},
		{"  c  ", "C"},
	}
	for _, tt := range tests {
		if got := NormalizeChoice(tt.in); got != tt.want {
			t.Errorf("NormalizeChoice(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
		got  string
		ok   bool
	}{
		{KindSingle, "A", "A", true},
		{KindSingle, "A", "a", true},
		{KindSingle, "A", "B", false},
		{KindMulti, "ABD", "ABD", true},
		{KindMulti, "ABD", "DBA", true},
		{KindMulti, "ABD", "AB", false},
		{KindMulti, "ABD", "ABCD", false},
		{KindSubjective, "anything", "whatever", false},
	}
	for _, tt := range tests {
		if got := Grade(tt.kind, tt.want, tt.got); got != tt.ok {
			t.Errorf("Grade(%s, %q, %q) = %v, want %v", tt.kind, tt.want, tt.got, got, tt.ok)
		}
	}
}

func TestSampleBundleLoads(t *testing.T) {
	b, err := SampleBundle()
	if err != nil {
		t.Fatalf("SampleBundle: %v", err)
	}
	if b.Source == "" || len(b.Questions) == 0 {
		t.Fatal("sample bundle must carry a source and questions")
	}
	for _, q := range b.Questions {
		if q.ID == "" || q.Kind == "" {
			t.Errorf("question missing id or kind: %+v", q)
		}
	}
}

func TestLoadBundleRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{"},
		{"missing questions", `{"name":"x","source":"s"}`},
		{"bad kind", `{"name":"x","source":"s","questions":[{"id":"q","kind":"essay","stem":"?","answer":"a"}]}`},
		{"missing id", `{"name":"x","source":"s","questions":[{"kind":"single","stem":"?","answer":"a"}]}`},
	}
	for _, tt := range tests {
		if _, err := LoadBundle([]byte(tt.data)); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestPreloadedSkeletonFilter(t *testing.T) {
	b, err := SampleBundle()
	if err != nil {
		t.Fatal(err)
	}
	p := NewPreloaded(b)
	ctx := context.Background()

	all, err := p.ListSkeleton(ctx, "", "")
	if err != nil {
		t.Fatal(err)
	}
	cardio, err := p.ListSkeleton(ctx, "cardiology", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(cardio.Entries) == 0 || len(cardio.Entries) >= len(all.Entries) {
		t.Errorf("category filter: %d of %d entries", len(cardio.Entries), len(all.Entries))
	}
	for i, e := range cardio.Entries {
		if e.Index != i+1 {
			t.Errorf("entry %d has index %d, want %d", i, e.Index, i+1)
		}
		d, err := p.ResolveDetail(ctx, e.ID)
		if err != nil {
			t.Fatalf("ResolveDetail %s: %v", e.ID, err)
		}
		if !strings.HasPrefix(d.Category, "cardiology") {
			t.Errorf("entry %s category %q escapes filter", e.ID, d.Category)
		}
	}

	// A partial path segment is not a match: "cardio" must not swallow
	// "cardiology/...".
	partial, err := p.ListSkeleton(ctx, "cardio", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(partial.Entries) != 0 {
		t.Errorf("partial segment matched %d entries, want 0", len(partial.Entries))
	}
}

func TestCategoryMatches(t *testing.T) {
	cases := []struct {
		category, selected string
		want               bool
	}{
		{"cardiology/arrhythmia", "", true},
		{"cardiology/arrhythmia", "cardiology", true},
		{"cardiology/arrhythmia", "cardiology/arrhythmia", true},
		{"cardiology/arrhythmia", "cardio", false},
		{"cardiology/arrhythmia", "cardiology/arr", false},
		{"cardiology", "cardiology", true},
	}
	for _, c := range cases {
		if got := CategoryMatches(c.category, c.selected); got != c.want {
			t.Errorf("CategoryMatches(%q, %q) = %v, want %v", c.category, c.selected, got, c.want)
		}
	}
}

func TestPreloadedResolvesGroupChildren(t *testing.T) {
	b, err := SampleBundle()
	if err != nil {
		t.Fatal(err)
	}
	p := NewPreloaded(b)
	ctx := context.Background()

	var child string
	for _, q := range b.Questions {
		if q.Kind == KindGroup && len(q.Children) > 0 {
			child = q.Children[0].ID
			break
		}
	}
	if child == "" {
		t.Skip("sample bundle has no group question")
	}
	if _, err := p.ResolveDetail(ctx, child); err != nil {
		t.Errorf("group child must resolve by ID: %v", err)
	}
}

func TestPreloadedResolveUnknown(t *testing.T) {
	b, _ := SampleBundle()
	p := NewPreloaded(b)
	if _, err := p.ResolveDetail(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestPreloadedSubmitGradesLocally(t *testing.T) {
	b, _ := SampleBundle()
	p := NewPreloaded(b)
	ctx := context.Background()

	var q *Detail
	for i := range b.Questions {
		if b.Questions[i].Kind == KindSingle {
			q = &b.Questions[i]
			break
		}
	}
	if q == nil {
		t.Fatal("sample bundle has no single-choice question")
	}

	res, err := p.Submit(ctx, q.ID, q.Answer)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Correct || res.CorrectAnswer != q.Answer {
		t.Errorf("correct answer graded as %+v", res)
	}

	res, err = p.Submit(ctx, q.ID, "Z")
	if err != nil {
		t.Fatal(err)
	}
	if res.Correct {
		t.Error("wrong answer graded as correct")
	}
}
