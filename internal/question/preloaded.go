package question

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/bundle.schema.json
var bundleSchemaJSON []byte

//go:embed data/sample_bundle.json
var sampleBundleJSON []byte

// compiledBundleSchema caches the compiled bundle schema.
var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// Bundle is a self-contained set of questions shipped with the binary or
// loaded from disk, used by the preloaded source and the fixture server.
type Bundle struct {
	Name      string   `json:"name"`
	Source    string   `json:"source"` // bank identifier
	Questions []Detail `json:"questions"`
}

// LoadBundle validates raw JSON against the bundle schema and decodes it.
func LoadBundle(data []byte) (*Bundle, error) {
	sch, err := bundleSchema()
	if err != nil {
		return nil, fmt.Errorf("compile bundle schema: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse bundle: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return nil, fmt.Errorf("validate bundle: %w", err)
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return &b, nil
}

// SampleBundle returns the bundle embedded in the binary.
func SampleBundle() (*Bundle, error) {
	return LoadBundle(sampleBundleJSON)
}

func bundleSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(bundleSchemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://bundle.schema.json", doc); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile("schema://bundle.schema.json")
	})
	return compiledSchema, schemaErr
}

// Preloaded serves skeleton and detail from an already materialized bundle.
// ResolveDetail returns synchronously held records; Submit grades locally
// against the bundled answers. It exists so the session controller works
// over statically embedded content without a backend.
type Preloaded struct {
	bundle *Bundle
	byID   map[string]*Detail
}

var (
	_ Source = (*Preloaded)(nil)
	_ Grader = (*Preloaded)(nil)
)

// NewPreloaded indexes the bundle, including group children, for
// resolution by entry ID.
func NewPreloaded(b *Bundle) *Preloaded {
	byID := make(map[string]*Detail, len(b.Questions))
	var index func(qs []Detail)
	index = func(qs []Detail) {
		for i := range qs {
			byID[qs[i].ID] = &qs[i]
			index(qs[i].Children)
		}
	}
	index(b.Questions)
	return &Preloaded{bundle: b, byID: byID}
}

// ListSkeleton returns entries for the given category, or the whole bundle
// when category is empty. Group questions count as one entry.
func (p *Preloaded) ListSkeleton(_ context.Context, category, _ string) (SkeletonList, error) {
	var list SkeletonList
	for i := range p.bundle.Questions {
		q := &p.bundle.Questions[i]
		if !CategoryMatches(q.Category, category) {
			continue
		}
		list.Entries = append(list.Entries, SkeletonEntry{
			ID:    q.ID,
			Index: len(list.Entries) + 1,
		})
	}
	return list, nil
}

func (p *Preloaded) ResolveDetail(_ context.Context, entryID string) (*Detail, error) {
	d, ok := p.byID[entryID]
	if !ok {
		return nil, fmt.Errorf("question %s: %w", entryID, ErrNotFound)
	}
	cp := *d
	return &cp, nil
}

// Submit grades the answer against the bundled correct answer.
func (p *Preloaded) Submit(_ context.Context, questionID, answer string) (SubmitResult, error) {
	d, ok := p.byID[questionID]
	if !ok {
		return SubmitResult{}, fmt.Errorf("question %s: %w", questionID, ErrNotFound)
	}
	return SubmitResult{
		Correct:       Grade(d.Kind, d.Answer, answer),
		CorrectAnswer: d.Answer,
		Analysis:      d.Analysis,
	}, nil
}

// Reset is a no-op: preloaded content records nothing server-side.
func (p *Preloaded) Reset(_ context.Context, _ string) error {
	return nil
}

// Grade compares a submitted answer against the reference answer for the
// given kind. Choice answers are compared as normalized label sets, so
// "BA" and "A,B" both match "AB". Subjective answers are never graded here.
func Grade(kind Kind, want, got string) bool {
	switch kind {
	case KindSingle, KindMulti:
		return NormalizeChoice(got) == NormalizeChoice(want)
	default:
		return strings.TrimSpace(got) == strings.TrimSpace(want)
	}
}

// NormalizeChoice uppercases, strips separators, and sorts option labels.
func NormalizeChoice(s string) string {
	var labels []string
	for _, r := range strings.ToUpper(s) {
		if r >= 'A' && r <= 'Z' {
			labels = append(labels, string(r))
		}
	}
	sort.Strings(labels)
	return strings.Join(labels, "")
}
