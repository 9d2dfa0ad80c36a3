package app

import (
	"context"
	"sort"
	"strings"

	"github.com/hahahahacnm/medbank/internal/catalog"
	"github.com/hahahahacnm/medbank/internal/question"
)

// BundleFetcher derives a two-level catalog from a bundle's category paths
// so offline practice browses the same way the remote catalog does.
type BundleFetcher struct {
	bundle *question.Bundle
}

var _ catalog.Fetcher = (*BundleFetcher)(nil)

// NewBundleFetcher creates a fetcher over the bundle.
func NewBundleFetcher(b *question.Bundle) *BundleFetcher {
	return &BundleFetcher{bundle: b}
}

// ChildNodes lists subjects at the root and chapters below a subject.
func (f *BundleFetcher) ChildNodes(_ context.Context, _ string, parentID string) ([]catalog.Node, error) {
	if parentID == "" {
		return f.subjects(), nil
	}
	return f.chapters(parentID), nil
}

func (f *BundleFetcher) subjects() []catalog.Node {
	counts := make(map[string]int)
	for i := range f.bundle.Questions {
		subject, _, _ := strings.Cut(f.bundle.Questions[i].Category, "/")
		if subject != "" {
			counts[subject]++
		}
	}

	names := make([]string, 0, len(counts))
	for s := range counts {
		names = append(names, s)
	}
	sort.Strings(names)

	nodes := make([]catalog.Node, 0, len(names))
	for _, s := range names {
		nodes = append(nodes, catalog.Node{
			ID:    s,
			Name:  displayName(s),
			Path:  s,
			Level: 0,
			Total: counts[s],
		})
	}
	return nodes
}

func (f *BundleFetcher) chapters(subject string) []catalog.Node {
	counts := make(map[string]int)
	for i := range f.bundle.Questions {
		cat := f.bundle.Questions[i].Category
		s, chapter, ok := strings.Cut(cat, "/")
		if !ok || s != subject {
			continue
		}
		counts[chapter]++
	}

	names := make([]string, 0, len(counts))
	for c := range counts {
		names = append(names, c)
	}
	sort.Strings(names)

	nodes := make([]catalog.Node, 0, len(names))
	for _, c := range names {
		nodes = append(nodes, catalog.Node{
			ID:    subject + "/" + c,
			Name:  displayName(c),
			Path:  subject + "/" + c,
			Leaf:  true,
			Level: 1,
			Count: counts[c],
		})
	}
	return nodes
}

func displayName(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
