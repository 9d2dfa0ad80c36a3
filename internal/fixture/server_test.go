package fixture

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hahahahacnm/medbank/internal/api"
	"github.com/hahahahacnm/medbank/internal/question"
)

// newTestClient serves the sample bundle and returns a client against it.
func newTestClient(t *testing.T) (*api.Client, *question.Bundle) {
	t.Helper()
	bundle, err := question.SampleBundle()
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(bundle).Handler())
	t.Cleanup(srv.Close)

	return api.New(api.Config{BaseURL: srv.URL}), bundle
}

func TestTreeLevels(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t)

	roots, err := c.ChildNodes(ctx, "sample", "")
	require.NoError(t, err)
	require.NotEmpty(t, roots)
	for _, n := range roots {
		assert.False(t, n.Leaf, "root nodes are subjects")
		assert.Positive(t, n.Total)
	}

	children, err := c.ChildNodes(ctx, "sample", roots[0].ID)
	require.NoError(t, err)
	require.NotEmpty(t, children)
	for _, n := range children {
		assert.True(t, n.Leaf, "second level nodes are chapters")
		assert.Positive(t, n.Count)
	}
}

func TestSubmitRecordsMistake(t *testing.T) {
	ctx := context.Background()
	c, bundle := newTestClient(t)

	var q *question.Detail
	for i := range bundle.Questions {
		if bundle.Questions[i].Kind == question.KindSingle {
			q = &bundle.Questions[i]
			break
		}
	}
	require.NotNil(t, q)

	// A wrong answer lands the question in the mistake book with a count.
	res, err := c.Submit(ctx, q.ID, "Z")
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, q.Answer, res.CorrectAnswer)
	assert.NotEmpty(t, res.ReceiptID, "every recorded submission gets a receipt")

	list, err := c.ListSkeleton(ctx, question.MistakeCategory, "sample")
	require.NoError(t, err)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, q.ID, list.Entries[0].ID)
	require.NotNil(t, list.Entries[0].WrongCount)
	assert.Equal(t, 1, *list.Entries[0].WrongCount)

	// A second wrong answer bumps the recurrence count.
	_, err = c.Submit(ctx, q.ID, "Z")
	require.NoError(t, err)
	list, err = c.ListSkeleton(ctx, question.MistakeCategory, "sample")
	require.NoError(t, err)
	assert.Equal(t, 2, *list.Entries[0].WrongCount)
}

func TestResetClearsAnswerNotCount(t *testing.T) {
	ctx := context.Background()
	c, bundle := newTestClient(t)
	q := &bundle.Questions[0]

	_, err := c.Submit(ctx, q.ID, "Z")
	require.NoError(t, err)
	require.NoError(t, c.Reset(ctx, q.ID))

	list, err := c.ListSkeleton(ctx, q.Category, "sample")
	require.NoError(t, err)
	for _, e := range list.Entries {
		if e.ID == q.ID {
			assert.Equal(t, question.StatusUnfilled, e.Status, "reset must clear the recorded answer")
			require.NotNil(t, e.WrongCount)
			assert.Equal(t, 1, *e.WrongCount, "reset must keep the recurrence count")
		}
	}
}

func TestRemoveMistake(t *testing.T) {
	ctx := context.Background()
	c, bundle := newTestClient(t)
	q := &bundle.Questions[0]

	// Removing a question that is not in the book is a 404.
	err := c.RemoveMistake(ctx, q.ID)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)

	_, err = c.Submit(ctx, q.ID, "Z")
	require.NoError(t, err)
	require.NoError(t, c.RemoveMistake(ctx, q.ID))

	list, err := c.ListSkeleton(ctx, question.MistakeCategory, "sample")
	require.NoError(t, err)
	assert.Empty(t, list.Entries)
}

func TestSkeletonStatusAndSummary(t *testing.T) {
	ctx := context.Background()
	c, bundle := newTestClient(t)

	var single *question.Detail
	for i := range bundle.Questions {
		if bundle.Questions[i].Kind == question.KindSingle {
			single = &bundle.Questions[i]
			break
		}
	}
	require.NotNil(t, single)

	_, err := c.Submit(ctx, single.ID, single.Answer)
	require.NoError(t, err)

	list, err := c.ListSkeleton(ctx, single.Category, "sample")
	require.NoError(t, err)
	assert.Equal(t, 1, list.Summary.AttemptedNum)
	assert.InDelta(t, 1.0, list.Summary.AccuracyRate, 1e-9)

	found := false
	for _, e := range list.Entries {
		if e.ID == single.ID {
			found = true
			assert.Equal(t, question.StatusCorrect, e.Status)
		}
	}
	assert.True(t, found)
}

func TestResolveGroupChild(t *testing.T) {
	ctx := context.Background()
	c, bundle := newTestClient(t)

	var child string
	for _, q := range bundle.Questions {
		if q.Kind == question.KindGroup && len(q.Children) > 0 {
			child = q.Children[0].ID
			break
		}
	}
	require.NotEmpty(t, child, "sample bundle carries a group question")

	d, err := c.ResolveDetail(ctx, child)
	require.NoError(t, err)
	assert.Equal(t, child, d.ID)
}
