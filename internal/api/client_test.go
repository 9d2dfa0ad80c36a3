package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hahahahacnm/medbank/internal/question"
)

func TestListSkeletonParsing(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/skeleton", r.URL.Path)
		assert.Equal(t, "cardio/arr", r.URL.Query().Get("category"))
		assert.Equal(t, "bank-a", r.URL.Query().Get("source"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"entries": [
				{"id": "q1", "index": 1, "status": "correct"},
				{"id": "q2", "index": 2, "status": "wrong", "wrong_count": 3},
				{"id": "q3"}
			],
			"summary": {"attempted_num": 2, "accuracy_rate": 0.5}
		}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Token: "secret"})
	list, err := c.ListSkeleton(context.Background(), "cardio/arr", "bank-a")
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	require.Len(t, list.Entries, 3)
	assert.Equal(t, question.StatusCorrect, list.Entries[0].Status)
	assert.Equal(t, question.StatusWrong, list.Entries[1].Status)
	require.NotNil(t, list.Entries[1].WrongCount)
	assert.Equal(t, 3, *list.Entries[1].WrongCount)
	assert.Equal(t, question.StatusUnfilled, list.Entries[2].Status)
	assert.Equal(t, 3, list.Entries[2].Index, "missing index defaults to position")
	assert.Equal(t, 2, list.Summary.AttemptedNum)
	assert.InDelta(t, 0.5, list.Summary.AccuracyRate, 1e-9)
}

func TestSubmitSendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/submit", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "q1", body["question_id"])
		assert.Equal(t, "AB", body["answer"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"is_correct": true, "correct_answer": "AB", "analysis": "because"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	res, err := c.Submit(context.Background(), "q1", "AB")
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, "AB", res.CorrectAnswer)
	assert.Equal(t, "because", res.Analysis)
}

func TestErrorResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "question not found"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	_, err := c.ResolveDetail(context.Background(), "nope")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Contains(t, apiErr.Message, "question not found")
}

func TestResetAndRemoveUseDelete(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	require.NoError(t, c.Reset(context.Background(), "q1"))
	require.NoError(t, c.RemoveMistake(context.Background(), "q2"))

	assert.Equal(t, []string{"DELETE /answers/q1", "DELETE /mistakes/q2"}, calls)
}

func TestChildNodesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tree", r.URL.Path)
		assert.Equal(t, "bank-a", r.URL.Query().Get("source"))
		assert.Equal(t, "cardio", r.URL.Query().Get("parent"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": "cardio/arr", "name": "Arrhythmia", "path": "cardio/arr", "leaf": true, "level": 1, "count": 12, "done_count": 4}
		]`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	nodes, err := c.ChildNodes(context.Background(), "bank-a", "cardio")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.True(t, nodes[0].Leaf)
	assert.Equal(t, 12, nodes[0].Count)
	assert.Equal(t, 4, nodes[0].Done)
}
