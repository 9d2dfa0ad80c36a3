// Package fixture runs an in-process implementation of the question-bank
// services over an embedded bundle. It exists for local development and
// for end-to-end exercise of the remote-lazy source; it keeps recurrence
// counts and the mistake book in memory and carries no real auth.
package fixture

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/hahahahacnm/medbank/internal/question"
)


// Server serves the catalog, skeleton, detail, submission, reset, and
// mistake endpoints over one bundle.
type Server struct {
	bundle *bankState
	router http.Handler
}

// bankState is the mutable per-bank state behind the fixture endpoints.
type bankState struct {
	mu sync.Mutex

	source    string
	questions []question.Detail
	byID      map[string]*question.Detail

	// answers holds the last graded outcome per question.
	answers map[string]bool

	// wrongCounts is the recurrence tally, incremented on every incorrect
	// submission and never reset by answer resets.
	wrongCounts map[string]int

	// mistakes is the mistake book membership.
	mistakes map[string]bool
}

// NewServer builds a Server over b.
func NewServer(b *question.Bundle) *Server {
	state := &bankState{
		source:      b.Source,
		questions:   b.Questions,
		byID:        make(map[string]*question.Detail),
		answers:     make(map[string]bool),
		wrongCounts: make(map[string]int),
		mistakes:    make(map[string]bool),
	}
	var index func(qs []question.Detail)
	index = func(qs []question.Detail) {
		for i := range qs {
			state.byID[qs[i].ID] = &qs[i]
			index(qs[i].Children)
		}
	}
	index(state.questions)

	s := &Server{bundle: state}

	r := mux.NewRouter()
	r.HandleFunc("/tree", s.handleTree).Methods(http.MethodGet)
	r.HandleFunc("/skeleton", s.handleSkeleton).Methods(http.MethodGet)
	r.HandleFunc("/questions/{id}", s.handleQuestion).Methods(http.MethodGet)
	r.HandleFunc("/submit", s.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/answers/{id}", s.handleReset).Methods(http.MethodDelete)
	r.HandleFunc("/mistakes/{id}", s.handleRemoveMistake).Methods(http.MethodDelete)
	s.router = cors.AllowAll().Handler(r)

	return s
}

// Handler returns the HTTP handler, for mounting or httptest.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.router)
}

type wireNode struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Path  string `json:"path"`
	Leaf  bool   `json:"leaf"`
	Level int    `json:"level"`
	Count int    `json:"count,omitempty"`
	Done  int    `json:"done_count,omitempty"`
	Total int    `json:"total_count,omitempty"`
}

type wireEntry struct {
	ID         string `json:"id"`
	Index      int    `json:"index"`
	Status     string `json:"status,omitempty"`
	WrongCount *int   `json:"wrong_count,omitempty"`
}

type wireSkeleton struct {
	Entries []wireEntry          `json:"entries"`
	Summary question.ListSummary `json:"summary"`
}

// handleTree returns the direct children of the requested parent only,
// derived from the two-segment category paths in the bundle.
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	parent := r.URL.Query().Get("parent")

	st := s.bundle
	st.mu.Lock()
	defer st.mu.Unlock()

	type leafStat struct{ count, done int }
	leaves := make(map[string]*leafStat) // full path -> stats
	subjects := make(map[string][]string)
	for i := range st.questions {
		q := &st.questions[i]
		if q.Category == "" {
			continue
		}
		ls, ok := leaves[q.Category]
		if !ok {
			ls = &leafStat{}
			leaves[q.Category] = ls
			subject, _, _ := strings.Cut(q.Category, "/")
			subjects[subject] = append(subjects[subject], q.Category)
		}
		ls.count++
		if _, answered := st.answers[q.ID]; answered {
			ls.done++
		}
	}

	var nodes []wireNode
	if parent == "" {
		names := make([]string, 0, len(subjects))
		for name := range subjects {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			var done, total int
			for _, path := range subjects[name] {
				done += leaves[path].done
				total += leaves[path].count
			}
			nodes = append(nodes, wireNode{
				ID: name, Name: displayName(name), Path: name,
				Level: 0, Done: done, Total: total,
			})
		}
	} else {
		paths := append([]string(nil), subjects[parent]...)
		sort.Strings(paths)
		for _, path := range paths {
			_, chapter, _ := strings.Cut(path, "/")
			nodes = append(nodes, wireNode{
				ID: path, Name: displayName(chapter), Path: path,
				Leaf: true, Level: 1,
				Count: leaves[path].count, Done: leaves[path].done,
			})
		}
	}
	writeJSON(w, http.StatusOK, nodes)
}

func (s *Server) handleSkeleton(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	st := s.bundle
	st.mu.Lock()
	defer st.mu.Unlock()

	resp := wireSkeleton{Entries: []wireEntry{}}
	var attempted, correct int
	for i := range st.questions {
		q := &st.questions[i]
		if category == question.MistakeCategory {
			if !st.mistakes[q.ID] {
				continue
			}
		} else if !question.CategoryMatches(q.Category, category) {
			continue
		}

		e := wireEntry{ID: q.ID, Index: len(resp.Entries) + 1}
		if outcome, ok := st.answers[q.ID]; ok {
			attempted++
			if outcome {
				correct++
				e.Status = "correct"
			} else {
				e.Status = "wrong"
			}
		}
		if n, ok := st.wrongCounts[q.ID]; ok {
			count := n
			e.WrongCount = &count
		}
		resp.Entries = append(resp.Entries, e)
	}
	resp.Summary.AttemptedNum = attempted
	if attempted > 0 {
		resp.Summary.AccuracyRate = float64(correct) / float64(attempted)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	st := s.bundle
	st.mu.Lock()
	defer st.mu.Unlock()

	q, ok := st.byID[id]
	if !ok {
		writeError(w, http.StatusNotFound, "question not found")
		return
	}
	out := *q
	out.WrongCount = st.wrongCounts[id]
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionID string `json:"question_id"`
		Answer     string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	if req.QuestionID == "" {
		writeError(w, http.StatusBadRequest, "question_id required")
		return
	}

	st := s.bundle
	st.mu.Lock()
	defer st.mu.Unlock()

	q, ok := st.byID[req.QuestionID]
	if !ok {
		writeError(w, http.StatusNotFound, "question not found")
		return
	}

	correct := question.Grade(q.Kind, q.Answer, req.Answer)
	st.answers[req.QuestionID] = correct
	if !correct {
		st.wrongCounts[req.QuestionID]++
		st.mistakes[req.QuestionID] = true
	}

	writeJSON(w, http.StatusOK, question.SubmitResult{
		Correct:       correct,
		CorrectAnswer: q.Answer,
		Analysis:      q.Analysis,
		ReceiptID:     uuid.NewString(),
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	st := s.bundle
	st.mu.Lock()
	defer st.mu.Unlock()

	// Resets discard the recorded answer only; recurrence counts track
	// attempts, not current state, and are left intact.
	delete(st.answers, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveMistake(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	st := s.bundle
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.mistakes[id] {
		writeError(w, http.StatusNotFound, "not in mistake book")
		return
	}
	delete(st.mistakes, id)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func displayName(slug string) string {
	parts := strings.Split(slug, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
