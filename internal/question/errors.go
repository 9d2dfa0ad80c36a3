package question

import "errors"

// ErrNotFound indicates an entry ID with no backing question.
var ErrNotFound = errors.New("not found")
