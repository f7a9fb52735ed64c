package account

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrEmailExists      = errors.New("email already exists")
	ErrNotAuthenticated = errors.New("no user is logged in")
)

// ValidationError maps form fields to their messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}
