package graph

import (
	"errors"
	"strings"
)

// ErrStructural is wrapped by every StructuralError for errors.Is() checks.
var ErrStructural = errors.New("structural error")

// Kind classifies a structural problem in the activity set.
type Kind string

const (
	KindEmptyID             Kind = "empty_id"
	KindDuplicateID         Kind = "duplicate_id"
	KindDanglingPredecessor Kind = "dangling_predecessor"
	KindSelfReference       Kind = "self_reference"
	KindCycle               Kind = "cycle"
)

// StructuralError is a fatal problem with the precedence structure.
type StructuralError struct {
	Kind     Kind
	Activity string // offending activity id, if any
	Msg      string
}

func (e *StructuralError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return ErrStructural.Error()
	}
	return e.Msg
}

func (e *StructuralError) Unwrap() error { return ErrStructural }

// ValidationErrors collects every structural problem found by Build.
type ValidationErrors []*StructuralError

func (v ValidationErrors) Error() string {
	return strings.Join(v.Messages(), "; ")
}

// Messages returns the individual error messages in detection order.
func (v ValidationErrors) Messages() []string {
	out := make([]string, 0, len(v))
	for _, e := range v {
		out = append(out, e.Error())
	}
	return out
}

// Has reports whether any collected error is of the given kind.
func (v ValidationErrors) Has(kind Kind) bool {
	for _, e := range v {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func (v ValidationErrors) Unwrap() []error {
	out := make([]error, len(v))
	for i, e := range v {
		out[i] = e
	}
	return out
}
