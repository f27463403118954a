package spec

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrValidation is wrapped by every error reported while decoding or
	// validating a specification.
	ErrValidation = errors.New("invalid specification")

	// ErrInvalidChannel reports a channel outside the fixed channel set.
	ErrInvalidChannel = errors.New("invalid channel")

	// ErrUnsupportedChannelForMark reports a channel that a mark type has no
	// rule for.
	ErrUnsupportedChannelForMark = errors.New("unsupported channel for mark")
)

// ValidationError is a structured error for a malformed specification with
// the JSON path of the offending value and an optional suggestion.
type ValidationError struct {
	Path       string
	Message    string
	Suggestion string // "did you mean 'bar'?" or ""
	Err        error  // optional sentinel (ErrInvalidChannel, ...)
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Suggestion != "" {
		msg += " (" + e.Suggestion + ")"
	}
	return msg
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidation, e.Err}
	}
	return []error{ErrValidation}
}

func newValidationError(path, format string, args ...any) *ValidationError {
	return &ValidationError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// atPath returns err with path prefixed when err is a ValidationError that
// has no path yet.
func atPath(path string, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Path == "" {
		cp := *ve
		cp.Path = path
		return &cp
	}
	return err
}

// Levenshtein computes the edit distance between two strings.
func Levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr := make([]int, lb+1)
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev = curr
	}
	return prev[lb]
}

// SuggestFrom finds the closest match from candidates within a maximum
// edit distance. Returns "" if no good match is found.
func SuggestFrom(input string, candidates []string, maxDist int) string {
	best := ""
	bestDist := maxDist + 1
	for _, c := range candidates {
		d := Levenshtein(input, c)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	if bestDist <= maxDist {
		return fmt.Sprintf("did you mean '%s'?", best)
	}
	return ""
}

// parseEnum matches s against a closed set of values.
func parseEnum[T ~string](kind, s string, values []T) (T, error) {
	for _, v := range values {
		if string(v) == s {
			return v, nil
		}
	}
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = string(v)
	}
	var zero T
	return zero, &ValidationError{
		Message:    fmt.Sprintf("unknown %s %q", kind, s),
		Suggestion: SuggestFrom(s, names, 2),
	}
}

// unmarshalEnum decodes a JSON string and matches it with parse.
func unmarshalEnum[T ~string](data []byte, dst *T, parse func(string) (T, error)) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &ValidationError{Message: fmt.Sprintf("expected a string, got %s", data)}
	}
	v, err := parse(s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
