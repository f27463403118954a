// Package stats summarizes source fields for the compiler: counts,
// cardinality, numeric extent and a small deterministic sample.
//
// The compiler only reads summaries through Provider. Inline rows are
// summarized by Rows; other sources (a SQL table, a precomputed file) plug
// in their own Provider.
package stats

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"

	"github.com/aclements/go-gg/table"
	"github.com/aclements/go-moremath/stats"
)

const (
	// SampleSize bounds Field.Sample.
	SampleSize = 10

	sampleSeed = 1
)

// Field summarizes one source field.
type Field struct {
	Count    int     `json:"count"`
	Distinct int     `json:"distinct"`
	Missing  int     `json:"missing"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Numeric  bool    `json:"numeric"`
	Sample   []any   `json:"sample,omitempty"`
}

// Provider supplies field summaries. ok is false when the field is unknown.
type Provider interface {
	FieldStats(field string) (f Field, ok bool)
}

// Static is a fixed set of summaries.
type Static map[string]Field

func (s Static) FieldStats(field string) (Field, bool) {
	f, ok := s[field]
	return f, ok
}

// Rows summarizes inline data rows. Rows are pivoted once into a columnar
// table; each field is summarized on demand.
type Rows struct {
	t *table.Table
}

// FromRows builds a provider over rows. Fields absent from a row count as
// missing.
func FromRows(rows []map[string]any) *Rows {
	seen := make(map[string]bool)
	var names []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)

	b := new(table.Builder)
	for _, name := range names {
		col := make([]interface{}, len(rows))
		for i, row := range rows {
			col[i] = row[name]
		}
		b.Add(name, col)
	}
	return &Rows{t: b.Done()}
}

// Fields returns the field names in sorted order.
func (r *Rows) Fields() []string {
	return r.t.Columns()
}

func (r *Rows) FieldStats(field string) (Field, bool) {
	col := r.t.Column(field)
	if col == nil {
		return Field{}, false
	}
	values, ok := col.([]interface{})
	if !ok {
		return Field{}, false
	}
	return Summarize(values), true
}

// Summarize computes the summary of one column of values. Nil values are
// missing; the field is numeric when every present value is a number.
func Summarize(values []any) Field {
	f := Field{Count: len(values), Numeric: true}
	var nums []float64
	distinct := make(map[string]bool)
	var order []any

	for _, v := range values {
		if v == nil {
			f.Missing++
			continue
		}
		if x, ok := number(v); ok {
			nums = append(nums, x)
		} else {
			f.Numeric = false
		}
		key := fmt.Sprintf("%T:%v", v, v)
		if !distinct[key] {
			distinct[key] = true
			order = append(order, v)
		}
	}
	f.Distinct = len(order)

	if len(nums) == 0 {
		f.Numeric = false
	} else {
		f.Min, f.Max = stats.Bounds(nums)
	}
	f.Sample = sample(order)
	return f
}

func number(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		x, err := v.Float64()
		return x, err == nil
	}
	return 0, false
}

// sample draws up to SampleSize distinct values with a fixed seed, keeping
// first-seen order.
func sample(values []any) []any {
	if len(values) <= SampleSize {
		return values
	}
	r := rand.New(rand.NewSource(sampleSeed))
	picked := r.Perm(len(values))[:SampleSize]
	sort.Ints(picked)
	out := make([]any, SampleSize)
	for i, idx := range picked {
		out[i] = values[idx]
	}
	return out
}

// Memo caches a provider's answers, misses included, so each field is
// summarized at most once. A Memo serves a single compile and is not safe
// for concurrent use.
type Memo struct {
	p     Provider
	cache map[string]memoEntry
}

type memoEntry struct {
	f  Field
	ok bool
}

// NewMemo wraps p. A nil p reports every field as unknown.
func NewMemo(p Provider) *Memo {
	return &Memo{p: p, cache: make(map[string]memoEntry)}
}

func (m *Memo) FieldStats(field string) (Field, bool) {
	if e, ok := m.cache[field]; ok {
		return e.f, e.ok
	}
	var e memoEntry
	if m.p != nil {
		e.f, e.ok = m.p.FieldStats(field)
	}
	m.cache[field] = e
	return e.f, e.ok
}
