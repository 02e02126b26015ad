package workflow

import (
	"net/url"
	"strings"
)

// Filters is the recognized filter schema for assignment list queries. Field
// order below is the canonical key order of the composed query.
type Filters struct {
	Status   string
	Class    string
	Subject  string
	Teacher  string
	Search   string
	DateFrom string
	DateTo   string
}

// Param is one (key, value) pair of a composed query.
type Param struct {
	Key   string
	Value string
}

// Params composes the filter set into an ordered list of pairs. Keys with
// empty values are omitted entirely rather than sent as empty parameters,
// keys follow the fixed schema order regardless of how the filters were
// populated, and no key appears twice.
func (f Filters) Params() []Param {
	pairs := []Param{
		{"status", strings.TrimSpace(f.Status)},
		{"class", strings.TrimSpace(f.Class)},
		{"subject", strings.TrimSpace(f.Subject)},
		{"teacher", strings.TrimSpace(f.Teacher)},
		{"search", strings.TrimSpace(f.Search)},
		{"dateFrom", strings.TrimSpace(f.DateFrom)},
		{"dateTo", strings.TrimSpace(f.DateTo)},
	}

	params := make([]Param, 0, len(pairs))
	for _, p := range pairs {
		if p.Value == "" {
			continue
		}
		params = append(params, p)
	}

	return params
}

// Encode renders the composed query as a deterministic query string, usable
// both on the wire and as a cache key. url.Values is deliberately avoided:
// it sorts keys alphabetically, which would break the schema ordering.
func (f Filters) Encode() string {
	params := f.Params()
	if len(params) == 0 {
		return ""
	}

	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}

	return b.String()
}
