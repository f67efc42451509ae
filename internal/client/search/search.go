// Package search implements the query language of the snippet list:
// a bare query matches title OR timestamp, a `+`-joined query requires
// every term to appear in title+timestamp.
package search

import "strings"

// Match reports whether a snippet with the given title and timestamp
// matches the query. Matching is case-insensitive substring search; an
// empty query matches everything.
func Match(title, timestamp, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}

	title = strings.ToLower(title)
	timestamp = strings.ToLower(timestamp)

	if strings.Contains(query, "+") {
		combined := title + " " + timestamp
		for _, term := range Terms(query) {
			if !strings.Contains(combined, term) {
				return false
			}
		}
		return true
	}

	return strings.Contains(title, query) || strings.Contains(timestamp, query)
}

// Terms splits an AND query on '+', trimming and dropping empty terms.
// For a plain query it returns the single trimmed term.
func Terms(query string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	if !strings.Contains(query, "+") {
		return []string{query}
	}

	parts := strings.Split(query, "+")
	terms := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// Span is a half-open [Start, End) byte range to highlight.
type Span struct {
	Start int
	End   int
}

// Spans returns the non-overlapping ranges of text matching any query
// term, case-insensitively, for highlight rendering. An empty query
// yields no spans.
func Spans(text, query string) []Span {
	lower := strings.ToLower(text)

	var spans []Span
	for _, term := range Terms(query) {
		from := 0
		for {
			i := strings.Index(lower[from:], term)
			if i < 0 {
				break
			}
			start := from + i
			spans = append(spans, Span{Start: start, End: start + len(term)})
			from = start + len(term)
		}
	}
	return merge(spans)
}

func merge(spans []Span) []Span {
	if len(spans) < 2 {
		return spans
	}
	for i := 1; i < len(spans); i++ {
		for j := i; j > 0 && spans[j].Start < spans[j-1].Start; j-- {
			spans[j], spans[j-1] = spans[j-1], spans[j]
		}
	}

	out := spans[:1]
	for _, sp := range spans[1:] {
		last := &out[len(out)-1]
		if sp.Start <= last.End {
			if sp.End > last.End {
				last.End = sp.End
			}
			continue
		}
		out = append(out, sp)
	}
	return out
}
