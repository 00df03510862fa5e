package catalog

import (
	"github.com/sahilm/fuzzy"

	"github.com/deepxi/sebatch/internal/dataset"
)

// Filter returns the entries whose base file name fuzzy-matches query, best
// match first. An empty query returns entries unchanged.
func Filter(entries []Entry, query string) []Entry {
	if query == "" {
		return entries
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = dataset.BaseName(e.FilePath)
	}

	matches := fuzzy.Find(query, names)
	out := make([]Entry, 0, len(matches))
	for _, m := range matches {
		out = append(out, entries[m.Index])
	}
	return out
}
