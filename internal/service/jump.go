package service

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jask/rowselect/internal/rowmodel"
)

// Match is the result of a fuzzy row lookup.
type Match struct {
	ID       string
	Position int
	Label    string
	Distance int
}

// FindRow returns the loaded row whose label is closest to query. Labels are
// compared case-insensitively against both the whole label and its prefix of
// the query's length, so typing the start of a label is enough. Ties keep the
// earlier row.
func FindRow(m *rowmodel.Model, query string) (Match, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Match{}, false
	}
	best := Match{Distance: -1}
	for pos := 0; pos < m.Total(); pos++ {
		n, ok := m.At(pos)
		if !ok {
			continue
		}
		label := strings.ToLower(n.Label())
		d := levenshtein.ComputeDistance(q, label)
		if len(label) > len(q) {
			if p := levenshtein.ComputeDistance(q, label[:len(q)]); p < d {
				d = p
			}
		}
		if best.Distance < 0 || d < best.Distance {
			best = Match{ID: n.ID(), Position: pos, Label: n.Label(), Distance: d}
			if d == 0 {
				break
			}
		}
	}
	if best.Distance < 0 {
		return Match{}, false
	}
	return best, true
}
