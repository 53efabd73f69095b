// Package suggest finds the closest known name to a misspelled one, using
// Levenshtein edit distance.
package suggest

import "slices"

// Matcher computes edit distances reusing one scratch buffer.
// It is not safe for concurrent use.
type Matcher struct {
	column []int
}

// Distance returns the minimum number of single-rune insertions, deletions
// and substitutions turning from into to.
func (m *Matcher) Distance(from, to string) int {
	src := []rune(from)
	dst := []rune(to)

	if len(dst) == 0 {
		return len(src)
	}

	if cap(m.column) < len(src)+1 {
		m.column = make([]int, len(src)+1)
	}

	column := m.column[:len(src)+1]
	for row := range column {
		column[row] = row
	}

	for col, dstRune := range dst {
		diag := col
		column[0] = col + 1

		for row, srcRune := range src {
			above := column[row+1]

			cost := 1
			if srcRune == dstRune {
				cost = 0
			}

			column[row+1] = min(above+1, column[row]+1, diag+cost)
			diag = above
		}
	}

	return column[len(src)]
}

// Threshold is the largest distance accepted for a name of the given length:
// a quarter of its runes, rounded up.
func Threshold(name string) int {
	return (len([]rune(name)) + 3) / 4
}

// Closest returns the candidate nearest to name within Threshold(name).
// Ties go to the lexically smaller candidate. An exact match is never
// suggested.
func Closest(name string, candidates []string) (string, bool) {
	var m Matcher

	limit := Threshold(name)
	best, bestDist := "", limit+1

	sorted := slices.Clone(candidates)
	slices.Sort(sorted)

	for _, cand := range sorted {
		if cand == name {
			continue
		}

		if d := m.Distance(name, cand); d < bestDist {
			best, bestDist = cand, d
		}
	}

	return best, best != ""
}
