// Package survey reconciles two-row-header survey exports into ward-keyed,
// issue-keyed candidate rows. The export format carries repeated and merged
// question columns plus a variable-width ward-selection column block, so the
// pipeline runs in stages: header classification, column grouping, row
// normalization, issue classification, and ward/mayor aggregation.
package survey

import "strings"

// Answer values produced by the normalizer. Empty string means unanswered.
const (
	AnswerYes       = "Yes"
	AnswerNo        = "No"
	AnswerUndecided = "Undecided"
)

// cleanCell trims surrounding whitespace from a raw cell value.
func cleanCell(s string) string {
	return strings.TrimSpace(s)
}

// foldCell lower-cases and trims a cell for vocabulary matching.
func foldCell(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// isBlank reports whether a cell is empty after trimming.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// canonicalAnswer maps a cell to its canonical Yes/No/Undecided form, or ""
// when the cell is not a recognized categorical answer.
func canonicalAnswer(s string) string {
	switch foldCell(s) {
	case "yes":
		return AnswerYes
	case "no":
		return AnswerNo
	case "undecided":
		return AnswerUndecided
	}
	return ""
}

// isCategorical reports whether a value counts toward issue-column
// classification (case-insensitive yes/no/undecided).
func isCategorical(s string) bool {
	return canonicalAnswer(s) != ""
}

// blankRow reports whether every cell in the row is empty after trimming.
func blankRow(cells []string) bool {
	for _, c := range cells {
		if !isBlank(c) {
			return false
		}
	}
	return true
}
