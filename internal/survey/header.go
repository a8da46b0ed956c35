package survey

import (
	"regexp"

	"go.uber.org/zap"
)

// choiceTokens is the fixed vocabulary of second-row labels that mark the row
// as choice metadata rather than data. Matched case-insensitively after
// trimming; ward labels with a trailing number match via wardTokenRe instead.
var choiceTokens = map[string]struct{}{
	"yes":                 {},
	"no":                  {},
	"undecided":           {},
	"additional comments": {},
	"open-ended response": {},
	"mayor":               {},
	"first name":          {},
	"last name":           {},
	"email address":       {},
	"ward":                {},
}

var (
	wardTokenRe    = regexp.MustCompile(`(?i)^ward(\s*\d+)?$`)
	candidateForRe = regexp.MustCompile(`(?i)i'm a candidate for:`)
	nameEmailRe    = regexp.MustCompile(`(?i)candidate name and email address`)
	candidateName  = regexp.MustCompile(`(?i)candidate name`)
	emailRe        = regexp.MustCompile(`(?i)email`)
	firstNameRe    = regexp.MustCompile(`(?i)first\s*name`)
	lastNameRe     = regexp.MustCompile(`(?i)last\s*name`)
)

// WardSlice is a half-open column range [Start, End) covering the
// single-select "which ward are you running in" block.
type WardSlice struct {
	Start int
	End   int
}

// Contains reports whether column index i falls inside the slice.
func (w *WardSlice) Contains(i int) bool {
	return w != nil && i >= w.Start && i < w.End
}

// HeaderClassification is the result of inspecting the two header rows.
type HeaderClassification struct {
	// HeaderIsChoices is true when the second header row carries per-column
	// choice metadata (Yes/No/Undecided/comment/name labels).
	HeaderIsChoices bool
	// ChoiceFraction is the matched share of non-empty second-row cells.
	ChoiceFraction float64
	// Ward is the detected ward-selector column block, nil when the anchor
	// phrases were not found.
	Ward *WardSlice
	// FirstNameCol, LastNameCol are second-row name label columns, -1 when absent.
	FirstNameCol int
	LastNameCol  int
	// MixedNameCol is a first-row single-field name column used as fallback
	// when no split first/last columns exist, -1 when absent.
	MixedNameCol int
}

func emptyClassification() HeaderClassification {
	return HeaderClassification{FirstNameCol: -1, LastNameCol: -1, MixedNameCol: -1}
}

// isChoiceToken reports whether a second-row cell belongs to the choice
// metadata vocabulary.
func isChoiceToken(cell string) bool {
	folded := foldCell(cell)
	if _, ok := choiceTokens[folded]; ok {
		return true
	}
	return wardTokenRe.MatchString(folded)
}

// ClassifyHeaders inspects the first two rows of the raw grid and decides
// whether the second row is a choice-metadata row, locates the ward-selector
// block, and finds the name columns.
func ClassifyHeaders(row0, row1 []string) HeaderClassification {
	c := emptyClassification()

	var nonEmpty, matched int
	for _, cell := range row1 {
		if isBlank(cell) {
			continue
		}
		nonEmpty++
		if isChoiceToken(cell) {
			matched++
		}
	}
	if nonEmpty > 0 {
		c.ChoiceFraction = float64(matched) / float64(nonEmpty)
		// Boundary is inclusive: exactly half still counts as a choice row.
		c.HeaderIsChoices = c.ChoiceFraction >= 0.5
	}

	c.Ward = findWardSlice(row0)

	for i, cell := range row1 {
		if c.FirstNameCol < 0 && firstNameRe.MatchString(cell) {
			c.FirstNameCol = i
		}
		if c.LastNameCol < 0 && lastNameRe.MatchString(cell) {
			c.LastNameCol = i
		}
	}
	c.MixedNameCol = findMixedNameCol(row0)

	zap.L().Debug("survey: classified headers",
		zap.Bool("header_is_choices", c.HeaderIsChoices),
		zap.Float64("choice_fraction", c.ChoiceFraction),
		zap.Bool("ward_slice_found", c.Ward != nil),
	)

	return c
}

// findWardSlice locates the ward-selector block in the first header row. The
// block is bounded by the "I'm a candidate for:" anchor (exclusive: the anchor
// question column itself stays out of the block) and the candidate-name/email
// anchor (exclusive).
func findWardSlice(row0 []string) *WardSlice {
	start := -1
	for i, cell := range row0 {
		if candidateForRe.MatchString(cell) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	end := -1
	for i, cell := range row0 {
		if nameEmailRe.MatchString(cell) {
			end = i
			break
		}
	}
	if end < 0 {
		// Looser fallback: a header naming both the candidate name and email.
		for i, cell := range row0 {
			if candidateName.MatchString(cell) && emailRe.MatchString(cell) {
				end = i
				break
			}
		}
	}
	if end < 0 || end <= start {
		return nil
	}

	return &WardSlice{Start: start + 1, End: end}
}

// findMixedNameCol locates a single-field name column in the first header
// row: either a standalone "name" header or a combined name+email header.
func findMixedNameCol(row0 []string) int {
	for i, cell := range row0 {
		folded := foldCell(cell)
		if folded == "name" || folded == "candidate name" {
			return i
		}
		if candidateName.MatchString(cell) && emailRe.MatchString(cell) {
			return i
		}
	}
	return -1
}
