package survey

import (
	"fmt"
	"strings"
)

// commentPrefix keys resolved comment values so they never collide with a
// question group key.
const commentPrefix = "__COMMENT::"

// CommentField returns the synthetic field key holding the comment resolved
// for the given question group.
func CommentField(group string) string {
	return commentPrefix + group
}

// ChoiceBuckets partitions a group's column indices by their second-row
// choice label. An index appears in at most one bucket; columns whose label
// is not an answer or comment marker (name/email/ward metadata) are left out.
type ChoiceBuckets struct {
	Yes       []int
	No        []int
	Undecided []int
	Comment   []int
}

// isCommentLabel reports whether a second-row label marks a free-text
// comment sub-column.
func isCommentLabel(label string) bool {
	folded := foldCell(label)
	return strings.Contains(folded, "comment") || folded == "open-ended response"
}

// BucketChoices builds per-group choice buckets from the second header row.
// Only meaningful when the header classification found a choice row.
func BucketChoices(groups []QuestionGroup, row1 []string) map[string]ChoiceBuckets {
	buckets := make(map[string]ChoiceBuckets, len(groups))
	for _, g := range groups {
		var b ChoiceBuckets
		for _, c := range g.Columns {
			if c >= len(row1) {
				continue
			}
			label := row1[c]
			switch {
			case canonicalAnswer(label) == AnswerYes:
				b.Yes = append(b.Yes, c)
			case canonicalAnswer(label) == AnswerNo:
				b.No = append(b.No, c)
			case canonicalAnswer(label) == AnswerUndecided:
				b.Undecided = append(b.Undecided, c)
			case isCommentLabel(label):
				b.Comment = append(b.Comment, c)
			}
		}
		buckets[g.Key] = b
	}
	return buckets
}

// NormalizedRow is one candidate's reconciled survey response: one answer and
// one comment per question group, plus the ward designation and name fields.
type NormalizedRow struct {
	Answers   map[string]string `json:"answers"`
	Comments  map[string]string `json:"comments"`
	Ward      string            `json:"ward"`
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	NameMixed string            `json:"name_mixed"`
}

// Conflict records a silently-discarded value: more than one cell in a row's
// answer or comment buckets was non-empty, and resolution kept only the first
// in priority order. Surfaced as a diagnostic because the source data gives
// no other signal that a response was ambiguous.
type Conflict struct {
	RowIndex int      `json:"row_index"`
	Group    string   `json:"group"`
	Kind     string   `json:"kind"` // "answer" or "comment"
	Kept     string   `json:"kept"`
	Ignored  []string `json:"ignored"`
}

// layout bundles everything the normalizer needs about the header rows.
type layout struct {
	class   HeaderClassification
	groups  []QuestionGroup
	buckets map[string]ChoiceBuckets
	row0    []string
	row1    []string
	// wardFallbackGroup is the key of a literal "ward" question group, used
	// to derive the ward designation when no ward slice was detected.
	wardFallbackGroup string
}

func newLayout(class HeaderClassification, groups []QuestionGroup, row0, row1 []string) *layout {
	l := &layout{
		class:  class,
		groups: groups,
		row0:   row0,
		row1:   row1,
	}
	if class.HeaderIsChoices {
		l.buckets = BucketChoices(groups, row1)
	}
	if class.Ward == nil {
		for _, g := range groups {
			if strings.Contains(foldCell(g.Key), "ward") {
				l.wardFallbackGroup = g.Key
				break
			}
		}
	}
	return l
}

// cellAt returns the trimmed cell at column c, tolerating short rows.
func cellAt(cells []string, c int) string {
	if c < 0 || c >= len(cells) {
		return ""
	}
	return cleanCell(cells[c])
}

// firstNonEmpty returns the first non-empty cell among the given columns in
// their stored left-to-right order, plus every later non-empty value that the
// first-match rule discards.
func firstNonEmpty(cells []string, cols []int) (value string, ignored []string) {
	for _, c := range cols {
		v := cellAt(cells, c)
		if v == "" {
			continue
		}
		if value == "" {
			value = v
		} else {
			ignored = append(ignored, v)
		}
	}
	return value, ignored
}

// resolveAnswer resolves one group's answer from its choice buckets in the
// fixed priority order yes, no, undecided. The first non-empty cell wins and
// its bucket label becomes the answer.
func resolveAnswer(cells []string, b ChoiceBuckets) (answer string, ignored []string) {
	order := []struct {
		label string
		cols  []int
	}{
		{AnswerYes, b.Yes},
		{AnswerNo, b.No},
		{AnswerUndecided, b.Undecided},
	}
	for _, bucket := range order {
		for _, c := range bucket.cols {
			v := cellAt(cells, c)
			if v == "" {
				continue
			}
			if answer == "" {
				answer = bucket.label
			} else {
				ignored = append(ignored, fmt.Sprintf("%s=%s", strings.ToLower(bucket.label), v))
			}
		}
	}
	return answer, ignored
}

// normalizeRow reconciles one raw data row. ok is false when every resolved
// field is empty, in which case the row is not admitted.
func normalizeRow(cells []string, l *layout, rowIdx int) (row NormalizedRow, conflicts []Conflict, ok bool) {
	row = NormalizedRow{
		Answers:  make(map[string]string, len(l.groups)),
		Comments: make(map[string]string, len(l.groups)),
	}

	for _, g := range l.groups {
		if l.class.HeaderIsChoices {
			b := l.buckets[g.Key]
			answer, ignored := resolveAnswer(cells, b)
			if answer != "" {
				row.Answers[g.Key] = answer
			}
			if len(ignored) > 0 {
				conflicts = append(conflicts, Conflict{
					RowIndex: rowIdx, Group: g.Key, Kind: "answer",
					Kept: answer, Ignored: ignored,
				})
			}

			comment, cIgnored := firstNonEmpty(cells, b.Comment)
			if comment != "" {
				row.Comments[g.Key] = comment
			}
			if len(cIgnored) > 0 {
				conflicts = append(conflicts, Conflict{
					RowIndex: rowIdx, Group: g.Key, Kind: "comment",
					Kept: comment, Ignored: cIgnored,
				})
			}
			continue
		}

		// Plain multi-valued fallback when the export lacks the expected
		// two-row choice layout.
		value, ignored := firstNonEmpty(cells, g.Columns)
		if value != "" {
			row.Answers[g.Key] = value
		}
		if len(ignored) > 0 {
			conflicts = append(conflicts, Conflict{
				RowIndex: rowIdx, Group: g.Key, Kind: "answer",
				Kept: value, Ignored: ignored,
			})
		}
	}

	row.Ward = resolveWard(cells, l)

	if l.class.FirstNameCol >= 0 {
		row.FirstName = cellAt(cells, l.class.FirstNameCol)
	}
	if l.class.LastNameCol >= 0 {
		row.LastName = cellAt(cells, l.class.LastNameCol)
	}
	if l.class.MixedNameCol >= 0 {
		row.NameMixed = cellAt(cells, l.class.MixedNameCol)
	}

	ok = len(row.Answers) > 0 || len(row.Comments) > 0 ||
		row.Ward != "" || row.FirstName != "" || row.LastName != "" || row.NameMixed != ""
	return row, conflicts, ok
}

// resolveWard derives the raw ward/mayor label for a row. With a ward slice,
// the first non-empty cell in the slice wins and its label comes from the
// second header row (choice layout), else the first header row, else the cell
// itself. Later non-empty cells in the slice are ignored: only one ward
// selection is expected per row. Without a slice, a literal "ward" question
// group supplies the label.
func resolveWard(cells []string, l *layout) string {
	if l.class.Ward != nil {
		for c := l.class.Ward.Start; c < l.class.Ward.End; c++ {
			v := cellAt(cells, c)
			if v == "" {
				continue
			}
			if l.class.HeaderIsChoices {
				if h := cellAt(l.row1, c); h != "" {
					return h
				}
			}
			if h := cellAt(l.row0, c); h != "" {
				return h
			}
			return v
		}
		return ""
	}

	if l.wardFallbackGroup == "" {
		return ""
	}
	for _, g := range l.groups {
		if g.Key != l.wardFallbackGroup {
			continue
		}
		v, _ := firstNonEmpty(cells, g.Columns)
		return v
	}
	return ""
}
