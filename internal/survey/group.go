package survey

import "regexp"

var unnamedRe = regexp.MustCompile(`(?i)^unnamed`)

// QuestionGroup is a question stem and the raw column indices that share it.
// Spreadsheet exports repeat a merged question header only in its first
// sub-column, so a group typically spans several adjacent columns.
type QuestionGroup struct {
	Key     string
	Columns []int
}

// GroupColumns forward-fills blank and "Unnamed" first-row headers across
// merged-cell spans and groups column indices by the resolved question stem.
// Columns inside the ward slice are excluded. Group order equals the first
// occurrence order of distinct effective headers.
func GroupColumns(row0 []string, ward *WardSlice) []QuestionGroup {
	var groups []QuestionGroup
	index := make(map[string]int)

	effective := ""
	for i, cell := range row0 {
		if !isBlank(cell) && !unnamedRe.MatchString(cleanCell(cell)) {
			effective = cleanCell(cell)
		}
		if effective == "" || ward.Contains(i) {
			continue
		}

		gi, ok := index[effective]
		if !ok {
			gi = len(groups)
			index[effective] = gi
			groups = append(groups, QuestionGroup{Key: effective})
		}
		groups[gi].Columns = append(groups[gi].Columns, i)
	}

	return groups
}
