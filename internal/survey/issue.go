package survey

// issueThreshold is the minimum share of non-empty values in a group that
// must be categorical (yes/no/undecided) for the group to count as an issue
// column. Inclusive, fixed by the source data contract.
const issueThreshold = 0.7

// IssueColumns labels which question groups are issue columns: groups whose
// non-empty answers are dominated by Yes/No/Undecided values. Free-text and
// identity columns fall below the threshold and are excluded. This is a
// global pass over the full normalized row set.
func IssueColumns(groups []QuestionGroup, rows []NormalizedRow) []string {
	var issues []string
	for _, g := range groups {
		var nonEmpty, categorical int
		for _, r := range rows {
			v, ok := r.Answers[g.Key]
			if !ok || isBlank(v) {
				continue
			}
			nonEmpty++
			if isCategorical(v) {
				categorical++
			}
		}
		if nonEmpty == 0 {
			continue
		}
		if float64(categorical)/float64(nonEmpty) >= issueThreshold {
			issues = append(issues, g.Key)
		}
	}
	return issues
}
