package survey

import "go.uber.org/zap"

// Result is the immutable output of one pipeline run over a raw grid. It is
// computed exactly once per load; downstream consumers (filtering, map
// output, detail views) only read it.
type Result struct {
	Classification HeaderClassification
	Groups         []QuestionGroup
	Buckets        map[string]ChoiceBuckets
	Rows           []NormalizedRow
	Issues         []string
	Conflicts      []Conflict
	Partition      Partition
}

// GroupKeys returns the question group keys in first-occurrence order.
func (r *Result) GroupKeys() []string {
	keys := make([]string, len(r.Groups))
	for i, g := range r.Groups {
		keys[i] = g.Key
	}
	return keys
}

// Parse runs the full reconciliation pipeline over a raw cell grid. Rows 0
// and 1 are header rows; data starts at row 2 when the second row is choice
// metadata, at row 1 otherwise. A grid with fewer than two rows yields the
// defined empty result: no issues, no rows, no ward partition.
func Parse(grid [][]string) *Result {
	if len(grid) < 2 {
		return &Result{
			Classification: emptyClassification(),
			Partition:      Partition{Wards: map[string][]NormalizedRow{}},
		}
	}

	row0, row1 := grid[0], grid[1]
	class := ClassifyHeaders(row0, row1)
	groups := GroupColumns(row0, class.Ward)
	l := newLayout(class, groups, row0, row1)

	dataStart := 1
	if class.HeaderIsChoices {
		dataStart = 2
	}

	res := &Result{
		Classification: class,
		Groups:         groups,
		Buckets:        l.buckets,
	}

	var skipped int
	for i := dataStart; i < len(grid); i++ {
		cells := grid[i]
		if blankRow(cells) {
			continue
		}
		row, conflicts, ok := normalizeRow(cells, l, i)
		if !ok {
			skipped++
			continue
		}
		res.Rows = append(res.Rows, row)
		res.Conflicts = append(res.Conflicts, conflicts...)
	}

	res.Issues = IssueColumns(groups, res.Rows)
	res.Partition = PartitionRows(res.Rows)

	zap.L().Info("survey: parsed grid",
		zap.Int("raw_rows", len(grid)),
		zap.Int("normalized_rows", len(res.Rows)),
		zap.Int("skipped_empty", skipped),
		zap.Int("groups", len(groups)),
		zap.Int("issues", len(res.Issues)),
		zap.Int("wards", len(res.Partition.Wards)),
		zap.Int("mayoral", len(res.Partition.Mayoral)),
		zap.Int("conflicts", len(res.Conflicts)),
	)

	return res
}
