package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// guideGrid is a miniature of the real export shape: a two-row header with a
// ward-selection block, a split name pair, and one Yes/No/Undecided question
// with a comment sub-column.
func guideGrid() [][]string {
	return [][]string{
		{"Respondent ID", "I'm a candidate for:", "", "", "Candidate Name and Email Address", "", "Should the city expand bike lanes?", "", "", ""},
		{"", "", "Ward 14", "Mayor", "First Name", "Last Name", "Yes", "No", "Undecided", "Additional Comments"},
		{"r1", "", "X", "", "Jane", "Doe", "Yes", "", "", "More bike lanes please"},
		{"r2", "", "", "X", "Kim", "Lee", "", "No", "", ""},
		{"", "", "", "", "", "", "", "", "", ""}, // fully blank, skipped
	}
}

func TestParse_EndToEnd(t *testing.T) {
	res := Parse(guideGrid())

	require.True(t, res.Classification.HeaderIsChoices)
	require.NotNil(t, res.Classification.Ward)
	assert.Equal(t, 2, res.Classification.Ward.Start)
	assert.Equal(t, 4, res.Classification.Ward.End)

	require.Len(t, res.Rows, 2)

	// Exactly one row lands in ward 14, with the answer from the marked
	// sub-column.
	require.Len(t, res.Partition.Wards["14"], 1)
	jane := res.Partition.Wards["14"][0]
	assert.Equal(t, "Jane", jane.FirstName)
	assert.Equal(t, AnswerYes, jane.Answers["Should the city expand bike lanes?"])
	assert.Equal(t, "More bike lanes please", jane.Comments["Should the city expand bike lanes?"])

	// The mayoral row never appears under a ward key.
	require.Len(t, res.Partition.Mayoral, 1)
	assert.Equal(t, "Kim", res.Partition.Mayoral[0].FirstName)
	for key := range res.Partition.Wards {
		for _, r := range res.Partition.Wards[key] {
			assert.NotEqual(t, "Kim", r.FirstName)
		}
	}

	// Both non-empty values are categorical, so the group is an issue column.
	assert.Equal(t, []string{"Should the city expand bike lanes?"}, res.Issues)

	assert.Empty(t, res.Conflicts)
}

func TestParse_Idempotent(t *testing.T) {
	first := Parse(guideGrid())
	second := Parse(guideGrid())

	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.Issues, second.Issues)
	assert.Equal(t, first.Partition, second.Partition)
	assert.Equal(t, first.Conflicts, second.Conflicts)
}

func TestParse_ShortGridYieldsEmptyResult(t *testing.T) {
	for _, grid := range [][][]string{nil, {}, {{"only", "one", "row"}}} {
		res := Parse(grid)

		assert.False(t, res.Classification.HeaderIsChoices)
		assert.Nil(t, res.Classification.Ward)
		assert.Empty(t, res.Groups)
		assert.Empty(t, res.Rows)
		assert.Empty(t, res.Issues)
		assert.Empty(t, res.Partition.Wards)
		assert.Empty(t, res.Partition.Mayoral)
	}
}

func TestParse_NonChoiceLayoutDataStartsAtRowOne(t *testing.T) {
	grid := [][]string{
		{"Ward", "Platform"},
		{"3", "fix the potholes"},
		{"5", "more parks"},
	}

	res := Parse(grid)

	require.False(t, res.Classification.HeaderIsChoices)
	// The second row is data, not metadata.
	require.Len(t, res.Rows, 2)
	assert.Len(t, res.Partition.Wards["3"], 1)
	assert.Len(t, res.Partition.Wards["5"], 1)
}

func TestParse_GroupKeysOrder(t *testing.T) {
	res := Parse(guideGrid())

	assert.Equal(t, []string{
		"Respondent ID",
		"I'm a candidate for:",
		"Candidate Name and Email Address",
		"Should the city expand bike lanes?",
	}, res.GroupKeys())
}
