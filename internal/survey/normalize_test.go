package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// choiceLayout builds a layout over a two-row choice header for normalizer tests.
func choiceLayout(t *testing.T, row0, row1 []string) *layout {
	t.Helper()
	class := ClassifyHeaders(row0, row1)
	require.True(t, class.HeaderIsChoices, "fixture must classify as a choice row")
	groups := GroupColumns(row0, class.Ward)
	return newLayout(class, groups, row0, row1)
}

func TestBucketChoices_Partition(t *testing.T) {
	row0 := []string{"Q1", "", "", ""}
	row1 := []string{"Yes", "No", "Undecided", "Additional Comments"}
	groups := GroupColumns(row0, nil)

	buckets := BucketChoices(groups, row1)
	b := buckets["Q1"]

	assert.Equal(t, []int{0}, b.Yes)
	assert.Equal(t, []int{1}, b.No)
	assert.Equal(t, []int{2}, b.Undecided)
	assert.Equal(t, []int{3}, b.Comment)
}

func TestResolveAnswer_FixedPrecedence(t *testing.T) {
	b := ChoiceBuckets{Yes: []int{0}, No: []int{1}, Undecided: []int{2}}

	// Only "no" filled: the yes bucket is checked first but empty, so the
	// answer must be No, not an arbitrary winner.
	answer, ignored := resolveAnswer([]string{"", "x", ""}, b)
	assert.Equal(t, AnswerNo, answer)
	assert.Empty(t, ignored)

	// Both yes and no filled: yes wins, no is recorded as ignored.
	answer, ignored = resolveAnswer([]string{"x", "x", ""}, b)
	assert.Equal(t, AnswerYes, answer)
	assert.Equal(t, []string{"no=x"}, ignored)

	// Nothing filled.
	answer, ignored = resolveAnswer([]string{"", "", ""}, b)
	assert.Empty(t, answer)
	assert.Empty(t, ignored)
}

func TestNormalizeRow_ChoiceLayout(t *testing.T) {
	row0 := []string{"Favor the levy?", "", "", ""}
	row1 := []string{"Yes", "No", "Undecided", "Additional Comments"}
	l := choiceLayout(t, row0, row1)

	row, conflicts, ok := normalizeRow([]string{"", "X", "", "too costly"}, l, 2)

	require.True(t, ok)
	assert.Empty(t, conflicts)
	assert.Equal(t, AnswerNo, row.Answers["Favor the levy?"])
	assert.Equal(t, "too costly", row.Comments["Favor the levy?"])
}

func TestNormalizeRow_ConflictDiagnostic(t *testing.T) {
	row0 := []string{"Favor the levy?", "", "", ""}
	row1 := []string{"Yes", "Yes", "No", "Undecided"}
	l := choiceLayout(t, row0, row1)

	// Two yes sub-columns and the no sub-column all filled: the first yes
	// wins and the rest surface as a conflict.
	row, conflicts, ok := normalizeRow([]string{"a", "b", "c", ""}, l, 5)

	require.True(t, ok)
	assert.Equal(t, AnswerYes, row.Answers["Favor the levy?"])
	require.Len(t, conflicts, 1)
	assert.Equal(t, 5, conflicts[0].RowIndex)
	assert.Equal(t, "answer", conflicts[0].Kind)
	assert.Equal(t, AnswerYes, conflicts[0].Kept)
	assert.Equal(t, []string{"yes=b", "no=c"}, conflicts[0].Ignored)
}

func TestNormalizeRow_NonChoiceFallback(t *testing.T) {
	row0 := []string{"City", "Q1", ""}
	row1 := []string{"Springfield", "free text answer", "another"}
	class := ClassifyHeaders(row0, row1)
	require.False(t, class.HeaderIsChoices)
	groups := GroupColumns(row0, class.Ward)
	l := newLayout(class, groups, row0, row1)

	row, _, ok := normalizeRow([]string{"Shelbyville", "first", "second"}, l, 1)

	require.True(t, ok)
	assert.Equal(t, "Shelbyville", row.Answers["City"])
	// Plain multi-valued field: first non-empty cell wins.
	assert.Equal(t, "first", row.Answers["Q1"])
}

func TestNormalizeRow_WardFromSliceLabels(t *testing.T) {
	row0 := []string{"Q1", "", "I'm a candidate for:", "", "", "Candidate Name and Email Address", ""}
	row1 := []string{"Yes", "No", "", "Ward 14", "Mayor", "First Name", "Last Name"}
	l := choiceLayout(t, row0, row1)
	require.NotNil(t, l.class.Ward)
	assert.Equal(t, 3, l.class.Ward.Start)
	assert.Equal(t, 5, l.class.Ward.End)

	// Mark in the ward-14 sub-column: the second-row label becomes the ward.
	row, _, ok := normalizeRow([]string{"", "", "", "X", "", "Jane", "Doe"}, l, 2)
	require.True(t, ok)
	assert.Equal(t, "Ward 14", row.Ward)
	assert.Equal(t, "Jane", row.FirstName)
	assert.Equal(t, "Doe", row.LastName)

	// Only the first non-empty slice cell counts.
	row, _, ok = normalizeRow([]string{"", "", "", "X", "X", "", ""}, l, 3)
	require.True(t, ok)
	assert.Equal(t, "Ward 14", row.Ward)
}

func TestNormalizeRow_WardFallbackHeader(t *testing.T) {
	// No anchor phrases: a literal "ward" header supplies the designation.
	row0 := []string{"Ward", "Q1", ""}
	row1 := []string{"7", "free text", "more text"}
	class := ClassifyHeaders(row0, row1)
	require.Nil(t, class.Ward)
	groups := GroupColumns(row0, class.Ward)
	l := newLayout(class, groups, row0, row1)

	row, _, ok := normalizeRow([]string{"12", "something", ""}, l, 1)

	require.True(t, ok)
	assert.Equal(t, "12", row.Ward)
}

func TestNormalizeRow_EmptyRowNotAdmitted(t *testing.T) {
	row0 := []string{"Q1", "", "", ""}
	row1 := []string{"Yes", "No", "Undecided", "Additional Comments"}
	l := choiceLayout(t, row0, row1)

	_, _, ok := normalizeRow([]string{"", "  ", "", ""}, l, 2)

	assert.False(t, ok)
}

func TestCommentField(t *testing.T) {
	assert.Equal(t, "__COMMENT::Q1", CommentField("Q1"))
}
