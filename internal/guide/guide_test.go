package guide

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardlight/voterguide/internal/fetcher"
	"github.com/wardlight/voterguide/internal/survey"
)

const surveyCSV = `Respondent ID,I'm a candidate for:,,,Candidate Name and Email Address,,Should the city expand bike lanes?,,,
,,Ward 14,Mayor,First Name,Last Name,Yes,No,Undecided,Additional Comments
r1,,X,,Jane,Doe,Yes,,,More bike lanes please
r2,,,X,Kim,Lee,,No,,
`

const wardsGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"ward_num": 14, "label": "Ward Fourteen"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[-79.5, 43.6], [-79.4, 43.6], [-79.4, 43.7], [-79.5, 43.7], [-79.5, 43.6]]]
      }
    },
    {
      "type": "Feature",
      "properties": {"name": "Ward 02"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[-79.3, 43.6], [-79.2, 43.6], [-79.2, 43.7], [-79.3, 43.7], [-79.3, 43.6]]]
      }
    }
  ]
}`

func testManifest(t *testing.T) *Manifest {
	t.Helper()
	dir := t.TempDir()

	surveyPath := filepath.Join(dir, "export.csv")
	require.NoError(t, os.WriteFile(surveyPath, []byte(surveyCSV), 0o644))

	wardsPath := filepath.Join(dir, "wards.geojson")
	require.NoError(t, os.WriteFile(wardsPath, []byte(wardsGeoJSON), 0o644))

	return &Manifest{
		Title:      "Test Election",
		Survey:     SourceSpec{Location: surveyPath},
		Boundaries: SourceSpec{Location: wardsPath},
	}
}

func buildTestGuide(t *testing.T) *Guide {
	t.Helper()
	src := fetcher.NewSource(fetcher.Options{})
	g, err := Build(context.Background(), src, testManifest(t))
	require.NoError(t, err)
	return g
}

func TestBuild(t *testing.T) {
	g := buildTestGuide(t)

	assert.Equal(t, "Test Election", g.Title)
	assert.Equal(t, []string{"Should the city expand bike lanes?"}, g.Issues)
	assert.True(t, g.Diagnostics.HeaderIsChoices)
	assert.True(t, g.Diagnostics.WardSliceFound)
	assert.Equal(t, 2, g.Diagnostics.Rows)

	// Union of boundary wards and candidate wards, numerically ordered. Ward 2
	// has geometry but no candidates and still appears.
	require.Len(t, g.Wards, 2)
	assert.Equal(t, "2", g.Wards[0].Key)
	assert.Empty(t, g.Wards[0].Candidates)
	assert.Equal(t, "Ward 02", g.Wards[0].DisplayName)

	ward14 := g.Wards[1]
	assert.Equal(t, "14", ward14.Key)
	assert.Equal(t, "Ward Fourteen", ward14.DisplayName)
	assert.True(t, ward14.Placeable)
	require.NotNil(t, ward14.Lat)
	assert.InDelta(t, 43.65, *ward14.Lat, 0.001)
	require.Len(t, ward14.Candidates, 1)
	assert.Equal(t, "Jane Doe", ward14.Candidates[0].Name)

	require.Len(t, g.Mayoral, 1)
	assert.Equal(t, "Kim Lee", g.Mayoral[0].Name)

	assert.Equal(t,
		survey.CommentField("Should the city expand bike lanes?"),
		g.CommentFields["Should the city expand bike lanes?"])
}

func TestBuild_CandidateWardWithoutGeometry(t *testing.T) {
	dir := t.TempDir()
	surveyPath := filepath.Join(dir, "export.csv")
	require.NoError(t, os.WriteFile(surveyPath, []byte(surveyCSV), 0o644))
	wardsPath := filepath.Join(dir, "wards.geojson")
	require.NoError(t, os.WriteFile(wardsPath, []byte(`{"type":"FeatureCollection","features":[]}`), 0o644))

	src := fetcher.NewSource(fetcher.Options{})
	g, err := Build(context.Background(), src, &Manifest{
		Title:      "t",
		Survey:     SourceSpec{Location: surveyPath},
		Boundaries: SourceSpec{Location: wardsPath},
	})
	require.NoError(t, err)

	// Jane's ward has no boundary feature; she is kept but unplaceable.
	require.Len(t, g.Wards, 1)
	assert.Equal(t, "14", g.Wards[0].Key)
	assert.Equal(t, "Ward 14", g.Wards[0].DisplayName)
	assert.False(t, g.Wards[0].Placeable)
	assert.Nil(t, g.Wards[0].Lat)
	require.Len(t, g.Wards[0].Candidates, 1)
}

func TestBuild_MissingSurveyAborts(t *testing.T) {
	m := testManifest(t)
	m.Survey.Location = filepath.Join(t.TempDir(), "absent.csv")

	src := fetcher.NewSource(fetcher.Options{})
	_, err := Build(context.Background(), src, m)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.csv")
}

func TestBuild_MissingBoundariesAborts(t *testing.T) {
	m := testManifest(t)
	m.Boundaries.Location = filepath.Join(t.TempDir(), "absent.geojson")

	src := fetcher.NewSource(fetcher.Options{})
	_, err := Build(context.Background(), src, m)

	assert.Error(t, err)
}

func TestGuide_Filter(t *testing.T) {
	g := buildTestGuide(t)

	res := g.Filter(FilterSelection{
		Issue:  "Should the city expand bike lanes?",
		Answer: survey.AnswerYes,
	})

	require.Len(t, res.Wards["14"], 1)
	assert.Equal(t, "Jane Doe", res.Wards["14"][0].Name)
	// Kim answered No and drops out of the mayoral list.
	assert.Empty(t, res.Mayoral)
}

func TestGuide_FilterEmptyAnswerMatchesAnyResponse(t *testing.T) {
	g := buildTestGuide(t)

	res := g.Filter(FilterSelection{Issue: "Should the city expand bike lanes?"})

	assert.Len(t, res.Wards["14"], 1)
	assert.Len(t, res.Mayoral, 1)
}

func TestGuide_FilterDoesNotMutate(t *testing.T) {
	g := buildTestGuide(t)
	before := len(g.Wards[1].Candidates)

	_ = g.Filter(FilterSelection{
		Issue:  "Should the city expand bike lanes?",
		Answer: survey.AnswerNo,
	})

	assert.Len(t, g.Wards[1].Candidates, before)
}

func TestGuide_HasIssue(t *testing.T) {
	g := buildTestGuide(t)

	assert.True(t, g.HasIssue("Should the city expand bike lanes?"))
	assert.False(t, g.HasIssue("Respondent ID"))
	assert.False(t, g.HasIssue(""))
}
