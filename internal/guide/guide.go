// Package guide assembles the voter guide: it loads the survey export and
// ward boundaries concurrently, runs the survey reconciliation pipeline once,
// joins candidate rows to ward geometry, and serves filterable views of the
// immutable result.
package guide

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wardlight/voterguide/internal/boundary"
	"github.com/wardlight/voterguide/internal/fetcher"
	"github.com/wardlight/voterguide/internal/survey"
)

// CandidateView is one candidate's presentable record.
type CandidateView struct {
	Name      string            `json:"name"`
	WardLabel string            `json:"ward_label,omitempty"`
	Answers   map[string]string `json:"answers,omitempty"`
	Comments  map[string]string `json:"comments,omitempty"`
}

// WardView is one ward with its marker coordinate and candidates.
type WardView struct {
	Key         string          `json:"key"`
	DisplayName string          `json:"display_name"`
	Lat         *float64        `json:"lat,omitempty"`
	Lng         *float64        `json:"lng,omitempty"`
	Placeable   bool            `json:"placeable"`
	Candidates  []CandidateView `json:"candidates"`
}

// Diagnostics reports how the pipeline read the export, including the
// silently-resolved answer conflicts the source format otherwise hides.
type Diagnostics struct {
	HeaderIsChoices bool              `json:"header_is_choices"`
	ChoiceFraction  float64           `json:"choice_fraction"`
	WardSliceFound  bool              `json:"ward_slice_found"`
	Rows            int               `json:"rows"`
	DroppedRows     int               `json:"dropped_rows"`
	Conflicts       []survey.Conflict `json:"conflicts,omitempty"`
}

// Guide is the assembled, read-only dataset handed to the presentation layer.
type Guide struct {
	Title         string            `json:"title"`
	Issues        []string          `json:"issues"`
	CommentFields map[string]string `json:"comment_fields"`
	Wards         []WardView        `json:"wards"`
	Mayoral       []CandidateView   `json:"mayoral"`
	Diagnostics   Diagnostics       `json:"diagnostics"`

	result *survey.Result
}

// Build fetches both sources concurrently, runs the reconciliation pipeline,
// and joins rows to geometry. A failed fetch or parse of either source aborts
// the build; there is no partial guide.
func Build(ctx context.Context, src *fetcher.Source, m *Manifest) (*Guide, error) {
	var (
		res   *survey.Result
		wards []boundary.Ward
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		grid, err := loadSurveyGrid(gCtx, src, m.Survey)
		if err != nil {
			return err
		}
		res = survey.Parse(grid)
		return nil
	})
	g.Go(func() error {
		var err error
		wards, err = loadBoundaries(gCtx, src, m.Boundaries)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return assemble(m.Title, res, wards), nil
}

func loadSurveyGrid(ctx context.Context, src *fetcher.Source, spec SourceSpec) ([][]string, error) {
	switch spec.ResolvedFormat() {
	case "xlsx":
		path, cleanup, err := src.Localize(ctx, spec.Location, "")
		if err != nil {
			return nil, eris.Wrapf(err, "guide: fetch survey %s", spec.Location)
		}
		if cleanup != nil {
			defer cleanup()
		}
		return fetcher.ReadXLSXGrid(path, fetcher.XLSXOptions{SheetName: spec.Sheet})
	case "csv":
		rc, err := src.Open(ctx, spec.Location)
		if err != nil {
			return nil, eris.Wrapf(err, "guide: fetch survey %s", spec.Location)
		}
		defer rc.Close() //nolint:errcheck
		return fetcher.ReadCSVGrid(rc, fetcher.CSVOptions{Charset: spec.Charset})
	default:
		return nil, eris.Errorf("guide: unsupported survey format %q", spec.ResolvedFormat())
	}
}

func loadBoundaries(ctx context.Context, src *fetcher.Source, spec SourceSpec) ([]boundary.Ward, error) {
	switch spec.ResolvedFormat() {
	case "shapefile":
		path, cleanup, err := src.Localize(ctx, spec.Location, "")
		if err != nil {
			return nil, eris.Wrapf(err, "guide: fetch boundaries %s", spec.Location)
		}
		if cleanup != nil {
			defer cleanup()
		}
		if strings.HasSuffix(strings.ToLower(path), ".shp") {
			return boundary.LoadShapefile(path)
		}
		return boundary.LoadShapefileZip(path)
	case "geojson":
		rc, err := src.Open(ctx, spec.Location)
		if err != nil {
			return nil, eris.Wrapf(err, "guide: fetch boundaries %s", spec.Location)
		}
		defer rc.Close() //nolint:errcheck
		return boundary.LoadGeoJSON(rc)
	default:
		return nil, eris.Errorf("guide: unsupported boundaries format %q", spec.ResolvedFormat())
	}
}

// assemble joins the pipeline output to ward geometry. The ward list is the
// union of boundary wards and candidate wards: geometry without candidates
// still renders as an empty ward, and candidates whose ward has no geometry
// are kept but flagged unplaceable.
func assemble(title string, res *survey.Result, wards []boundary.Ward) *Guide {
	byKey := make(map[string]boundary.Ward, len(wards))
	for _, w := range wards {
		if _, dup := byKey[w.Key]; !dup {
			byKey[w.Key] = w
		}
	}

	keys := make(map[string]struct{}, len(wards))
	for _, w := range wards {
		keys[w.Key] = struct{}{}
	}
	for key := range res.Partition.Wards {
		keys[key] = struct{}{}
	}

	ordered := make([]string, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, _ := strconv.Atoi(ordered[i])
		b, _ := strconv.Atoi(ordered[j])
		return a < b
	})

	g := &Guide{
		Title:         title,
		Issues:        res.Issues,
		CommentFields: make(map[string]string, len(res.Issues)),
		Mayoral:       candidateViews(res.Partition.Mayoral),
		Diagnostics: Diagnostics{
			HeaderIsChoices: res.Classification.HeaderIsChoices,
			ChoiceFraction:  res.Classification.ChoiceFraction,
			WardSliceFound:  res.Classification.Ward != nil,
			Rows:            len(res.Rows),
			DroppedRows:     res.Partition.Dropped,
			Conflicts:       res.Conflicts,
		},
		result: res,
	}
	for _, issue := range res.Issues {
		g.CommentFields[issue] = survey.CommentField(issue)
	}

	var unplaceable int
	for _, key := range ordered {
		view := wardView(key, byKey, res.Partition.Wards[key])
		if !view.Placeable {
			unplaceable++
		}
		g.Wards = append(g.Wards, view)
	}

	if unplaceable > 0 {
		zap.L().Warn("guide: wards without marker coordinates",
			zap.Int("unplaceable", unplaceable),
		)
	}
	zap.L().Info("guide: assembled",
		zap.String("title", title),
		zap.Int("wards", len(g.Wards)),
		zap.Int("issues", len(g.Issues)),
		zap.Int("mayoral", len(g.Mayoral)),
	)

	return g
}

func wardView(key string, byKey map[string]boundary.Ward, rows []survey.NormalizedRow) WardView {
	view := WardView{
		Key:         key,
		DisplayName: "Ward " + key,
		Candidates:  candidateViews(rows),
	}
	if w, ok := byKey[key]; ok {
		view.DisplayName = w.DisplayName
		if w.Placeable() {
			lat, lng := w.Lat, w.Lng
			view.Lat, view.Lng = &lat, &lng
			view.Placeable = true
		}
	}
	return view
}

func candidateViews(rows []survey.NormalizedRow) []CandidateView {
	views := make([]CandidateView, 0, len(rows))
	for _, r := range rows {
		views = append(views, CandidateView{
			Name:      survey.DisplayName(r),
			WardLabel: r.Ward,
			Answers:   r.Answers,
			Comments:  r.Comments,
		})
	}
	return views
}

// FilterSelection is the user's current issue/answer choice. Empty fields
// widen the match.
type FilterSelection struct {
	Issue  string `json:"issue"`
	Answer string `json:"answer"`
}

// FilterResult is a re-aggregation of the already-normalized rows for one
// selection: ward key to matching candidates, plus matching mayoral rows.
type FilterResult struct {
	Selection FilterSelection            `json:"selection"`
	Wards     map[string][]CandidateView `json:"wards"`
	Mayoral   []CandidateView            `json:"mayoral"`
}

// Filter re-evaluates a selection against the guide's normalized rows. It
// never re-parses the sources and does not mutate the guide.
func (g *Guide) Filter(sel FilterSelection) FilterResult {
	matched := survey.Filter(g.result.Rows, sel.Issue, sel.Answer)
	part := survey.PartitionRows(matched)

	out := FilterResult{
		Selection: sel,
		Wards:     make(map[string][]CandidateView, len(part.Wards)),
		Mayoral:   candidateViews(part.Mayoral),
	}
	for key, rows := range part.Wards {
		out.Wards[key] = candidateViews(rows)
	}
	return out
}

// HasIssue reports whether the key is one of the guide's issue columns.
func (g *Guide) HasIssue(key string) bool {
	for _, issue := range g.Issues {
		if issue == key {
			return true
		}
	}
	return false
}
