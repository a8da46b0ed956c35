package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/wardlight/voterguide/internal/fetcher"
	"github.com/wardlight/voterguide/internal/guide"
	"github.com/wardlight/voterguide/internal/survey"
)

var (
	inspectManifest string
	inspectSurvey   string
	inspectSheet    string
	inspectCharset  string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Report how the survey export headers were reconciled",
	Long:  "Parses only the survey export and prints the header classification, question groups, issue verdicts, ward partition, and answer-conflict diagnostics.",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := resolveInspectSources()
		if err != nil {
			return err
		}

		src := fetcher.NewSource(fetchOptions())

		var grid [][]string
		switch m.format {
		case "xlsx":
			path, cleanup, err := src.Localize(cmd.Context(), m.location, "")
			if err != nil {
				return eris.Wrapf(err, "fetch survey %s", m.location)
			}
			if cleanup != nil {
				defer cleanup()
			}
			grid, err = fetcher.ReadXLSXGrid(path, fetcher.XLSXOptions{SheetName: m.sheet})
			if err != nil {
				return err
			}
		default:
			rc, err := src.Open(cmd.Context(), m.location)
			if err != nil {
				return eris.Wrapf(err, "fetch survey %s", m.location)
			}
			defer rc.Close() //nolint:errcheck
			grid, err = fetcher.ReadCSVGrid(rc, fetcher.CSVOptions{Charset: m.charset})
			if err != nil {
				return err
			}
		}

		printReport(cmd, survey.Parse(grid))
		return nil
	},
}

type inspectSources struct {
	location string
	format   string
	sheet    string
	charset  string
}

func resolveInspectSources() (inspectSources, error) {
	spec := guide.SourceSpec{
		Location: inspectSurvey,
		Sheet:    inspectSheet,
		Charset:  inspectCharset,
	}

	manifestPath := inspectManifest
	if manifestPath == "" {
		manifestPath = cfg.Sources.Manifest
	}
	if manifestPath != "" {
		m, err := guide.LoadManifest(manifestPath)
		if err != nil {
			return inspectSources{}, err
		}
		if spec.Location == "" {
			spec.Location = m.Survey.Location
		}
		if spec.Sheet == "" {
			spec.Sheet = m.Survey.Sheet
		}
		if spec.Charset == "" {
			spec.Charset = m.Survey.Charset
		}
	}
	if spec.Location == "" {
		spec.Location = cfg.Sources.Survey
		if spec.Sheet == "" {
			spec.Sheet = cfg.Sources.SurveySheet
		}
		if spec.Charset == "" {
			spec.Charset = cfg.Sources.SurveyCharset
		}
	}

	if spec.Location == "" {
		return inspectSources{}, eris.New("no survey source: set --survey, --manifest, or sources.survey in config")
	}

	return inspectSources{
		location: spec.Location,
		format:   spec.ResolvedFormat(),
		sheet:    spec.Sheet,
		charset:  spec.Charset,
	}, nil
}

func printReport(cmd *cobra.Command, res *survey.Result) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Header classification\n")
	fmt.Fprintf(out, "  choice row: %v (%.0f%% of non-empty second-row cells matched)\n",
		res.Classification.HeaderIsChoices, res.Classification.ChoiceFraction*100)
	if ws := res.Classification.Ward; ws != nil {
		fmt.Fprintf(out, "  ward slice: columns [%d, %d)\n", ws.Start, ws.End)
	} else {
		fmt.Fprintf(out, "  ward slice: not found (literal \"ward\" header fallback applies)\n")
	}

	fmt.Fprintf(out, "\nQuestion groups (%d)\n", len(res.Groups))
	issueSet := make(map[string]bool, len(res.Issues))
	for _, k := range res.Issues {
		issueSet[k] = true
	}
	for _, g := range res.Groups {
		marker := " "
		if issueSet[g.Key] {
			marker = "*"
		}
		b := res.Buckets[g.Key]
		fmt.Fprintf(out, "  %s %-50q cols=%d yes=%d no=%d und=%d comment=%d\n",
			marker, truncate(g.Key, 48), len(g.Columns),
			len(b.Yes), len(b.No), len(b.Undecided), len(b.Comment))
	}
	fmt.Fprintf(out, "  (* = issue column, >=70%% categorical answers)\n")

	fmt.Fprintf(out, "\nRows: %d normalized, %d dropped as unplaceable\n",
		len(res.Rows), res.Partition.Dropped)
	fmt.Fprintf(out, "Wards: %s\n", strings.Join(res.Partition.WardKeys(), ", "))
	fmt.Fprintf(out, "Mayoral rows: %d\n", len(res.Partition.Mayoral))

	if len(res.Conflicts) == 0 {
		fmt.Fprintf(out, "\nNo answer conflicts.\n")
		return
	}
	fmt.Fprintf(out, "\nAnswer conflicts (%d) — multiple non-empty cells, first match kept:\n", len(res.Conflicts))
	for _, c := range res.Conflicts {
		fmt.Fprintf(out, "  row %d group %q %s: kept %q, ignored %v\n",
			c.RowIndex, truncate(c.Group, 40), c.Kind, c.Kept, c.Ignored)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func init() {
	inspectCmd.Flags().StringVar(&inspectManifest, "manifest", "", "dataset manifest YAML")
	inspectCmd.Flags().StringVar(&inspectSurvey, "survey", "", "survey export path or URL")
	inspectCmd.Flags().StringVar(&inspectSheet, "sheet", "", "worksheet name for XLSX surveys")
	inspectCmd.Flags().StringVar(&inspectCharset, "charset", "", "charset for CSV surveys")
	rootCmd.AddCommand(inspectCmd)
}
