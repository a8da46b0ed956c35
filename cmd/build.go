package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wardlight/voterguide/internal/fetcher"
	"github.com/wardlight/voterguide/internal/guide"
)

var (
	buildManifest   string
	buildSurvey     string
	buildBoundaries string
	buildSheet      string
	buildCharset    string
	buildOut        string
	buildPretty     bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Fetch both sources, run the pipeline, and write guide JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := resolveManifest(buildManifest, buildSurvey, buildBoundaries, buildSheet, buildCharset)
		if err != nil {
			return err
		}

		src := fetcher.NewSource(fetchOptions())

		g, err := guide.Build(cmd.Context(), src, m)
		if err != nil {
			return eris.Wrap(err, "build guide")
		}

		enc, out, closeOut, err := guideEncoder(buildOut, buildPretty)
		if err != nil {
			return err
		}
		defer closeOut()

		if err := enc.Encode(g); err != nil {
			return eris.Wrap(err, "encode guide")
		}

		zap.L().Info("guide written", zap.String("out", out))
		return nil
	},
}

// resolveManifest merges a manifest file with flag/config overrides. Flags
// win over the manifest; the manifest wins over config defaults.
func resolveManifest(manifestPath, surveyLoc, boundariesLoc, sheet, charset string) (*guide.Manifest, error) {
	if manifestPath == "" {
		manifestPath = cfg.Sources.Manifest
	}

	var m *guide.Manifest
	if manifestPath != "" {
		loaded, err := guide.LoadManifest(manifestPath)
		if err != nil {
			return nil, err
		}
		m = loaded
	} else {
		m = &guide.Manifest{}
	}

	if m.Title == "" {
		m.Title = cfg.Guide.Title
	}
	if surveyLoc != "" {
		m.Survey.Location = surveyLoc
	} else if m.Survey.Location == "" {
		m.Survey.Location = cfg.Sources.Survey
	}
	if boundariesLoc != "" {
		m.Boundaries.Location = boundariesLoc
	} else if m.Boundaries.Location == "" {
		m.Boundaries.Location = cfg.Sources.Boundaries
	}
	if sheet != "" {
		m.Survey.Sheet = sheet
	} else if m.Survey.Sheet == "" {
		m.Survey.Sheet = cfg.Sources.SurveySheet
	}
	if charset != "" {
		m.Survey.Charset = charset
	} else if m.Survey.Charset == "" {
		m.Survey.Charset = cfg.Sources.SurveyCharset
	}

	if m.Survey.Location == "" {
		return nil, eris.New("no survey source: set --survey, --manifest, or sources.survey in config")
	}
	if m.Boundaries.Location == "" {
		return nil, eris.New("no boundaries source: set --boundaries, --manifest, or sources.boundaries in config")
	}

	return m, nil
}

func fetchOptions() fetcher.Options {
	return fetcher.Options{
		UserAgent:  cfg.Fetch.UserAgent,
		Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Fetch.MaxRetries,
		HostRate:   cfg.Fetch.HostRate,
	}
}

func guideEncoder(outPath string, pretty bool) (*json.Encoder, string, func(), error) {
	w := os.Stdout
	name := "stdout"
	closeOut := func() {}
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return nil, "", nil, eris.Wrapf(err, "create output file %s", outPath)
		}
		w = f
		name = outPath
		closeOut = func() { _ = f.Close() }
	}

	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc, name, closeOut, nil
}

// buildGuide is shared by serve and inspect.
func buildGuide(ctx context.Context, manifestPath, surveyLoc, boundariesLoc, sheet, charset string) (*guide.Guide, error) {
	m, err := resolveManifest(manifestPath, surveyLoc, boundariesLoc, sheet, charset)
	if err != nil {
		return nil, err
	}
	src := fetcher.NewSource(fetchOptions())
	return guide.Build(ctx, src, m)
}

func init() {
	buildCmd.Flags().StringVar(&buildManifest, "manifest", "", "dataset manifest YAML")
	buildCmd.Flags().StringVar(&buildSurvey, "survey", "", "survey export path or URL")
	buildCmd.Flags().StringVar(&buildBoundaries, "boundaries", "", "ward boundaries path or URL")
	buildCmd.Flags().StringVar(&buildSheet, "sheet", "", "worksheet name for XLSX surveys")
	buildCmd.Flags().StringVar(&buildCharset, "charset", "", "charset for CSV surveys (e.g. windows-1252)")
	buildCmd.Flags().StringVar(&buildOut, "out", "", "output file (default stdout)")
	buildCmd.Flags().BoolVar(&buildPretty, "pretty", false, "indent JSON output")
	rootCmd.AddCommand(buildCmd)
}
