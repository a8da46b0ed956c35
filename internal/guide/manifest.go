package guide

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SourceSpec names one input file and how to parse it.
type SourceSpec struct {
	// Location is a local path or an http(s):// or ftp:// URL.
	Location string `yaml:"location"`
	// Format is csv, xlsx, geojson, or shapefile. Empty means infer from the
	// location's extension.
	Format string `yaml:"format,omitempty"`
	// Sheet selects a worksheet for xlsx sources.
	Sheet string `yaml:"sheet,omitempty"`
	// Charset overrides encoding detection for csv sources.
	Charset string `yaml:"charset,omitempty"`
}

// Manifest describes one guide dataset: the survey export, the ward
// boundaries, and presentation metadata.
type Manifest struct {
	Title      string     `yaml:"title"`
	Survey     SourceSpec `yaml:"survey"`
	Boundaries SourceSpec `yaml:"boundaries"`
}

// LoadManifest reads a dataset manifest from a YAML file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "guide: read manifest %s", path)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "guide: parse manifest %s", path)
	}

	if m.Survey.Location == "" {
		return nil, eris.Errorf("guide: manifest %s missing survey.location", path)
	}
	if m.Boundaries.Location == "" {
		return nil, eris.Errorf("guide: manifest %s missing boundaries.location", path)
	}

	return &m, nil
}

// ResolvedFormat returns the spec's format, inferring from the location
// extension when unset.
func (s SourceSpec) ResolvedFormat() string {
	if s.Format != "" {
		return strings.ToLower(s.Format)
	}
	loc := strings.ToLower(s.Location)
	switch {
	case strings.HasSuffix(loc, ".xlsx"):
		return "xlsx"
	case strings.HasSuffix(loc, ".zip"), strings.HasSuffix(loc, ".shp"):
		return "shapefile"
	case strings.HasSuffix(loc, ".geojson"), strings.HasSuffix(loc, ".json"):
		return "geojson"
	default:
		return "csv"
	}
}
