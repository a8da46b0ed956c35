// Package boundary loads ward boundary polygons from GeoJSON or zipped
// shapefiles and derives the ward key, display name, and marker centroid for
// each feature.
package boundary

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
)

// Ward is one boundary feature reduced to what the guide needs. Lat/Lng are
// NaN sentinels when no centroid could be computed; such wards stay in data
// aggregation but must not be placed as markers.
type Ward struct {
	Key         string
	DisplayName string
	Lat         float64
	Lng         float64
}

// Placeable reports whether the ward has a usable marker coordinate.
func (w Ward) Placeable() bool {
	return !math.IsNaN(w.Lat) && !math.IsNaN(w.Lng) &&
		!math.IsInf(w.Lat, 0) && !math.IsInf(w.Lng, 0)
}

var digitRunRe = regexp.MustCompile(`\d+`)

// keyProps is the ordered list of feature properties probed for a ward key
// after ward_num. First defined match wins.
var keyProps = []string{"label", "WARD", "Ward", "name", "id"}

// resolveKey derives the canonical ward key from feature properties:
// a ward_num property (numeric or string) wins, else the first digit run
// found in the fallback properties in priority order.
func resolveKey(props map[string]any) (string, bool) {
	if v, ok := props["ward_num"]; ok {
		switch n := v.(type) {
		case float64:
			return strconv.Itoa(int(n)), true
		case int:
			return strconv.Itoa(n), true
		case string:
			if key, ok := digitKey(n); ok {
				return key, true
			}
		}
	}

	for _, prop := range keyProps {
		v, ok := props[prop]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		if key, ok := digitKey(s); ok {
			return key, true
		}
	}

	return "", false
}

// digitKey extracts the first digit run and canonicalizes leading zeros.
func digitKey(s string) (string, bool) {
	run := digitRunRe.FindString(s)
	if run == "" {
		return "", false
	}
	n, err := strconv.Atoi(run)
	if err != nil {
		return "", false
	}
	return strconv.Itoa(n), true
}

// displayName picks a human label for the ward.
func displayName(props map[string]any, key string) string {
	for _, prop := range []string{"label", "name"} {
		if s, ok := props[prop].(string); ok && s != "" {
			return s
		}
	}
	return "Ward " + key
}

// centroid computes a marker coordinate for the geometry with a fallback
// chain: area centroid, mean of the flat coordinates, bounding-box center.
// Returns NaN sentinels when every method fails.
func centroid(g geom.T) (lat, lng float64) {
	if g == nil {
		return math.NaN(), math.NaN()
	}

	if c, err := xy.Centroid(g); err == nil && finiteCoord(c) {
		return c.Y(), c.X()
	}

	if c, ok := flatMean(g); ok {
		return c.Y(), c.X()
	}

	b := g.Bounds()
	cx := (b.Min(0) + b.Max(0)) / 2
	cy := (b.Min(1) + b.Max(1)) / 2
	if finite(cx) && finite(cy) {
		return cy, cx
	}

	zap.L().Debug("boundary: no centroid for geometry")
	return math.NaN(), math.NaN()
}

// flatMean averages the geometry's coordinates. Crude but good enough as a
// marker position when the area centroid fails on degenerate rings.
func flatMean(g geom.T) (geom.Coord, bool) {
	flat := g.FlatCoords()
	stride := g.Stride()
	if len(flat) < stride || stride < 2 {
		return nil, false
	}
	var sx, sy float64
	n := 0
	for i := 0; i+1 < len(flat); i += stride {
		sx += flat[i]
		sy += flat[i+1]
		n++
	}
	c := geom.Coord{sx / float64(n), sy / float64(n)}
	if !finiteCoord(c) {
		return nil, false
	}
	return c, true
}

func finiteCoord(c geom.Coord) bool {
	return len(c) >= 2 && finite(c.X()) && finite(c.Y())
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
