package boundary

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	geojson "github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// LoadGeoJSON reads a ward boundary feature collection. Features with no
// resolvable ward key are skipped; features with no computable centroid are
// kept with sentinel coordinates.
func LoadGeoJSON(r io.Reader) ([]Ward, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "boundary: read geojson")
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrap(err, "boundary: decode geojson")
	}

	var wards []Ward
	var skipped int
	for _, f := range fc.Features {
		key, ok := resolveKey(f.Properties)
		if !ok {
			skipped++
			continue
		}

		lat, lng := centroid(f.Geometry)
		wards = append(wards, Ward{
			Key:         key,
			DisplayName: displayName(f.Properties, key),
			Lat:         lat,
			Lng:         lng,
		})
	}

	if skipped > 0 {
		zap.L().Warn("boundary: skipped features with no ward key",
			zap.Int("skipped", skipped),
		)
	}
	zap.L().Info("boundary: loaded geojson wards", zap.Int("wards", len(wards)))

	return wards, nil
}
