package boundary

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// LoadShapefileZip reads ward boundaries from a zipped shapefile (the common
// municipal open-data packaging). Attribute fields feed the same ward-key
// probing as GeoJSON properties.
func LoadShapefileZip(zipPath string) ([]Ward, error) {
	extractDir, err := os.MkdirTemp("", "voterguide-shp-")
	if err != nil {
		return nil, eris.Wrap(err, "boundary: create extract dir")
	}
	defer os.RemoveAll(extractDir) //nolint:errcheck

	if err := extractZIP(zipPath, extractDir); err != nil {
		return nil, eris.Wrapf(err, "boundary: extract %s", zipPath)
	}

	shpPath, err := findFileByExt(extractDir, ".shp")
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: locate .shp in %s", zipPath)
	}

	return LoadShapefile(shpPath)
}

// LoadShapefile reads ward boundaries from an unpacked .shp file.
func LoadShapefile(shpPath string) ([]Ward, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	// DBF field names are NUL-padded and usually uppercase.
	fields := reader.Fields()
	fieldNames := make([]string, len(fields))
	for i, f := range fields {
		fieldNames[i] = strings.TrimRight(f.String(), "\x00")
	}

	var wards []Ward
	var skipped int
	row := 0
	for reader.Next() {
		_, shape := reader.Shape()
		row++

		// Keyed under both the original and lowercased name so the probing
		// order in resolveKey/displayName works regardless of DBF casing.
		props := make(map[string]any, len(fields)*2)
		for i, name := range fieldNames {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val == "" {
				continue
			}
			props[name] = val
			if lower := strings.ToLower(name); lower != name {
				if _, taken := props[lower]; !taken {
					props[lower] = val
				}
			}
		}

		key, ok := resolveKey(props)
		if !ok {
			skipped++
			continue
		}

		lat, lng := centroid(shapeToGeom(shape))
		wards = append(wards, Ward{
			Key:         key,
			DisplayName: displayName(props, key),
			Lat:         lat,
			Lng:         lng,
		})
	}

	if skipped > 0 {
		zap.L().Warn("boundary: skipped shapefile records with no ward key",
			zap.Int("skipped", skipped),
		)
	}
	zap.L().Info("boundary: loaded shapefile wards", zap.Int("wards", len(wards)))

	return wards, nil
}

// shapeToGeom converts a shapefile shape to a go-geom geometry so the same
// centroid chain applies to both input formats.
func shapeToGeom(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y})
	case *shp.Polygon:
		return polygonToMultiPolygon(s)
	case *shp.PolyLine:
		// Some exports mislabel polygons as polylines; the flat-coord mean
		// still yields a usable marker position.
		return polyLineToGeom(s)
	default:
		return nil
	}
}

func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			zap.L().Debug("boundary: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("boundary: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

func polyLineToGeom(pl *shp.PolyLine) geom.T {
	if pl == nil || len(pl.Points) == 0 {
		return nil
	}
	flat := make([]float64, 0, len(pl.Points)*2)
	for _, pt := range pl.Points {
		flat = append(flat, pt.X, pt.Y)
	}
	return geom.NewLineStringFlat(geom.XY, flat)
}

// extractZIP extracts a ZIP archive into the destination directory.
func extractZIP(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		destPath := filepath.Join(destDir, filepath.Base(f.Name))

		rc, err := f.Open()
		if err != nil {
			return eris.Wrapf(err, "open zip entry %s", f.Name)
		}

		outFile, err := os.Create(destPath)
		if err != nil {
			_ = rc.Close()
			return eris.Wrapf(err, "create %s", destPath)
		}

		if _, err := io.Copy(outFile, rc); err != nil {
			_ = outFile.Close()
			_ = rc.Close()
			return eris.Wrapf(err, "extract %s", f.Name)
		}
		_ = outFile.Close()
		_ = rc.Close()
	}

	return nil
}

// findFileByExt finds the first file with the given extension in a directory.
func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("no %s file found in %s", ext, dir)
}
