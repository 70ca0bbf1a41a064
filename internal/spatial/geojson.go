package spatial

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/Negixaab/runningbuddy/internal/models"
)

const geoJSONLineString = "LineString"

var (
	// ErrNotLineString is returned for geometries of any other type
	ErrNotLineString = errors.New("geometry is not a LineString")
	// ErrTooFewPoints is returned for paths with fewer than two points
	ErrTooFewPoints = errors.New("path requires at least 2 points")
)

// EncodeLineString builds a GeoJSON LineString from points, preserving order.
// Returns nil for an empty path.
func EncodeLineString(points []models.TrackPoint) *models.LineString {
	if len(points) == 0 {
		return nil
	}
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Longitude, p.Latitude}
	}
	minLat, minLon, maxLat, maxLon := BoundingBox(points)
	return &models.LineString{
		Type:        geoJSONLineString,
		Coordinates: coords,
		BBox:        []float64{minLon, minLat, maxLon, maxLat},
	}
}

// DecodeLineString validates ls and returns its points in order
func DecodeLineString(ls *models.LineString) ([]models.TrackPoint, error) {
	if ls == nil {
		return nil, nil
	}
	if ls.Type != geoJSONLineString {
		return nil, fmt.Errorf("%w: got %q", ErrNotLineString, ls.Type)
	}
	if len(ls.Coordinates) < 2 {
		return nil, ErrTooFewPoints
	}

	points := make([]models.TrackPoint, len(ls.Coordinates))
	for i, c := range ls.Coordinates {
		if len(c) < 2 {
			return nil, fmt.Errorf("coordinate %d: expected [longitude, latitude]", i)
		}
		lon, lat := c[0], c[1]
		if math.IsNaN(lon) || math.IsInf(lon, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
			return nil, fmt.Errorf("coordinate %d: not a finite number", i)
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("coordinate %d: out of range (%v, %v)", i, lon, lat)
		}
		points[i] = models.TrackPoint{Longitude: lon, Latitude: lat}
	}
	return points, nil
}

// MarshalPath serialises points as GeoJSON text for storage
func MarshalPath(points []models.TrackPoint) (*string, error) {
	ls := EncodeLineString(points)
	if ls == nil {
		return nil, nil
	}
	ls.BBox = nil
	b, err := json.Marshal(ls)
	if err != nil {
		return nil, fmt.Errorf("failed to encode path: %w", err)
	}
	s := string(b)
	return &s, nil
}

// UnmarshalPath parses stored GeoJSON text
func UnmarshalPath(raw string) ([]models.TrackPoint, error) {
	if raw == "" {
		return nil, nil
	}
	var ls models.LineString
	if err := json.Unmarshal([]byte(raw), &ls); err != nil {
		return nil, fmt.Errorf("failed to decode path: %w", err)
	}
	return DecodeLineString(&ls)
}

// ToLatLon swaps stored [longitude, latitude] order to [latitude, longitude]
// for map display. It is the only place that order is swapped.
func ToLatLon(points []models.TrackPoint) [][2]float64 {
	out := make([][2]float64, len(points))
	for i, p := range points {
		out[i] = [2]float64{p.Latitude, p.Longitude}
	}
	return out
}

// BoundingBox calculates the bounding box of a path
// Returns (minLat, minLon, maxLat, maxLon)
func BoundingBox(points []models.TrackPoint) (float64, float64, float64, float64) {
	if len(points) == 0 {
		return 0, 0, 0, 0
	}

	minLat, maxLat := points[0].Latitude, points[0].Latitude
	minLon, maxLon := points[0].Longitude, points[0].Longitude

	for _, p := range points[1:] {
		minLat = math.Min(minLat, p.Latitude)
		maxLat = math.Max(maxLat, p.Latitude)
		minLon = math.Min(minLon, p.Longitude)
		maxLon = math.Max(maxLon, p.Longitude)
	}

	return minLat, minLon, maxLat, maxLon
}
