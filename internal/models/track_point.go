package models

// Coordinate is a raw position fix from a location sensor
type Coordinate struct {
	Latitude  float64  `json:"lat"`
	Longitude float64  `json:"lon"`
	Accuracy  float64  `json:"accuracy,omitempty"` // radius in meters
	Speed     *float64 `json:"speed,omitempty"`    // meters per second, as reported by the sensor
}

// TrackPoint is a validated point on a run's path.
// Points are ordered by insertion, which is temporal order.
type TrackPoint struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// LineString is a GeoJSON LineString geometry; coordinates are [longitude, latitude]
type LineString struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
	BBox        []float64   `json:"bbox,omitempty"` // [minLon, minLat, maxLon, maxLat]
}
