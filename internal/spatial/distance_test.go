package spatial

import (
	"math"
	"testing"

	"github.com/Negixaab/runningbuddy/internal/models"
)

func TestDistanceKmProperties(t *testing.T) {
	points := []models.Coordinate{
		{Latitude: 0, Longitude: 0},
		{Latitude: 51.5007, Longitude: -0.1246},
		{Latitude: 40.6892, Longitude: -74.0445},
		{Latitude: -33.8568, Longitude: 151.2153},
		{Latitude: 89.9, Longitude: 179.9},
		{Latitude: -89.9, Longitude: -179.9},
	}

	for _, a := range points {
		if d := DistanceKm(a, a); d != 0 {
			t.Errorf("DistanceKm(%v, %v) = %v, want 0", a, a, d)
		}
		for _, b := range points {
			ab, ba := DistanceKm(a, b), DistanceKm(b, a)
			if ab != ba {
				t.Errorf("asymmetric distance %v vs %v for %v, %v", ab, ba, a, b)
			}
			if ab < 0 {
				t.Errorf("negative distance %v", ab)
			}
		}
	}
}

func TestDistanceIsExactlySymmetric(t *testing.T) {
	// this pair differs in the last bit when the cosines are multiplied in argument order
	london := models.Coordinate{Latitude: 51.5007, Longitude: -0.1246}
	sydney := models.Coordinate{Latitude: -33.8568, Longitude: 151.2153}

	if ab, ba := DistanceKm(london, sydney), DistanceKm(sydney, london); ab != ba {
		t.Fatalf("DistanceKm not symmetric: %v vs %v", ab, ba)
	}

	ab := HaversineDistance(london.Latitude, london.Longitude, sydney.Latitude, sydney.Longitude)
	ba := HaversineDistance(sydney.Latitude, sydney.Longitude, london.Latitude, london.Longitude)
	if ab != ba {
		t.Fatalf("HaversineDistance not symmetric: %v vs %v", ab, ba)
	}
}

func TestDistanceKmKnownValue(t *testing.T) {
	// London to New York is about 5570 km on a 6371 km sphere
	london := models.Coordinate{Latitude: 51.5074, Longitude: -0.1278}
	newYork := models.Coordinate{Latitude: 40.7128, Longitude: -74.0060}

	d := DistanceKm(london, newYork)
	if math.Abs(d-5570) > 10 {
		t.Fatalf("DistanceKm(london, newYork) = %v, want ~5570", d)
	}
}

func TestDestinationPointRoundTrip(t *testing.T) {
	lat, lon := DestinationPoint(48.8584, 2.2945, 90, 100)
	d := HaversineDistance(48.8584, 2.2945, lat, lon)
	if math.Abs(d-100) > 0.01 {
		t.Fatalf("expected 100 m, got %v", d)
	}
	if b := Bearing(48.8584, 2.2945, lat, lon); math.Abs(b-90) > 0.1 {
		t.Fatalf("expected bearing 90, got %v", b)
	}
}

func TestPathLengthKm(t *testing.T) {
	tests := []struct {
		name   string
		points []models.TrackPoint
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []models.TrackPoint{{Longitude: 1, Latitude: 1}}, 0},
		{"one degree of latitude", []models.TrackPoint{{Longitude: 0, Latitude: 0}, {Longitude: 0, Latitude: 1}}, EarthRadiusKm * math.Pi / 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PathLengthKm(tt.points); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("PathLengthKm() = %v, want %v", got, tt.want)
			}
		})
	}
}
