package geo

import (
	"math"
	"testing"

	"github.com/fraudops/fieldkit/core/model"
)

func TestHaversineKm(t *testing.T) {
	paris := model.Location{Latitude: 48.8566, Longitude: 2.3522}
	lyon := model.Location{Latitude: 45.7640, Longitude: 4.8357}
	d := HaversineKm(paris, lyon)
	if math.Abs(d-392) > 5 {
		t.Fatalf("paris-lyon distance off: got %.1f km", d)
	}
	if HaversineKm(paris, paris) != 0 {
		t.Fatal("distance to self must be zero")
	}
}

func TestHaversineSmallOffsets(t *testing.T) {
	base := model.Location{Latitude: 40.0, Longitude: -74.0}
	// ~400 m north of base: 0.0036 degrees of latitude.
	near := model.Location{Latitude: 40.0036, Longitude: -74.0}
	if d := HaversineKm(base, near); d < 0.35 || d > 0.45 {
		t.Fatalf("expected ~0.4 km, got %.3f", d)
	}
	// ~600 m north.
	far := model.Location{Latitude: 40.0054, Longitude: -74.0}
	if d := HaversineKm(base, far); d < 0.55 || d > 0.65 {
		t.Fatalf("expected ~0.6 km, got %.3f", d)
	}
}
