package stage

import (
	"math"
	"testing"
)

func TestVerticalFOVSuper35(t *testing.T) {
	// 35mm lens on a Super 35 4-perf sensor (18.66mm high).
	fov := VerticalFOV(35, 18.66)
	if math.Abs(fov-29.86) > 0.01 {
		t.Fatalf("expected ~29.86 degrees, got %v", fov)
	}
}

func TestVerticalFOVRecomputeOnLensChange(t *testing.T) {
	fov35 := VerticalFOV(35, 18.66)
	fov50 := VerticalFOV(50, 18.66)
	if fov50 >= fov35 {
		t.Fatalf("longer lens must narrow the FOV: %v -> %v", fov35, fov50)
	}
	want := 2 * math.Atan(18.66/(2*50)) * (180 / math.Pi)
	if math.Abs(fov50-want) > 1e-9 {
		t.Fatalf("expected %v degrees, got %v", want, fov50)
	}
}

func TestFocalLengthForFOVInverts(t *testing.T) {
	fov := VerticalFOV(35, 18.66)
	focal := FocalLengthForFOV(fov, 18.66)
	if math.Abs(focal-35) > 1e-9 {
		t.Fatalf("expected 35mm back, got %v", focal)
	}
}

func TestSensorPresetLookup(t *testing.T) {
	preset, ok := SensorPresetByID(DefaultSensorPresetID)
	if !ok {
		t.Fatalf("default preset missing")
	}
	if preset.Width != 24.89 || preset.Height != 18.66 {
		t.Fatalf("unexpected default sensor dimensions: %+v", preset)
	}
	if _, ok := SensorPresetByID("nonexistent"); ok {
		t.Fatalf("lookup of unknown preset should fail")
	}
}

func TestNextCameraColorSkipsUsed(t *testing.T) {
	used := map[string]bool{CameraColors[0]: true, CameraColors[1]: true}
	if got := NextCameraColor(used); got != CameraColors[2] {
		t.Fatalf("expected %s, got %s", CameraColors[2], got)
	}

	all := make(map[string]bool, len(CameraColors))
	for _, c := range CameraColors {
		all[c] = true
	}
	if got := NextCameraColor(all); got == "" {
		t.Fatalf("exhausted palette must still return a color")
	}
}
