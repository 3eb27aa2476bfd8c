package stage

import "math"

// Vector3 is a point or direction in scene space.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Transform places a model in the scene. Rotation is stored in degrees;
// renderers convert to radians at draw time.
type Transform struct {
	Position Vector3 `json:"position"`
	Rotation Vector3 `json:"rotation"`
	Scale    Vector3 `json:"scale"`
}

// FOV computes the angle of view in degrees for a sensor dimension and focal
// length, both in millimetres: 2·atan(d / 2f).
func FOV(focalLength, sensorDimension float64) float64 {
	return 2 * math.Atan(sensorDimension/(2*focalLength)) * (180 / math.Pi)
}

// VerticalFOV computes the vertical angle of view from the sensor height.
// This is the value perspective projections consume.
func VerticalFOV(focalLength, sensorHeight float64) float64 {
	return FOV(focalLength, sensorHeight)
}

// HorizontalFOV computes the horizontal angle of view from the sensor width.
func HorizontalFOV(focalLength, sensorWidth float64) float64 {
	return FOV(focalLength, sensorWidth)
}

// DiagonalFOV computes the diagonal angle of view.
func DiagonalFOV(focalLength, sensorWidth, sensorHeight float64) float64 {
	diagonal := math.Sqrt(sensorWidth*sensorWidth + sensorHeight*sensorHeight)
	return FOV(focalLength, diagonal)
}

// FocalLengthForFOV inverts FOV: f = d / (2·tan(fov/2)).
func FocalLengthForFOV(fovDegrees, sensorDimension float64) float64 {
	fovRad := fovDegrees * (math.Pi / 180)
	return sensorDimension / (2 * math.Tan(fovRad/2))
}

// EquivalentFocalLength35 converts a focal length to its full-frame
// equivalent using the diagonal crop factor.
func EquivalentFocalLength35(focalLength, sensorWidth, sensorHeight float64) float64 {
	sensorDiagonal := math.Sqrt(sensorWidth*sensorWidth + sensorHeight*sensorHeight)
	fullFrameDiagonal := math.Sqrt(36*36 + 24*24)
	return focalLength * fullFrameDiagonal / sensorDiagonal
}
