package client

import (
	"time"

	"stagesync/protocol"
	"stagesync/stage"
)

// Camera is the client-local shape of a camera. It carries a few fields the
// wire protocol never transmits (aperture, focus distance, timestamps); those
// stay local to this session.
type Camera struct {
	ID            string
	Name          string
	Order         int
	Position      stage.Vector3
	Pan           float64
	Tilt          float64
	Roll          float64
	FOV           float64
	FocalLength   float64
	SensorPreset  string
	SensorWidth   float64
	SensorHeight  float64
	Aperture      float64
	FocusDistance float64
	Color         string
	Enabled       bool
	IsLive        bool
	ProjectID     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Model is the client-local shape of a placed 3D model.
type Model struct {
	ID        string
	Name      string
	FileName  string
	FileType  string
	FileSize  int64
	URL       string
	Transform stage.Transform
	Visible   bool
	ProjectID string
}

func cameraFromWire(rec protocol.CameraRecord) Camera {
	now := time.Now()
	return Camera{
		ID:            rec.ID,
		Name:          rec.Name,
		Order:         rec.Order,
		Position:      stage.Vector3{X: rec.PositionX, Y: rec.PositionY, Z: rec.PositionZ},
		Pan:           rec.Pan,
		Tilt:          rec.Tilt,
		Roll:          rec.Roll,
		FOV:           rec.FOV,
		FocalLength:   rec.FocalLength,
		SensorPreset:  rec.SensorPreset,
		SensorWidth:   rec.SensorWidth,
		SensorHeight:  rec.SensorHeight,
		Aperture:      defaultAperture,
		FocusDistance: defaultFocusDistance,
		Color:         rec.Color,
		Enabled:       rec.Enabled,
		IsLive:        rec.IsLive,
		ProjectID:     rec.ProjectID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func wireFromCamera(c Camera) protocol.CameraRecord {
	return protocol.CameraRecord{
		ID:           c.ID,
		Name:         c.Name,
		Order:        c.Order,
		PositionX:    c.Position.X,
		PositionY:    c.Position.Y,
		PositionZ:    c.Position.Z,
		Pan:          c.Pan,
		Tilt:         c.Tilt,
		Roll:         c.Roll,
		FOV:          c.FOV,
		FocalLength:  c.FocalLength,
		SensorPreset: c.SensorPreset,
		SensorWidth:  c.SensorWidth,
		SensorHeight: c.SensorHeight,
		Color:        c.Color,
		Enabled:      c.Enabled,
		IsLive:       c.IsLive,
		ProjectID:    c.ProjectID,
	}
}

func modelFromWire(rec protocol.ModelRecord) Model {
	return Model{
		ID:       rec.ID,
		Name:     rec.Name,
		FileName: rec.FileName,
		FileType: rec.FileType,
		FileSize: rec.FileSize,
		URL:      rec.URL,
		Transform: stage.Transform{
			Position: stage.Vector3{X: rec.PositionX, Y: rec.PositionY, Z: rec.PositionZ},
			Rotation: stage.Vector3{X: rec.RotationX, Y: rec.RotationY, Z: rec.RotationZ},
			Scale:    stage.Vector3{X: rec.ScaleX, Y: rec.ScaleY, Z: rec.ScaleZ},
		},
		Visible:   rec.Visible,
		ProjectID: rec.ProjectID,
	}
}

func wireFromModel(m Model) protocol.ModelRecord {
	return protocol.ModelRecord{
		ID:        m.ID,
		Name:      m.Name,
		FileName:  m.FileName,
		FileType:  m.FileType,
		FileSize:  m.FileSize,
		URL:       m.URL,
		PositionX: m.Transform.Position.X,
		PositionY: m.Transform.Position.Y,
		PositionZ: m.Transform.Position.Z,
		RotationX: m.Transform.Rotation.X,
		RotationY: m.Transform.Rotation.Y,
		RotationZ: m.Transform.Rotation.Z,
		ScaleX:    m.Transform.Scale.X,
		ScaleY:    m.Transform.Scale.Y,
		ScaleZ:    m.Transform.Scale.Z,
		Visible:   m.Visible,
		ProjectID: m.ProjectID,
	}
}

func applyCameraPatch(c *Camera, patch protocol.CameraPatch) {
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Order != nil {
		c.Order = *patch.Order
	}
	if patch.PositionX != nil {
		c.Position.X = *patch.PositionX
	}
	if patch.PositionY != nil {
		c.Position.Y = *patch.PositionY
	}
	if patch.PositionZ != nil {
		c.Position.Z = *patch.PositionZ
	}
	if patch.Pan != nil {
		c.Pan = *patch.Pan
	}
	if patch.Tilt != nil {
		c.Tilt = *patch.Tilt
	}
	if patch.Roll != nil {
		c.Roll = *patch.Roll
	}
	if patch.FOV != nil {
		c.FOV = *patch.FOV
	}
	if patch.FocalLength != nil {
		c.FocalLength = *patch.FocalLength
	}
	if patch.SensorPreset != nil {
		c.SensorPreset = *patch.SensorPreset
	}
	if patch.SensorWidth != nil {
		c.SensorWidth = *patch.SensorWidth
	}
	if patch.SensorHeight != nil {
		c.SensorHeight = *patch.SensorHeight
	}
	if patch.Color != nil {
		c.Color = *patch.Color
	}
	if patch.Enabled != nil {
		c.Enabled = *patch.Enabled
	}
	if patch.FocalLength != nil || patch.SensorHeight != nil {
		c.FOV = stage.VerticalFOV(c.FocalLength, c.SensorHeight)
	}
	c.UpdatedAt = time.Now()
}

func applyModelPatch(m *Model, patch protocol.ModelPatch) {
	if patch.Name != nil {
		m.Name = *patch.Name
	}
	if patch.PositionX != nil {
		m.Transform.Position.X = *patch.PositionX
	}
	if patch.PositionY != nil {
		m.Transform.Position.Y = *patch.PositionY
	}
	if patch.PositionZ != nil {
		m.Transform.Position.Z = *patch.PositionZ
	}
	if patch.RotationX != nil {
		m.Transform.Rotation.X = *patch.RotationX
	}
	if patch.RotationY != nil {
		m.Transform.Rotation.Y = *patch.RotationY
	}
	if patch.RotationZ != nil {
		m.Transform.Rotation.Z = *patch.RotationZ
	}
	if patch.ScaleX != nil {
		m.Transform.Scale.X = *patch.ScaleX
	}
	if patch.ScaleY != nil {
		m.Transform.Scale.Y = *patch.ScaleY
	}
	if patch.ScaleZ != nil {
		m.Transform.Scale.Z = *patch.ScaleZ
	}
	if patch.Visible != nil {
		m.Visible = *patch.Visible
	}
}
