package client

import (
	"sync"

	"go.uber.org/zap"

	"stagesync/protocol"
)

// Emitter is the outbound half of the sync bridge. The websocket client
// implements it; tests substitute an in-memory recorder.
type Emitter interface {
	EmitCameraCreate(rec protocol.CameraRecord)
	EmitCameraUpdate(id string, patch protocol.CameraPatch)
	EmitCameraDelete(id string)
	EmitCameraLive(id string, isLive bool)
	EmitModelAdd(rec protocol.ModelRecord)
	EmitModelUpdate(id string, patch protocol.ModelPatch)
	EmitModelDelete(id string)
}

// Bridge watches the local store and forwards genuinely new local edits to
// the room, while remote and resync changes only move its baseline. It is a
// convergent polling-diff protocol: on every store change it compares the
// delivered snapshot against the previous one and emits create, delete and
// patch events for the differences. The diff runs inside the store's
// mutating critical section, so each change is diffed against exactly the
// state it produced; a remote insert committing on the read-loop goroutine
// while the UI edits can never leak into a local-origin diff.
type Bridge struct {
	emit Emitter
	log  *zap.Logger

	mu          sync.Mutex
	initialized bool
	prevCameras []Camera
	prevModels  []Model
	prevLiveID  string
}

// NewBridge attaches a bridge to the store. The store's change callback is
// claimed by the bridge; there is exactly one bridge per store.
func NewBridge(store *Store, emit Emitter, log *zap.Logger) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Bridge{emit: emit, log: log}
	store.OnChange(b.onStoreChange)
	return b
}

func (b *Bridge) onStoreChange(origin Origin, snap Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Remote and resync changes are already acknowledged by the room, and
	// the very first observation covers startup defaults that no user just
	// created. Both baseline silently.
	if origin != OriginLocal || !b.initialized {
		b.baseline(snap)
		return
	}

	b.diffCameras(snap.Cameras)
	b.diffModels(snap.Models)

	if snap.LiveCameraID != b.prevLiveID {
		// Two separate events, never combined, so last-writer-wins on the
		// server sees an unambiguous clear-then-set sequence.
		if b.prevLiveID != "" {
			b.emit.EmitCameraLive(b.prevLiveID, false)
		}
		if snap.LiveCameraID != "" {
			b.emit.EmitCameraLive(snap.LiveCameraID, true)
		}
	}

	b.baseline(snap)
}

func (b *Bridge) baseline(snap Snapshot) {
	b.prevCameras = snap.Cameras
	b.prevModels = snap.Models
	b.prevLiveID = snap.LiveCameraID
	b.initialized = true
}

func (b *Bridge) diffCameras(current []Camera) {
	prev := make(map[string]Camera, len(b.prevCameras))
	for _, cam := range b.prevCameras {
		prev[cam.ID] = cam
	}
	seen := make(map[string]bool, len(current))

	for _, cam := range current {
		seen[cam.ID] = true
		before, existed := prev[cam.ID]
		if !existed {
			b.log.Debug("bridge: camera created", zap.String("id", cam.ID))
			b.emit.EmitCameraCreate(wireFromCamera(cam))
			continue
		}
		if patch := diffCamera(before, cam); !patch.IsZero() {
			b.emit.EmitCameraUpdate(cam.ID, patch)
		}
	}
	for _, cam := range b.prevCameras {
		if !seen[cam.ID] {
			b.log.Debug("bridge: camera deleted", zap.String("id", cam.ID))
			b.emit.EmitCameraDelete(cam.ID)
		}
	}
}

func (b *Bridge) diffModels(current []Model) {
	prev := make(map[string]Model, len(b.prevModels))
	for _, m := range b.prevModels {
		prev[m.ID] = m
	}
	seen := make(map[string]bool, len(current))

	for _, m := range current {
		seen[m.ID] = true
		before, existed := prev[m.ID]
		if !existed {
			b.log.Debug("bridge: model added", zap.String("id", m.ID))
			b.emit.EmitModelAdd(wireFromModel(m))
			continue
		}
		if patch := diffModel(before, m); !patch.IsZero() {
			b.emit.EmitModelUpdate(m.ID, patch)
		}
	}
	for _, m := range b.prevModels {
		if !seen[m.ID] {
			b.log.Debug("bridge: model deleted", zap.String("id", m.ID))
			b.emit.EmitModelDelete(m.ID)
		}
	}
}

// diffCamera builds the outbound patch from the curated set of fields the
// room protocol tracks. Deliberately not the full internal shape: aperture,
// focus distance and timestamps stay local to this session.
func diffCamera(before, after Camera) protocol.CameraPatch {
	var patch protocol.CameraPatch
	if after.Name != before.Name {
		patch.Name = &after.Name
	}
	if after.Position.X != before.Position.X {
		patch.PositionX = &after.Position.X
	}
	if after.Position.Y != before.Position.Y {
		patch.PositionY = &after.Position.Y
	}
	if after.Position.Z != before.Position.Z {
		patch.PositionZ = &after.Position.Z
	}
	if after.Pan != before.Pan {
		patch.Pan = &after.Pan
	}
	if after.Tilt != before.Tilt {
		patch.Tilt = &after.Tilt
	}
	if after.Roll != before.Roll {
		patch.Roll = &after.Roll
	}
	if after.FOV != before.FOV {
		patch.FOV = &after.FOV
	}
	if after.FocalLength != before.FocalLength {
		patch.FocalLength = &after.FocalLength
	}
	if after.SensorPreset != before.SensorPreset {
		patch.SensorPreset = &after.SensorPreset
		patch.SensorWidth = &after.SensorWidth
		patch.SensorHeight = &after.SensorHeight
	}
	if after.Enabled != before.Enabled {
		patch.Enabled = &after.Enabled
	}
	return patch
}

func diffModel(before, after Model) protocol.ModelPatch {
	var patch protocol.ModelPatch
	if after.Name != before.Name {
		patch.Name = &after.Name
	}
	if after.Transform.Position.X != before.Transform.Position.X {
		patch.PositionX = &after.Transform.Position.X
	}
	if after.Transform.Position.Y != before.Transform.Position.Y {
		patch.PositionY = &after.Transform.Position.Y
	}
	if after.Transform.Position.Z != before.Transform.Position.Z {
		patch.PositionZ = &after.Transform.Position.Z
	}
	if after.Transform.Rotation.X != before.Transform.Rotation.X {
		patch.RotationX = &after.Transform.Rotation.X
	}
	if after.Transform.Rotation.Y != before.Transform.Rotation.Y {
		patch.RotationY = &after.Transform.Rotation.Y
	}
	if after.Transform.Rotation.Z != before.Transform.Rotation.Z {
		patch.RotationZ = &after.Transform.Rotation.Z
	}
	if after.Transform.Scale.X != before.Transform.Scale.X {
		patch.ScaleX = &after.Transform.Scale.X
	}
	if after.Transform.Scale.Y != before.Transform.Scale.Y {
		patch.ScaleY = &after.Transform.Scale.Y
	}
	if after.Transform.Scale.Z != before.Transform.Scale.Z {
		patch.ScaleZ = &after.Transform.Scale.Z
	}
	if after.Visible != before.Visible {
		patch.Visible = &after.Visible
	}
	return patch
}
