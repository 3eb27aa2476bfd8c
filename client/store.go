package client

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"stagesync/protocol"
	"stagesync/stage"
)

// Origin tags where a store mutation came from. The sync bridge's emit
// decision is a pure function of this value: only OriginLocal changes are
// diffed and sent to the room; remote and resync changes baseline silently.
type Origin int

const (
	// OriginLocal marks an edit made in this session's UI.
	OriginLocal Origin = iota
	// OriginRemote marks a single change received from another session.
	OriginRemote
	// OriginResync marks a full-state replace from a room snapshot.
	OriginResync
)

func (o Origin) String() string {
	switch o {
	case OriginLocal:
		return "local"
	case OriginRemote:
		return "remote"
	case OriginResync:
		return "resync"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

// Defaults for newly created cameras.
const (
	defaultFocalLength   = 35
	defaultAperture      = 2.8
	defaultFocusDistance = 5
)

// Snapshot is the post-mutation state handed to the change observer. It is
// the observer's only view of the store during a change: the copies are
// taken in the same critical section as the mutation, so the snapshot always
// describes exactly the state the mutation's origin tag refers to, even with
// the network read loop and UI edits running on different goroutines.
type Snapshot struct {
	Cameras      []Camera
	Models       []Model
	LiveCameraID string
}

// Store is the client-local mirror of the room: an ordered collection of
// cameras and models plus the live-camera pointer. It is the source of truth
// for this session's own UI until a remote update arrives; it is never
// authoritative for other sessions.
type Store struct {
	mu           sync.Mutex
	projectID    string
	cameras      []Camera
	models       []Model
	liveCameraID string
	onChange     func(Origin, Snapshot)
}

// NewStore returns an empty store for the given project.
func NewStore(projectID string) *Store {
	return &Store{projectID: projectID}
}

// OnChange registers the single change observer. The callback runs
// synchronously inside the mutating critical section, one invocation per
// mutation in commit order, and must work from the snapshot alone: calling
// back into the store would deadlock.
func (s *Store) OnChange(fn func(Origin, Snapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// notifyLocked delivers the post-mutation snapshot. Caller holds s.mu.
func (s *Store) notifyLocked(origin Origin) {
	if s.onChange == nil {
		return
	}
	s.onChange(origin, Snapshot{
		Cameras:      append([]Camera(nil), s.cameras...),
		Models:       append([]Model(nil), s.models...),
		LiveCameraID: s.liveCameraID,
	})
}

// ProjectID returns the project this store mirrors.
func (s *Store) ProjectID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectID
}

// Cameras returns a copy of the camera collection in store order.
func (s *Store) Cameras() []Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Camera, len(s.cameras))
	copy(out, s.cameras)
	return out
}

// Camera returns a copy of the camera with the given id.
func (s *Store) Camera(id string) (Camera, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.cameraIndex(id); i >= 0 {
		return s.cameras[i], true
	}
	return Camera{}, false
}

// Models returns a copy of the model collection in store order.
func (s *Store) Models() []Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Model, len(s.models))
	copy(out, s.models)
	return out
}

// Model returns a copy of the model with the given id.
func (s *Store) Model(id string) (Model, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.modelIndex(id); i >= 0 {
		return s.models[i], true
	}
	return Model{}, false
}

// LiveCameraID returns the current live camera id, or "" when none is live.
func (s *Store) LiveCameraID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveCameraID
}

func (s *Store) cameraIndex(id string) int {
	for i := range s.cameras {
		if s.cameras[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) modelIndex(id string) int {
	for i := range s.models {
		if s.models[i].ID == id {
			return i
		}
	}
	return -1
}

// AddCamera creates a camera with the session defaults: the next free name
// and palette color, a hint of elevation, and the stock Super 35 lens setup.
func (s *Store) AddCamera() Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	preset, _ := stage.SensorPresetByID(stage.DefaultSensorPresetID)
	used := make(map[string]bool, len(s.cameras))
	maxOrder := -1
	for i := range s.cameras {
		used[s.cameras[i].Color] = true
		if s.cameras[i].Order > maxOrder {
			maxOrder = s.cameras[i].Order
		}
	}
	now := time.Now()
	cam := Camera{
		ID:            uuid.NewString(),
		Name:          fmt.Sprintf("Camera %d", len(s.cameras)+1),
		Order:         maxOrder + 1,
		Position:      stage.Vector3{X: 5, Y: 2, Z: 5},
		Pan:           -45,
		Tilt:          -10,
		FocalLength:   defaultFocalLength,
		FOV:           stage.VerticalFOV(defaultFocalLength, preset.Height),
		SensorPreset:  preset.ID,
		SensorWidth:   preset.Width,
		SensorHeight:  preset.Height,
		Aperture:      defaultAperture,
		FocusDistance: defaultFocusDistance,
		Color:         stage.NextCameraColor(used),
		Enabled:       true,
		ProjectID:     s.projectID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.cameras = append(s.cameras, cam)
	s.notifyLocked(OriginLocal)
	return cam
}

// InsertCamera adds an existing camera record, e.g. one received from a peer.
func (s *Store) InsertCamera(cam Camera, origin Origin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.cameraIndex(cam.ID); i >= 0 {
		s.cameras[i] = cam
	} else {
		s.cameras = append(s.cameras, cam)
	}
	s.notifyLocked(origin)
}

// UpdateCamera applies a partial patch. The vertical field of view is
// recomputed whenever the focal length or sensor height changes, so it can
// never go stale relative to the lens. Unknown ids are ignored.
func (s *Store) UpdateCamera(id string, patch protocol.CameraPatch, origin Origin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.cameraIndex(id)
	if i < 0 {
		return
	}
	applyCameraPatch(&s.cameras[i], patch)
	s.notifyLocked(origin)
}

// RemoveCamera deletes a camera. Removing the live camera clears the live
// pointer.
func (s *Store) RemoveCamera(id string, origin Origin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.cameraIndex(id)
	if i < 0 {
		return
	}
	s.cameras = append(s.cameras[:i], s.cameras[i+1:]...)
	if s.liveCameraID == id {
		s.liveCameraID = ""
	}
	s.notifyLocked(origin)
}

// SetLiveCamera sets or clears the program camera. Clearing only takes
// effect if the id still holds the pointer, so a stale unset cannot stomp a
// newer selection.
func (s *Store) SetLiveCamera(id string, isLive bool, origin Origin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if isLive {
		s.liveCameraID = id
	} else if s.liveCameraID == id {
		s.liveCameraID = ""
	}
	for i := range s.cameras {
		s.cameras[i].IsLive = s.cameras[i].ID == s.liveCameraID
	}
	s.notifyLocked(origin)
}

// SetFocalLength changes the lens focal length in millimetres.
func (s *Store) SetFocalLength(id string, mm float64) {
	s.UpdateCamera(id, protocol.CameraPatch{FocalLength: &mm}, OriginLocal)
}

// SetSensorPreset applies a sensor preset: the physical dimensions are
// copied and the field of view recomputed. Unknown preset ids are ignored.
func (s *Store) SetSensorPreset(id, presetID string) {
	preset, ok := stage.SensorPresetByID(presetID)
	if !ok {
		return
	}
	s.UpdateCamera(id, protocol.CameraPatch{
		SensorPreset: &preset.ID,
		SensorWidth:  &preset.Width,
		SensorHeight: &preset.Height,
	}, OriginLocal)
}

// SetPosition moves a camera in scene space.
func (s *Store) SetPosition(id string, pos stage.Vector3) {
	s.UpdateCamera(id, protocol.CameraPatch{
		PositionX: &pos.X, PositionY: &pos.Y, PositionZ: &pos.Z,
	}, OriginLocal)
}

// SetPanTiltRoll orients a camera, all angles in degrees.
func (s *Store) SetPanTiltRoll(id string, pan, tilt, roll float64) {
	s.UpdateCamera(id, protocol.CameraPatch{
		Pan: &pan, Tilt: &tilt, Roll: &roll,
	}, OriginLocal)
}

// Rename changes a camera's display name.
func (s *Store) Rename(id, name string) {
	s.UpdateCamera(id, protocol.CameraPatch{Name: &name}, OriginLocal)
}

// Duplicate clones a camera next to the original with a fresh id.
func (s *Store) Duplicate(id string) (Camera, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.cameraIndex(id)
	if i < 0 {
		return Camera{}, false
	}
	maxOrder := -1
	for j := range s.cameras {
		if s.cameras[j].Order > maxOrder {
			maxOrder = s.cameras[j].Order
		}
	}
	dup := s.cameras[i]
	dup.ID = uuid.NewString()
	dup.Name += " Copy"
	dup.Order = maxOrder + 1
	dup.Position.X++
	dup.Position.Z++
	dup.IsLive = false
	now := time.Now()
	dup.CreatedAt = now
	dup.UpdatedAt = now
	s.cameras = append(s.cameras, dup)
	s.notifyLocked(OriginLocal)
	return dup, true
}

// Reset restores a camera to the stock position and lens setup, keeping its
// identity, name, order and color.
func (s *Store) Reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.cameraIndex(id)
	if i < 0 {
		return
	}
	preset, _ := stage.SensorPresetByID(stage.DefaultSensorPresetID)
	cam := &s.cameras[i]
	cam.Position = stage.Vector3{X: 5, Y: 2, Z: 5}
	cam.Pan, cam.Tilt, cam.Roll = -45, -10, 0
	cam.FocalLength = defaultFocalLength
	cam.SensorPreset = preset.ID
	cam.SensorWidth = preset.Width
	cam.SensorHeight = preset.Height
	cam.FOV = stage.VerticalFOV(cam.FocalLength, cam.SensorHeight)
	cam.Aperture = defaultAperture
	cam.FocusDistance = defaultFocusDistance
	cam.UpdatedAt = time.Now()
	s.notifyLocked(OriginLocal)
}

// EnableAll marks every camera enabled.
func (s *Store) EnableAll() { s.setAllEnabled(true) }

// DisableAll marks every camera disabled.
func (s *Store) DisableAll() { s.setAllEnabled(false) }

func (s *Store) setAllEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for i := range s.cameras {
		s.cameras[i].Enabled = enabled
		s.cameras[i].UpdatedAt = now
	}
	s.notifyLocked(OriginLocal)
}

// AddModel places a model in the scene. A zero-valued scale is promoted to
// identity so a bare record renders at natural size.
func (s *Store) AddModel(m Model, origin Origin) Model {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if (m.Transform.Scale == stage.Vector3{}) {
		m.Transform.Scale = stage.Vector3{X: 1, Y: 1, Z: 1}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ProjectID == "" {
		m.ProjectID = s.projectID
	}
	if i := s.modelIndex(m.ID); i >= 0 {
		s.models[i] = m
	} else {
		s.models = append(s.models, m)
	}
	s.notifyLocked(origin)
	return m
}

// UpdateModel applies a partial patch. Unknown ids are ignored.
func (s *Store) UpdateModel(id string, patch protocol.ModelPatch, origin Origin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.modelIndex(id)
	if i < 0 {
		return
	}
	applyModelPatch(&s.models[i], patch)
	s.notifyLocked(origin)
}

// RemoveModel deletes a model from the scene.
func (s *Store) RemoveModel(id string, origin Origin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.modelIndex(id)
	if i < 0 {
		return
	}
	s.models = append(s.models[:i], s.models[i+1:]...)
	s.notifyLocked(origin)
}

// SetModelVisible toggles a model's visibility.
func (s *Store) SetModelVisible(id string, visible bool) {
	s.UpdateModel(id, protocol.ModelPatch{Visible: &visible}, OriginLocal)
}

// SetModelTransform replaces a model's full transform.
func (s *Store) SetModelTransform(id string, tf stage.Transform) {
	s.UpdateModel(id, protocol.ModelPatch{
		PositionX: &tf.Position.X, PositionY: &tf.Position.Y, PositionZ: &tf.Position.Z,
		RotationX: &tf.Rotation.X, RotationY: &tf.Rotation.Y, RotationZ: &tf.Rotation.Z,
		ScaleX: &tf.Scale.X, ScaleY: &tf.Scale.Y, ScaleZ: &tf.Scale.Z,
	}, OriginLocal)
}

// ReplaceAll swaps the entire store contents for a room snapshot. This is
// the only catch-up mechanism after a join or reconnect.
func (s *Store) ReplaceAll(data protocol.ProjectData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameras = s.cameras[:0]
	for _, rec := range data.Cameras {
		s.cameras = append(s.cameras, cameraFromWire(rec))
	}
	s.models = s.models[:0]
	for _, rec := range data.Models {
		s.models = append(s.models, modelFromWire(rec))
	}
	s.liveCameraID = ""
	if data.LiveCameraID != nil {
		s.liveCameraID = *data.LiveCameraID
	}
	for i := range s.cameras {
		s.cameras[i].IsLive = s.cameras[i].ID == s.liveCameraID
	}
	s.notifyLocked(OriginResync)
}
