package server

import (
	"sort"
	"sync"

	"stagesync/protocol"
)

// MemberInfo identifies a connected editor within a room. It exists only
// while the connection is up.
type MemberInfo struct {
	UserID   string
	UserName string
	ConnID   string
}

// Room is the authoritative in-memory state for one project. Every connected
// client holds a derived copy that is reconciled against this, never the
// other way around.
type Room struct {
	projectID string

	mu           sync.Mutex
	cameras      map[string]*protocol.CameraRecord
	models       map[string]*protocol.ModelRecord
	liveCameraID string
	members      map[string]MemberInfo
}

func newRoom(projectID string) *Room {
	return &Room{
		projectID: projectID,
		cameras:   make(map[string]*protocol.CameraRecord),
		models:    make(map[string]*protocol.ModelRecord),
		members:   make(map[string]MemberInfo),
	}
}

func (r *Room) ProjectID() string { return r.projectID }

// ApplyCameraCreate stores a camera, replacing any record with the same id.
func (r *Room) ApplyCameraCreate(rec protocol.CameraRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := rec
	r.cameras[rec.ID] = &stored
}

// ApplyCameraUpdate merges a partial patch into an existing camera. A patch
// for an unknown id is a no-op and reports false; a late update can never
// resurrect a deleted camera.
func (r *Room) ApplyCameraUpdate(id string, patch protocol.CameraPatch) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.cameras[id]
	if !ok {
		return false
	}
	patch.Apply(rec)
	return true
}

// ApplyCameraDelete removes a camera. Deleting the live camera clears the
// live pointer. Reports whether the live pointer was cleared.
func (r *Room) ApplyCameraDelete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cameras, id)
	if r.liveCameraID == id {
		r.liveCameraID = ""
		return true
	}
	return false
}

// SetLiveCamera points the program output at a camera, or clears it. Clearing
// only takes effect if the id still holds the pointer, so an unset for a
// superseded camera cannot stomp a newer selection.
func (r *Room) SetLiveCamera(id string, isLive bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if isLive {
		r.liveCameraID = id
	} else if r.liveCameraID == id {
		r.liveCameraID = ""
	}
}

// LiveCameraID returns the current program camera id, or "".
func (r *Room) LiveCameraID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.liveCameraID
}

// Camera returns a copy of the stored record.
func (r *Room) Camera(id string) (protocol.CameraRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.cameras[id]
	if !ok {
		return protocol.CameraRecord{}, false
	}
	return *rec, true
}

// ApplyModelAdd stores a model, replacing any record with the same id.
func (r *Room) ApplyModelAdd(rec protocol.ModelRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := rec
	r.models[rec.ID] = &stored
}

// ApplyModelUpdate merges a partial patch into an existing model.
func (r *Room) ApplyModelUpdate(id string, patch protocol.ModelPatch) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.models[id]
	if !ok {
		return false
	}
	patch.Apply(rec)
	return true
}

// ApplyModelDelete removes a model.
func (r *Room) ApplyModelDelete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.models, id)
}

// Model returns a copy of the stored record.
func (r *Room) Model(id string) (protocol.ModelRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.models[id]
	if !ok {
		return protocol.ModelRecord{}, false
	}
	return *rec, true
}

// Snapshot captures the full room state for a joining connection. Cameras
// are ordered by their ordering index, models by name, both with id as the
// tie-breaker so snapshots are deterministic.
func (r *Room) Snapshot() protocol.ProjectData {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := protocol.ProjectData{
		Cameras: make([]protocol.CameraRecord, 0, len(r.cameras)),
		Models:  make([]protocol.ModelRecord, 0, len(r.models)),
	}
	for _, rec := range r.cameras {
		data.Cameras = append(data.Cameras, *rec)
	}
	sort.Slice(data.Cameras, func(i, j int) bool {
		if data.Cameras[i].Order != data.Cameras[j].Order {
			return data.Cameras[i].Order < data.Cameras[j].Order
		}
		return data.Cameras[i].ID < data.Cameras[j].ID
	})
	for _, rec := range r.models {
		data.Models = append(data.Models, *rec)
	}
	sort.Slice(data.Models, func(i, j int) bool {
		if data.Models[i].Name != data.Models[j].Name {
			return data.Models[i].Name < data.Models[j].Name
		}
		return data.Models[i].ID < data.Models[j].ID
	})
	if r.liveCameraID != "" {
		live := r.liveCameraID
		data.LiveCameraID = &live
	}
	return data
}

func (r *Room) addMember(m MemberInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[m.UserID] = m
}

func (r *Room) removeMember(userID string) (MemberInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[userID]
	if ok {
		delete(r.members, userID)
	}
	return m, ok
}

func (r *Room) removeMemberByConn(connID string) (MemberInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, m := range r.members {
		if m.ConnID == connID {
			delete(r.members, userID)
			return m, true
		}
	}
	return MemberInfo{}, false
}

// Members lists the room occupants sorted by user id.
func (r *Room) Members() []protocol.OnlineUser {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]protocol.OnlineUser, 0, len(r.members))
	for _, m := range r.members {
		users = append(users, protocol.OnlineUser{ID: m.UserID, Name: m.UserName, ConnectionID: m.ConnID})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// MemberCount returns the number of connected members.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// RoomStore tracks live rooms by project id. It is an injected service, not
// a package-level singleton, so tests can run isolated instances.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRoomStore constructs an empty store.
func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[string]*Room)}
}

// GetOrCreate returns the room for a project, creating it lazily on first
// join.
func (s *RoomStore) GetOrCreate(projectID string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[projectID]
	if !ok {
		room = newRoom(projectID)
		s.rooms[projectID] = room
	}
	return room
}

// Join resolves the room and registers the member in one critical section.
// Done as two steps, a concurrent DisposeIfEmpty could drop the room between
// lookup and registration and strand the joiner in an orphaned room.
func (s *RoomStore) Join(projectID string, member MemberInfo) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[projectID]
	if !ok {
		room = newRoom(projectID)
		s.rooms[projectID] = room
	}
	room.addMember(member)
	return room
}

// Get returns the room for a project if it exists.
func (s *RoomStore) Get(projectID string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[projectID]
	return room, ok
}

// DisposeIfEmpty drops the room when its last member has left. Live edits
// are in-memory only, so the room's entity state goes with it.
func (s *RoomStore) DisposeIfEmpty(projectID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[projectID]
	if !ok || room.MemberCount() > 0 {
		return false
	}
	delete(s.rooms, projectID)
	return true
}

// ActiveRooms returns the number of live rooms.
func (s *RoomStore) ActiveRooms() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
