package server

import (
	"sync"

	"stagesync/protocol"
)

// Registry binds connections to project rooms and maintains presence. It is
// the only component that adds or removes room members; a disconnect without
// an explicit leave is cleaned up identically to a leave.
type Registry struct {
	store *RoomStore

	mu     sync.Mutex
	byConn map[string]string // connection id -> project id
}

// NewRegistry constructs a registry over the given room store.
func NewRegistry(store *RoomStore) *Registry {
	return &Registry{store: store, byConn: make(map[string]string)}
}

// Join registers the member in the project room, creating the room lazily.
// It returns the room and the full member list including the new arrival,
// which the gateway delivers to the joining connection.
func (r *Registry) Join(projectID string, member MemberInfo) (*Room, []protocol.OnlineUser) {
	room := r.store.Join(projectID, member)

	r.mu.Lock()
	r.byConn[member.ConnID] = projectID
	r.mu.Unlock()

	return room, room.Members()
}

// Leave removes the member from the room and disposes the room when it was
// the last occupant. Reports whether the member was present.
func (r *Registry) Leave(projectID, userID string) (MemberInfo, bool) {
	room, ok := r.store.Get(projectID)
	if !ok {
		return MemberInfo{}, false
	}
	member, ok := room.removeMember(userID)
	if !ok {
		return MemberInfo{}, false
	}

	r.mu.Lock()
	delete(r.byConn, member.ConnID)
	r.mu.Unlock()

	r.store.DisposeIfEmpty(projectID)
	return member, true
}

// Disconnect mirrors Leave for a connection that dropped without leaving.
// This is the only liveness signal; there is no heartbeat beyond the
// transport's own keep-alive.
func (r *Registry) Disconnect(connID string) (string, MemberInfo, bool) {
	r.mu.Lock()
	projectID, ok := r.byConn[connID]
	if ok {
		delete(r.byConn, connID)
	}
	r.mu.Unlock()
	if !ok {
		return "", MemberInfo{}, false
	}

	room, ok := r.store.Get(projectID)
	if !ok {
		return "", MemberInfo{}, false
	}
	member, ok := room.removeMemberByConn(connID)
	if !ok {
		return "", MemberInfo{}, false
	}
	r.store.DisposeIfEmpty(projectID)
	return projectID, member, true
}
