package server

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"stagesync/protocol"
)

// sender is the outbound half of a connection. The gateway fans events out
// through this interface so tests can substitute in-memory peers.
type sender interface {
	ID() string
	Send(event string, payload any) error
}

// ProjectCatalog records project activity in the persistence service. The
// sync core only touches it at this boundary; live edits are never persisted.
type ProjectCatalog interface {
	Touch(projectID string, at time.Time) error
}

type connEntry struct {
	sender sender
	room   *Room
	userID string
}

// Gateway is the single entry point for room mutation traffic. Every
// handler applies the mutation to the room state store first and fans out
// afterwards, so the room can never observe a mutation out of order relative
// to the authoritative state.
type Gateway struct {
	store    *RoomStore
	registry *Registry
	log      *zap.Logger
	metrics  *Metrics
	catalog  ProjectCatalog

	mu    sync.RWMutex
	conns map[string]*connEntry
}

// NewGateway constructs a gateway over the given store and registry.
func NewGateway(store *RoomStore, registry *Registry, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		store:    store,
		registry: registry,
		log:      log,
		metrics:  &Metrics{},
		conns:    make(map[string]*connEntry),
	}
}

// SetCatalog wires the persistence boundary. Optional.
func (g *Gateway) SetCatalog(catalog ProjectCatalog) {
	g.catalog = catalog
}

// Metrics exposes the gateway counters.
func (g *Gateway) Metrics() *Metrics { return g.metrics }

// Register adds a connection to the fan-out table.
func (g *Gateway) Register(s sender) {
	g.mu.Lock()
	g.conns[s.ID()] = &connEntry{sender: s}
	g.mu.Unlock()
	g.metrics.Connections.Add(1)
}

// Unregister removes a connection and cleans up its room membership exactly
// as an explicit leave would.
func (g *Gateway) Unregister(connID string) {
	g.mu.Lock()
	delete(g.conns, connID)
	g.mu.Unlock()

	projectID, member, ok := g.registry.Disconnect(connID)
	if !ok {
		return
	}
	g.log.Info("member disconnected",
		zap.String("project", projectID),
		zap.String("user", member.UserID),
	)
	if room, ok := g.store.Get(projectID); ok {
		g.broadcast(room, connID, false, protocol.EventUserLeft,
			protocol.UserLeft{UserID: member.UserID, ProjectID: projectID})
	}
}

// Handle dispatches one inbound frame from a connection. Malformed frames
// and payloads are logged and skipped; mutation events from a connection
// that has not joined a room are silently dropped.
func (g *Gateway) Handle(connID string, frame []byte) {
	g.metrics.EventsInbound.Add(1)

	env, err := protocol.Decode(frame)
	if err != nil {
		g.log.Warn("dropping malformed frame", zap.String("conn", connID), zap.Error(err))
		return
	}

	switch env.Event {
	case protocol.EventProjectJoin:
		var req protocol.JoinRequest
		if err := env.Payload(&req); err != nil {
			g.log.Warn("bad join payload", zap.String("conn", connID), zap.Error(err))
			return
		}
		g.handleJoin(connID, req)
	case protocol.EventProjectLeave:
		var req protocol.LeaveRequest
		if err := env.Payload(&req); err != nil {
			g.log.Warn("bad leave payload", zap.String("conn", connID), zap.Error(err))
			return
		}
		g.handleLeave(connID, req)
	case protocol.EventCameraCreate:
		var rec protocol.CameraRecord
		if err := env.Payload(&rec); err != nil {
			g.log.Warn("bad camera create payload", zap.String("conn", connID), zap.Error(err))
			return
		}
		g.handleCameraCreate(connID, rec)
	case protocol.EventCameraUpdate:
		var upd protocol.CameraUpdate
		if err := env.Payload(&upd); err != nil {
			g.log.Warn("bad camera update payload", zap.String("conn", connID), zap.Error(err))
			return
		}
		g.handleCameraUpdate(connID, upd)
	case protocol.EventCameraDelete:
		var del protocol.CameraDelete
		if err := env.Payload(&del); err != nil {
			g.log.Warn("bad camera delete payload", zap.String("conn", connID), zap.Error(err))
			return
		}
		g.handleCameraDelete(connID, del)
	case protocol.EventCameraLive:
		var live protocol.CameraLive
		if err := env.Payload(&live); err != nil {
			g.log.Warn("bad camera live payload", zap.String("conn", connID), zap.Error(err))
			return
		}
		g.handleCameraLive(connID, live)
	case protocol.EventModelAdd:
		var rec protocol.ModelRecord
		if err := env.Payload(&rec); err != nil {
			g.log.Warn("bad model add payload", zap.String("conn", connID), zap.Error(err))
			return
		}
		g.handleModelAdd(connID, rec)
	case protocol.EventModelUpdate:
		var upd protocol.ModelUpdate
		if err := env.Payload(&upd); err != nil {
			g.log.Warn("bad model update payload", zap.String("conn", connID), zap.Error(err))
			return
		}
		g.handleModelUpdate(connID, upd)
	case protocol.EventModelDelete:
		var del protocol.ModelDelete
		if err := env.Payload(&del); err != nil {
			g.log.Warn("bad model delete payload", zap.String("conn", connID), zap.Error(err))
			return
		}
		g.handleModelDelete(connID, del)
	default:
		g.log.Debug("ignoring unknown event", zap.String("event", env.Event))
	}
}

func (g *Gateway) handleJoin(connID string, req protocol.JoinRequest) {
	entry := g.entry(connID)
	if entry == nil {
		return
	}

	// A join while already in a room is an implicit leave of the old one.
	if entry.room != nil {
		g.handleLeave(connID, protocol.LeaveRequest{
			ProjectID: entry.room.ProjectID(),
			UserID:    entry.userID,
		})
	}

	member := MemberInfo{UserID: req.UserID, UserName: req.UserName, ConnID: connID}
	room, users := g.registry.Join(req.ProjectID, member)
	entry.room = room
	entry.userID = req.UserID

	g.log.Info("member joined",
		zap.String("project", req.ProjectID),
		zap.String("user", req.UserID),
		zap.String("name", req.UserName),
	)

	if g.catalog != nil {
		if err := g.catalog.Touch(req.ProjectID, time.Now().UTC()); err != nil {
			g.log.Warn("project catalog touch failed", zap.String("project", req.ProjectID), zap.Error(err))
		}
	}

	g.broadcast(room, connID, false, protocol.EventUserJoined,
		protocol.UserJoined{UserID: req.UserID, UserName: req.UserName, ProjectID: req.ProjectID})

	g.sendTo(connID, protocol.EventUsersOnline, protocol.UsersOnline{Users: users})

	// Full-state snapshot to the joining connection only. This is the sole
	// catch-up mechanism; there is no historical log or patch replay.
	g.sendTo(connID, protocol.EventProjectData, room.Snapshot())
}

func (g *Gateway) handleLeave(connID string, req protocol.LeaveRequest) {
	entry := g.entry(connID)
	if entry == nil {
		return
	}
	member, ok := g.registry.Leave(req.ProjectID, req.UserID)
	if !ok {
		return
	}
	entry.room = nil
	entry.userID = ""

	g.log.Info("member left", zap.String("project", req.ProjectID), zap.String("user", member.UserID))

	if room, ok := g.store.Get(req.ProjectID); ok {
		g.broadcast(room, connID, false, protocol.EventUserLeft,
			protocol.UserLeft{UserID: req.UserID, ProjectID: req.ProjectID})
	}
}

func (g *Gateway) handleCameraCreate(connID string, rec protocol.CameraRecord) {
	entry, room := g.joinedRoom(connID)
	if room == nil {
		return
	}
	room.ApplyCameraCreate(rec)
	g.broadcast(room, entry.sender.ID(), false, protocol.EventCameraCreated, rec)
}

func (g *Gateway) handleCameraUpdate(connID string, upd protocol.CameraUpdate) {
	entry, room := g.joinedRoom(connID)
	if room == nil {
		return
	}
	if !room.ApplyCameraUpdate(upd.CameraID, upd.Update) {
		// Stale reference: patching an unknown camera is a no-op and is not
		// rebroadcast, so a late update cannot resurrect a deleted record.
		return
	}
	out := protocol.CameraUpdate{CameraID: upd.CameraID, Update: upd.Update, UserID: entry.userID}
	g.broadcast(room, connID, false, protocol.EventCameraUpdated, out)
}

func (g *Gateway) handleCameraDelete(connID string, del protocol.CameraDelete) {
	_, room := g.joinedRoom(connID)
	if room == nil {
		return
	}
	room.ApplyCameraDelete(del.CameraID)
	g.broadcast(room, connID, false, protocol.EventCameraDeleted, del)
}

func (g *Gateway) handleCameraLive(connID string, live protocol.CameraLive) {
	_, room := g.joinedRoom(connID)
	if room == nil {
		return
	}
	room.SetLiveCamera(live.CameraID, live.IsLive)
	// Self-inclusive: the sender's UI takes the authoritative confirmation
	// rather than trusting its own optimistic state.
	g.broadcast(room, connID, true, protocol.EventCameraIsLive, live)
}

func (g *Gateway) handleModelAdd(connID string, rec protocol.ModelRecord) {
	_, room := g.joinedRoom(connID)
	if room == nil {
		return
	}
	room.ApplyModelAdd(rec)
	g.broadcast(room, connID, false, protocol.EventModelAdded, rec)
}

func (g *Gateway) handleModelUpdate(connID string, upd protocol.ModelUpdate) {
	entry, room := g.joinedRoom(connID)
	if room == nil {
		return
	}
	if !room.ApplyModelUpdate(upd.ModelID, upd.Update) {
		return
	}
	out := protocol.ModelUpdate{ModelID: upd.ModelID, Update: upd.Update, UserID: entry.userID}
	g.broadcast(room, connID, false, protocol.EventModelUpdated, out)
}

func (g *Gateway) handleModelDelete(connID string, del protocol.ModelDelete) {
	_, room := g.joinedRoom(connID)
	if room == nil {
		return
	}
	room.ApplyModelDelete(del.ModelID)
	g.broadcast(room, connID, false, protocol.EventModelDeleted, del)
}

func (g *Gateway) entry(connID string) *connEntry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.conns[connID]
}

// joinedRoom resolves the sender's room. Mutations from a connection with no
// room membership are silently dropped; the client gets no error back.
func (g *Gateway) joinedRoom(connID string) (*connEntry, *Room) {
	entry := g.entry(connID)
	if entry == nil || entry.room == nil {
		g.metrics.MutationsDropped.Add(1)
		g.log.Debug("dropping mutation from unjoined connection", zap.String("conn", connID))
		return entry, nil
	}
	return entry, entry.room
}

// broadcast fans an event out to the room. Self-inclusion is an explicit
// parameter, not a per-event-type accident.
func (g *Gateway) broadcast(room *Room, senderConnID string, includeSender bool, event string, payload any) {
	for _, member := range room.Members() {
		if !includeSender && member.ConnectionID == senderConnID {
			continue
		}
		g.sendTo(member.ConnectionID, event, payload)
	}
}

func (g *Gateway) sendTo(connID string, event string, payload any) {
	g.mu.RLock()
	entry := g.conns[connID]
	g.mu.RUnlock()
	if entry == nil {
		return
	}
	if err := entry.sender.Send(event, payload); err != nil {
		// Fire and forget: a failed delivery surfaces only through the
		// connection's own read loop terminating.
		g.log.Debug("send failed", zap.String("conn", connID), zap.String("event", event), zap.Error(err))
		return
	}
	g.metrics.EventsBroadcast.Add(1)
}
