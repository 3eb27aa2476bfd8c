package server

import (
	"testing"

	"go.uber.org/zap"

	"stagesync/protocol"
)

type recordedEvent struct {
	event   string
	payload any
}

type fakeConn struct {
	id     string
	events []recordedEvent
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(event string, payload any) error {
	f.events = append(f.events, recordedEvent{event: event, payload: payload})
	return nil
}

func (f *fakeConn) eventsNamed(name string) []recordedEvent {
	var out []recordedEvent
	for _, e := range f.events {
		if e.event == name {
			out = append(out, e)
		}
	}
	return out
}

func newTestGateway() *Gateway {
	store := NewRoomStore()
	return NewGateway(store, NewRegistry(store), zap.NewNop())
}

func send(t *testing.T, g *Gateway, conn *fakeConn, event string, payload any) {
	t.Helper()
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		t.Fatalf("encode %s failed: %v", event, err)
	}
	g.Handle(conn.id, frame)
}

func join(t *testing.T, g *Gateway, conn *fakeConn, projectID, userID, userName string) {
	t.Helper()
	g.Register(conn)
	send(t, g, conn, protocol.EventProjectJoin, protocol.JoinRequest{
		ProjectID: projectID, UserID: userID, UserName: userName,
	})
}

func TestJoinEmptyRoomReceivesEmptySnapshot(t *testing.T) {
	g := newTestGateway()
	a := &fakeConn{id: "conn-a"}
	join(t, g, a, "proj-1", "u-a", "Ana")

	online := a.eventsNamed(protocol.EventUsersOnline)
	if len(online) != 1 {
		t.Fatalf("expected one users:online, got %d", len(online))
	}
	users := online[0].payload.(protocol.UsersOnline)
	if len(users.Users) != 1 || users.Users[0].ID != "u-a" {
		t.Fatalf("unexpected presence list: %+v", users)
	}

	data := a.eventsNamed(protocol.EventProjectData)
	if len(data) != 1 {
		t.Fatalf("expected one project:data, got %d", len(data))
	}
	snap := data[0].payload.(protocol.ProjectData)
	if len(snap.Cameras) != 0 || len(snap.Models) != 0 || snap.LiveCameraID != nil {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestRoomOfOneScenario(t *testing.T) {
	g := newTestGateway()

	// A joins an empty room and creates a camera; with no peers there is
	// nothing to broadcast.
	a := &fakeConn{id: "conn-a"}
	join(t, g, a, "proj-1", "u-a", "Ana")
	send(t, g, a, protocol.EventCameraCreate, testCamera("cam-1", "Cam1"))
	if got := a.eventsNamed(protocol.EventCameraCreated); len(got) != 0 {
		t.Fatalf("creator must not receive its own create: %+v", got)
	}

	// B joins and catches up purely from the snapshot.
	b := &fakeConn{id: "conn-b"}
	join(t, g, b, "proj-1", "u-b", "Bo")
	snap := b.eventsNamed(protocol.EventProjectData)[0].payload.(protocol.ProjectData)
	if len(snap.Cameras) != 1 || snap.Cameras[0].ID != "cam-1" {
		t.Fatalf("snapshot missing Cam1: %+v", snap)
	}
	if got := a.eventsNamed(protocol.EventUserJoined); len(got) != 1 {
		t.Fatalf("A must learn about B: %+v", got)
	}

	// Live selection is rebroadcast to everyone including the sender.
	send(t, g, a, protocol.EventCameraLive, protocol.CameraLive{CameraID: "cam-1", IsLive: true})
	for _, conn := range []*fakeConn{a, b} {
		lives := conn.eventsNamed(protocol.EventCameraIsLive)
		if len(lives) != 1 {
			t.Fatalf("%s expected camera:live, got %+v", conn.id, conn.events)
		}
		live := lives[0].payload.(protocol.CameraLive)
		if live.CameraID != "cam-1" || !live.IsLive {
			t.Fatalf("wrong live payload: %+v", live)
		}
	}

	// B deletes the live camera: A is notified and the pointer clears.
	send(t, g, b, protocol.EventCameraDelete, protocol.CameraDelete{CameraID: "cam-1"})
	if got := a.eventsNamed(protocol.EventCameraDeleted); len(got) != 1 {
		t.Fatalf("A missed camera:deleted: %+v", a.events)
	}
	room, _ := g.store.Get("proj-1")
	if room.LiveCameraID() != "" {
		t.Fatalf("live pointer survived delete")
	}
}

func TestUpdateRebroadcastCarriesAuthor(t *testing.T) {
	g := newTestGateway()
	a := &fakeConn{id: "conn-a"}
	b := &fakeConn{id: "conn-b"}
	join(t, g, a, "proj-1", "u-a", "Ana")
	join(t, g, b, "proj-1", "u-b", "Bo")

	send(t, g, a, protocol.EventCameraCreate, testCamera("cam-1", "Cam1"))
	send(t, g, a, protocol.EventCameraUpdate, protocol.CameraUpdate{
		CameraID: "cam-1",
		Update:   protocol.CameraPatch{Pan: floatPtr(12)},
	})

	if got := a.eventsNamed(protocol.EventCameraUpdated); len(got) != 0 {
		t.Fatalf("author must not receive its own update")
	}
	updates := b.eventsNamed(protocol.EventCameraUpdated)
	if len(updates) != 1 {
		t.Fatalf("peer missed update: %+v", b.events)
	}
	upd := updates[0].payload.(protocol.CameraUpdate)
	if upd.UserID != "u-a" {
		t.Fatalf("rebroadcast must carry the author id, got %q", upd.UserID)
	}
	if upd.Update.Pan == nil || *upd.Update.Pan != 12 {
		t.Fatalf("patch content lost: %+v", upd.Update)
	}
}

func TestNonOverlappingPatchesBothSurvive(t *testing.T) {
	g := newTestGateway()
	a := &fakeConn{id: "conn-a"}
	b := &fakeConn{id: "conn-b"}
	join(t, g, a, "proj-1", "u-a", "Ana")
	join(t, g, b, "proj-1", "u-b", "Bo")

	send(t, g, a, protocol.EventCameraCreate, testCamera("cam-1", "Cam1"))
	send(t, g, a, protocol.EventCameraUpdate, protocol.CameraUpdate{
		CameraID: "cam-1", Update: protocol.CameraPatch{Name: strPtr("Hero")},
	})
	send(t, g, b, protocol.EventCameraUpdate, protocol.CameraUpdate{
		CameraID: "cam-1", Update: protocol.CameraPatch{Pan: floatPtr(33)},
	})

	room, _ := g.store.Get("proj-1")
	rec, _ := room.Camera("cam-1")
	if rec.Name != "Hero" || rec.Pan != 33 {
		t.Fatalf("non-overlapping patches clobbered each other: %+v", rec)
	}
}

func TestStaleUpdateNotRebroadcast(t *testing.T) {
	g := newTestGateway()
	a := &fakeConn{id: "conn-a"}
	b := &fakeConn{id: "conn-b"}
	join(t, g, a, "proj-1", "u-a", "Ana")
	join(t, g, b, "proj-1", "u-b", "Bo")

	send(t, g, a, protocol.EventCameraUpdate, protocol.CameraUpdate{
		CameraID: "ghost", Update: protocol.CameraPatch{Pan: floatPtr(1)},
	})
	if got := b.eventsNamed(protocol.EventCameraUpdated); len(got) != 0 {
		t.Fatalf("stale update must not be rebroadcast: %+v", got)
	}
}

func TestMutationBeforeJoinSilentlyDropped(t *testing.T) {
	g := newTestGateway()
	a := &fakeConn{id: "conn-a"}
	g.Register(a)

	send(t, g, a, protocol.EventCameraCreate, testCamera("cam-1", "Cam1"))

	if g.store.ActiveRooms() != 0 {
		t.Fatalf("mutation from unjoined connection created state")
	}
	if len(a.events) != 0 {
		t.Fatalf("dropped mutation must produce no reply: %+v", a.events)
	}
	if g.Metrics().Snapshot().MutationsDropped != 1 {
		t.Fatalf("dropped mutation not counted")
	}
}

func TestDisconnectNotifiesPeersAndDisposes(t *testing.T) {
	g := newTestGateway()
	a := &fakeConn{id: "conn-a"}
	b := &fakeConn{id: "conn-b"}
	join(t, g, a, "proj-1", "u-a", "Ana")
	join(t, g, b, "proj-1", "u-b", "Bo")

	g.Unregister(a.id)

	left := b.eventsNamed(protocol.EventUserLeft)
	if len(left) != 1 {
		t.Fatalf("peer missed user:left: %+v", b.events)
	}
	if payload := left[0].payload.(protocol.UserLeft); payload.UserID != "u-a" {
		t.Fatalf("wrong departing user: %+v", payload)
	}

	g.Unregister(b.id)
	if g.store.ActiveRooms() != 0 {
		t.Fatalf("room not disposed after last disconnect")
	}
}

func TestModelLifecycleMirrorsCameras(t *testing.T) {
	g := newTestGateway()
	a := &fakeConn{id: "conn-a"}
	b := &fakeConn{id: "conn-b"}
	join(t, g, a, "proj-1", "u-a", "Ana")
	join(t, g, b, "proj-1", "u-b", "Bo")

	model := protocol.ModelRecord{ID: "mdl-1", Name: "Backdrop", FileName: "backdrop.glb",
		FileType: "glb", FileSize: 1024, URL: "/assets/backdrop.glb",
		ScaleX: 1, ScaleY: 1, ScaleZ: 1, Visible: true, ProjectID: "proj-1"}
	send(t, g, a, protocol.EventModelAdd, model)
	if got := b.eventsNamed(protocol.EventModelAdded); len(got) != 1 {
		t.Fatalf("peer missed model:added: %+v", b.events)
	}

	hidden := false
	send(t, g, b, protocol.EventModelUpdate, protocol.ModelUpdate{
		ModelID: "mdl-1", Update: protocol.ModelPatch{Visible: &hidden},
	})
	room, _ := g.store.Get("proj-1")
	rec, _ := room.Model("mdl-1")
	if rec.Visible {
		t.Fatalf("model patch not applied")
	}
	if got := a.eventsNamed(protocol.EventModelUpdated); len(got) != 1 {
		t.Fatalf("peer missed model:updated")
	}

	send(t, g, a, protocol.EventModelDelete, protocol.ModelDelete{ModelID: "mdl-1"})
	if _, ok := room.Model("mdl-1"); ok {
		t.Fatalf("model still present after delete")
	}
	if got := b.eventsNamed(protocol.EventModelDeleted); len(got) != 1 {
		t.Fatalf("peer missed model:deleted")
	}
}

func TestMalformedFrameIgnored(t *testing.T) {
	g := newTestGateway()
	a := &fakeConn{id: "conn-a"}
	join(t, g, a, "proj-1", "u-a", "Ana")

	g.Handle(a.id, []byte(`{"event":`))
	g.Handle(a.id, []byte(`{"data":{}}`))

	if g.store.ActiveRooms() != 1 {
		t.Fatalf("malformed frames must not disturb the room")
	}
}
