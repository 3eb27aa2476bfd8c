package server

import (
	"testing"

	"stagesync/protocol"
)

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func testCamera(id, name string) protocol.CameraRecord {
	return protocol.CameraRecord{
		ID: id, Name: name,
		PositionX: 5, PositionY: 2, PositionZ: 5,
		Pan: -45, Tilt: -10,
		FocalLength: 35, SensorPreset: "super35-4perf",
		SensorWidth: 24.89, SensorHeight: 18.66,
		Enabled: true,
	}
}

func TestRoomCameraLifecycle(t *testing.T) {
	room := newRoom("proj-1")

	room.ApplyCameraCreate(testCamera("cam-1", "Cam1"))
	if _, ok := room.Camera("cam-1"); !ok {
		t.Fatalf("camera not stored")
	}

	if !room.ApplyCameraUpdate("cam-1", protocol.CameraPatch{Name: strPtr("Hero")}) {
		t.Fatalf("update of existing camera failed")
	}
	rec, _ := room.Camera("cam-1")
	if rec.Name != "Hero" || rec.Pan != -45 {
		t.Fatalf("partial patch wrong: %+v", rec)
	}

	room.ApplyCameraDelete("cam-1")
	if _, ok := room.Camera("cam-1"); ok {
		t.Fatalf("camera still present after delete")
	}
}

func TestRoomUpdateUnknownCameraIsNoOp(t *testing.T) {
	room := newRoom("proj-1")
	if room.ApplyCameraUpdate("ghost", protocol.CameraPatch{Name: strPtr("x")}) {
		t.Fatalf("update of unknown camera must report false")
	}
	if _, ok := room.Camera("ghost"); ok {
		t.Fatalf("update must not create a record")
	}
}

func TestRoomLateUpdateCannotResurrect(t *testing.T) {
	room := newRoom("proj-1")
	room.ApplyCameraCreate(testCamera("cam-1", "Cam1"))
	room.ApplyCameraDelete("cam-1")

	if room.ApplyCameraUpdate("cam-1", protocol.CameraPatch{Pan: floatPtr(10)}) {
		t.Fatalf("update after delete must be a no-op")
	}
	if _, ok := room.Camera("cam-1"); ok {
		t.Fatalf("deleted camera resurrected")
	}
}

func TestRoomUpdateIdempotent(t *testing.T) {
	room := newRoom("proj-1")
	room.ApplyCameraCreate(testCamera("cam-1", "Cam1"))

	patch := protocol.CameraPatch{Pan: floatPtr(30), Name: strPtr("Wide")}
	room.ApplyCameraUpdate("cam-1", patch)
	once, _ := room.Camera("cam-1")
	room.ApplyCameraUpdate("cam-1", patch)
	twice, _ := room.Camera("cam-1")

	if once != twice {
		t.Fatalf("second application changed state: %+v vs %+v", once, twice)
	}
}

func TestRoomDeleteLiveCameraClearsPointer(t *testing.T) {
	room := newRoom("proj-1")
	room.ApplyCameraCreate(testCamera("cam-1", "Cam1"))
	room.SetLiveCamera("cam-1", true)
	if room.LiveCameraID() != "cam-1" {
		t.Fatalf("live pointer not set")
	}

	if !room.ApplyCameraDelete("cam-1") {
		t.Fatalf("delete must report the cleared live pointer")
	}
	if room.LiveCameraID() != "" {
		t.Fatalf("live pointer survived delete")
	}
}

func TestRoomLiveCameraExclusive(t *testing.T) {
	room := newRoom("proj-1")
	room.ApplyCameraCreate(testCamera("cam-1", "Cam1"))
	room.ApplyCameraCreate(testCamera("cam-2", "Cam2"))

	room.SetLiveCamera("cam-1", true)
	room.SetLiveCamera("cam-2", true)
	if room.LiveCameraID() != "cam-2" {
		t.Fatalf("expected cam-2 live, got %q", room.LiveCameraID())
	}

	// A late unset for the superseded camera must not clear the new one.
	room.SetLiveCamera("cam-1", false)
	if room.LiveCameraID() != "cam-2" {
		t.Fatalf("stale unset stomped live pointer")
	}

	room.SetLiveCamera("cam-2", false)
	if room.LiveCameraID() != "" {
		t.Fatalf("unset of live camera must clear pointer")
	}
}

func TestRoomSnapshotDeterministicOrder(t *testing.T) {
	room := newRoom("proj-1")
	c2 := testCamera("cam-2", "B")
	c2.Order = 1
	c1 := testCamera("cam-1", "A")
	c1.Order = 0
	room.ApplyCameraCreate(c2)
	room.ApplyCameraCreate(c1)
	room.ApplyModelAdd(protocol.ModelRecord{ID: "mdl-2", Name: "Floor"})
	room.ApplyModelAdd(protocol.ModelRecord{ID: "mdl-1", Name: "Backdrop"})

	snap := room.Snapshot()
	if snap.Cameras[0].ID != "cam-1" || snap.Cameras[1].ID != "cam-2" {
		t.Fatalf("cameras out of order: %+v", snap.Cameras)
	}
	if snap.Models[0].Name != "Backdrop" {
		t.Fatalf("models out of order: %+v", snap.Models)
	}
	if snap.LiveCameraID != nil {
		t.Fatalf("expected nil live pointer")
	}

	room.SetLiveCamera("cam-1", true)
	snap = room.Snapshot()
	if snap.LiveCameraID == nil || *snap.LiveCameraID != "cam-1" {
		t.Fatalf("live pointer missing from snapshot")
	}
}

func TestRoomStoreLifecycle(t *testing.T) {
	store := NewRoomStore()
	room := store.GetOrCreate("proj-1")
	if again := store.GetOrCreate("proj-1"); again != room {
		t.Fatalf("GetOrCreate must return the same room")
	}
	if store.ActiveRooms() != 1 {
		t.Fatalf("expected one active room")
	}

	room.addMember(MemberInfo{UserID: "u1", ConnID: "c1"})
	if store.DisposeIfEmpty("proj-1") {
		t.Fatalf("occupied room must not be disposed")
	}

	room.removeMember("u1")
	if !store.DisposeIfEmpty("proj-1") {
		t.Fatalf("empty room must be disposed")
	}
	if store.ActiveRooms() != 0 {
		t.Fatalf("room still registered after dispose")
	}
}
