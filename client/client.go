package client

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"stagesync/protocol"
)

// ErrClosed is returned when an operation is attempted on a closed client.
var ErrClosed = errors.New("client: connection closed")

// Options configure a room client.
type Options struct {
	ProjectID string
	UserID    string // generated when empty
	UserName  string
	Logger    *zap.Logger
}

// Client is a websocket session in a project room. It owns the local store
// and the sync bridge: local store edits are diffed and emitted to the room,
// and inbound room events are applied back with a remote origin so they are
// never re-emitted.
type Client struct {
	url       string
	projectID string
	userID    string
	userName  string
	log       *zap.Logger

	store  *Store
	bridge *Bridge

	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
	resynced  chan struct{}
	wg        sync.WaitGroup

	mu    sync.Mutex
	peers map[string]protocol.OnlineUser
	err   error
}

// Dial connects to a gateway websocket endpoint and starts the read loop.
// The caller still has to Join before mutations flow.
func Dial(ctx context.Context, url string, opts Options) (*Client, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	userID := opts.UserID
	if userID == "" {
		userID = uuid.NewString()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		url:       url,
		projectID: opts.ProjectID,
		userID:    userID,
		userName:  opts.UserName,
		log:       log,
		store:     NewStore(opts.ProjectID),
		conn:      conn,
		done:      make(chan struct{}),
		resynced:  make(chan struct{}, 1),
		peers:     make(map[string]protocol.OnlineUser),
	}
	c.bridge = NewBridge(c.store, c, log)

	c.wg.Add(1)
	go c.readLoop()
	return c, nil
}

// Store returns the local mutation store. All edits go through it; the
// bridge picks them up and emits them to the room.
func (c *Client) Store() *Store { return c.store }

// UserID returns the identity this session joined with.
func (c *Client) UserID() string { return c.userID }

// Done is closed when the read loop exits. The store goes stale at that
// point; reconnecting means dialing a fresh client and joining again, which
// replaces the store contents from the room snapshot.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err reports why the read loop exited, nil before that and on clean close.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Join enters the project room and blocks until the full-state snapshot
// lands in the store or the context expires.
func (c *Client) Join(ctx context.Context) error {
	c.send(protocol.EventProjectJoin, protocol.JoinRequest{
		ProjectID: c.projectID,
		UserID:    c.userID,
		UserName:  c.userName,
	})
	select {
	case <-c.resynced:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Leave exits the room explicitly. Dropping the connection has the same
// server-side effect.
func (c *Client) Leave() {
	c.send(protocol.EventProjectLeave, protocol.LeaveRequest{
		ProjectID: c.projectID,
		UserID:    c.userID,
	})
}

// Peers returns the known room members, sorted by user id.
func (c *Client) Peers() []protocol.OnlineUser {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]protocol.OnlineUser, 0, len(c.peers))
	for _, u := range c.peers {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close tears the connection down and waits for the read loop to exit.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), closeDeadline())
		c.writeMu.Unlock()
		c.conn.Close()
	})
	c.wg.Wait()
	return nil
}

func closeDeadline() time.Time { return time.Now().Add(time.Second) }

// send encodes and writes one frame. Emission is fire and forget: there is
// no acknowledgement and no retry; failures only surface through the read
// loop terminating.
func (c *Client) send(event string, payload any) {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		c.log.Warn("encode failed", zap.String("event", event), zap.Error(err))
		return
	}
	c.writeMu.Lock()
	err = c.conn.WriteMessage(websocket.TextMessage, frame)
	c.writeMu.Unlock()
	if err != nil {
		c.log.Debug("write failed", zap.String("event", event), zap.Error(err))
	}
}

func (c *Client) readLoop() {
	defer c.wg.Done()
	defer close(c.done)
	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.mu.Lock()
				c.err = err
				c.mu.Unlock()
				c.log.Warn("connection lost", zap.Error(err))
			}
			return
		}
		c.dispatch(frame)
	}
}

// dispatch applies one inbound room event to the local store. Everything
// lands with a remote origin so the bridge baselines instead of re-emitting.
func (c *Client) dispatch(frame []byte) {
	env, err := protocol.Decode(frame)
	if err != nil {
		c.log.Warn("dropping malformed frame", zap.Error(err))
		return
	}

	switch env.Event {
	case protocol.EventProjectData:
		var data protocol.ProjectData
		if err := env.Payload(&data); err != nil {
			c.log.Warn("bad snapshot payload", zap.Error(err))
			return
		}
		c.store.ReplaceAll(data)
		select {
		case c.resynced <- struct{}{}:
		default:
		}
	case protocol.EventCameraCreated:
		var rec protocol.CameraRecord
		if err := env.Payload(&rec); err != nil {
			c.log.Warn("bad camera payload", zap.Error(err))
			return
		}
		c.store.InsertCamera(cameraFromWire(rec), OriginRemote)
	case protocol.EventCameraUpdated:
		var upd protocol.CameraUpdate
		if err := env.Payload(&upd); err != nil {
			c.log.Warn("bad camera update payload", zap.Error(err))
			return
		}
		c.store.UpdateCamera(upd.CameraID, upd.Update, OriginRemote)
	case protocol.EventCameraDeleted:
		var del protocol.CameraDelete
		if err := env.Payload(&del); err != nil {
			c.log.Warn("bad camera delete payload", zap.Error(err))
			return
		}
		c.store.RemoveCamera(del.CameraID, OriginRemote)
	case protocol.EventCameraIsLive:
		var live protocol.CameraLive
		if err := env.Payload(&live); err != nil {
			c.log.Warn("bad camera live payload", zap.Error(err))
			return
		}
		c.store.SetLiveCamera(live.CameraID, live.IsLive, OriginRemote)
	case protocol.EventModelAdded:
		var rec protocol.ModelRecord
		if err := env.Payload(&rec); err != nil {
			c.log.Warn("bad model payload", zap.Error(err))
			return
		}
		c.store.AddModel(modelFromWire(rec), OriginRemote)
	case protocol.EventModelUpdated:
		var upd protocol.ModelUpdate
		if err := env.Payload(&upd); err != nil {
			c.log.Warn("bad model update payload", zap.Error(err))
			return
		}
		c.store.UpdateModel(upd.ModelID, upd.Update, OriginRemote)
	case protocol.EventModelDeleted:
		var del protocol.ModelDelete
		if err := env.Payload(&del); err != nil {
			c.log.Warn("bad model delete payload", zap.Error(err))
			return
		}
		c.store.RemoveModel(del.ModelID, OriginRemote)
	case protocol.EventUserJoined:
		var joined protocol.UserJoined
		if err := env.Payload(&joined); err != nil {
			return
		}
		c.mu.Lock()
		c.peers[joined.UserID] = protocol.OnlineUser{ID: joined.UserID, Name: joined.UserName}
		c.mu.Unlock()
		c.log.Info("peer joined", zap.String("user", joined.UserID), zap.String("name", joined.UserName))
	case protocol.EventUserLeft:
		var left protocol.UserLeft
		if err := env.Payload(&left); err != nil {
			return
		}
		c.mu.Lock()
		delete(c.peers, left.UserID)
		c.mu.Unlock()
		c.log.Info("peer left", zap.String("user", left.UserID))
	case protocol.EventUsersOnline:
		var online protocol.UsersOnline
		if err := env.Payload(&online); err != nil {
			return
		}
		c.mu.Lock()
		c.peers = make(map[string]protocol.OnlineUser, len(online.Users))
		for _, u := range online.Users {
			c.peers[u.ID] = u
		}
		c.mu.Unlock()
	default:
		c.log.Debug("ignoring unknown event", zap.String("event", env.Event))
	}
}

// Emitter implementation: the bridge routes outbound diffs through here.

func (c *Client) EmitCameraCreate(rec protocol.CameraRecord) {
	c.send(protocol.EventCameraCreate, rec)
}

func (c *Client) EmitCameraUpdate(id string, patch protocol.CameraPatch) {
	c.send(protocol.EventCameraUpdate, protocol.CameraUpdate{CameraID: id, Update: patch})
}

func (c *Client) EmitCameraDelete(id string) {
	c.send(protocol.EventCameraDelete, protocol.CameraDelete{CameraID: id})
}

func (c *Client) EmitCameraLive(id string, isLive bool) {
	c.send(protocol.EventCameraLive, protocol.CameraLive{CameraID: id, IsLive: isLive})
}

func (c *Client) EmitModelAdd(rec protocol.ModelRecord) {
	c.send(protocol.EventModelAdd, rec)
}

func (c *Client) EmitModelUpdate(id string, patch protocol.ModelPatch) {
	c.send(protocol.EventModelUpdate, protocol.ModelUpdate{ModelID: id, Update: patch})
}

func (c *Client) EmitModelDelete(id string) {
	c.send(protocol.EventModelDelete, protocol.ModelDelete{ModelID: id})
}
