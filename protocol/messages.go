package protocol

// JoinRequest enters a project room. There is no authentication; every user
// is a trusted peer.
type JoinRequest struct {
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
}

// LeaveRequest exits a project room explicitly. A dropped connection is
// cleaned up the same way without this message.
type LeaveRequest struct {
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
}

// CameraRecord is the wire shape of a camera. Positions are scene units,
// angles are degrees, sensor dimensions and focal length are millimetres.
type CameraRecord struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Order        int     `json:"order"`
	PositionX    float64 `json:"positionX"`
	PositionY    float64 `json:"positionY"`
	PositionZ    float64 `json:"positionZ"`
	Pan          float64 `json:"pan"`
	Tilt         float64 `json:"tilt"`
	Roll         float64 `json:"roll"`
	FOV          float64 `json:"fov"`
	FocalLength  float64 `json:"focalLength"`
	SensorPreset string  `json:"sensorPreset"`
	SensorWidth  float64 `json:"sensorWidth"`
	SensorHeight float64 `json:"sensorHeight"`
	Color        string  `json:"color"`
	Enabled      bool    `json:"enabled"`
	IsLive       bool    `json:"isLive"`
	ProjectID    string  `json:"projectId"`
}

// CameraPatch is a partial camera update. Nil fields are left untouched when
// the patch is applied; present fields overwrite unconditionally
// (last-writer-wins).
type CameraPatch struct {
	Name         *string  `json:"name,omitempty"`
	Order        *int     `json:"order,omitempty"`
	PositionX    *float64 `json:"positionX,omitempty"`
	PositionY    *float64 `json:"positionY,omitempty"`
	PositionZ    *float64 `json:"positionZ,omitempty"`
	Pan          *float64 `json:"pan,omitempty"`
	Tilt         *float64 `json:"tilt,omitempty"`
	Roll         *float64 `json:"roll,omitempty"`
	FOV          *float64 `json:"fov,omitempty"`
	FocalLength  *float64 `json:"focalLength,omitempty"`
	SensorPreset *string  `json:"sensorPreset,omitempty"`
	SensorWidth  *float64 `json:"sensorWidth,omitempty"`
	SensorHeight *float64 `json:"sensorHeight,omitempty"`
	Color        *string  `json:"color,omitempty"`
	Enabled      *bool    `json:"enabled,omitempty"`
	IsLive       *bool    `json:"isLive,omitempty"`
}

// Apply merges the patch into a record in place.
func (p CameraPatch) Apply(rec *CameraRecord) {
	if p.Name != nil {
		rec.Name = *p.Name
	}
	if p.Order != nil {
		rec.Order = *p.Order
	}
	if p.PositionX != nil {
		rec.PositionX = *p.PositionX
	}
	if p.PositionY != nil {
		rec.PositionY = *p.PositionY
	}
	if p.PositionZ != nil {
		rec.PositionZ = *p.PositionZ
	}
	if p.Pan != nil {
		rec.Pan = *p.Pan
	}
	if p.Tilt != nil {
		rec.Tilt = *p.Tilt
	}
	if p.Roll != nil {
		rec.Roll = *p.Roll
	}
	if p.FOV != nil {
		rec.FOV = *p.FOV
	}
	if p.FocalLength != nil {
		rec.FocalLength = *p.FocalLength
	}
	if p.SensorPreset != nil {
		rec.SensorPreset = *p.SensorPreset
	}
	if p.SensorWidth != nil {
		rec.SensorWidth = *p.SensorWidth
	}
	if p.SensorHeight != nil {
		rec.SensorHeight = *p.SensorHeight
	}
	if p.Color != nil {
		rec.Color = *p.Color
	}
	if p.Enabled != nil {
		rec.Enabled = *p.Enabled
	}
	if p.IsLive != nil {
		rec.IsLive = *p.IsLive
	}
}

// IsZero reports whether the patch carries no fields.
func (p CameraPatch) IsZero() bool {
	return p == CameraPatch{}
}

// CameraUpdate carries a partial camera patch. UserID identifies the author
// on server->client rebroadcasts and is empty on the inbound leg.
type CameraUpdate struct {
	CameraID string      `json:"cameraId"`
	Update   CameraPatch `json:"update"`
	UserID   string      `json:"userId,omitempty"`
}

// CameraDelete removes a camera from the room.
type CameraDelete struct {
	CameraID string `json:"cameraId"`
}

// CameraLive sets or clears the program (on-air) camera. The server
// rebroadcasts this to every room member including the sender.
type CameraLive struct {
	CameraID string `json:"cameraId"`
	IsLive   bool   `json:"isLive"`
}

// ModelRecord is the wire shape of a placed 3D model. The download URL is
// produced by the file-serving endpoint and consumed opaquely.
type ModelRecord struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	FileName  string  `json:"fileName"`
	FileType  string  `json:"fileType"`
	FileSize  int64   `json:"fileSize"`
	URL       string  `json:"url"`
	PositionX float64 `json:"positionX"`
	PositionY float64 `json:"positionY"`
	PositionZ float64 `json:"positionZ"`
	RotationX float64 `json:"rotationX"`
	RotationY float64 `json:"rotationY"`
	RotationZ float64 `json:"rotationZ"`
	ScaleX    float64 `json:"scaleX"`
	ScaleY    float64 `json:"scaleY"`
	ScaleZ    float64 `json:"scaleZ"`
	Visible   bool    `json:"visible"`
	ProjectID string  `json:"projectId"`
}

// ModelPatch is a partial model update with the same nil-means-untouched
// semantics as CameraPatch.
type ModelPatch struct {
	Name      *string  `json:"name,omitempty"`
	PositionX *float64 `json:"positionX,omitempty"`
	PositionY *float64 `json:"positionY,omitempty"`
	PositionZ *float64 `json:"positionZ,omitempty"`
	RotationX *float64 `json:"rotationX,omitempty"`
	RotationY *float64 `json:"rotationY,omitempty"`
	RotationZ *float64 `json:"rotationZ,omitempty"`
	ScaleX    *float64 `json:"scaleX,omitempty"`
	ScaleY    *float64 `json:"scaleY,omitempty"`
	ScaleZ    *float64 `json:"scaleZ,omitempty"`
	Visible   *bool    `json:"visible,omitempty"`
}

// Apply merges the patch into a record in place.
func (p ModelPatch) Apply(rec *ModelRecord) {
	if p.Name != nil {
		rec.Name = *p.Name
	}
	if p.PositionX != nil {
		rec.PositionX = *p.PositionX
	}
	if p.PositionY != nil {
		rec.PositionY = *p.PositionY
	}
	if p.PositionZ != nil {
		rec.PositionZ = *p.PositionZ
	}
	if p.RotationX != nil {
		rec.RotationX = *p.RotationX
	}
	if p.RotationY != nil {
		rec.RotationY = *p.RotationY
	}
	if p.RotationZ != nil {
		rec.RotationZ = *p.RotationZ
	}
	if p.ScaleX != nil {
		rec.ScaleX = *p.ScaleX
	}
	if p.ScaleY != nil {
		rec.ScaleY = *p.ScaleY
	}
	if p.ScaleZ != nil {
		rec.ScaleZ = *p.ScaleZ
	}
	if p.Visible != nil {
		rec.Visible = *p.Visible
	}
}

// IsZero reports whether the patch carries no fields.
func (p ModelPatch) IsZero() bool {
	return p == ModelPatch{}
}

// ModelUpdate carries a partial model patch.
type ModelUpdate struct {
	ModelID string     `json:"modelId"`
	Update  ModelPatch `json:"update"`
	UserID  string     `json:"userId,omitempty"`
}

// ModelDelete removes a model from the room.
type ModelDelete struct {
	ModelID string `json:"modelId"`
}

// ProjectData is the full-state snapshot pushed to a joining connection.
// It is the only catch-up mechanism; there is no incremental replay log.
type ProjectData struct {
	Cameras      []CameraRecord `json:"cameras"`
	Models       []ModelRecord  `json:"models"`
	LiveCameraID *string        `json:"liveCameraId"`
}

// OnlineUser describes a room member for presence lists.
type OnlineUser struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ConnectionID string `json:"connectionId"`
}

// UserJoined announces a peer's arrival to the rest of the room.
type UserJoined struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	ProjectID string `json:"projectId"`
}

// UserLeft announces a peer's departure or disconnect.
type UserLeft struct {
	UserID    string `json:"userId"`
	ProjectID string `json:"projectId"`
}

// UsersOnline delivers the full member list to a joining connection.
type UsersOnline struct {
	Users []OnlineUser `json:"users"`
}
