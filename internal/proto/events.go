package proto

// PeerInfo identifies one room member in room_state.
type PeerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Welcome tells a client its assigned id.
type Welcome struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// RoomState is the initial room snapshot sent to a joiner.
type RoomState struct {
	Type   string     `json:"type"`
	HostID string     `json:"hostId"`
	Peers  []PeerInfo `json:"peers"`
}

// PeerJoin announces a new room member.
type PeerJoin struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PeerLeave announces a departed room member.
type PeerLeave struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// HostChanged announces a host handoff.
type HostChanged struct {
	Type   string `json:"type"`
	HostID string `json:"hostId"`
}

// NewWelcome builds the welcome frame for a client id.
func NewWelcome(id string) Welcome {
	return Welcome{Type: TypeWelcome, ID: id}
}

// NewRoomState builds a room_state frame. A nil peer list encodes as [].
func NewRoomState(hostID string, peers []PeerInfo) RoomState {
	if peers == nil {
		peers = []PeerInfo{}
	}
	return RoomState{Type: TypeRoomState, HostID: hostID, Peers: peers}
}

// NewPeerJoin builds a peer_join frame.
func NewPeerJoin(id, name string) PeerJoin {
	return PeerJoin{Type: TypePeerJoin, ID: id, Name: name}
}

// NewPeerLeave builds a peer_leave frame.
func NewPeerLeave(id string) PeerLeave {
	return PeerLeave{Type: TypePeerLeave, ID: id}
}

// NewHostChanged builds a host_changed frame.
func NewHostChanged(hostID string) HostChanged {
	return HostChanged{Type: TypeHostChanged, HostID: hostID}
}
