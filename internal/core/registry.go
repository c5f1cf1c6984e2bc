package core

import (
	"sort"
	"sync"
)

// JoinResult is what a joiner needs to build its welcome state.
type JoinResult struct {
	IsHost  bool
	HostID  string
	Members []Member
	// Created is true when the join brought the room into existence.
	Created bool
}

// LeaveKind describes what a leave did to the room.
type LeaveKind int

const (
	// LeaveNotMember means the client was not in the room; nothing changed.
	LeaveNotMember LeaveKind = iota
	// LeaveRoomClosed means the room became empty and was deleted.
	LeaveRoomClosed
	// LeaveRemaining means other members are still in the room.
	LeaveRemaining
)

// LeaveOutcome is the result of Registry.Leave. NewHostID is set only when
// Kind is LeaveRemaining and WasHost is true.
type LeaveOutcome struct {
	Kind      LeaveKind
	WasHost   bool
	NewHostID string
}

// RoomInfo describes one live room.
type RoomInfo struct {
	ID      string
	HostID  string
	Members []Member
}

// Registry owns room membership. Every exported method is one critical
// section, so a join or leave, host handoff included, is never observed
// half-applied.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Join adds the client to the room, creating the room if needed. When
// onJoin is non-nil it runs inside the critical section with the result and
// the other members' peers; it must not block.
func (r *Registry) Join(c Client, p *Peer, onJoin func(res JoinResult, others []*Peer)) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[c.Room]
	if !ok {
		room = NewRoom(c.Room)
		r.rooms[c.Room] = room
	}
	isHost := room.add(c, p)
	hostID, _ := room.host()

	res := JoinResult{
		IsHost:  isHost,
		HostID:  hostID,
		Members: room.snapshot(),
		Created: !ok,
	}
	if onJoin != nil {
		onJoin(res, room.peers(c.ID))
	}
	return res
}

// Leave removes the client from the room. The last leave deletes the room;
// a departing host is replaced by ElectHost in the same critical section.
// When onLeave is non-nil it runs inside the critical section with the
// outcome and the remaining members' peers; it must not block.
func (r *Registry) Leave(roomID, clientID string, onLeave func(out LeaveOutcome, remaining []*Peer)) LeaveOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return LeaveOutcome{Kind: LeaveNotMember}
	}
	removed, wasHost := room.remove(clientID)
	if !removed {
		return LeaveOutcome{Kind: LeaveNotMember}
	}
	if room.Empty() {
		delete(r.rooms, roomID)
		out := LeaveOutcome{Kind: LeaveRoomClosed, WasHost: wasHost}
		if onLeave != nil {
			onLeave(out, nil)
		}
		return out
	}

	out := LeaveOutcome{Kind: LeaveRemaining, WasHost: wasHost}
	if wasHost {
		if next, ok := ElectHost(room.snapshot()); ok {
			room.promote(next)
			out.NewHostID = next
		}
	}
	if onLeave != nil {
		onLeave(out, room.peers(""))
	}
	return out
}

// CurrentHost returns the host of the room, if the room exists.
func (r *Registry) CurrentHost(roomID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return "", false
	}
	return room.host()
}

// Snapshot returns the members of the room in join order.
func (r *Registry) Snapshot(roomID string) []Member {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	return room.snapshot()
}

// Recipients returns a copy of the room's peers, excluding skip when set.
func (r *Registry) Recipients(roomID, skip string) []*Peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	return room.peers(skip)
}

// Room returns a description of a single room.
func (r *Registry) Room(roomID string) (RoomInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return RoomInfo{}, false
	}
	return describe(room), true
}

// Rooms lists live rooms sorted by id.
func (r *Registry) Rooms() []RoomInfo {
	r.mu.Lock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, describe(room))
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func describe(room *Room) RoomInfo {
	hostID, _ := room.host()
	return RoomInfo{ID: room.ID, HostID: hostID, Members: room.snapshot()}
}
