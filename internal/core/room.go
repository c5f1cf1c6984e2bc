package core

// Member is a point-in-time view of one room member.
type Member struct {
	ID   string
	Name string
	Host bool
}

type member struct {
	client Client
	peer   *Peer
	host   bool
}

// Room groups the members of one named session in join order.
// Room is not safe for concurrent use; the Registry serializes access.
type Room struct {
	ID      string
	members []*member
}

// NewRoom constructs a room with no members.
func NewRoom(id string) *Room {
	return &Room{ID: id}
}

// add appends a member. The first member of an empty room becomes host.
func (r *Room) add(c Client, p *Peer) bool {
	host := len(r.members) == 0
	r.members = append(r.members, &member{client: c, peer: p, host: host})
	return host
}

// remove deletes a member and reports whether it was present and host.
func (r *Room) remove(id string) (removed, wasHost bool) {
	for i, m := range r.members {
		if m.client.ID != id {
			continue
		}
		r.members = append(r.members[:i], r.members[i+1:]...)
		return true, m.host
	}
	return false, false
}

// promote flips the host flag on the given member.
func (r *Room) promote(id string) {
	for _, m := range r.members {
		if m.client.ID == id {
			m.host = true
			return
		}
	}
}

func (r *Room) host() (string, bool) {
	for _, m := range r.members {
		if m.host {
			return m.client.ID, true
		}
	}
	return "", false
}

func (r *Room) snapshot() []Member {
	out := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, Member{ID: m.client.ID, Name: m.client.Name, Host: m.host})
	}
	return out
}

func (r *Room) peers(skip string) []*Peer {
	out := make([]*Peer, 0, len(r.members))
	for _, m := range r.members {
		if skip != "" && m.client.ID == skip {
			continue
		}
		out = append(out, m.peer)
	}
	return out
}

// Empty returns true if no members are in the room.
func (r *Room) Empty() bool {
	return len(r.members) == 0
}
