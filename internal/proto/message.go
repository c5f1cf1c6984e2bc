package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

const (
	TypeJoin     = "join"
	TypeInput    = "input"
	TypeSnapshot = "snapshot"

	TypeWelcome     = "welcome"
	TypeRoomState   = "room_state"
	TypePeerJoin    = "peer_join"
	TypePeerLeave   = "peer_leave"
	TypeHostChanged = "host_changed"

	// FieldFrom carries the sender id on relayed frames.
	FieldFrom = "from"
)

var (
	ErrMalformed   = errors.New("malformed frame")
	ErrNotObject   = errors.New("frame is not a JSON object")
	ErrMissingType = errors.New("frame has no string type")
)

// Kind discriminates inbound messages the relay cares about.
type Kind int

const (
	// KindOpaque is any type the relay does not act on.
	KindOpaque Kind = iota
	KindJoin
	KindInput
	KindSnapshot
)

func (k Kind) String() string {
	switch k {
	case KindJoin:
		return TypeJoin
	case KindInput:
		return TypeInput
	case KindSnapshot:
		return TypeSnapshot
	default:
		return "opaque"
	}
}

// Relayed reports whether messages of this kind are forwarded to the room.
func (k Kind) Relayed() bool {
	return k == KindInput || k == KindSnapshot
}

// Message is a decoded inbound frame. Fields holds the whole object,
// including "type"; numbers are kept as json.Number so relayed payloads
// round-trip verbatim.
type Message struct {
	Kind   Kind
	Type   string
	Fields map[string]any
}

// JoinData is the client-supplied part of a join request before normalization.
type JoinData struct {
	Room string
	Name string
}

// Decode parses one text frame.
func Decode(raw []byte) (Message, error) {
	// json.Valid rejects trailing data the streaming decoder would ignore.
	if !json.Valid(raw) {
		return Message{}, ErrMalformed
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	fields, ok := v.(map[string]any)
	if !ok || fields == nil {
		return Message{}, ErrNotObject
	}

	typ, ok := fields["type"].(string)
	if !ok {
		return Message{}, ErrMissingType
	}

	return Message{Kind: kindOf(typ), Type: typ, Fields: fields}, nil
}

func kindOf(typ string) Kind {
	switch typ {
	case TypeJoin:
		return KindJoin
	case TypeInput:
		return KindInput
	case TypeSnapshot:
		return KindSnapshot
	default:
		return KindOpaque
	}
}

// JoinRequest extracts room and name. Absent or null values come back empty.
func (m Message) JoinRequest() JoinData {
	return JoinData{
		Room: stringify(m.Fields["room"]),
		Name: stringify(m.Fields["name"]),
	}
}

// WithFrom returns a copy of the message stamped with the sender id.
// A client-supplied "from" is overwritten.
func (m Message) WithFrom(id string) Message {
	fields := make(map[string]any, len(m.Fields)+1)
	for k, v := range m.Fields {
		fields[k] = v
	}
	fields[FieldFrom] = id
	return Message{Kind: m.Kind, Type: m.Type, Fields: fields}
}

// MarshalJSON encodes the message as its flat field object.
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Fields)
}

// Encode serializes an outbound value into one text frame.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return data, nil
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
