package core

const (
	// DefaultRoomID is used when a join names no room.
	DefaultRoomID = "party"
	// DefaultName is used when a join names no player.
	DefaultName = "Player"

	// MaxRoomIDLength caps room ids, in code points.
	MaxRoomIDLength = 40
	// MaxNameLength caps display names, in code points.
	MaxNameLength = 24
)

// NormalizeRoomID truncates to MaxRoomIDLength code points and falls back
// to DefaultRoomID when the result is empty.
func NormalizeRoomID(room string) string {
	return normalize(room, MaxRoomIDLength, DefaultRoomID)
}

// NormalizeName truncates to MaxNameLength code points and falls back
// to DefaultName when the result is empty.
func NormalizeName(name string) string {
	return normalize(name, MaxNameLength, DefaultName)
}

func normalize(s string, limit int, fallback string) string {
	runes := []rune(s)
	if len(runes) > limit {
		s = string(runes[:limit])
	}
	if s == "" {
		return fallback
	}
	return s
}
