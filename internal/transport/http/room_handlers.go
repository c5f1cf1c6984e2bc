package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/party-relay/internal/core"
)

// RoomHandlers provides read-only HTTP handlers for live rooms.
type RoomHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub *core.Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub: hub,
		log: logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MemberResponse represents a room member in API responses.
type MemberResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Host bool   `json:"host"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID      string           `json:"id"`
	HostID  string           `json:"hostId"`
	Members []MemberResponse `json:"members"`
}

// ListRooms handles listing live rooms.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms := h.hub.Rooms()

	response := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, roomToResponse(room))
	}

	h.log.Debug().Int("room_count", len(rooms)).Msg("rooms listed")
	c.JSON(http.StatusOK, response)
}

// GetRoom handles describing one room.
// GET /api/rooms/:id
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	id := c.Param("id")
	room, ok := h.hub.Room(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}
	c.JSON(http.StatusOK, roomToResponse(room))
}

func roomToResponse(room core.RoomInfo) RoomResponse {
	members := make([]MemberResponse, 0, len(room.Members))
	for _, m := range room.Members {
		members = append(members, MemberResponse{ID: m.ID, Name: m.Name, Host: m.Host})
	}
	return RoomResponse{ID: room.ID, HostID: room.HostID, Members: members}
}
