package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/router-for-me/VisitMappingService/internal/mapping"
	"github.com/router-for-me/VisitMappingService/internal/models"
)

// RoomMappingHandler serves read-only room lookups.
type RoomMappingHandler struct {
	svc *mapping.Service
}

// NewRoomMappingHandler constructs a room mapping handler.
func NewRoomMappingHandler(svc *mapping.Service) *RoomMappingHandler {
	return &RoomMappingHandler{svc: svc}
}

type roomMappingResponse struct {
	PrisonID       string `json:"prisonId"`
	LegacyRoomName string `json:"legacyRoomName"`
	NewRoomID      string `json:"newRoomId"`
	IsOpen         bool   `json:"isOpen"`
}

func toRoomMappingResponse(row models.RoomMapping) roomMappingResponse {
	return roomMappingResponse{
		PrisonID:       row.PrisonID,
		LegacyRoomName: row.LegacyRoomName,
		NewRoomID:      row.NewRoomID,
		IsOpen:         row.IsOpen,
	}
}

// Get returns the room mapping for a prison and legacy room name.
func (h *RoomMappingHandler) Get(c *gin.Context) {
	row, errGet := h.svc.GetRoomMapping(c.Request.Context(), c.Param("prisonId"), c.Param("legacyRoomName"))
	if errGet != nil {
		writeServiceError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, toRoomMappingResponse(row))
}
