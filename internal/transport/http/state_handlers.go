package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StateHandlers serves read-only views of the current snapshot.
type StateHandlers struct {
	client StateClient
	log    *zerolog.Logger
}

func NewStateHandlers(client StateClient, logger *zerolog.Logger) *StateHandlers {
	return &StateHandlers{client: client, log: logger}
}

// GetState returns the whole snapshot.
// GET /state
func (h *StateHandlers) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.client.State())
}

// GetCall returns one active call, falling back to the ended-call history.
// GET /state/calls/:id
func (h *StateHandlers) GetCall(c *gin.Context) {
	id := c.Param("id")
	snap := h.client.State()

	if call, ok := snap.Calls[id]; ok {
		c.JSON(http.StatusOK, call)
		return
	}
	// Newest first: an id can repeat in history after a rejoin.
	for i := len(snap.CallsEnded) - 1; i >= 0; i-- {
		if snap.CallsEnded[i].ID == id {
			c.JSON(http.StatusOK, snap.CallsEnded[i])
			return
		}
	}

	h.log.Debug().Str("call_id", id).Msg("call not found")
	c.JSON(http.StatusNotFound, ErrorResponse{Error: "call not found"})
}
