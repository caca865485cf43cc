package handler

import (
	"io"
	"net/http"

	"github.com/iamnotbasant/basantmoney-sub000/internal/events"
	"github.com/iamnotbasant/basantmoney-sub000/internal/util"

	"github.com/gin-gonic/gin"
)

// EventsHandler bridges the change-notification bus to clients over SSE.
type EventsHandler struct {
	Bus *events.Bus
}

func NewEventsHandler(bus *events.Bus) *EventsHandler {
	return &EventsHandler{Bus: bus}
}

// Stream sends a named, payload-less event whenever one of the user's
// balance-affecting operations completes. Views re-fetch on receipt; a
// dropped signal just means the view is stale until the next one.
func (h *EventsHandler) Stream(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	ch, cancel := h.Bus.Subscribe(user.ID)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case name, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(name, nil)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
