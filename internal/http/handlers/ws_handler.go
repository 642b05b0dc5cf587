// README: Rider websocket endpoint; registers the connection with the notify
// hub and treats inbound frames as location pings.
package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/rider"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/notify"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Auth lives upstream; the socket itself is open.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSHandler struct {
	hub   *notify.Hub
	rider *rider.Service
}

func NewWSHandler(hub *notify.Hub, riderSvc *rider.Service) *WSHandler {
	return &WSHandler{hub: hub, rider: riderSvc}
}

type wsInbound struct {
	Type string  `json:"type"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Connect handles GET /ws/rider?rider_id=... A second connection for the same
// rider displaces the first.
func (h *WSHandler) Connect(c *gin.Context) {
	riderID := types.ID(c.Query("rider_id"))
	if riderID == "" {
		writeError(c, http.StatusBadRequest, "missing rider id")
		return
	}
	if _, err := h.rider.Get(c.Request.Context(), riderID); err != nil {
		writeServiceError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the response.
		log.Printf("ws upgrade for rider %s: %v", riderID, err)
		return
	}
	h.hub.Register(riderID, conn)
	defer h.hub.Unregister(riderID, conn)

	for {
		var msg wsInbound
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type == "location" {
			if err := h.rider.UpdateLocation(c.Request.Context(), riderID, types.Point{Lat: msg.Lat, Lng: msg.Lng}); err != nil {
				log.Printf("ws location for rider %s: %v", riderID, err)
			}
		}
	}
}
