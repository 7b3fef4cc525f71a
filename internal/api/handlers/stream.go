package handlers

import (
	"log"
	"net/http"
	"strconv"

	"copilotflow/backend/internal/stream"
	"copilotflow/backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamRunLogs upgrades the connection and relays live log events for a run
// until the run finishes or the client disconnects.
func StreamRunLogs(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "Invalid run ID")
		return
	}
	runID := uint(id)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ WebSocket upgrade failed for run %d: %v", runID, err)
		return
	}

	clientID := uuid.New().String()
	log.Printf("📡 Log stream client %s connected for run %d", clientID, runID)

	stream.GlobalHub.Subscribe(runID, conn)
	defer func() {
		stream.GlobalHub.Unsubscribe(runID, conn)
		conn.Close()
		log.Printf("📡 Log stream client %s disconnected from run %d", clientID, runID)
	}()

	// Drain client frames; the stream is server-to-client only, so the read
	// loop exists just to notice disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
