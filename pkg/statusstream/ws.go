package statusstream

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const writeWait = 5 * time.Second

// ServeWS upgrades an HTTP request to a WebSocket connection and streams
// clientID's status updates from hub until the connection closes or the
// client's channel is closed by Unsubscribe. The query parameter "client_id" selects the
// subscriber; an empty id is rejected.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		http.Error(w, "client_id is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[statusstream] websocket upgrade failed for client %s: %v", clientID, err)
		return
	}
	defer conn.Close()

	updates := hub.Subscribe(clientID)
	defer hub.Unsubscribe(clientID)

	// Drain and discard anything the client sends; a closed/errored read
	// is this handler's only signal that the client has gone away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case update, ok := <-updates:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			payload, err := json.Marshal(update)
			if err != nil {
				log.Printf("[statusstream] marshal failed for client %s: %v", clientID, err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}
