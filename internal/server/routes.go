package server

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/artofey/livecoding/internal/hub"
	"github.com/artofey/livecoding/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,

	// Signaling carries no credentials and the hub stamps sender ids, so
	// cross-origin browser clients are accepted.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWs upgrades an HTTP request to a websocket and attaches it to the hub.
func ServeWs(h *hub.Hub) http.HandlerFunc {
	log := logging.Component("server")
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		log.Info().Str("remote", r.RemoteAddr).Msg("connection established")

		client := hub.NewClient(h, conn)
		go client.WritePump()
		go client.ReadPump()
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Signaling server is healthy."))
}

// Routes builds the server mux: the websocket endpoint and a health check.
func Routes(h *hub.Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ws", ServeWs(h))
	// The original deployment served signaling at the root path; keep it
	// answering there for older clients.
	mux.HandleFunc("/", ServeWs(h))
	return mux
}
