package ws

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"matchcore/internal/broadcaster"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The broadcaster is a backend fan-out service with no browser
	// origin of its own; any caller presenting a user_id is accepted,
	// since the caller is assumed to be authenticated upstream.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades /ws?user_id=<uid> to a duplex session. A missing
// user_id is rejected synchronously, before any upgrade attempt.
func Handler(registry *broadcaster.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			http.Error(w, "missing user_id", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Msg("ws: upgrade failed")
			return
		}

		log.Info().Str("user_id", userID).Msg("ws: session established")
		newSession(userID, conn, registry).run()
	}
}
