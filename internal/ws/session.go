// Package ws implements the client session: duplex websocket streams
// that accept SubscribeOrderbook commands inbound and deliver
// match-event frames outbound.
package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"matchcore/internal/broadcaster"
	"matchcore/internal/common"
)

const writeTimeout = 10 * time.Second

// incomingMessage is the only recognized inbound command shape:
// {"SubscribeOrderbook": "TATA_INR"}. Anything else is ignored.
type incomingMessage struct {
	SubscribeOrderbook common.Market `json:"SubscribeOrderbook"`
}

// session is one connected client's duplex stream: an inbound reader
// and an outbound writer running concurrently.
type session struct {
	userID   string
	conn     *websocket.Conn
	registry *broadcaster.Registry
}

func newSession(userID string, conn *websocket.Conn, registry *broadcaster.Registry) *session {
	return &session{userID: userID, conn: conn, registry: registry}
}

// run drives both flows and returns once either one terminates, at
// which point the session deregisters and the connection is closed.
func (s *session) run() {
	outbound := s.registry.Register(s.userID)
	defer s.registry.Deregister(s.userID)
	defer s.conn.Close()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		s.readLoop()
	}()

	s.writeLoop(outbound, readerDone)
}

// readLoop decodes each inbound text frame as a tagged command; the
// only recognized variant subscribes the session to a market's order
// book. Unknown or malformed frames are ignored and never terminate the
// session. It returns on stream EOF or any read error, which triggers
// termination via writeLoop's select.
func (s *session) readLoop() {
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			log.Debug().Str("user_id", s.userID).Err(err).Msg("ws: session read ended")
			return
		}

		var msg incomingMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		if msg.SubscribeOrderbook == "" || !msg.SubscribeOrderbook.Valid() {
			continue
		}
		s.registry.Subscribe(s.userID, msg.SubscribeOrderbook)
	}
}

// writeLoop drains the session's outbound channel and writes each
// message to the wire; a write error terminates the session. It also
// exits once the reader side has ended, since a dead read direction
// means the underlying connection is gone.
func (s *session) writeLoop(outbound <-chan broadcaster.Message, readerDone <-chan struct{}) {
	for {
		select {
		case <-readerDone:
			return
		case msg := <-outbound:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug().Str("user_id", s.userID).Err(err).Msg("ws: session write failed")
				return
			}
		}
	}
}
