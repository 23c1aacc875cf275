package session

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/linguabridge/translate-gateway/internal/config"
	"github.com/linguabridge/translate-gateway/internal/observability"
	"github.com/linguabridge/translate-gateway/internal/realtime"
	"github.com/linguabridge/translate-gateway/internal/transcript"
	"github.com/linguabridge/translate-gateway/internal/translation"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The gateway serves its own UI; in production restrict this to the
		// UI origin.
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Handler returns the WebSocket endpoint a browser connects to. Each
// connection gets its own session: an upstream realtime consumer, a
// transcript sink pushing back over the same socket, and the state machine
// in between. Control messages from the browser (pair selection, reset)
// are injected into the same serial event stream the upstream feeds.
func Handler(cfg *config.Config, translator translation.Translator) http.HandlerFunc {
	logger := observability.ComponentLogger("session-handler")

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to upgrade connection to WebSocket")
			return
		}
		defer conn.Close()

		consumer := realtime.NewConsumer(cfg)
		if err := consumer.Start(); err != nil {
			logger.Error().Err(err).Msg("Failed to start realtime stream")
			return
		}
		defer consumer.Close()

		sink := transcript.NewWSSink(conn)
		sess := New(cfg, translator, sink)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		events := make(chan realtime.Event, 100)

		// Upstream events feed the merged stream; when the consumer gives
		// up (reconnect exhausted) the session ends.
		go func() {
			defer cancel()
			for ev := range consumer.Events() {
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}()

		// Browser control messages join the same stream so the session
		// stays a single serial reducer.
		go func() {
			defer cancel()
			for {
				_, message, err := conn.ReadMessage()
				if err != nil {
					return
				}
				var ev realtime.Event
				if err := json.Unmarshal(message, &ev); err != nil {
					logger.Warn().Err(err).Msg("Ignoring malformed control message")
					continue
				}
				switch ev.Type {
				case realtime.EventPairSelected, realtime.EventPairReset:
					select {
					case events <- ev:
					case <-ctx.Done():
						return
					}
				default:
					logger.Debug().Str("type", ev.Type).Msg("Ignoring client message")
				}
			}
		}()

		sess.Run(ctx, events)
		sess.Flush()
	}
}
