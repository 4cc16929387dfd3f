package ws

import (
	"encoding/json"
	"log"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"devchallenge-api/metrics"
)

// inbound is a client frame before payload decoding.
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// UpgradeRequired gates the /ws route: plain HTTP requests get a 426.
func UpgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler returns the websocket endpoint bound to the hub. Malformed frames
// are logged and dropped; the connection stays open.
func Handler(hub *Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		hub.Register(c)
		defer hub.Unregister(c)

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				return
			}
			hub.Touch(c)

			var msg inbound
			if err := json.Unmarshal(raw, &msg); err != nil {
				log.Printf("❌ [WS] dropping unparseable frame: %v", err)
				metrics.WSMessagesDropped.Inc()
				continue
			}
			dispatch(hub, c, msg)
		}
	})
}

func dispatch(hub *Hub, c *websocket.Conn, msg inbound) {
	switch msg.Type {
	case "auth":
		var p struct {
			UserID string `json:"userId"`
		}
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.UserID == "" {
			metrics.WSMessagesDropped.Inc()
			return
		}
		hub.Auth(c, p.UserID)

	case "join_challenge":
		var p struct {
			ChallengeID string `json:"challengeId"`
		}
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.ChallengeID == "" {
			metrics.WSMessagesDropped.Inc()
			return
		}
		hub.Join(c, p.ChallengeID)

	case "leave_challenge":
		var p struct {
			ChallengeID string `json:"challengeId"`
		}
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.ChallengeID == "" {
			metrics.WSMessagesDropped.Inc()
			return
		}
		hub.Leave(c, p.ChallengeID)

	case "typing_update":
		var p struct {
			ChallengeID string `json:"challengeId"`
			IsTyping    bool   `json:"isTyping"`
		}
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.ChallengeID == "" {
			metrics.WSMessagesDropped.Inc()
			return
		}
		hub.Typing(c, p.ChallengeID, p.IsTyping)

	case "pong", "ping":
		// Touch already refreshed the idle clock.

	default:
		log.Printf("❌ [WS] unknown message type %q", msg.Type)
		metrics.WSMessagesDropped.Inc()
	}
}
