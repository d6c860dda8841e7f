package ws

import (
	"encoding/json"

	"bithub/internal/env"

	githubws "github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"
)

// Upgrader upgrades HTTP connections to WebSocket connections.
var Upgrader = githubws.FastHTTPUpgrader{
	CheckOrigin: func(ctx *fasthttp.RequestCtx) bool {
		if env.DRAIN_MODE {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			ctx.SetBodyString(`{"message": "service is draining"}`)
			return false
		}
		return true
	},
}

// WriteStatus sends a status message to the websocket client.
func WriteStatus(conn *githubws.Conn, status string, message string) error {
	return WriteMessage(conn, status, message)
}

// WriteMessage sends {"type": kind, "data": data} to the websocket client.
func WriteMessage(conn *githubws.Conn, kind string, data any) error {
	payload, err := json.Marshal(map[string]any{
		"type": kind,
		"data": data,
	})
	if err != nil {
		return err
	}
	return conn.WriteMessage(githubws.TextMessage, payload)
}
