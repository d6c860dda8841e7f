package ws

import (
	"context"
	"errors"
	"sync"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v3"
	"github.com/valyala/fasthttp"
)

var errClientClosed = errors.New("websocket closed by client")

// Writer sends typed JSON messages over a WebSocket.
type Writer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Send writes one message of the given type.
func (w *Writer) Send(kind string, data any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := WriteMessage(w.conn, kind, data); err != nil {
		return errClientClosed
	}
	return nil
}

// Status writes a status message, ignoring write errors.
func (w *Writer) Status(level, message string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	_ = WriteStatus(w.conn, level, message)
}

// Stream upgrades to WebSocket and runs streamer until it returns or the
// client disconnects.
func Stream(c fiber.Ctx, streamer func(ctx context.Context, w *Writer) error) error {
	type requestCtxProvider interface {
		RequestCtx() *fasthttp.RequestCtx
	}

	provider, ok := any(c).(requestCtxProvider)
	if !ok {
		return fiber.ErrInternalServerError
	}

	return Upgrader.Upgrade(provider.RequestCtx(), func(conn *websocket.Conn) {
		defer conn.Close()

		closed := make(chan struct{})
		var once sync.Once
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					once.Do(func() { close(closed) })
					return
				}
			}
		}()

		w := &Writer{conn: conn}

		streamCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			select {
			case <-closed:
				cancel()
			case <-streamCtx.Done():
			}
		}()

		err := streamer(streamCtx, w)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, errClientClosed) {
			w.Status("error", "stream failed")
		}

		w.Status("info", "stream ended")
	})
}
