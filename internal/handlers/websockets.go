package handlers

import (
	"bytes"
	"net/http"
	"time"

	"skull_controller/internal/console"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Console over WebSocket
// @Description  Text frames carry raw console characters (terminate lines with CR or LF). Each frame's output is answered with one text frame.
// @Tags         controller
// @Param        token  query  string  false  "Bearer token when the Authorization header cannot be set"
// @Router       /ws/console [get]
// @Security     BearerAuth
func (h *Handler) wsConsole(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	var out bytes.Buffer
	sess := console.NewSession(h.console, &out, console.SessionOptions{
		Capacity: h.opts.ConsoleCapacity,
		Verbose:  h.opts.ConsoleVerbose,
	})
	if h.log != nil {
		h.log.Infow("ws_console_opened", "operator_id", operatorID(c), "remote", c.ClientIP())
	}

	frames := make(chan []byte)
	quit := make(chan struct{})
	done := make(chan struct{})
	defer close(quit)
	go h.readFrames(conn, frames, quit, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	// all writes happen on this goroutine
	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case data := <-frames:
			_, _ = sess.Write(data)
			if out.Len() == 0 {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, out.Bytes()); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
			out.Reset()
		}
	}
}

// readFrames forwards data frames until the connection fails or quit closes.
func (h *Handler) readFrames(conn *websocket.Conn, frames chan<- []byte, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
		if typ != websocket.TextMessage && typ != websocket.BinaryMessage {
			continue
		}
		select {
		case frames <- data:
		case <-quit:
			return
		}
	}
}
