package server

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// hub tracks connected sandbox sockets and fans broadcast frames out to
// them. A slow client gets dropped rather than stalling the rest.
type hub struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]chan []byte
}

func newHub() *hub {
	return &hub{conns: make(map[*websocket.Conn]chan []byte)}
}

func (h *hub) add(conn *websocket.Conn) chan []byte {
	send := make(chan []byte, 64)
	h.mu.Lock()
	h.conns[conn] = send
	h.mu.Unlock()
	return send
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if send, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		close(send)
	}
	h.mu.Unlock()
}

func (h *hub) broadcast(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn, send := range h.conns {
		select {
		case send <- frame:
		default:
			go conn.Close(websocket.StatusPolicyViolation, "send buffer full")
		}
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	for conn, send := range h.conns {
		delete(h.conns, conn)
		close(send)
		go conn.Close(websocket.StatusGoingAway, "server shutdown")
	}
	h.mu.Unlock()
}

// writePump drains send onto the socket until the channel closes or a
// write fails.
func writePump(ctx context.Context, conn *websocket.Conn, send <-chan []byte) {
	for {
		select {
		case frame, ok := <-send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := conn.Write(wctx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
