package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/hailam/othelloplay/internal/engine"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage is a client message.
type WSMessage struct {
	Type    string          `json:"type"` // "analyze", "stop" or "ping"
	ID      string          `json:"id"`   // Request ID for correlating responses
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WSResponse is a server message.
type WSResponse struct {
	Type    string `json:"type"` // "info", "result", "error" or "pong"
	ID      string `json:"id,omitempty"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WSClient represents a connected WebSocket client. A client runs at most
// one analysis at a time; iteration reports are streamed as "info".
type WSClient struct {
	conn     *websocket.Conn
	handlers *Handlers
	sendChan chan WSResponse

	mu      sync.Mutex
	cancel  context.CancelFunc
	running sync.WaitGroup
}

// WebSocket handles WebSocket connections for streamed analysis.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket-upgrade-failed")
		return
	}
	client := &WSClient{conn: conn, handlers: h, sendChan: make(chan WSResponse, 256)}
	go client.writePump()
	client.readPump()
}

func (c *WSClient) writePump() {
	defer c.conn.Close()
	for msg := range c.sendChan {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (c *WSClient) readPump() {
	defer func() {
		c.stop()
		c.running.Wait()
		close(c.sendChan)
		c.conn.Close()
	}()
	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		c.handleMessage(msg)
	}
}

func (c *WSClient) handleMessage(msg WSMessage) {
	switch msg.Type {
	case "analyze":
		c.handleAnalyze(msg)
	case "stop":
		c.stop()
	case "ping":
		c.sendChan <- WSResponse{Type: "pong", ID: msg.ID}
	default:
		c.sendChan <- WSResponse{Type: "error", ID: msg.ID, Error: "unknown message type"}
	}
}

// stop cancels the running analysis; its last completed iteration is still
// delivered as the result.
func (c *WSClient) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *WSClient) handleAnalyze(msg WSMessage) {
	var req AnalyzeRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		c.sendChan <- WSResponse{Type: "error", ID: msg.ID, Error: "invalid payload"}
		return
	}
	tier, ereq, err := req.parse()
	if err != nil {
		c.sendChan <- WSResponse{Type: "error", ID: msg.ID, Error: err.Error()}
		return
	}

	// One analysis at a time per client
	c.stop()
	c.running.Wait()

	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	ereq.OnInfo = func(info engine.SearchInfo) {
		c.sendChan <- WSResponse{Type: "info", ID: msg.ID, Payload: info}
	}

	c.running.Add(1)
	go func() {
		defer c.running.Done()
		defer cancel()

		res, err := c.handlers.pool.Analyze(ctx, tier, ereq)
		if err != nil {
			c.sendChan <- WSResponse{Type: "error", ID: msg.ID, Error: err.Error()}
			return
		}
		resp, err := newAnalyzeResponse(ereq.Position, res)
		if err != nil {
			c.sendChan <- WSResponse{Type: "error", ID: msg.ID, Error: err.Error()}
			return
		}
		c.sendChan <- WSResponse{Type: "result", ID: msg.ID, Payload: resp}
	}()
}
