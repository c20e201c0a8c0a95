// Package realtime pushes committed session commands to connected front desks
// over WebSocket so every terminal can apply them to its local view.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"trainingdesk/internal/domain/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 256
)

// Event is the frame pushed to clients.
type Event struct {
	Type      session.Kind    `json:"type"`
	MachineID int64           `json:"machine_id"`
	Command   session.Command `json:"command"`
}

// clientMessage is what desks may send: subscribe/unsubscribe to a machine.
type clientMessage struct {
	Type      string `json:"type"`
	MachineID int64  `json:"machine_id"`
}

type connection struct {
	userID   int64
	conn     *websocket.Conn
	send     chan []byte
	machines map[int64]bool // empty: every machine
}

func (c *connection) wants(machineID int64) bool {
	return len(c.machines) == 0 || c.machines[machineID]
}

// Hub tracks connected desks. It is safe for concurrent use and implements
// session.EventSink.
type Hub struct {
	mu          sync.RWMutex
	connections map[*connection]struct{}
}

func NewHub() *Hub {
	return &Hub{connections: make(map[*connection]struct{})}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = struct{}{}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[c]; ok {
		delete(h.connections, c)
		close(c.send)
	}
}

// Clients returns the number of connected desks.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Publish fans the command out to every desk watching the affected machines.
// A desk whose buffer is full misses the frame.
func (h *Hub) Publish(_ context.Context, cmd session.Command) error {
	machines := affectedMachines(cmd)
	if len(machines) == 0 {
		return nil
	}

	frames := make(map[int64][]byte, len(machines))
	for _, id := range machines {
		data, err := json.Marshal(Event{Type: cmd.Kind, MachineID: id, Command: cmd})
		if err != nil {
			return err
		}
		frames[id] = data
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.connections {
		for _, id := range machines {
			if !c.wants(id) {
				continue
			}
			select {
			case c.send <- frames[id]:
			default:
			}
			break
		}
	}
	return nil
}

// affectedMachines lists the machines whose schedule the command touches;
// a reschedule across machines touches two.
func affectedMachines(cmd session.Command) []int64 {
	var out []int64
	if cmd.Before != nil {
		out = append(out, cmd.Before.MachineID)
	}
	if cmd.After != nil && (cmd.Before == nil || cmd.After.MachineID != cmd.Before.MachineID) {
		out = append(out, cmd.After.MachineID)
	}
	return out
}

// Serve registers conn and runs its read and write loops. It blocks until the
// client disconnects.
func (h *Hub) Serve(conn *websocket.Conn, userID int64) {
	c := &connection{
		userID:   userID,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		machines: make(map[int64]bool),
	}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.MachineID <= 0 {
			continue
		}

		h.mu.Lock()
		switch msg.Type {
		case "subscribe":
			c.machines[msg.MachineID] = true
		case "unsubscribe":
			delete(c.machines, msg.MachineID)
		}
		h.mu.Unlock()
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
