package monitor

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/lunchline/pos-server/models"
)

// Event types pushed to back-office dashboards.
const (
	EventLineOpened         = "line_opened"
	EventLineClosed         = "line_closed"
	EventSessionStarted     = "session_started"
	EventSessionEnded       = "session_ended"
	EventSessionsExpired    = "sessions_expired"
	EventTransactionsSynced = "transactions_synced"
	EventPaymentsSynced     = "payments_synced"
	EventDeletionsSynced    = "deletions_synced"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// BatchSummary is the per-flush digest a dashboard renders while
// registers come back online and drain their queues.
type BatchSummary struct {
	BatchID    string `json:"batch_id"`
	SessionID  uint   `json:"session_id"`
	LineLogID  uint   `json:"line_log_id"`
	Accepted   int    `json:"accepted"`
	Duplicates int    `json:"duplicates"`
	Failed     int    `json:"failed"`
}

// MonitorHub holds every dashboard connection and its viewer role.
type MonitorHub struct {
	clients map[*websocket.Conn]string
	mutex   sync.Mutex
}

var hub = MonitorHub{
	clients: make(map[*websocket.Conn]string),
}

// RegisterClient adds a connection with its role.
func RegisterClient(conn *websocket.Conn, role string) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = role
}

// UnregisterClient drops a connection.
func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

func BroadcastLineOpened(line models.LineLog) {
	broadcast(Message{Event: EventLineOpened, Data: line})
}

func BroadcastLineClosed(line models.LineLog) {
	broadcast(Message{Event: EventLineClosed, Data: line})
}

func BroadcastSessionStarted(session models.Session) {
	broadcast(Message{Event: EventSessionStarted, Data: session})
}

func BroadcastSessionEnded(session models.Session) {
	broadcast(Message{Event: EventSessionEnded, Data: session})
}

func BroadcastSessionsExpired(count int64) {
	broadcast(Message{
		Event: EventSessionsExpired,
		Data:  map[string]interface{}{"count": count},
	})
}

// BroadcastBatchSynced reports one drained batch under the given event.
func BroadcastBatchSynced(event string, summary BatchSummary) {
	broadcast(Message{Event: event, Data: summary})
}

func broadcast(msg Message) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling monitor message: %v", err)
		return
	}

	for conn := range hub.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("Error sending monitor message: %v", err)
			continue
		}
	}
}
