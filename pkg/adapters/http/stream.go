package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
)

// StreamManager fans roll results out to the SSE subscribers of a table.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // Table -> Set of Channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

// Subscribe registers a channel for table. The returned cancel func unregisters and
// closes it.
func (sm *StreamManager) Subscribe(table string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[table]; !ok {
		sm.subscribers[table] = make(map[chan<- string]struct{})
	}
	sm.subscribers[table][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[table]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, table)
			}
		}
	}
}

// Subscribers returns the number of channels listening on table.
func (sm *StreamManager) Subscribers(table string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[table])
}

// Broadcast delivers msg to every subscriber of table without blocking.
func (sm *StreamManager) Broadcast(table string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[table] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			slog.Warn("SSE: Client buffer full, dropping message", "table", table)
		}
	}
}

// SubscribeEvents handles the GET /events?table=NAME request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	table := r.URL.Query().Get("table")
	if table == "" {
		http.Error(w, "table is required", http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.Logger.Info("SSE: Subscribing to table", "table", table)
	ch, cancel := s.Streams.Subscribe(table)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: roll\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
