package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// Event is one mutation announcement on the /events stream. Dashboard tabs
// use it to refetch the touched resource immediately instead of waiting for
// the next poll.
type Event struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
	ID       string `json:"id,omitempty"`
}

// StreamManager fans mutation events out to active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan string]struct{}
}

// NewStreamManager creates an empty manager.
func NewStreamManager() *StreamManager {
	return &StreamManager{subscribers: make(map[chan string]struct{})}
}

// Subscribe registers a listener. The returned cancel must be called when the
// connection goes away; it closes the channel.
func (sm *StreamManager) Subscribe() (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Broadcast sends the event to every subscriber. Slow clients lose events
// rather than blocking the mutation path.
func (sm *StreamManager) Broadcast(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for ch := range sm.subscribers {
		select {
		case ch <- string(payload):
		default:
		}
	}
}

// subscribeEvents handles GET /events. An optional ?resource=jobs,queue
// parameter narrows the stream to the named resources.
func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var watch []string
	if raw := r.URL.Query().Get("resource"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			watch = append(watch, strings.TrimSpace(part))
		}
	}

	ch, cancel := s.streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-ch:
			if !open {
				return
			}
			if len(watch) > 0 && !eventMatches(msg, watch) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func eventMatches(msg string, watch []string) bool {
	var event Event
	if err := json.Unmarshal([]byte(msg), &event); err != nil {
		return true
	}
	for _, resource := range watch {
		if event.Resource == resource {
			return true
		}
	}
	return false
}
