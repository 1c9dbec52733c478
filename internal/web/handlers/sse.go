package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/kozaktomas/photo-booth/internal/workflow"
)

// setupSSEConnection sets the event stream headers and returns the flusher.
// On failure it writes an error response and returns false.
func setupSSEConnection(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return flusher, true
}

// streamSessionEvents sends the current view and then every session event
// until the client disconnects or the broadcaster closes.
func streamSessionEvents(w http.ResponseWriter, r *http.Request, session Session) {
	flusher, ok := setupSSEConnection(w)
	if !ok {
		return
	}

	events := session.Events()
	eventCh := events.AddListener()
	defer events.RemoveListener(eventCh)

	view := session.View()
	sendSSEEvent(w, flusher, string(workflow.EventState), workflow.Event{Type: workflow.EventState, State: &view})

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, string(event.Type), event)
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}
