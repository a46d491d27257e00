package ingest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// PushMessage is the inner message of a push-delivered envelope.
type PushMessage struct {
	Data       string            `json:"data"`
	MessageID  string            `json:"messageId"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// PushEnvelope is the wire shape the transport POSTs to the consumer.
type PushEnvelope struct {
	Message      *PushMessage `json:"message"`
	Subscription string       `json:"subscription,omitempty"`
}

// Handler serves the push endpoint for a Sink. POST / receives envelopes;
// GET /listening is the health check.
type Handler struct {
	Sink *Sink
}

// Router returns the configured HTTP routes.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/listening", h.listening).Methods("GET")
	r.HandleFunc("/", h.receive).Methods("POST")
	return r
}

func (h *Handler) listening(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "Consumer service is listening")
}

// receive handles one delivery. Envelopes with no message or no data are
// acknowledged without processing so that a malformed envelope can't cause a
// redelivery storm. Processing failures return 500, which the transport
// treats as a nack and redelivers.
func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "reading request body", http.StatusInternalServerError)
		return
	}

	var env PushEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Message == nil {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "No push message")
		return
	}
	if env.Message.Data == "" {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "No data")
		return
	}

	deliveryID := deliveryIDOf(env)

	payload, err := base64.StdEncoding.DecodeString(env.Message.Data)
	if err != nil {
		log.Printf("processing failed for message_id=%s: %v", deliveryID, err)
		http.Error(w, fmt.Sprintf("Processing failed: %v", err), http.StatusInternalServerError)
		return
	}

	if err := h.Sink.Ingest(r.Context(), deliveryID, payload); err != nil {
		log.Printf("processing failed for message_id=%s: %v", deliveryID, err)
		http.Error(w, fmt.Sprintf("Processing failed: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deliveryIDOf returns the transport-assigned message ID, or a wall-clock
// fallback for transports that omit one.
func deliveryIDOf(env PushEnvelope) string {
	if env.Message != nil && env.Message.MessageID != "" {
		return env.Message.MessageID
	}
	return fmt.Sprintf("no-id-%d", time.Now().UTC().UnixMilli())
}
