package soflow

import (
	"context"
	"encoding/json"
	"log"
)

// DeadLetterReason enumerates why a record was routed to the dead-letter
// channel.
type DeadLetterReason string

const (
	ReasonEncodeFailed    DeadLetterReason = "encode_failed"
	ReasonPublishRejected DeadLetterReason = "publish_rejected"
	ReasonSchemaRejected  DeadLetterReason = "schema_rejected"
	ReasonManualTest      DeadLetterReason = "manual_test"
)

// DeadLetterEnvelope wraps a record that could not be validated or published
// together with the failure context. It is serialized as plain JSON so that
// the failure information itself cannot fail schema validation.
type DeadLetterEnvelope struct {
	Reason DeadLetterReason `json:"reason"`
	Error  string           `json:"error"`
	Record Record           `json:"record"`
}

// DeadLetterRouter publishes dead-letter envelopes to a side channel with no
// schema constraint. Routing is best-effort diagnostics: a failed publish is
// logged and not escalated further.
type DeadLetterRouter struct {
	Publisher Publisher
}

// NewDeadLetterRouter returns a router publishing to pub.
func NewDeadLetterRouter(pub Publisher) *DeadLetterRouter {
	return &DeadLetterRouter{Publisher: pub}
}

// Route wraps rec and cause into an envelope and publishes it.
func (r *DeadLetterRouter) Route(ctx context.Context, rec Record, reason DeadLetterReason, cause error) {
	env := DeadLetterEnvelope{
		Reason: reason,
		Error:  cause.Error(),
		Record: rec,
	}
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("couldn't marshal dead-letter envelope (reason %s): %v", reason, err)
		return
	}
	id, err := r.Publisher.Publish(ctx, data, map[string]string{"reason": string(reason)})
	if err != nil {
		log.Printf("couldn't publish dead-letter envelope (reason %s): %v", reason, err)
		return
	}
	log.Printf("dead-letter message_id=%s reason=%s: %v", id, reason, cause)
}
