package soflow_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"

	"github.com/soflow/soflow"
	"github.com/soflow/soflow/mock"
)

func TestDeadLetterRoute(t *testing.T) {
	pub := &mock.Publisher{}
	router := soflow.NewDeadLetterRouter(pub)

	rec := soflow.Record{"title": "bad message"}
	router.Route(context.Background(), rec, soflow.ReasonEncodeFailed, errors.New("required field question_id missing"))

	if len(pub.Published) != 1 {
		t.Fatalf("expected exactly one envelope, got %d", len(pub.Published))
	}
	var env soflow.DeadLetterEnvelope
	if err := json.Unmarshal(pub.Published[0].Data, &env); err != nil {
		t.Fatalf("unmarshaling envelope: %v", err)
	}
	if env.Reason != soflow.ReasonEncodeFailed {
		t.Fatalf("wrong reason: %s", env.Reason)
	}
	if env.Error == "" {
		t.Fatalf("cause string is empty")
	}
	if env.Record["title"] != "bad message" {
		t.Fatalf("original record not carried: %v", env.Record)
	}
	if pub.Published[0].Attrs["reason"] != "encode_failed" {
		t.Fatalf("wrong reason attribute: %v", pub.Published[0].Attrs)
	}
}

func TestDeadLetterRoutePublishFailureIsSwallowed(t *testing.T) {
	pub := &mock.Publisher{Err: errors.New("side channel down")}
	router := soflow.NewDeadLetterRouter(pub)

	// Best-effort diagnostics: a failing side channel must not escalate.
	router.Route(context.Background(), soflow.Record{}, soflow.ReasonPublishRejected, errors.New("topic rejected message"))

	if len(pub.Published) != 0 {
		t.Fatalf("nothing should have been recorded: %d", len(pub.Published))
	}
}
