package producer_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"

	"github.com/soflow/soflow"
	"github.com/soflow/soflow/avro"
	"github.com/soflow/soflow/mock"
	"github.com/soflow/soflow/producer"
	"github.com/soflow/soflow/stackexchange"
)

func apiServer(t *testing.T, itemsJSON string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"items": %s}`, itemsJSON)
	}))
}

func newProducer(t *testing.T, srv *httptest.Server, pub, dlq *mock.Publisher) *producer.Producer {
	t.Helper()
	codec, err := avro.NewCodec()
	if err != nil {
		t.Fatalf("getting codec: %v", err)
	}
	client := stackexchange.NewClient()
	client.BaseURL = srv.URL
	return &producer.Producer{
		Client:      client,
		Codec:       codec,
		Publisher:   pub,
		DeadLetters: soflow.NewDeadLetterRouter(dlq),
		Tag:         "go",
		PageSize:    10,
	}
}

const goodItem = `{"question_id": 1, "title": "t", "link": "l", "creation_date": 1741100400, "is_answered": false}`

func TestRunPublishesEncodedRecords(t *testing.T) {
	srv := apiServer(t, `[`+goodItem+`]`)
	defer srv.Close()
	pub, dlq := &mock.Publisher{}, &mock.Publisher{}

	if err := newProducer(t, srv, pub, dlq).Run(context.Background()); err != nil {
		t.Fatalf("running producer: %v", err)
	}
	if len(pub.Published) != 1 {
		t.Fatalf("expected one publish, got %d", len(pub.Published))
	}
	if len(dlq.Published) != 0 {
		t.Fatalf("nothing should be dead-lettered: %d", len(dlq.Published))
	}

	codec, err := avro.NewCodec()
	if err != nil {
		t.Fatalf("getting codec: %v", err)
	}
	rec, err := codec.Decode(pub.Published[0].Data)
	if err != nil {
		t.Fatalf("published payload is not valid avro: %v", err)
	}
	if rec["question_id"] != int64(1) {
		t.Fatalf("wrong record published: %v", rec)
	}
}

func TestRunDeadLettersBadItems(t *testing.T) {
	// Second item has no question_id and must be dead-lettered without
	// dropping the rest of the batch.
	srv := apiServer(t, `[`+goodItem+`, {"title": "orphan"}]`)
	defer srv.Close()
	pub, dlq := &mock.Publisher{}, &mock.Publisher{}

	if err := newProducer(t, srv, pub, dlq).Run(context.Background()); err != nil {
		t.Fatalf("running producer: %v", err)
	}
	if len(pub.Published) != 1 {
		t.Fatalf("good item should still publish: %d", len(pub.Published))
	}
	if len(dlq.Published) != 1 {
		t.Fatalf("expected exactly one dead letter, got %d", len(dlq.Published))
	}
	var env soflow.DeadLetterEnvelope
	if err := json.Unmarshal(dlq.Published[0].Data, &env); err != nil {
		t.Fatalf("unmarshaling envelope: %v", err)
	}
	if env.Reason != soflow.ReasonSchemaRejected || env.Error == "" {
		t.Fatalf("wrong envelope: %+v", env)
	}
	if env.Record["title"] != "orphan" {
		t.Fatalf("original record not carried: %v", env.Record)
	}
}

func TestRunDeadLettersRejectedPublishes(t *testing.T) {
	srv := apiServer(t, `[`+goodItem+`]`)
	defer srv.Close()
	pub := &mock.Publisher{Err: errors.New("schema enforcement rejected message")}
	dlq := &mock.Publisher{}

	if err := newProducer(t, srv, pub, dlq).Run(context.Background()); err != nil {
		t.Fatalf("running producer: %v", err)
	}
	if len(dlq.Published) != 1 {
		t.Fatalf("expected one dead letter, got %d", len(dlq.Published))
	}
	var env soflow.DeadLetterEnvelope
	if err := json.Unmarshal(dlq.Published[0].Data, &env); err != nil {
		t.Fatalf("unmarshaling envelope: %v", err)
	}
	if env.Reason != soflow.ReasonPublishRejected {
		t.Fatalf("wrong reason: %s", env.Reason)
	}
	if env.Record["question_id"] == nil {
		t.Fatalf("original record not carried: %v", env.Record)
	}
}

func TestRunPublishBadMessage(t *testing.T) {
	srv := apiServer(t, `[]`)
	defer srv.Close()
	pub, dlq := &mock.Publisher{}, &mock.Publisher{}

	p := newProducer(t, srv, pub, dlq)
	p.PublishBadMessage = true
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("running producer: %v", err)
	}
	if len(pub.Published) != 0 {
		t.Fatalf("the bad message must never reach the main topic: %d", len(pub.Published))
	}
	if len(dlq.Published) != 1 {
		t.Fatalf("expected one dead letter, got %d", len(dlq.Published))
	}
	var env soflow.DeadLetterEnvelope
	if err := json.Unmarshal(dlq.Published[0].Data, &env); err != nil {
		t.Fatalf("unmarshaling envelope: %v", err)
	}
	if env.Reason != soflow.ReasonManualTest {
		t.Fatalf("wrong reason: %s", env.Reason)
	}
}
