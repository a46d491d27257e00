// Package producer fetches questions from the source API, encodes them
// against the schema and publishes them to the main topic, routing records
// that fail validation or publishing to the dead-letter channel.
package producer

import (
	"context"
	"log"

	"github.com/pkg/errors"

	"github.com/soflow/soflow"
	"github.com/soflow/soflow/avro"
	"github.com/soflow/soflow/stackexchange"
)

// Producer runs one fetch-encode-publish batch.
type Producer struct {
	Client      *stackexchange.Client
	Codec       *avro.Codec
	Publisher   soflow.Publisher
	DeadLetters *soflow.DeadLetterRouter

	Tag      string
	PageSize int

	// PublishBadMessage injects one deliberately invalid record at the end
	// of the batch to exercise the failure path end to end.
	PublishBadMessage bool
}

// Run fetches one page of questions and publishes them. A record that fails
// normalization, encoding or publishing is dead-lettered and the batch
// continues; Run only errors when the fetch itself fails.
func (p *Producer) Run(ctx context.Context) error {
	items, err := p.Client.FetchQuestions(ctx, p.Tag, p.PageSize)
	if err != nil {
		return errors.Wrap(err, "fetching questions")
	}
	log.Printf("fetched %d questions", len(items))

	published := 0
	for _, item := range items {
		rec, err := stackexchange.Normalize(item)
		if err != nil {
			p.DeadLetters.Route(ctx, soflow.Record(item), soflow.ReasonSchemaRejected, err)
			continue
		}
		payload, err := p.Codec.Encode(rec)
		if err != nil {
			p.DeadLetters.Route(ctx, rec, soflow.ReasonEncodeFailed, err)
			continue
		}
		id, err := p.Publisher.Publish(ctx, payload, nil)
		if err != nil {
			p.DeadLetters.Route(ctx, rec, soflow.ReasonPublishRejected, err)
			continue
		}
		published++
		log.Printf("[%d] message_id=%s question_id=%v title=%q", published, id, rec["question_id"], rec["title"])
	}

	if p.PublishBadMessage {
		bad := soflow.Record{"title": "bad message"}
		if _, err := p.Codec.Encode(bad); err != nil {
			log.Printf("[EXPECTED] bad message failed: %v", err)
			p.DeadLetters.Route(ctx, bad, soflow.ReasonManualTest, err)
		}
	}
	return nil
}
