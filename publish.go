package soflow

import "context"

// Publisher is the outbound transport capability. Publish sends a raw byte
// payload with optional string attributes and returns the transport-assigned
// delivery identifier for the message.
type Publisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}
