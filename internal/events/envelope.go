package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DataVersion is the schema version stamped on every published envelope.
const DataVersion = "1.0"

// envelopeField is the stream entry field holding the encoded envelope.
const envelopeField = "envelope"

// Envelope wraps an event payload with routing metadata.
type Envelope struct {
	ID          string          `json:"id"`
	Subject     string          `json:"subject"`
	EventType   string          `json:"eventType"`
	DataVersion string          `json:"dataVersion"`
	Data        json.RawMessage `json:"data"`
	EventTime   time.Time       `json:"eventTime"`
}

// NewEnvelope encodes payload into a new envelope.
func NewEnvelope(subject, eventType string, payload interface{}, now time.Time) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to encode event payload: %w", err)
	}

	return Envelope{
		ID:          uuid.NewString(),
		Subject:     subject,
		EventType:   eventType,
		DataVersion: DataVersion,
		Data:        data,
		EventTime:   now.UTC(),
	}, nil
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no data", e.ID)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("failed to decode event %s data: %w", e.ID, err)
	}
	return nil
}

// ErrPermanent marks handler failures that retrying cannot fix.
// Such messages are moved to the dead-letter stream immediately.
var ErrPermanent = errors.New("permanent event failure")

// Permanent wraps err so the consumer dead-letters the message instead of retrying it.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

func encodeEnvelope(env Envelope) (string, error) {
	raw, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to encode envelope: %w", err)
	}
	return string(raw), nil
}

func decodeEnvelope(values map[string]interface{}) (Envelope, error) {
	raw, ok := values[envelopeField].(string)
	if !ok {
		return Envelope{}, fmt.Errorf("stream entry has no %q field", envelopeField)
	}

	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode envelope: %w", err)
	}
	return env, nil
}
