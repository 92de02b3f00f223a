// Package notify broadcasts artifact changes so that readers can drop cached
// copies before their TTL runs out.
package notify

import (
	"context"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Kind distinguishes written from deleted artifacts.
type Kind string

const (
	KindPublished Kind = "published"
	KindRetracted Kind = "retracted"
)

// Event names the artifact keys of one collection that changed.
type Event struct {
	Collection string   `cbor:"1,keyasint"`
	Kind       Kind     `cbor:"2,keyasint"`
	Keys       []string `cbor:"3,keyasint"`
}

// Publisher emits events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// Core Deterministic Encoding: identical events encode to identical bytes.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("notify: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("notify: CBOR decoder initialization failed: " + err.Error())
	}
}

// Encode serializes an event for the wire.
func Encode(ev Event) ([]byte, error) {
	data, err := encMode.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return data, nil
}

// Decode parses a wire event.
func Decode(data []byte) (Event, error) {
	var ev Event
	if err := decMode.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}
