package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvicter struct {
	evicted []string
	fail    string
}

func (f *fakeEvicter) Evict(_ context.Context, collection, resource string) error {
	if resource == f.fail {
		return errors.New("boom")
	}
	f.evicted = append(f.evicted, collection+"/"+resource)
	return nil
}

func TestEncodingIsDeterministic(t *testing.T) {
	ev := Event{Collection: "live", Kind: KindPublished, Keys: []string{"hello", "index"}}
	a, err := Encode(ev)
	require.NoError(t, err)
	b, err := Encode(ev)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	got, err := Decode(a)
	require.NoError(t, err)
	assert.Equal(t, ev, got)
}

func TestMessageHandlerEvictsKeys(t *testing.T) {
	cache := &fakeEvicter{fail: "broken"}
	handle := messageHandler(EvictHandler(context.Background(), cache))

	data, err := Encode(Event{Collection: "draft", Kind: KindRetracted, Keys: []string{"a", "broken", "b"}})
	require.NoError(t, err)
	handle(&nats.Msg{Subject: DefaultSubject, Data: data})
	assert.Equal(t, []string{"draft/a", "draft/b"}, cache.evicted)

	// Malformed payloads are dropped.
	handle(&nats.Msg{Subject: DefaultSubject, Data: []byte{0xff, 0x00}})
	assert.Len(t, cache.evicted, 2)
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
}
