package consumer

import (
	"sync"

	"github.com/segmentio/kafka-go"
)

type partitionKey struct {
	topic     string
	partition int
}

type partitionState struct {
	pending []int64
	done    map[int64]kafka.Message
}

// offsetTracker releases commits per partition only once every earlier fetched
// offset has completed, so concurrent workers never commit past an unfinished message.
type offsetTracker struct {
	mu         sync.Mutex
	partitions map[partitionKey]*partitionState
}

func newOffsetTracker() *offsetTracker {
	return &offsetTracker{partitions: make(map[partitionKey]*partitionState)}
}

func (t *offsetTracker) track(msg kafka.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := partitionKey{topic: msg.Topic, partition: msg.Partition}
	state, ok := t.partitions[key]
	if !ok {
		state = &partitionState{done: make(map[int64]kafka.Message)}
		t.partitions[key] = state
	}
	state.pending = append(state.pending, msg.Offset)
}

// complete marks msg finished and returns the highest message that can now be
// committed, if any.
func (t *offsetTracker) complete(msg kafka.Message) (kafka.Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.partitions[partitionKey{topic: msg.Topic, partition: msg.Partition}]
	if !ok {
		return kafka.Message{}, false
	}
	state.done[msg.Offset] = msg

	var (
		commit kafka.Message
		found  bool
	)
	for len(state.pending) > 0 {
		head := state.pending[0]
		m, finished := state.done[head]
		if !finished {
			break
		}
		delete(state.done, head)
		state.pending = state.pending[1:]
		commit, found = m, true
	}
	return commit, found
}
