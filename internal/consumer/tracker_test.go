package consumer

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestOffsetTrackerCommitsContiguousPrefix(t *testing.T) {
	tracker := newOffsetTracker()
	msgs := []kafka.Message{
		{Topic: "q", Partition: 0, Offset: 1},
		{Topic: "q", Partition: 0, Offset: 2},
		{Topic: "q", Partition: 0, Offset: 3},
		{Topic: "q", Partition: 1, Offset: 7},
	}
	for _, m := range msgs {
		tracker.track(m)
	}

	_, ok := tracker.complete(msgs[1])
	require.False(t, ok, "offset 1 is still in flight")

	commit, ok := tracker.complete(msgs[3])
	require.True(t, ok, "partitions are independent")
	require.Equal(t, int64(7), commit.Offset)

	commit, ok = tracker.complete(msgs[0])
	require.True(t, ok)
	require.Equal(t, int64(2), commit.Offset)

	commit, ok = tracker.complete(msgs[2])
	require.True(t, ok)
	require.Equal(t, int64(3), commit.Offset)
}

func TestOffsetTrackerHoldsBehindUnfinishedMessage(t *testing.T) {
	tracker := newOffsetTracker()
	first := kafka.Message{Topic: "q", Partition: 0, Offset: 10}
	second := kafka.Message{Topic: "q", Partition: 0, Offset: 11}
	tracker.track(first)
	tracker.track(second)

	_, ok := tracker.complete(second)
	require.False(t, ok)

	_, ok = tracker.complete(kafka.Message{Topic: "other", Offset: 1})
	require.False(t, ok, "untracked partitions are ignored")
}
