package generator

import (
	"context"
	"testing"
	"time"

	"github.com/noah-isme/timetable-engine/pkg/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySink_AppendsNotifications(t *testing.T) {
	sink := NewMemorySink()
	n := Notification{Algorithm: "CO", Semester: "SEM101", HardCost: 0, SoftCost: 4}
	require.NoError(t, sink.Notify(context.Background(), n))
	require.Len(t, sink.Notifications, 1)
	assert.Equal(t, n, sink.Notifications[0])
}

func TestNewRedisSink_DefaultsKeyWhenEmpty(t *testing.T) {
	s := NewRedisSink(nil, "")
	assert.Equal(t, "timetable:notifications", s.key)
}

func TestQueuedSink_DeliversAsynchronouslyToInnerSink(t *testing.T) {
	inner := NewMemorySink()
	qs := NewQueuedSink(inner, jobs.QueueConfig{Workers: 1, RetryDelay: time.Millisecond})
	defer qs.Close()

	n := Notification{Algorithm: "BC", Semester: "SEM201", HardCost: 0, SoftCost: 1.5}
	require.NoError(t, qs.Notify(context.Background(), n))

	require.Eventually(t, func() bool {
		return len(inner.Notifications) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, n, inner.Notifications[0])
}
