package modules

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viralmux/viralmux/monitor"
)

func TestSchedulerPublishesTicks(t *testing.T) {
	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := bus.Subscribe(ctx, monitor.TopicRunTick)
	require.NoError(t, err)

	scheduler := NewScheduler(SchedulerConfig{
		Name:     "scheduler",
		Interval: 30 * time.Millisecond,
	}, bus)
	go func() { _ = scheduler.RunModule(ctx) }()

	// The first tick fires immediately, the second after one interval.
	for i := 0; i < 2; i++ {
		select {
		case msg := <-messages:
			msg.Ack()
		case <-time.After(2 * time.Second):
			t.Fatalf("tick %d never arrived", i)
		}
	}
	assert.Equal(t, "scheduler", scheduler.Name())
}
