package modules

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/viralmux/viralmux/monitor"
	Logger "github.com/viralmux/viralmux/utils/log"
)

type SchedulerConfig struct {
	Name string

	// Time between two discovery cycles.
	Interval time.Duration
}

// Scheduler emits one tick per due discovery cycle onto the event bus. A
// cycle that is already running is never interrupted; cancellation only
// takes effect between cycles, which the importer guarantees by consuming
// ticks sequentially.
type Scheduler struct {
	Config SchedulerConfig

	EventBus *gochannel.GoChannel
}

func NewScheduler(config SchedulerConfig, e *gochannel.GoChannel) *Scheduler {
	return &Scheduler{Config: config, EventBus: e}
}

func (s *Scheduler) RunModule(ctx context.Context) error {
	// First cycle fires immediately, the ticker covers the rest.
	if err := s.publishTick(); err != nil {
		return err
	}

	ticker := time.NewTicker(s.Config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.publishTick(); err != nil {
				return err
			}
		}
	}
}

func (s *Scheduler) publishTick() error {
	Logger.Log.Infof("scheduler: discovery cycle due")
	msg := message.NewMessage(watermill.NewUUID(), []byte(time.Now().UTC().Format(time.RFC3339)))
	return s.EventBus.Publish(monitor.TopicRunTick, msg)
}

func (s *Scheduler) Name() string { return s.Config.Name }

func (s *Scheduler) Shutdown() {}
