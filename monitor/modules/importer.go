package modules

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/viralmux/viralmux/monitor"
	"github.com/viralmux/viralmux/pipeline"
	Logger "github.com/viralmux/viralmux/utils/log"
)

type ImporterConfig struct {
	Name string

	// Candidate cap per cycle.
	Limit int
}

// Importer consumes tick messages and runs one full discovery cycle per
// tick. Finished cycles publish their report onto the bus and update the
// holder the ops server reads from. Ticks are handled one at a time, so a
// slow cycle simply delays the next one instead of overlapping it.
type Importer struct {
	Config ImporterConfig

	Orchestrator *pipeline.Orchestrator
	Holder       *monitor.ReportHolder
	EventBus     *gochannel.GoChannel
}

func NewImporter(config ImporterConfig, orchestrator *pipeline.Orchestrator, holder *monitor.ReportHolder, e *gochannel.GoChannel) *Importer {
	return &Importer{
		Config:       config,
		Orchestrator: orchestrator,
		Holder:       holder,
		EventBus:     e,
	}
}

func (i *Importer) RunModule(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	messages, err := i.EventBus.Subscribe(ctx, monitor.TopicRunTick)
	if err != nil {
		return err
	}

	for msg := range messages {
		msg.Ack()

		report := i.Orchestrator.Discover(ctx, i.Config.Limit, false)
		i.Holder.Set(report)
		Logger.Log.Infof("cycle finished: found %d, saved %d, deduped %d, filtered %d, %d query failures",
			report.ItemsFound, report.Saved, report.Deduped, report.Filtered, len(report.QueryFailures))

		payload, err := json.Marshal(report)
		if err != nil {
			Logger.Log.Errorf("marshal run report: %v", err)
			continue
		}
		if err := i.EventBus.Publish(monitor.TopicRunReport,
			message.NewMessage(watermill.NewUUID(), payload)); err != nil {
			Logger.Log.Errorf("publish run report: %v", err)
		}
	}
	return nil
}

func (i *Importer) Name() string { return i.Config.Name }

func (i *Importer) Shutdown() {}
