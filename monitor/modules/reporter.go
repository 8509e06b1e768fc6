package modules

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/slack-go/slack"

	"github.com/viralmux/viralmux/monitor"
	"github.com/viralmux/viralmux/pipeline"
	Logger "github.com/viralmux/viralmux/utils/log"
)

type ReporterConfig struct {
	Name string

	// Slack channel run summaries go to, empty disables slack entirely.
	SlackChannel string
}

// Reporter listens for finished run reports and fans them out to statsd
// counters plus an optional slack summary. Both sinks are best effort, a
// reporting failure never affects the pipeline.
type Reporter struct {
	Config ReporterConfig

	Statsd   *statsd.Client
	Slack    *slack.Client
	EventBus *gochannel.GoChannel
}

func NewReporter(config ReporterConfig, statsdClient *statsd.Client, slackClient *slack.Client, e *gochannel.GoChannel) *Reporter {
	return &Reporter{
		Config:   config,
		Statsd:   statsdClient,
		Slack:    slackClient,
		EventBus: e,
	}
}

func (r *Reporter) RunModule(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	messages, err := r.EventBus.Subscribe(ctx, monitor.TopicRunReport)
	if err != nil {
		return err
	}

	for msg := range messages {
		msg.Ack()

		report := pipeline.RunReport{}
		if err := json.Unmarshal(msg.Payload, &report); err != nil {
			Logger.Log.Errorf("unmarshal run report: %v", err)
			continue
		}
		r.reportStatsd(&report)
		r.reportSlack(&report)
	}
	return nil
}

func (r *Reporter) reportStatsd(report *pipeline.RunReport) {
	if r.Statsd == nil {
		return
	}
	tags := []string{}
	r.maybeCount(monitor.DdogRunCounter, 1, tags)
	r.maybeCount(monitor.DdogSavedCounter, int64(report.Saved), tags)
	r.maybeCount(monitor.DdogDedupCounter, int64(report.Deduped), tags)
	r.maybeCount(monitor.DdogFilterCounter, int64(report.Filtered), tags)
	r.maybeCount(monitor.DdogQueryFailures, int64(len(report.QueryFailures)), tags)
}

func (r *Reporter) maybeCount(name string, value int64, tags []string) {
	if err := r.Statsd.Count(name, value, tags, 1); err != nil {
		Logger.Log.Warnf("statsd count %s failed: %v", name, err)
	}
}

func (r *Reporter) reportSlack(report *pipeline.RunReport) {
	if r.Slack == nil || r.Config.SlackChannel == "" {
		return
	}
	text := fmt.Sprintf(
		"discovery cycle finished in %s: %d found, %d saved, %d deduped, %d filtered, %d query failures",
		report.FinishedAt.Sub(report.StartedAt).Round(time.Second),
		report.ItemsFound, report.Saved, report.Deduped, report.Filtered,
		len(report.QueryFailures))
	if _, _, err := r.Slack.PostMessage(r.Config.SlackChannel,
		slack.MsgOptionText(text, false)); err != nil {
		Logger.Log.Warnf("slack summary failed: %v", err)
	}
}

func (r *Reporter) Name() string { return r.Config.Name }

func (r *Reporter) Shutdown() {}
