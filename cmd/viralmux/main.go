package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/go-redis/redis/v8"
	"github.com/slack-go/slack"

	"github.com/viralmux/viralmux/app_config"
	"github.com/viralmux/viralmux/collector"
	"github.com/viralmux/viralmux/collector/builder"
	"github.com/viralmux/viralmux/collector/clients"
	"github.com/viralmux/viralmux/monitor"
	"github.com/viralmux/viralmux/monitor/modules"
	"github.com/viralmux/viralmux/pipeline"
	"github.com/viralmux/viralmux/store"
	"github.com/viralmux/viralmux/utils/dotenv"
	Logger "github.com/viralmux/viralmux/utils/log"
)

const usage = `usage: viralmux <command> [flags]

commands:
  discover   run one discovery cycle and import the top candidates
  monitor    run discovery cycles continuously on an interval
  import     ingest one item by platform and id
`

// init() will always be called on before the execution of main function.
func init() {
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "discover":
		runDiscover(os.Args[2:])
	case "monitor":
		runMonitor(os.Args[2:])
	case "import":
		runImport(os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func buildAdapters(config *app_config.AppConfig) map[string]collector.SourceAdapter {
	return builder.AdapterBuilder{}.All(config)
}

// newStoryStore opens the postgres store, or an in-memory one for dry runs
// where nothing must be persisted anyway.
func newStoryStore(dryRun bool) store.StoryStore {
	if dryRun {
		return store.NewFakeStore()
	}
	s, err := store.NewPostgresStoreFromEnv()
	if err != nil {
		Logger.Log.Fatalf("story store: %v", err)
	}
	return s
}

// newDedupCache returns the redis client when REDIS_ADDR is configured,
// nil otherwise. The cache is an optimization, not a requirement.
func newDedupCache() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
}

func runDiscover(args []string) {
	flags := flag.NewFlagSet("discover", flag.ExitOnError)
	configPath := flags.String("app_config_path", "cmd/viralmux/config.yaml", "path to app config")
	limit := flags.Int("limit", 0, "max stories to import, 0 uses the configured default")
	dryRun := flags.Bool("dry_run", false, "run the pipeline without saving anything")
	_ = flags.Parse(args)

	config := app_config.ParseAppConfig(*configPath)
	orchestrator := pipeline.NewOrchestrator(&config, buildAdapters(&config),
		newStoryStore(*dryRun), newDedupCache())

	report := orchestrator.Discover(context.Background(), *limit, *dryRun)
	printReport(report)

	// Partial query failures are normal operation; only a run where no
	// query executed at all is a failure.
	if report.QueriesRun > 0 && len(report.QueryFailures) == report.QueriesRun {
		os.Exit(1)
	}
}

func runImport(args []string) {
	flags := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := flags.String("app_config_path", "cmd/viralmux/config.yaml", "path to app config")
	_ = flags.Parse(args)

	rest := flags.Args()
	if len(rest) != 2 {
		fmt.Fprintln(os.Stderr, "usage: viralmux import [flags] <platform> <item-id>")
		os.Exit(2)
	}
	platform, itemId := rest[0], rest[1]

	config := app_config.ParseAppConfig(*configPath)
	orchestrator := pipeline.NewOrchestrator(&config, buildAdapters(&config),
		newStoryStore(false), newDedupCache())

	story, err := orchestrator.ImportItem(context.Background(), platform, itemId)
	if err == pipeline.ErrAlreadyIngested {
		Logger.Log.Infof("%s %s was already ingested, nothing to do", platform, itemId)
		return
	}
	if err != nil {
		Logger.Log.Fatalf("import %s %s: %v", platform, itemId, err)
	}
	Logger.Log.Infof("imported %q as %s (%s)", story.Title, story.Id, story.Status)
}

func runMonitor(args []string) {
	flags := flag.NewFlagSet("monitor", flag.ExitOnError)
	configPath := flags.String("app_config_path", "cmd/viralmux/config.yaml", "path to app config")
	intervalMinute := flags.Int64("interval_minute", 0, "override the configured cycle interval")
	_ = flags.Parse(args)

	config := app_config.ParseAppConfig(*configPath)
	if *intervalMinute > 0 {
		config.MONITOR_INTERVAL_MINUTE = *intervalMinute
	}

	orchestrator := pipeline.NewOrchestrator(&config, buildAdapters(&config),
		newStoryStore(false), newDedupCache())

	probeMirrors(&config)

	eventbus := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            100,
			BlockPublishUntilSubscriberAck: false,
		},
		watermill.NewStdLogger(false, false),
	)
	ctx, cancel := context.WithCancel(context.Background())
	holder := monitor.NewReportHolder()

	engine := monitor.NewEngine(ctx, cancel, eventbus,
		modules.NewScheduler(modules.SchedulerConfig{
			Name:     "scheduler",
			Interval: time.Duration(config.MONITOR_INTERVAL_MINUTE) * time.Minute,
		}, eventbus),
		modules.NewImporter(modules.ImporterConfig{
			Name:  "importer",
			Limit: config.DISCOVER_LIMIT,
		}, orchestrator, holder, eventbus),
		modules.NewReporter(modules.ReporterConfig{
			Name:         "reporter",
			SlackChannel: os.Getenv("SLACK_RUN_CHANNEL"),
		}, newDogStatsdClient(), newSlackClient(), eventbus),
		modules.NewOpsServer(modules.OpsServerConfig{
			Name: "ops_server",
			Addr: config.OPS_SERVER_ADDR,
		}, holder),
	)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		engine.Shutdown()
	}()

	// blocking call.
	engine.Run()

	Logger.Log.Infoln("engine stopped execution.")
}

// probeMirrors checks mirror health once at startup so a dead mirror list
// shows up in the logs before the first fallback ever needs one.
func probeMirrors(config *app_config.AppConfig) {
	if len(config.MIRRORS) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mirror := clients.NewMirrorClient(config.MIRRORS)
	for _, health := range mirror.CheckHealth(ctx) {
		if health.Working {
			Logger.Log.Infof("mirror %s healthy (%s)", health.Mirror, health.ResponseTime.Round(time.Millisecond))
		} else {
			Logger.Log.Warnf("mirror %s unreachable", health.Mirror)
		}
	}
}

func newDogStatsdClient() *statsd.Client {
	client, err := statsd.New("127.0.0.1:8125")
	if err != nil {
		Logger.Log.Warnf("statsd unavailable: %v", err)
		return nil
	}
	return client
}

func newSlackClient() *slack.Client {
	token := os.Getenv("SLACK_TOKEN")
	if token == "" {
		return nil
	}
	return slack.New(token)
}

func printReport(report *pipeline.RunReport) {
	Logger.Log.Infof("run finished in %s (dry run: %v)",
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond), report.DryRun)
	Logger.Log.Infof("  queries run:     %d", report.QueriesRun)
	Logger.Log.Infof("  items found:     %d", report.ItemsFound)
	Logger.Log.Infof("  filtered:        %d", report.Filtered)
	Logger.Log.Infof("  below bar:       %d", report.BelowBar)
	Logger.Log.Infof("  deduped:         %d", report.Deduped)
	Logger.Log.Infof("  threaded:        %d", report.Threaded)
	Logger.Log.Infof("  converted:       %d", report.Converted)
	Logger.Log.Infof("  saved:           %d", report.Saved)
	Logger.Log.Infof("  skipped:         %d", report.Skipped)
	Logger.Log.Infof("  fallbacks:       %d", report.Fallbacks)
	for _, failure := range report.QueryFailures {
		Logger.Log.Warnf("  query failure: %s", failure)
	}
}
