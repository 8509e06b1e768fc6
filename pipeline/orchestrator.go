package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/viralmux/viralmux/app_config"
	"github.com/viralmux/viralmux/collector"
	"github.com/viralmux/viralmux/convert"
	"github.com/viralmux/viralmux/dedup"
	"github.com/viralmux/viralmux/fallback"
	"github.com/viralmux/viralmux/model"
	"github.com/viralmux/viralmux/store"
	"github.com/viralmux/viralmux/thread"
	Logger "github.com/viralmux/viralmux/utils/log"
)

// ErrAlreadyIngested is returned by single item import when the item's
// dedup key is already in the store.
var ErrAlreadyIngested = fmt.Errorf("item already ingested")

// RunReport summarizes one discovery run. A run with some failed queries is
// still a successful run; total failure only happens when nothing could be
// executed at all.
type RunReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DryRun     bool      `json:"dry_run"`

	QueriesRun    int      `json:"queries_run"`
	QueryFailures []string `json:"query_failures"`

	ItemsFound int `json:"items_found"`
	Filtered   int `json:"filtered"`
	BelowBar   int `json:"below_engagement_bar"`
	Deduped    int `json:"deduped"`
	Threaded   int `json:"threaded"`
	Converted  int `json:"converted"`
	Saved      int `json:"saved"`
	Skipped    int `json:"skipped"`
	Fallbacks  int `json:"fallbacks"`
}

// Orchestrator wires discovery end to end: schedule queries, score and
// filter the results, rank the surviving batch, then import the top
// candidates one by one through dedup, thread assembly, conversion and the
// story store.
type Orchestrator struct {
	config   *app_config.AppConfig
	adapters map[string]collector.SourceAdapter

	scheduler *QueryScheduler
	filter    *collector.QualityFilter
	dedup     *dedup.Deduplicator
	assembler *thread.Assembler
	converter *convert.Converter
	store     store.StoryStore
	fallback  fallback.Provider
}

func NewOrchestrator(config *app_config.AppConfig, adapters map[string]collector.SourceAdapter, storyStore store.StoryStore, cache *redis.Client) *Orchestrator {
	return &Orchestrator{
		config:   config,
		adapters: adapters,
		scheduler: NewQueryScheduler(adapters,
			time.Duration(config.QUERY_DELAY_SECOND)*time.Second,
			time.Duration(config.RETRY_BACKOFF_SECOND)*time.Second,
			config.MAX_RETRY_PER_QUERY),
		filter: collector.NewQualityFilter(collector.DefaultPredicates(
			config.MIN_BODY_LENGTH,
			config.MENTION_ONLY_MIN_SCORE,
			config.SPAM_PHRASES)...),
		dedup:     dedup.NewDeduplicator(storyStore, cache),
		assembler: thread.NewAssembler(config.MAX_THREAD_ITEMS),
		converter: convert.NewConverter(config.AUTO_PUBLISH, config.ENABLE_OUTRO),
		store:     storyStore,
		fallback:  fallback.NewTemplatedProvider(),
	}
}

// candidate is one filtered item still tied to the query that found it.
type candidate struct {
	item  model.RawItem
	query model.SearchQuery
	score int64
}

// Discover runs the full discovery pipeline and imports at most limit
// stories. With dryRun set, everything up to conversion runs but nothing is
// saved or marked ingested.
func (o *Orchestrator) Discover(ctx context.Context, limit int, dryRun bool) *RunReport {
	if limit <= 0 {
		limit = o.config.DISCOVER_LIMIT
	}
	report := &RunReport{StartedAt: time.Now().UTC(), DryRun: dryRun, QueryFailures: []string{}}
	defer func() { report.FinishedAt = time.Now().UTC() }()

	results := o.scheduler.Run(ctx, o.config.QUERIES)
	report.QueriesRun = len(results)

	batch := []model.RawItem{}
	queryByKey := map[string]model.SearchQuery{}
	for _, result := range results {
		if result.Err != nil {
			report.QueryFailures = append(report.QueryFailures,
				fmt.Sprintf("%s %q: %v", result.Query.Platform, result.Query.Query, result.Err))
			continue
		}
		report.ItemsFound += len(result.Items)

		filtered := o.filter.Apply(result.Items, collector.ScorerForPlatform)
		report.Filtered += len(filtered.Rejected)
		for key, reason := range filtered.Rejected {
			Logger.Log.Debugf("filtered %s: %s", key, reason)
		}

		for i := range filtered.Kept {
			key := filtered.Kept[i].DedupKey().String()
			// Two queries can surface the same item, the first one claims it.
			if _, claimed := queryByKey[key]; claimed {
				continue
			}
			queryByKey[key] = result.Query
			batch = append(batch, filtered.Kept[i])
		}
	}

	// One ranking pass over the whole surviving batch, never incremental.
	// The engagement bar is per query, so it applies after ranking, once
	// every item is back beside the query that found it.
	candidates := []candidate{}
	for _, scored := range collector.RankByEngagement(batch, collector.ScorerForPlatform) {
		query := queryByKey[scored.Item.DedupKey().String()]
		minEngagement := query.MinEngagement
		if minEngagement <= 0 {
			minEngagement = o.config.MIN_ENGAGEMENT
		}
		if scored.Score < minEngagement {
			report.BelowBar++
			continue
		}
		candidates = append(candidates, candidate{item: scored.Item, query: query, score: scored.Score})
	}

	savedCategories := map[string]bool{}
	imported := 0
	for _, c := range candidates {
		if imported >= limit {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if o.importCandidate(ctx, c, dryRun, report) {
			imported++
			savedCategories[c.query.Category] = true
		}
	}

	if o.config.ENABLE_FALLBACK && !dryRun {
		o.runFallbacks(ctx, savedCategories, report)
	}

	return report
}

// importCandidate pushes one candidate through dedup, thread assembly,
// comment fetch, conversion and the store. Returns true when a story was
// produced (saved, or converted in dry-run mode).
func (o *Orchestrator) importCandidate(ctx context.Context, c candidate, dryRun bool, report *RunReport) bool {
	seen, err := o.dedup.SeenBefore(ctx, c.item.DedupKey())
	if err != nil {
		// Unknown dedup state must not risk a duplicate.
		Logger.Log.Warnf("dedup lookup for %s failed, skipping: %v", c.item.DedupKey(), err)
		report.Skipped++
		return false
	}
	if seen {
		report.Deduped++
		return false
	}

	adapter := o.adapters[c.item.Platform]
	group := o.assembler.Assemble(ctx, adapter, c.item)
	if len(group.Items) > 1 {
		report.Threaded++
	}

	comments, err := adapter.FetchComments(ctx, group.Lead().SourceId, o.config.MAX_COMMENTS)
	if err != nil {
		// A story without comments is still a story.
		Logger.Log.Warnf("comment fetch for %s failed: %v", c.item.SourceId, err)
		comments = nil
	}

	story, err := o.converter.Convert(group, comments, c.query, c.score)
	if err != nil {
		Logger.Log.Warnf("conversion of %s failed: %v", c.item.SourceId, err)
		report.Skipped++
		return false
	}
	report.Converted++

	if dryRun {
		Logger.Log.Infof("[dry-run] would save %q by %s (score %d, %s)",
			story.Title, story.SourceAuthor, c.score, story.SourceUrl)
		return true
	}

	if err := o.store.Save(ctx, story); err != nil {
		Logger.Log.Errorf("save of %s failed: %v", story.DedupId, err)
		report.Skipped++
		return false
	}
	o.dedup.MarkIngested(ctx, c.item.DedupKey())
	report.Saved++
	Logger.Log.Infof("saved %q (score %d, %s)", story.Title, c.score, story.DedupId)
	return true
}

// runFallbacks fills categories that produced nothing with one templated
// story each, deduped per category per day.
func (o *Orchestrator) runFallbacks(ctx context.Context, savedCategories map[string]bool, report *RunReport) {
	for _, category := range o.categories() {
		if savedCategories[category] {
			continue
		}
		group := o.fallback.Provide(category)
		key := group.Lead().DedupKey()

		seen, err := o.dedup.SeenBefore(ctx, key)
		if err != nil || seen {
			continue
		}

		story, err := o.converter.Convert(group, nil,
			model.SearchQuery{Category: category}, 0)
		if err != nil {
			Logger.Log.Warnf("fallback conversion for %s failed: %v", category, err)
			continue
		}
		if err := o.store.Save(ctx, story); err != nil {
			Logger.Log.Errorf("fallback save for %s failed: %v", category, err)
			continue
		}
		o.dedup.MarkIngested(ctx, key)
		report.Fallbacks++
		report.Saved++
	}
}

// categories returns the distinct query categories in configuration order.
func (o *Orchestrator) categories() []string {
	seen := map[string]bool{}
	categories := []string{}
	for _, q := range o.config.QUERIES {
		if q.Category == "" || seen[q.Category] {
			continue
		}
		seen[q.Category] = true
		categories = append(categories, q.Category)
	}
	return categories
}

// ImportItem ingests one item by platform and id, outside any query. The
// at-most-once guarantee applies the same way it does in discovery.
func (o *Orchestrator) ImportItem(ctx context.Context, platform, itemId string) (*model.Story, error) {
	adapter, ok := o.adapters[platform]
	if !ok {
		return nil, fmt.Errorf("unsupported platform: %s", platform)
	}

	item, err := adapter.FetchItem(ctx, itemId)
	if err != nil {
		return nil, err
	}

	seen, err := o.dedup.SeenBefore(ctx, item.DedupKey())
	if err != nil {
		return nil, fmt.Errorf("dedup lookup: %w", err)
	}
	if seen {
		return nil, ErrAlreadyIngested
	}

	group := o.assembler.Assemble(ctx, adapter, *item)
	comments, err := adapter.FetchComments(ctx, item.SourceId, o.config.MAX_COMMENTS)
	if err != nil {
		Logger.Log.Warnf("comment fetch for %s failed: %v", item.SourceId, err)
		comments = nil
	}

	score := collector.ScorerForPlatform(platform).Score(item)
	story, err := o.converter.Convert(group, comments, model.SearchQuery{Platform: platform}, score)
	if err != nil {
		return nil, err
	}

	if err := o.store.Save(ctx, story); err != nil {
		return nil, err
	}
	o.dedup.MarkIngested(ctx, item.DedupKey())
	return story, nil
}
