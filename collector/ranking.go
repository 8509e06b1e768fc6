package collector

import (
	"sort"

	"github.com/viralmux/viralmux/model"
)

// ScoredItem pairs an item with its computed engagement score for ranking
// and reporting. The score is never persisted on the item itself.
type ScoredItem struct {
	Item  model.RawItem
	Score int64
}

// RankByEngagement sorts a whole discovery batch by engagement score
// descending. The sort is stable: equal scores preserve discovery order.
// Ranking only ever runs once over the completed batch, never incrementally.
func RankByEngagement(items []model.RawItem, scorer func(platform string) EngagementScorer) []ScoredItem {
	scored := make([]ScoredItem, 0, len(items))
	for i := range items {
		scored = append(scored, ScoredItem{
			Item:  items[i],
			Score: scorer(items[i].Platform).Score(&items[i]),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}
