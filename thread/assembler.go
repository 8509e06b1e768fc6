package thread

import (
	"context"
	"sort"

	"github.com/viralmux/viralmux/collector"
	"github.com/viralmux/viralmux/model"
	Logger "github.com/viralmux/viralmux/utils/log"
)

// Assembler rebuilds the thread a discovered item belongs to. Items without
// a conversation id stay singletons; everything else pulls its siblings
// through the adapter, bounded by maxItems.
type Assembler struct {
	maxItems int
}

func NewAssembler(maxItems int) *Assembler {
	return &Assembler{maxItems: maxItems}
}

// Assemble returns the ordered thread group for one item. Sibling fetch
// failures degrade to a singleton group instead of losing the item.
func (a *Assembler) Assemble(ctx context.Context, adapter collector.SourceAdapter, item model.RawItem) *model.ThreadGroup {
	if item.ConversationId == "" {
		return singleton(item)
	}

	siblings, err := adapter.FetchThread(ctx, item.ConversationId, item.AuthorHandle, a.maxItems)
	if err != nil {
		Logger.Log.Warnf("thread fetch for %s failed, keeping singleton: %v", item.SourceId, err)
		return singleton(item)
	}

	items := mergeSiblings(item, siblings, a.maxItems)
	if len(items) < 2 {
		return singleton(item)
	}

	// Ascending creation time reproduces authoring order. The sort is
	// stable so items sharing a timestamp keep their fetch order.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	return &model.ThreadGroup{Items: items, Shape: classify(items)}
}

func singleton(item model.RawItem) *model.ThreadGroup {
	return &model.ThreadGroup{Items: []model.RawItem{item}, Shape: model.ShapeSingle}
}

// mergeSiblings combines the discovered item with its fetched siblings,
// dropping duplicates by source id.
func mergeSiblings(item model.RawItem, siblings []model.RawItem, max int) []model.RawItem {
	items := []model.RawItem{item}
	seen := map[string]bool{item.SourceId: true}
	for _, sibling := range siblings {
		if seen[sibling.SourceId] {
			continue
		}
		if len(items) >= max {
			break
		}
		seen[sibling.SourceId] = true
		items = append(items, sibling)
	}
	return items
}

// classify distinguishes a single author telling a story across items from
// an exchange between several participants.
func classify(items []model.RawItem) model.ThreadShape {
	if len(items) < 2 {
		return model.ShapeSingle
	}
	author := items[0].AuthorHandle
	for _, item := range items[1:] {
		if item.AuthorHandle != author {
			return model.ShapeConversation
		}
	}
	return model.ShapeNarrative
}
