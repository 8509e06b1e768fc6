package fallback

import (
	"fmt"
	"time"

	"github.com/viralmux/viralmux/model"
)

// PlatformFallback tags editorial filler stories so their dedup ids never
// collide with real platform content.
const PlatformFallback = "fallback"

const editorialHandle = "editorial"

// Provider supplies a stand-in thread group for a category when discovery
// found nothing worth importing.
type Provider interface {
	Provide(category string) *model.ThreadGroup
}

type categoryTemplate struct {
	title string
	body  string
}

var templates = map[string]categoryTemplate{
	"fails": {
		title: "Today's best fail is still out there",
		body:  "Nothing cleared the bar today, which either means the internet behaved or nobody hit record in time. Check back soon, somebody always hits record eventually.",
	},
	"wholesome": {
		title: "A quiet day for wholesome content",
		body:  "No feel-good story cleared the bar today. Consider this your reminder to text the friend you keep meaning to text.",
	},
}

var defaultTemplate = categoryTemplate{
	title: "Nothing went viral here today",
	body:  "Every candidate fell short of the quality bar today. The bar stays where it is; the stories will come to it.",
}

// TemplatedProvider renders one filler story per category per day. The
// source id embeds the date so re-running the same day dedups naturally.
type TemplatedProvider struct {
	now func() time.Time
}

func NewTemplatedProvider() *TemplatedProvider {
	return &TemplatedProvider{now: time.Now}
}

// NewTemplatedProviderAt pins the clock, for tests.
func NewTemplatedProviderAt(now func() time.Time) *TemplatedProvider {
	return &TemplatedProvider{now: now}
}

func (p *TemplatedProvider) Provide(category string) *model.ThreadGroup {
	template, ok := templates[category]
	if !ok {
		template = defaultTemplate
	}

	day := p.now().UTC().Format("2006-01-02")
	sourceId := fmt.Sprintf("%s-%s", category, day)
	item := model.RawItem{
		Platform:     PlatformFallback,
		SourceId:     sourceId,
		AuthorHandle: editorialHandle,
		Title:        template.title,
		Body:         template.body,
		CreatedAt:    p.now().UTC(),
		PermaLink:    fmt.Sprintf("https://viralmux.example.com/fallback/%s", sourceId),
	}
	return &model.ThreadGroup{Items: []model.RawItem{item}, Shape: model.ShapeSingle}
}
