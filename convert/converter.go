package convert

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"gorm.io/datatypes"

	"github.com/viralmux/viralmux/model"
	"github.com/viralmux/viralmux/utils"
)

const (
	titleMaxLength   = 90
	excerptMaxLength = 200

	outroContent = "What would you have done? The internet, as always, has opinions."
)

// Converter turns a reconstructed thread group plus its comments into a
// story document. Conversion is deterministic: the same inputs always yield
// the same section sequence, so a story can be regenerated byte for byte.
type Converter struct {
	autoPublish bool
	enableOutro bool
}

func NewConverter(autoPublish, enableOutro bool) *Converter {
	return &Converter{autoPublish: autoPublish, enableOutro: enableOutro}
}

// Convert builds the full story document. It validates provenance up front
// and returns an error without any partial document when the lead item
// cannot be attributed.
func (c *Converter) Convert(group *model.ThreadGroup, comments []model.RawComment, query model.SearchQuery, score int64) (*model.Story, error) {
	if group == nil || len(group.Items) == 0 {
		return nil, fmt.Errorf("empty thread group")
	}
	lead := group.Lead()
	if err := validateProvenance(lead); err != nil {
		return nil, err
	}

	title := storyTitle(lead)
	sections := []model.ContentSection{heroSection(lead, title)}
	sections = append(sections, bodySections(group)...)
	sections = append(sections, mediaSections(group)...)
	if cluster := commentClusterSection(comments); cluster != nil {
		sections = append(sections, *cluster)
	}
	if c.enableOutro {
		sections = append(sections, model.ContentSection{
			Type:    model.SectionOutro,
			Content: outroContent,
		})
	}

	sectionsJson, err := json.Marshal(sections)
	if err != nil {
		return nil, fmt.Errorf("marshal sections: %w", err)
	}

	// Snapshot the counters so later mutation of the raw item can never
	// change what was stored.
	countersCopy := map[string]int64{}
	if len(lead.Counters) > 0 {
		if err := copier.Copy(&countersCopy, lead.Counters); err != nil {
			return nil, fmt.Errorf("snapshot counters: %w", err)
		}
	}
	countersJson, err := json.Marshal(countersCopy)
	if err != nil {
		return nil, fmt.Errorf("marshal counters: %w", err)
	}

	status := model.StatusDraft
	if c.autoPublish {
		status = model.StatusPublished
	}

	return &model.Story{
		Id:              uuid.New().String(),
		Title:           title,
		Slug:            utils.Slugify(title),
		Excerpt:         storyExcerpt(lead),
		Category:        query.Category,
		Status:          status,
		SourceName:      lead.Platform,
		SourceUrl:       lead.PermaLink,
		SourceAuthor:    lead.AuthorHandle,
		EngagementScore: score,
		RawCounters:     datatypes.JSON(countersJson),
		Sections:        datatypes.JSON(sectionsJson),
		DedupId:         lead.DedupKey().String(),
	}, nil
}

// validateProvenance rejects items that cannot be attributed back to their
// origin. A story without working provenance must not exist at all.
func validateProvenance(lead *model.RawItem) error {
	switch {
	case lead.Platform == "":
		return fmt.Errorf("provenance: missing platform")
	case lead.SourceId == "":
		return fmt.Errorf("provenance: missing source id")
	case lead.AuthorHandle == "":
		return fmt.Errorf("provenance: missing author")
	case lead.PermaLink == "":
		return fmt.Errorf("provenance: missing source url")
	case lead.Body == "" && lead.Title == "":
		return fmt.Errorf("provenance: item has no content")
	}
	return nil
}

func storyTitle(lead *model.RawItem) string {
	if lead.Title != "" {
		return utils.TruncateText(utils.CollapseWhitespace(lead.Title), titleMaxLength)
	}
	body := utils.CollapseWhitespace(lead.Body)
	// First sentence of the lead item, falling back to a plain truncation.
	if idx := strings.IndexAny(body, ".!?"); idx > 20 && idx < titleMaxLength {
		return body[:idx+1]
	}
	return utils.TruncateText(body, titleMaxLength)
}

func storyExcerpt(lead *model.RawItem) string {
	body := lead.Body
	if body == "" {
		body = lead.Title
	}
	return utils.TruncateText(utils.CollapseWhitespace(body), excerptMaxLength)
}

func heroSection(lead *model.RawItem, title string) model.ContentSection {
	meta := map[string]interface{}{
		"author":   lead.AuthorHandle,
		"platform": lead.Platform,
		"url":      lead.PermaLink,
	}
	if !lead.CreatedAt.IsZero() {
		meta["posted_at"] = lead.CreatedAt.UTC().Format(time.RFC3339)
	}
	return model.ContentSection{
		Type:     model.SectionHero,
		Content:  title,
		Metadata: meta,
	}
}

// bodySections renders the thread items by shape: a single narrative block
// for standalone items, one quote per item for a single-author thread, and
// attributed conversation turns for a multi-participant exchange.
func bodySections(group *model.ThreadGroup) []model.ContentSection {
	switch group.Shape {
	case model.ShapeSingle:
		return []model.ContentSection{{
			Type:    model.SectionNarrative,
			Content: group.Lead().Body,
		}}
	case model.ShapeNarrative:
		sections := []model.ContentSection{}
		for _, item := range group.Items {
			sections = append(sections, model.ContentSection{
				Type:    model.SectionQuote,
				Content: item.Body,
				Metadata: map[string]interface{}{
					"author": item.AuthorHandle,
				},
			})
		}
		return sections
	default:
		sections := []model.ContentSection{}
		for _, item := range group.Items {
			sections = append(sections, model.ContentSection{
				Type:    model.SectionConversation,
				Content: item.Body,
				Metadata: map[string]interface{}{
					"author": item.AuthorHandle,
				},
			})
		}
		return sections
	}
}

func mediaSections(group *model.ThreadGroup) []model.ContentSection {
	sections := []model.ContentSection{}
	for _, item := range group.Items {
		for _, media := range item.Media {
			section := model.ContentSection{
				Metadata: map[string]interface{}{"url": media.Url},
			}
			switch media.Kind {
			case "video":
				section.Type = model.SectionVideoEmbed
			case "link":
				section.Type = model.SectionLinkEmbed
			case "image", "gif":
				section.Type = model.SectionImage
				if media.Width > 0 {
					section.Metadata["width"] = media.Width
					section.Metadata["height"] = media.Height
				}
			default:
				continue
			}
			sections = append(sections, section)
		}
	}
	return sections
}

// commentClusterSection ranks comments by score descending and folds them
// into one ordered cluster. Nil when there is nothing to show.
func commentClusterSection(comments []model.RawComment) *model.ContentSection {
	if len(comments) == 0 {
		return nil
	}

	ranked := make([]model.RawComment, len(comments))
	copy(ranked, comments)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	entries := []map[string]interface{}{}
	for _, c := range ranked {
		entries = append(entries, map[string]interface{}{
			"author":             c.Author,
			"body":               c.Body,
			"score":              c.Score,
			"is_original_poster": c.IsOriginalPoster,
		})
	}
	return &model.ContentSection{
		Type:     model.SectionCommentCluster,
		Metadata: map[string]interface{}{"comments": entries},
	}
}
