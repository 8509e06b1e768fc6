package convert

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viralmux/viralmux/model"
)

func forumLead() model.RawItem {
	return model.RawItem{
		Platform:     model.PlatformForum,
		SourceId:     "abc123",
		AuthorHandle: "throwaway9921",
		Title:        "TIFU by microwaving my badge",
		Body:         "This happened this morning and I am still shaking. I put my work badge in the microwave to dry it off.",
		CreatedAt:    time.Date(2024, 1, 2, 19, 4, 0, 0, time.UTC),
		PermaLink:    "https://www.reddit.com/r/tifu/comments/abc123/",
		Counters: map[string]int64{
			model.CounterUpvotes:  18400,
			model.CounterComments: 942,
			model.CounterAwards:   3,
		},
		Media: []model.MediaRef{
			{Url: "https://preview.example.com/img.jpg", Kind: "image", Width: 1080, Height: 720},
		},
	}
}

func singleGroup(item model.RawItem) *model.ThreadGroup {
	return &model.ThreadGroup{Items: []model.RawItem{item}, Shape: model.ShapeSingle}
}

func TestConvertSingletonSectionOrder(t *testing.T) {
	converter := NewConverter(false, true)
	comments := []model.RawComment{
		{Author: "gigglesnort", Body: "The badge deserved it.", Score: 5400},
		{Author: "throwaway9921", Body: "Update: new badge.", Score: 2100, IsOriginalPoster: true},
	}

	story, err := converter.Convert(singleGroup(forumLead()), comments,
		model.SearchQuery{Platform: model.PlatformForum, Query: "tifu", Category: "fails"}, 21526)
	require.NoError(t, err)

	assert.Equal(t, "TIFU by microwaving my badge", story.Title)
	assert.Equal(t, "tifu-by-microwaving-my-badge", story.Slug)
	assert.Equal(t, "fails", story.Category)
	assert.Equal(t, model.StatusDraft, story.Status)
	assert.Equal(t, "reddit_abc123", story.DedupId)
	assert.Equal(t, int64(21526), story.EngagementScore)
	assert.Equal(t, model.PlatformForum, story.SourceName)
	assert.Equal(t, "throwaway9921", story.SourceAuthor)
	assert.NotEmpty(t, story.Id)

	sections, err := story.DecodeSections()
	require.NoError(t, err)
	require.Len(t, sections, 5)
	assert.Equal(t, model.SectionHero, sections[0].Type)
	assert.Equal(t, model.SectionNarrative, sections[1].Type)
	assert.Equal(t, model.SectionImage, sections[2].Type)
	assert.Equal(t, model.SectionCommentCluster, sections[3].Type)
	assert.Equal(t, model.SectionOutro, sections[4].Type)

	counters, err := story.DecodeCounters()
	require.NoError(t, err)
	assert.Equal(t, int64(18400), counters[model.CounterUpvotes])
}

func TestConvertCommentClusterRankedByScore(t *testing.T) {
	converter := NewConverter(false, false)
	comments := []model.RawComment{
		{Author: "low", Body: "meh", Score: 10},
		{Author: "high", Body: "amazing", Score: 9000},
		{Author: "mid", Body: "ok", Score: 500},
	}

	story, err := converter.Convert(singleGroup(forumLead()), comments, model.SearchQuery{}, 0)
	require.NoError(t, err)

	sections, err := story.DecodeSections()
	require.NoError(t, err)
	cluster := sections[len(sections)-1]
	require.Equal(t, model.SectionCommentCluster, cluster.Type)

	entries := cluster.Metadata["comments"].([]interface{})
	require.Len(t, entries, 3)
	first := entries[0].(map[string]interface{})
	assert.Equal(t, "high", first["author"])
}

func TestConvertNarrativeThreadQuotesInOrder(t *testing.T) {
	items := []model.RawItem{}
	for i, text := range []string{"Minute 1: he arrives.", "Minute 12: cone down.", "Minute 25: he gave up."} {
		items = append(items, model.RawItem{
			Platform:     model.PlatformMicroblog,
			SourceId:     string(rune('a' + i)),
			AuthorHandle: "danawatches",
			Body:         text,
			PermaLink:    "https://twitter.com/danawatches/status/1",
			CreatedAt:    time.Date(2024, 1, 2, 19, i, 0, 0, time.UTC),
		})
	}
	group := &model.ThreadGroup{Items: items, Shape: model.ShapeNarrative}

	story, err := NewConverter(false, false).Convert(group, nil, model.SearchQuery{}, 0)
	require.NoError(t, err)

	sections, err := story.DecodeSections()
	require.NoError(t, err)
	require.Len(t, sections, 4)
	assert.Equal(t, model.SectionHero, sections[0].Type)
	for i := 1; i <= 3; i++ {
		assert.Equal(t, model.SectionQuote, sections[i].Type)
	}
	assert.Equal(t, "Minute 1: he arrives.", sections[1].Content)
	assert.Equal(t, "Minute 25: he gave up.", sections[3].Content)
}

func TestConvertMultiParticipantConversation(t *testing.T) {
	group := &model.ThreadGroup{
		Items: []model.RawItem{
			{Platform: model.PlatformMicroblog, SourceId: "1", AuthorHandle: "dana",
				Body: "You parked on my lawn.", PermaLink: "https://twitter.com/dana/status/1"},
			{Platform: model.PlatformMicroblog, SourceId: "2", AuthorHandle: "neighbor",
				Body: "That is technically a shared lawn.", PermaLink: "https://twitter.com/neighbor/status/2"},
		},
		Shape: model.ShapeConversation,
	}

	story, err := NewConverter(false, false).Convert(group, nil, model.SearchQuery{}, 0)
	require.NoError(t, err)

	sections, err := story.DecodeSections()
	require.NoError(t, err)
	require.Len(t, sections, 3)
	assert.Equal(t, model.SectionConversation, sections[1].Type)
	assert.Equal(t, "dana", sections[1].Metadata["author"])
	assert.Equal(t, "neighbor", sections[2].Metadata["author"])
}

func TestConvertMediaSectionPerAttachmentKind(t *testing.T) {
	lead := forumLead()
	lead.Media = []model.MediaRef{
		{Url: "https://preview.example.com/img.jpg", Kind: "image", Width: 1080, Height: 720},
		{Url: "https://v.example.com/clip", Kind: "video"},
		{Url: "https://blog.example.com/post", Kind: "link"},
		{Url: "https://preview.example.com/loop.gif", Kind: "gif"},
	}

	story, err := NewConverter(false, false).Convert(singleGroup(lead), nil, model.SearchQuery{}, 0)
	require.NoError(t, err)

	sections, err := story.DecodeSections()
	require.NoError(t, err)
	require.Len(t, sections, 6)

	// One media section per attachment, in attachment order.
	assert.Equal(t, model.SectionImage, sections[2].Type)
	assert.Equal(t, model.SectionVideoEmbed, sections[3].Type)
	assert.Equal(t, model.SectionLinkEmbed, sections[4].Type)
	assert.Equal(t, "https://blog.example.com/post", sections[4].Metadata["url"])
	assert.Equal(t, model.SectionImage, sections[5].Type)
}

func TestConvertRejectsMissingProvenance(t *testing.T) {
	lead := forumLead()
	lead.PermaLink = ""

	story, err := NewConverter(false, false).Convert(singleGroup(lead), nil, model.SearchQuery{}, 0)
	assert.Error(t, err)
	assert.Nil(t, story)

	anonymous := forumLead()
	anonymous.AuthorHandle = ""
	story, err = NewConverter(false, false).Convert(singleGroup(anonymous), nil, model.SearchQuery{}, 0)
	assert.Error(t, err)
	assert.Nil(t, story)
}

func TestConvertAutoPublish(t *testing.T) {
	story, err := NewConverter(true, false).Convert(singleGroup(forumLead()), nil, model.SearchQuery{}, 0)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, story.Status)
}

func TestConvertDeterministicSections(t *testing.T) {
	comments := []model.RawComment{
		{Author: "a", Body: "same score", Score: 100},
		{Author: "b", Body: "same score too", Score: 100},
	}

	first, err := NewConverter(false, true).Convert(singleGroup(forumLead()), comments, model.SearchQuery{}, 5)
	require.NoError(t, err)
	second, err := NewConverter(false, true).Convert(singleGroup(forumLead()), comments, model.SearchQuery{}, 5)
	require.NoError(t, err)

	// Everything except the generated id matches byte for byte.
	assert.Equal(t, string(first.Sections), string(second.Sections))
	assert.Equal(t, string(first.RawCounters), string(second.RawCounters))
	assert.NotEqual(t, first.Id, second.Id)

	firstSections, err := first.DecodeSections()
	require.NoError(t, err)
	secondSections, err := second.DecodeSections()
	require.NoError(t, err)
	if diff := cmp.Diff(firstSections, secondSections); diff != "" {
		t.Errorf("sections differ between identical conversions:\n%s", diff)
	}
}

func TestStoryTitleFromMicroblogBody(t *testing.T) {
	lead := model.RawItem{
		Platform:     model.PlatformMicroblog,
		SourceId:     "1901",
		AuthorHandle: "danawatches",
		Body:         "I just watched my neighbor try to parallel park for 25 minutes. A thread.",
		PermaLink:    "https://twitter.com/danawatches/status/1901",
	}
	story, err := NewConverter(false, false).Convert(singleGroup(lead), nil, model.SearchQuery{}, 0)
	require.NoError(t, err)
	assert.Equal(t, "I just watched my neighbor try to parallel park for 25 minutes.", story.Title)
}
