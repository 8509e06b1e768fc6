package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SectionType tags a content section variant.
type SectionType string

const (
	SectionHero           SectionType = "hero"
	SectionNarrative      SectionType = "narrative"
	SectionImage          SectionType = "image"
	SectionVideoEmbed     SectionType = "video_embed"
	SectionLinkEmbed      SectionType = "link_embed"
	SectionQuote          SectionType = "quote"
	SectionCommentCluster SectionType = "comment_cluster"
	SectionConversation   SectionType = "conversation"
	SectionOutro          SectionType = "outro"
)

// ContentSection is one ordered block of a story document. Metadata carries
// the type specific fields, e.g. image url/width/height, or the ordered
// comment list for a comment cluster.
type ContentSection struct {
	Type     SectionType            `json:"type"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Story status tags.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

/*

Story is the canonical document handed to downstream publication.

Id: primary key, a generated uuid
DedupId: platform-prefixed source id, unique, the only identity checked for
	at-most-once ingestion
Sections: ordered JSON list of ContentSection, order reproduces the
	narrative sequence
RawCounters: engagement counters snapshot at ingestion time
SourceName/SourceUrl/SourceAuthor: provenance block

A story is created once by the converter and never partially constructed.
*/
type Story struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt

	Title    string
	Slug     string
	Excerpt  string
	Category string
	Status   string

	SourceName   string
	SourceUrl    string
	SourceAuthor string

	EngagementScore int64
	RawCounters     datatypes.JSON
	Sections        datatypes.JSON

	DedupId string `gorm:"uniqueIndex"`
}

// DecodeSections unmarshals the ordered section list.
func (s *Story) DecodeSections() ([]ContentSection, error) {
	var sections []ContentSection
	if err := json.Unmarshal(s.Sections, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// DecodeCounters unmarshals the raw counter snapshot.
func (s *Story) DecodeCounters() (map[string]int64, error) {
	counters := map[string]int64{}
	if err := json.Unmarshal(s.RawCounters, &counters); err != nil {
		return nil, err
	}
	return counters, nil
}
