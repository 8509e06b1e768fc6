package app_config

import (
	"io/ioutil"
	"log"

	"gopkg.in/yaml.v2"

	"github.com/viralmux/viralmux/model"
)

// AppConfig customizes one viralmux binary run. Weights and thresholds here
// are empirical defaults, not derived constants, and are meant to be tuned
// from config rather than recompiled.
type AppConfig struct {
	// Discovery queries, iterated in order within one run.
	QUERIES []model.SearchQuery `yaml:"QUERIES"`

	// Microblog mirror base urls, tried in order until one responds.
	MIRRORS []string `yaml:"MIRRORS"`

	// Delay between two successive calls against the same platform.
	QUERY_DELAY_SECOND int64 `yaml:"QUERY_DELAY_SECOND"`
	// Transient failures are retried this many times per query.
	MAX_RETRY_PER_QUERY int `yaml:"MAX_RETRY_PER_QUERY"`
	// Base for the exponential retry backoff.
	RETRY_BACKOFF_SECOND int64 `yaml:"RETRY_BACKOFF_SECOND"`

	// Page size per search call, capped at the platform maximum of 100.
	SEARCH_PAGE_SIZE int `yaml:"SEARCH_PAGE_SIZE"`
	// Cap on sibling items fetched during thread reconstruction.
	MAX_THREAD_ITEMS int `yaml:"MAX_THREAD_ITEMS"`
	// Cap on comments fetched per item.
	MAX_COMMENTS int `yaml:"MAX_COMMENTS"`

	// Communities where over-18 posts are kept instead of dropped.
	NSFW_COMMUNITY_ALLOWLIST []string `yaml:"NSFW_COMMUNITY_ALLOWLIST"`

	// Quality filter knobs.
	MIN_BODY_LENGTH        int      `yaml:"MIN_BODY_LENGTH"`
	MENTION_ONLY_MIN_SCORE int64    `yaml:"MENTION_ONLY_MIN_SCORE"`
	SPAM_PHRASES           []string `yaml:"SPAM_PHRASES"`

	// Default number of candidates a discover run imports.
	DISCOVER_LIMIT int `yaml:"DISCOVER_LIMIT"`
	// Default minimum engagement when a query does not set its own.
	MIN_ENGAGEMENT int64 `yaml:"MIN_ENGAGEMENT"`

	// Saved stories default to draft unless auto publish is on.
	AUTO_PUBLISH bool `yaml:"AUTO_PUBLISH"`
	// Append the fixed closing section to every converted story.
	ENABLE_OUTRO bool `yaml:"ENABLE_OUTRO"`
	// Fall back to templated sections when a category yields nothing.
	ENABLE_FALLBACK bool `yaml:"ENABLE_FALLBACK"`

	// Monitor mode.
	MONITOR_INTERVAL_MINUTE int64  `yaml:"MONITOR_INTERVAL_MINUTE"`
	OPS_SERVER_ADDR         string `yaml:"OPS_SERVER_ADDR"`
}

// ParseAppConfig reads and parses the YAML app config, fatals on any error
// since a malformed config means nothing sensible can run.
func ParseAppConfig(path string) AppConfig {
	c := AppConfig{}
	yamlFile, err := ioutil.ReadFile(path)
	if err != nil {
		log.Fatal("yamlFile get err: ", err.Error())
	}
	err = yaml.Unmarshal(yamlFile, &c)
	if err != nil {
		log.Fatal("Unmarshal: ", err)
	}
	c.applyDefaults()
	return c
}

func (c *AppConfig) applyDefaults() {
	if c.QUERY_DELAY_SECOND <= 0 {
		c.QUERY_DELAY_SECOND = 3
	}
	if c.MAX_RETRY_PER_QUERY <= 0 {
		c.MAX_RETRY_PER_QUERY = 3
	}
	if c.RETRY_BACKOFF_SECOND <= 0 {
		c.RETRY_BACKOFF_SECOND = 2
	}
	if c.SEARCH_PAGE_SIZE <= 0 || c.SEARCH_PAGE_SIZE > 100 {
		c.SEARCH_PAGE_SIZE = 100
	}
	if c.MAX_THREAD_ITEMS <= 0 {
		c.MAX_THREAD_ITEMS = 50
	}
	if c.MAX_COMMENTS <= 0 {
		c.MAX_COMMENTS = 20
	}
	if c.MIN_BODY_LENGTH <= 0 {
		c.MIN_BODY_LENGTH = 20
	}
	if c.MENTION_ONLY_MIN_SCORE <= 0 {
		c.MENTION_ONLY_MIN_SCORE = 5000
	}
	if c.DISCOVER_LIMIT <= 0 {
		c.DISCOVER_LIMIT = 20
	}
	if c.MIN_ENGAGEMENT <= 0 {
		c.MIN_ENGAGEMENT = 1000
	}
	if c.MONITOR_INTERVAL_MINUTE <= 0 {
		c.MONITOR_INTERVAL_MINUTE = 15
	}
	if c.OPS_SERVER_ADDR == "" {
		c.OPS_SERVER_ADDR = "127.0.0.1:8091"
	}
}
