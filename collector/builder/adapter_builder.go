package builder

import (
	"fmt"
	"os"

	"github.com/viralmux/viralmux/app_config"
	"github.com/viralmux/viralmux/collector"
	"github.com/viralmux/viralmux/collector/instances"
	"github.com/viralmux/viralmux/model"
)

// Bearer token for the microblog API, injected through the environment so
// it never lands in config files.
const microblogTokenEnv = "MICROBLOG_BEARER_TOKEN"

type AdapterBuilder struct{}

func (AdapterBuilder) NewMicroblogAdapter(config *app_config.AppConfig) collector.SourceAdapter {
	// Any configured mirror enables api failover. An empty list means the
	// api is the only path.
	return instances.NewMicroblogAdapter(os.Getenv(microblogTokenEnv), config.MIRRORS, config.SEARCH_PAGE_SIZE)
}

func (AdapterBuilder) NewForumAdapter(config *app_config.AppConfig) collector.SourceAdapter {
	return instances.NewForumAdapter(config.NSFW_COMMUNITY_ALLOWLIST)
}

// ForPlatform returns the adapter for a platform tag. Unknown tags are a
// configuration error, not a runtime condition.
func (b AdapterBuilder) ForPlatform(platform string, config *app_config.AppConfig) (collector.SourceAdapter, error) {
	switch platform {
	case model.PlatformMicroblog:
		return b.NewMicroblogAdapter(config), nil
	case model.PlatformForum:
		return b.NewForumAdapter(config), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", platform)
	}
}

// All returns one adapter per supported platform, keyed by platform tag.
func (b AdapterBuilder) All(config *app_config.AppConfig) map[string]collector.SourceAdapter {
	return map[string]collector.SourceAdapter{
		model.PlatformMicroblog: b.NewMicroblogAdapter(config),
		model.PlatformForum:     b.NewForumAdapter(config),
	}
}
