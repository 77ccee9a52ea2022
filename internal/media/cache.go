package media

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/franz/retro-scraper/internal/normalize"
	"github.com/franz/retro-scraper/internal/store"
	"github.com/franz/retro-scraper/internal/util"
)

// Failure is a retained item that could not be cached
type Failure struct {
	Item   normalize.MediaItem
	Reason string
}

// Result describes one cache replacement
type Result struct {
	Deleted  int64
	Kept     int
	Rejected []Rejection
	Failed   []Failure
}

// Cache writes media pointer rows according to a policy
type Cache struct {
	policy Policy
}

// NewCache creates a cache writer
func NewCache(policy Policy) *Cache {
	return &Cache{policy: policy}
}

// Replace deletes every cached row of the entity and writes the retained
// items. Items with an unusable URL, or an entity without an upstream id,
// are recorded as failures and the remaining items are still written.
// It runs on the caller's Queries so it joins the caller's transaction.
func (c *Cache) Replace(ctx context.Context, q *store.Queries, entityType string, entityID, upstreamID int64, items []normalize.MediaItem) (Result, error) {
	var result Result
	if entityType != store.EntityConsole && entityType != store.EntityGame {
		return result, fmt.Errorf("unknown media entity type %q", entityType)
	}

	deleted, err := q.DeleteMediaCache(ctx, entityType, entityID)
	if err != nil {
		return result, err
	}
	result.Deleted = deleted

	kept, rejected := c.policy.Classify(items)
	result.Rejected = rejected

	for _, item := range kept {
		if reason := validate(item, upstreamID); reason != "" {
			result.Failed = append(result.Failed, Failure{Item: item, Reason: reason})
			util.DebugLog("Media %s/%s for %s %d not cached: %s", item.Type, item.Region, entityType, entityID, reason)
			continue
		}

		entry := &store.MediaCacheEntry{
			EntityType: entityType,
			EntityID:   entityID,
			MediaType:  item.Type,
			Region:     item.Region,
			URL:        item.URL,
			UpstreamID: upstreamID,
			Format:     item.Format,
			SizeBytes:  item.Size,
		}
		if err := q.InsertMediaCache(ctx, entry); err != nil {
			return result, err
		}
		result.Kept++
	}

	return result, nil
}

// Rescrape replaces an entity's media rows in a transaction of its own
func (c *Cache) Rescrape(ctx context.Context, s *store.Store, entityType string, entityID, upstreamID int64, items []normalize.MediaItem) (Result, error) {
	var result Result
	err := s.Transaction(ctx, func(q *store.Queries) error {
		var err error
		result, err = c.Replace(ctx, q, entityType, entityID, upstreamID, items)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

func validate(item normalize.MediaItem, upstreamID int64) string {
	if upstreamID <= 0 {
		return "missing upstream id"
	}
	raw := strings.TrimSpace(item.URL)
	if raw == "" {
		return "missing url"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid url"
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "invalid url"
	}
	return ""
}
