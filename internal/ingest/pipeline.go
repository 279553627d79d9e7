// Package ingest is the write path between the (external) collection
// pipeline and the flow inference engine's persisted inputs. One call per
// collected item: it stores the content, links its topic tags, updates the
// co-occurrence graph, and appends to the creator's topic history.
package ingest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trendr-app/trendr/internal/store"
)

// Item is one normalized content unit handed over by a collector.
type Item struct {
	Platform    string    `json:"platform"`
	PlatformID  string    `json:"platform_id"`
	ContentType string    `json:"content_type"`
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"published_at"`

	// Creator attribution; empty CreatorPlatformID means unknown creator.
	CreatorPlatformID string `json:"creator_platform_id,omitempty"`
	CreatorUsername   string `json:"creator_username,omitempty"`
	CreatorName       string `json:"creator_name,omitempty"`
	FollowerCount     int64  `json:"follower_count,omitempty"`

	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Shares   int64 `json:"shares"`
	Views    int64 `json:"views"`
}

// Pipeline wires one ingested item through the store.
type Pipeline struct {
	store     *store.Store
	maxTopics int
}

// New creates an ingestion pipeline. maxTopics caps how many tags a single
// item contributes to the graph (top-N by confidence).
func New(s *store.Store, maxTopics int) *Pipeline {
	return &Pipeline{store: s, maxTopics: maxTopics}
}

// Ingest stores one item with its extracted topic tags. Returns false when
// the item was already collected; duplicates only refresh engagement
// counters and never touch the graph or history again.
func (p *Pipeline) Ingest(ctx context.Context, item Item, tags []store.TopicTag) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if item.Platform == "" || item.PlatformID == "" {
		return false, fmt.Errorf("item needs platform and platform_id")
	}

	exists, err := p.store.ContentExists(item.Platform, item.PlatformID)
	if err != nil {
		return false, fmt.Errorf("check existing content: %w", err)
	}
	if exists {
		err := p.store.RefreshEngagement(item.Platform, item.PlatformID,
			item.Likes, item.Comments, item.Shares, item.Views)
		return false, err
	}

	var creatorID *string
	if item.CreatorPlatformID != "" {
		id, err := p.store.GetOrCreateCreator(&store.Creator{
			ID:            uuid.NewString(),
			Platform:      item.Platform,
			PlatformID:    item.CreatorPlatformID,
			Username:      item.CreatorUsername,
			DisplayName:   item.CreatorName,
			FollowerCount: item.FollowerCount,
		})
		if err != nil {
			return false, fmt.Errorf("resolve creator: %w", err)
		}
		creatorID = &id
	}

	publishedAt := item.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now()
	}
	publishedAt = publishedAt.UTC()

	content := &store.Content{
		ID:          uuid.NewString(),
		Platform:    item.Platform,
		PlatformID:  item.PlatformID,
		CreatorID:   creatorID,
		ContentType: item.ContentType,
		TextContent: item.Text,
		Likes:       item.Likes,
		Comments:    item.Comments,
		Shares:      item.Shares,
		Views:       item.Views,
		PublishedAt: publishedAt,
	}
	if content.ContentType == "" {
		content.ContentType = "post"
	}

	if err := p.store.InsertContent(content); err != nil {
		return false, fmt.Errorf("insert content: %w", err)
	}

	tags = topTags(tags, p.maxTopics)

	topicIDs := make([]string, 0, len(tags))
	for _, tag := range tags {
		if err := p.store.LinkContentTopic(content.ID, tag.TopicID, tag.Confidence); err != nil {
			return false, fmt.Errorf("link topic %s: %w", tag.TopicID, err)
		}
		topicIDs = append(topicIDs, tag.TopicID)

		if creatorID != nil {
			if err := p.store.BumpCreatorTopicHistory(*creatorID, tag.TopicID, publishedAt); err != nil {
				return false, fmt.Errorf("bump history for topic %s: %w", tag.TopicID, err)
			}
		}
	}

	if err := p.store.RecordCooccurrence(topicIDs, publishedAt); err != nil {
		return false, fmt.Errorf("record cooccurrence: %w", err)
	}

	return true, nil
}

// topTags keeps the n highest-confidence tags, deterministically.
func topTags(tags []store.TopicTag, n int) []store.TopicTag {
	sorted := make([]store.TopicTag, len(tags))
	copy(sorted, tags)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Confidence != sorted[j].Confidence {
			return sorted[i].Confidence > sorted[j].Confidence
		}
		return sorted[i].TopicID < sorted[j].TopicID
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
