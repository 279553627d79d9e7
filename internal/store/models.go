package store

import "time"

// Topic is a node in the seeded taxonomy vocabulary
type Topic struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	ParentTopicID *string   `json:"parent_topic_id,omitempty"`
	Aliases       []string  `json:"aliases"`
	Keywords      []string  `json:"keywords"`
	CreatedAt     time.Time `json:"created_at"`
	ContentCount  int64     `json:"content_count,omitempty"`
}

// TopicMotivation is one (topic, motivation label) score produced by the
// motivation classifier. Overwritten on reclassification, never accumulated.
type TopicMotivation struct {
	TopicID    string    `json:"topic_id"`
	Motivation string    `json:"motivation"`
	Score      float64   `json:"score"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Creator is an attributed author/channel/account on a platform
type Creator struct {
	ID            string `json:"id"`
	Platform      string `json:"platform"`
	PlatformID    string `json:"platform_id"`
	Username      string `json:"username"`
	DisplayName   string `json:"display_name,omitempty"`
	FollowerCount int64  `json:"follower_count,omitempty"`
}

// Content is one collected post/video/thread. Immutable once stored except
// for engagement counter refreshes.
type Content struct {
	ID          string    `json:"id"`
	Platform    string    `json:"platform"`
	PlatformID  string    `json:"platform_id"`
	CreatorID   *string   `json:"creator_id,omitempty"`
	ContentType string    `json:"content_type"`
	TextContent string    `json:"text_content"`
	Likes       int64     `json:"engagement_likes"`
	Comments    int64     `json:"engagement_comments"`
	Shares      int64     `json:"engagement_shares"`
	Views       int64     `json:"engagement_views"`
	PublishedAt time.Time `json:"published_at"`
	CollectedAt time.Time `json:"collected_at"`
}

// TopicTag is the topic extractor's output for one content item
type TopicTag struct {
	TopicID    string  `json:"topic_id"`
	Confidence float64 `json:"confidence"`
}

// RelatedTopic is one result of a bounded-depth co-occurrence traversal
type RelatedTopic struct {
	TopicID string `json:"topic_id"`
	Name    string `json:"name"`
	Depth   int    `json:"depth"`
	Weight  int64  `json:"weight"`
}

// PairCount is a windowed joint-tag count for a canonical topic pair
type PairCount struct {
	TopicA string
	TopicB string
	Count  int64
}

// CreatorTopicCount aggregates a creator's content per topic over a window
type CreatorTopicCount struct {
	CreatorID string
	TopicID   string
	Count     int64
}

// Signal classes feeding the fusion step
const (
	SignalCreatorPivot    = "creator_pivot"
	SignalCooccurrence    = "cooccurrence"
	SignalMotivationMatch = "motivation_match"
)

// FlowSignal is one piece of evidence contributing to a flow
type FlowSignal struct {
	Type     string  `json:"type"`
	Weight   float64 `json:"weight"`
	Evidence string  `json:"evidence"`
}

// Flow is a directed, confidence-scored inferred migration of attention.
// Rows are append-only; a re-detected pair is a new row.
type Flow struct {
	ID          string       `json:"id"`
	FromTopicID string       `json:"from_topic_id"`
	ToTopicID   string       `json:"to_topic_id"`
	Strength    float64      `json:"strength"`
	Confidence  float64      `json:"confidence"`
	Motivation  *string      `json:"motivation,omitempty"`
	Signals     []FlowSignal `json:"signals"`
	DetectedAt  time.Time    `json:"detected_at"`
	ValidUntil  time.Time    `json:"valid_until"`
}

// Alert types
const (
	AlertAttentionFlow = "attention_flow"
	AlertSharpPivot    = "sharp_pivot"
)

// Alert is a user-facing notification derived from a flow
type Alert struct {
	ID        string    `json:"id"`
	AlertType string    `json:"alert_type"`
	TopicID   *string   `json:"topic_id,omitempty"`
	FlowID    *string   `json:"flow_id,omitempty"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// TopicCount pairs a topic name with its tagged-content count
type TopicCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Stats summarizes the collected corpus for the dashboard surfaces
type Stats struct {
	TotalContent     int64        `json:"total_content"`
	TotalTopics      int64        `json:"total_topics"`
	TotalCreators    int64        `json:"total_creators"`
	ContentLast7Days int64        `json:"content_last_7_days"`
	ActiveFlows      int64        `json:"active_flows"`
	TopTopics        []TopicCount `json:"top_topics"`
}
