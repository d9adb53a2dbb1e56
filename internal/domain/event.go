package domain

import "time"

// Feed is the comparison configuration of one feed, as carried on an
// inbound event. The feed itself is owned by tenant configuration.
type Feed struct {
	ID                  string   `json:"id"`
	URL                 string   `json:"url"`
	BlockingComparisons []string `json:"blockingComparisons"`
	PassingComparisons  []string `json:"passingComparisons"`
}

// RateLimit is one user-configured delivery cap on a medium.
type RateLimit struct {
	Limit             int `json:"limit"`
	TimeWindowSeconds int `json:"timeWindowSeconds"`
}

// FeedEvent is one unit of work: a freshly fetched batch of articles for
// one feed plus the mediums it should be delivered to. Produced by the
// upstream fetcher per poll cycle, consumed exactly once, never persisted.
// The upstream scheduler guarantees at most one in-flight event per feed.
type FeedEvent struct {
	Feed            Feed      `json:"feed"`
	Articles        []Article `json:"articles"`
	Mediums         []Medium  `json:"mediums"`
	ArticleDayLimit int       `json:"articleDayLimit"`
}

// EventStats summarizes the processing of one FeedEvent.
type EventStats struct {
	FeedID      string
	Fetched     int
	New         int
	Blocked     int
	Delivered   int
	FilteredOut int
	RateLimited int
	Failed      int
	Duration    time.Duration
}
