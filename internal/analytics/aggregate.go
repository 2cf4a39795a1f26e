// Package analytics derives chart-ready views from raw message snapshots.
// Every function here is pure: same messages and scope in, same view out.
// Nothing is retained between calls, so a view can be recomputed from any
// cache snapshot at any time.
package analytics

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/mqdash/mqdash/internal/api"
)

const (
	// FrequencyBuckets is the number of hourly buckets in a frequency series.
	FrequencyBuckets = 24
	// DefaultTrendLength caps the numeric value trend.
	DefaultTrendLength = 50
	// DefaultTopicLimit caps the topic distribution.
	DefaultTopicLimit = 5
)

// trendFields are the payload keys probed for a numeric telemetry value, in
// priority order. The first key present with a numeric value wins; a payload
// carrying both "value" and "temperature" contributes its "value".
var trendFields = []string{
	"value",
	"temperature",
	"temp",
	"humidity",
	"pressure",
	"speed",
	"level",
	"reading",
}

// Scope selects which messages feed an aggregation: every connection, or a
// single one.
type Scope struct {
	connectionID string
}

// ScopeAll aggregates across every connection.
func ScopeAll() Scope {
	return Scope{}
}

// ScopeConnection aggregates one connection's messages.
func ScopeConnection(id string) Scope {
	return Scope{connectionID: id}
}

// All reports whether the scope is system-wide.
func (s Scope) All() bool {
	return s.connectionID == ""
}

// Matches reports whether a message falls inside the scope.
func (s Scope) Matches(m api.Message) bool {
	return s.All() || m.ConnectionID == s.connectionID
}

// FrequencyBucket is one hour of message counts, covering [Start, Start+1h).
type FrequencyBucket struct {
	Start time.Time
	Count int
}

// TopicCount is one topic's share of the scoped traffic.
type TopicCount struct {
	Topic string
	Count int
}

// TrendPoint is a single extracted telemetry value.
type TrendPoint struct {
	Timestamp time.Time
	Value     float64
}

// AggregateView is the full derived read model for a scope.
// ValueTrend is nil, not empty, when no scoped message carries a recognized
// numeric field: "emits no telemetry" renders differently from "no data yet".
type AggregateView struct {
	MessageFrequency  []FrequencyBucket
	TopicDistribution []TopicCount
	ValueTrend        []TrendPoint
}

// Aggregate computes the complete view for a scope at the given instant.
func Aggregate(messages []api.Message, scope Scope, now time.Time) AggregateView {
	return AggregateView{
		MessageFrequency:  Frequency(messages, scope, now),
		TopicDistribution: TopicDistribution(messages, scope, DefaultTopicLimit),
		ValueTrend:        ValueTrend(messages, scope, DefaultTrendLength),
	}
}

// Frequency buckets the scoped messages into exactly FrequencyBuckets
// consecutive hours ending at now. Empty hours are present with a zero
// count so chart x-axes stay gapless.
func Frequency(messages []api.Message, scope Scope, now time.Time) []FrequencyBucket {
	currentHour := now.Truncate(time.Hour)
	buckets := make([]FrequencyBucket, FrequencyBuckets)
	for i := range buckets {
		buckets[i].Start = currentHour.Add(time.Duration(i-FrequencyBuckets+1) * time.Hour)
	}
	windowStart := buckets[0].Start

	for _, m := range messages {
		if !scope.Matches(m) {
			continue
		}
		ts := m.Timestamp
		if ts.Before(windowStart) || !ts.Before(currentHour.Add(time.Hour)) {
			continue
		}
		idx := int(ts.Sub(windowStart) / time.Hour)
		buckets[idx].Count++
	}

	return buckets
}

// TopicDistribution groups scoped messages by exact topic string and returns
// the top limit topics by count, descending. Ties keep the order topics first
// appeared in the input, so identical inputs always produce identical output.
func TopicDistribution(messages []api.Message, scope Scope, limit int) []TopicCount {
	if limit <= 0 {
		limit = DefaultTopicLimit
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	var order []string

	for _, m := range messages {
		if !scope.Matches(m) {
			continue
		}
		if _, ok := counts[m.Topic]; !ok {
			firstSeen[m.Topic] = len(order)
			order = append(order, m.Topic)
		}
		counts[m.Topic]++
	}

	dist := make([]TopicCount, 0, len(order))
	for _, topic := range order {
		dist = append(dist, TopicCount{Topic: topic, Count: counts[topic]})
	}

	sort.SliceStable(dist, func(i, j int) bool {
		if dist[i].Count != dist[j].Count {
			return dist[i].Count > dist[j].Count
		}
		return firstSeen[dist[i].Topic] < firstSeen[dist[j].Topic]
	})

	if len(dist) > limit {
		dist = dist[:limit]
	}
	return dist
}

// ValueTrend extracts up to limit numeric telemetry values from the scoped
// messages, oldest to newest. A payload that is not JSON or carries no
// recognized numeric field is simply not telemetry; it contributes nothing
// and raises nothing. Returns nil when zero messages qualify.
func ValueTrend(messages []api.Message, scope Scope, limit int) []TrendPoint {
	if limit <= 0 {
		limit = DefaultTrendLength
	}

	scoped := make([]api.Message, 0, len(messages))
	for _, m := range messages {
		if scope.Matches(m) {
			scoped = append(scoped, m)
		}
	}
	sort.SliceStable(scoped, func(i, j int) bool {
		return scoped[i].Timestamp.Before(scoped[j].Timestamp)
	})

	var points []TrendPoint
	for _, m := range scoped {
		if value, ok := extractValue(m.Payload); ok {
			points = append(points, TrendPoint{Timestamp: m.Timestamp, Value: value})
		}
	}

	if len(points) > limit {
		points = points[len(points)-limit:]
	}
	return points
}

// extractValue probes a payload for a numeric field in trendFields priority
// order. Non-JSON payloads and JSON without a recognized numeric field both
// return false.
func extractValue(payload string) (float64, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return 0, false
	}

	for _, name := range trendFields {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var value float64
		if err := json.Unmarshal(raw, &value); err != nil {
			// Present but not numeric: keep probing lower-priority fields
			continue
		}
		return value, true
	}
	return 0, false
}

// TrendFields returns the probe order for numeric telemetry fields, highest
// priority first.
func TrendFields() []string {
	out := make([]string, len(trendFields))
	copy(out, trendFields)
	return out
}
