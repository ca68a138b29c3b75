package recommend

import (
	"strings"

	"github.com/spigell/assessment-recommender/internal/apperror"
)

const DefaultMaxResults = 10

// Query is a validated recommendation request. MaxDuration of 0 means no
// duration constraint.
type Query struct {
	Text        string
	MaxResults  int
	MaxDuration int
}

// NewQuery validates caller input. A nil maxResults takes defaultMaxResults;
// a nil or zero maxDuration leaves duration unconstrained.
func NewQuery(text string, maxResults, maxDuration *int, defaultMaxResults int) (Query, error) {
	if strings.TrimSpace(text) == "" {
		return Query{}, apperror.Validation("Query text cannot be empty")
	}

	if defaultMaxResults <= 0 {
		defaultMaxResults = DefaultMaxResults
	}

	q := Query{Text: text, MaxResults: defaultMaxResults}

	if maxResults != nil {
		if *maxResults <= 0 {
			return Query{}, apperror.Validation("max_results must be a positive integer")
		}
		q.MaxResults = *maxResults
	}

	if maxDuration != nil {
		if *maxDuration < 0 {
			return Query{}, apperror.Validation("max_duration must not be negative")
		}
		q.MaxDuration = *maxDuration
	}

	return q, nil
}

// HasDurationLimit reports whether the query constrains duration.
func (q Query) HasDurationLimit() bool {
	return q.MaxDuration > 0
}
