package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/ranking"
)

type relevanceFilter struct {
	disabled bool
	reason   string
	minScore float64
}

// NewRelevance creates a filter that drops candidates scoring below minScore.
func NewRelevance(minScore float64) Filter {
	return &relevanceFilter{minScore: minScore}
}

func (f *relevanceFilter) Name() string { return "relevance" }

func (f *relevanceFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *relevanceFilter) IsEnabled() bool { return !f.disabled }

func (f *relevanceFilter) Validate() error {
	if f.minScore < -1 || f.minScore > 1 {
		return fmt.Errorf("minimum score %v is outside [-1, 1]", f.minScore)
	}
	return nil
}

func (f *relevanceFilter) Apply(_ context.Context, deps Deps, c *ranking.Candidates) (*ranking.Candidates, Step, error) {
	initial := c.Len()
	excluded := c.Keep(func(candidate *ranking.Candidate) bool {
		return candidate.Score >= f.minScore
	})
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Debug("excluding assessments below relevance floor",
			zap.Float64("min_score", f.minScore),
			zap.Strings("excluded_assessments", excluded),
			zap.Int("assessments_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *relevanceFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"min_score": strconv.FormatFloat(f.minScore, 'f', 2, 64)},
	}
}
