package filtering

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/ranking"
)

var minutesPattern = regexp.MustCompile(`\d+`)

type durationFilter struct {
	disabled    bool
	reason      string
	maxDuration int
}

// NewDuration creates a filter that drops assessments longer than
// maxDuration minutes. Assessments without a readable duration are kept.
func NewDuration(maxDuration int) Filter {
	return &durationFilter{maxDuration: maxDuration}
}

func (f *durationFilter) Name() string { return "duration" }

func (f *durationFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *durationFilter) IsEnabled() bool { return !f.disabled }

func (f *durationFilter) Validate() error {
	if f.maxDuration <= 0 {
		return fmt.Errorf("maximum duration must be positive, got %d", f.maxDuration)
	}
	return nil
}

func (f *durationFilter) Apply(_ context.Context, deps Deps, c *ranking.Candidates) (*ranking.Candidates, Step, error) {
	initial := c.Len()
	excluded := c.Keep(func(candidate *ranking.Candidate) bool {
		minutes, ok := Minutes(candidate.Assessment.Duration)
		return !ok || minutes <= f.maxDuration
	})
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Debug("excluding assessments over the duration limit",
			zap.Int("max_duration", f.maxDuration),
			zap.Strings("excluded_assessments", excluded),
			zap.Int("assessments_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *durationFilter) Status() Status {
	details := map[string]string{}
	if f.maxDuration > 0 {
		details["max_duration"] = strconv.Itoa(f.maxDuration)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

// Minutes reads the first integer in a duration string such as "40 minutes".
// ok is false when there is none. Values too large for an int read as
// math.MaxInt.
func Minutes(duration string) (minutes int, ok bool) {
	match := minutesPattern.FindString(duration)
	if match == "" {
		return 0, false
	}
	minutes, err := strconv.Atoi(match)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt, true
	}
	if err != nil {
		return 0, false
	}
	return minutes, true
}
