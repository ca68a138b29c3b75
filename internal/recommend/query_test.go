package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/assessment-recommender/internal/apperror"
)

func TestNewQueryDefaults(t *testing.T) {
	t.Parallel()

	q, err := NewQuery("Java developer", nil, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, Query{Text: "Java developer", MaxResults: DefaultMaxResults}, q)
	assert.False(t, q.HasDurationLimit())

	q, err = NewQuery("Java developer", intPtr(3), intPtr(0), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, q.MaxResults)
	assert.False(t, q.HasDurationLimit())

	q, err = NewQuery("Java developer", nil, intPtr(45), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, q.MaxResults)
	assert.True(t, q.HasDurationLimit())
}

func TestNewQueryRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		text        string
		maxResults  *int
		maxDuration *int
		message     string
	}{
		{"empty text", "", nil, nil, "Query text cannot be empty"},
		{"blank text", " \t\n", nil, nil, "Query text cannot be empty"},
		{"zero results", "java", intPtr(0), nil, "max_results must be a positive integer"},
		{"negative results", "java", intPtr(-2), nil, "max_results must be a positive integer"},
		{"negative duration", "java", nil, intPtr(-1), "max_duration must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewQuery(tt.text, tt.maxResults, tt.maxDuration, 10)
			require.Error(t, err)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
			assert.Equal(t, tt.message, apperror.As(err).Message)
		})
	}
}
