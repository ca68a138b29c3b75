package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/assessment-recommender/internal/api"
	"github.com/spigell/assessment-recommender/internal/catalog"
)

func TestDurationItems(t *testing.T) {
	items := durationItems()

	require.Len(t, items, 25)
	assert.Equal(t, noLimitLabel, items[0])
	assert.Equal(t, "5", items[1])
	assert.Equal(t, "120", items[len(items)-1])
	assert.Equal(t, "60", items[defaultAskDuration/askDurationStep])
}

func TestParseDurationItem(t *testing.T) {
	minutes, err := parseDurationItem(noLimitLabel)
	require.NoError(t, err)
	assert.Zero(t, minutes)

	minutes, err = parseDurationItem("45")
	require.NoError(t, err)
	assert.Equal(t, 45, minutes)

	_, err = parseDurationItem("forever")
	assert.Error(t, err)
}

func TestBuildAskRequest(t *testing.T) {
	req := buildAskRequest("java", 0, 0)
	assert.Equal(t, "java", req.Text)
	assert.Nil(t, req.MaxResults)
	assert.Nil(t, req.MaxDuration)

	req = buildAskRequest("java", 3, 40)
	require.NotNil(t, req.MaxResults)
	require.NotNil(t, req.MaxDuration)
	assert.Equal(t, 3, *req.MaxResults)
	assert.Equal(t, 40, *req.MaxDuration)
}

func TestAskClientRecommend(t *testing.T) {
	var got api.RecommendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/recommend", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"recommendations":[{"name":"Java 8","url":"https://www.shl.com/java","remote_testing":true,"adaptive_support":false,"duration":"18 minutes","test_type":"Skills"}]}`))
	}))
	defer server.Close()

	client := &askClient{baseURL: server.URL + "/", http: server.Client()}
	recs, err := client.recommend(context.Background(), buildAskRequest("java developer", 0, 30))
	require.NoError(t, err)

	assert.Equal(t, "java developer", got.Text)
	require.NotNil(t, got.MaxDuration)
	assert.Equal(t, 30, *got.MaxDuration)

	require.Len(t, recs, 1)
	assert.Equal(t, "Java 8", recs[0].Name)
	assert.True(t, recs[0].RemoteTesting)
	assert.Equal(t, catalog.TestTypeSkills, recs[0].TestType)
}

func TestAskClientSurfacesDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"No assessments found matching the duration criteria of 5 minutes"}`))
	}))
	defer server.Close()

	client := &askClient{baseURL: server.URL, http: server.Client()}
	_, err := client.recommend(context.Background(), buildAskRequest("java", 0, 5))
	assert.EqualError(t, err, "server returned 404: No assessments found matching the duration criteria of 5 minutes")
}

func TestAskClientWithoutDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := &askClient{baseURL: server.URL, http: server.Client()}
	_, err := client.recommend(context.Background(), buildAskRequest("java", 0, 0))
	assert.EqualError(t, err, "server returned 502")
}

func TestRenderRecommendations(t *testing.T) {
	var out bytes.Buffer
	renderRecommendations(&out, []*catalog.Assessment{{
		Name:          "Java 8",
		URL:           "https://www.shl.com/java",
		RemoteTesting: true,
		Duration:      "18 minutes",
		TestType:      catalog.TestTypeSkills,
	}})

	rendered := out.String()
	assert.Contains(t, rendered, "Java 8")
	assert.Contains(t, rendered, "https://www.shl.com/java")
	assert.Contains(t, rendered, "Yes")
	assert.Contains(t, rendered, "No")
	assert.Contains(t, rendered, "18 minutes")
	assert.Contains(t, rendered, "Skills")
}

func TestRenderRecommendationsEmpty(t *testing.T) {
	var out bytes.Buffer
	renderRecommendations(&out, nil)

	assert.Equal(t, noResultsWarning+"\n", out.String())
}
