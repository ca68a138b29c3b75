package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/api"
	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/logger"
)

const (
	defaultServer      = "http://localhost:8000"
	defaultAskDuration = 60
	maxAskDuration     = 120
	askDurationStep    = 5
	askTimeout         = 2 * time.Minute

	noLimitLabel      = "no limit"
	noResultsWarning  = "No matching assessments found. Try adjusting your query or duration filter."
	queryPreviewLimit = 80
)

var askCmd = &cobra.Command{
	Use:   "ask [job description]",
	Short: "Ask a running server for assessment recommendations",
	Long: "Ask collects a job description and a maximum duration, sends them to the " +
		"recommendation API and prints the result as a table. Missing values are prompted for.",
	Run: func(cmd *cobra.Command, args []string) {
		ask(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringP("server", "s", defaultServer, "recommendation API base url")
	askCmd.Flags().IntP("max-duration", "m", -1, "maximum assessment duration in minutes, 0 for no limit (prompted when unset)")
	askCmd.Flags().IntP("max-results", "n", 0, "maximum number of recommendations (server default when unset)")
}

type recommendResponse struct {
	Recommendations []*catalog.Assessment `json:"recommendations"`
}

// ask is the interactive front-end of the recommendation API.
func ask(cmd *cobra.Command, args []string) {
	appLogger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	server, _ := cmd.Flags().GetString("server")
	maxDuration, _ := cmd.Flags().GetInt("max-duration")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		text, err = promptQuery()
		if err != nil {
			appLogger.Fatal("exiting", zap.Error(err))
		}
	}

	if maxDuration < 0 {
		maxDuration, err = promptDuration()
		if err != nil {
			appLogger.Fatal("exiting", zap.Error(err))
		}
	}

	appLogger.Debug("asking for recommendations",
		zap.String("server", server),
		zap.String("query_preview", logger.Preview(text, queryPreviewLimit)),
		zap.Int("max_duration", maxDuration),
	)

	ctx, cancel := context.WithTimeout(cmd.Context(), askTimeout)
	defer cancel()

	client := &askClient{baseURL: server, http: &http.Client{Timeout: askTimeout}}
	recommendations, err := client.recommend(ctx, buildAskRequest(text, maxResults, maxDuration))
	if err != nil {
		appLogger.Fatal("getting recommendations", zap.Error(err))
	}

	renderRecommendations(cmd.OutOrStdout(), recommendations)
}

func buildAskRequest(text string, maxResults, maxDuration int) api.RecommendRequest {
	req := api.RecommendRequest{Text: text}
	if maxResults > 0 {
		req.MaxResults = &maxResults
	}
	if maxDuration > 0 {
		req.MaxDuration = &maxDuration
	}
	return req
}

func promptQuery() (string, error) {
	prompt := promptui.Prompt{
		Label: "Job description or query",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("query text cannot be empty")
			}
			return nil
		},
	}
	return prompt.Run()
}

func promptDuration() (int, error) {
	prompt := promptui.Select{
		Label:     "Maximum assessment duration (minutes)",
		Items:     durationItems(),
		CursorPos: defaultAskDuration / askDurationStep,
		Size:      8,
	}

	_, item, err := prompt.Run()
	if err != nil {
		return 0, err
	}
	return parseDurationItem(item)
}

// durationItems lists 0..120 in steps of 5; 0 means no limit.
func durationItems() []string {
	items := make([]string, 0, maxAskDuration/askDurationStep+1)
	items = append(items, noLimitLabel)
	for minutes := askDurationStep; minutes <= maxAskDuration; minutes += askDurationStep {
		items = append(items, strconv.Itoa(minutes))
	}
	return items
}

func parseDurationItem(item string) (int, error) {
	if item == noLimitLabel {
		return 0, nil
	}
	return strconv.Atoi(item)
}

type askClient struct {
	baseURL string
	http    *http.Client
}

func (c *askClient) recommend(ctx context.Context, body api.RecommendRequest) ([]*catalog.Assessment, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := strings.TrimRight(c.baseURL, "/") + "/recommend"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Detail != "" {
			return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Detail)
		}
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var decoded recommendResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return decoded.Recommendations, nil
}

func renderRecommendations(w io.Writer, recommendations []*catalog.Assessment) {
	if len(recommendations) == 0 {
		fmt.Fprintln(w, noResultsWarning)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Assessment Name", "URL", "Remote Testing", "Adaptive Support", "Duration", "Test Type"})
	for _, a := range recommendations {
		t.AppendRow(table.Row{a.Name, a.URL, yesNo(a.RemoteTesting), yesNo(a.AdaptiveSupport), a.Duration, a.TestType})
	}
	t.Render()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
