package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/xiaot623/pokr/internal/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status CODE",
	Short: "Print the status snapshot of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var statusTimeout time.Duration

var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#f8fafc"))

	styleDimmed = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6b7280"))

	styleSectionHeader = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#9ca3af"))

	styleVoted = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22c55e"))

	styleCurrent = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d97706"))
)

func init() {
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 10*time.Second, "HTTP request timeout")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: statusTimeout}
	view, err := fetchStatus(cmd.Context(), client, serverURL, args[0])
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), renderStatus(view))
	return nil
}

type apiError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

func fetchStatus(ctx context.Context, client *http.Client, base, code string) (*domain.SessionStatusView, error) {
	endpoint := strings.TrimRight(base, "/") + "/api/sessions/" + url.PathEscape(strings.ToUpper(code))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting status: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("%s: %s", apiErr.ErrorCode, apiErr.Message)
		}
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var view domain.SessionStatusView
	if err := json.Unmarshal(body, &view); err != nil {
		return nil, fmt.Errorf("decoding status: %w", err)
	}
	return &view, nil
}

func renderStatus(v *domain.SessionStatusView) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render(fmt.Sprintf("%s  %s (%s)", v.Code, v.Name, v.Status)) + "\n")
	b.WriteString(styleDimmed.Render("facilitator: "+v.FacilitatorName) + "\n")
	b.WriteString(styleDimmed.Render(fmt.Sprintf("participants: %d  stories: %d/%d estimated", v.ParticipantCount, v.EstimatedStoriesCount, v.StoriesCount)) + "\n")

	if v.CurrentStory != nil {
		b.WriteString("\n" + styleCurrent.Render(fmt.Sprintf("current story: #%d %s [%s]", v.CurrentStory.ID, v.CurrentStory.Title, v.CurrentStory.Status)) + "\n")
	}

	if len(v.Participants) > 0 {
		b.WriteString("\n" + styleSectionHeader.Render("participants:") + "\n")
		for _, p := range v.Participants {
			if p.HasVotedForCurrentStory {
				b.WriteString(styleVoted.Render("  [x] "+p.Name) + "\n")
				continue
			}
			b.WriteString("  [ ] " + p.Name + "\n")
		}
	}

	if len(v.Stories) > 0 {
		b.WriteString("\n" + styleSectionHeader.Render("stories:") + "\n")
		for _, s := range v.Stories {
			points := "-"
			if s.FinalEstimate != nil {
				points = strconv.Itoa(*s.FinalEstimate)
			}
			fmt.Fprintf(&b, "  #%d %-40s %-9s %s\n", s.ID, s.Title, s.Status, points)
		}
	}
	return b.String()
}
