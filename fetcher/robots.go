package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ai-visibility/backend/analyzer"
)

// RobotsFetcher retrieves a site's robots.txt and classifies the outcome.
type RobotsFetcher struct {
	client *http.Client
}

// NewRobotsFetcher creates a RobotsFetcher using the given client.
func NewRobotsFetcher(client *http.Client) *RobotsFetcher {
	return &RobotsFetcher{client: client}
}

// RobotsURL returns the robots.txt location for the origin of pageURL.
func RobotsURL(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host + robotsTxtPath, nil
}

// Fetch never fails: a 404 means no robots document, and every other problem
// is reported as unavailable with a note.
func (r *RobotsFetcher) Fetch(ctx context.Context, pageURL string) analyzer.RobotsDocument {
	robotsURL, err := RobotsURL(pageURL)
	if err != nil {
		return analyzer.RobotsUnreachable(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return analyzer.RobotsUnreachable(fmt.Sprintf("robots: create request: %v", err))
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return analyzer.RobotsUnreachable(fmt.Sprintf("robots: fetch: %v", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return analyzer.RobotsMissing()
	case resp.StatusCode != http.StatusOK:
		return analyzer.RobotsUnreachable(fmt.Sprintf("could not fetch robots.txt (status %d)", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if err != nil {
		return analyzer.RobotsUnreachable(fmt.Sprintf("robots: read body: %v", err))
	}
	return analyzer.RobotsFromBody(string(body))
}
