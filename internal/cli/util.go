package cli

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

func httpClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// priceFeedURL points at the /ws/prices endpoint on the journal host.
func priceFeedURL(journalBase string) (string, error) {
	u, err := url.Parse(journalBase)
	if err != nil {
		return "", fmt.Errorf("journal base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws/prices"
	u.RawQuery = ""
	return u.String(), nil
}

// parseDay reads YYYY-MM-DD in local time.
func parseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}
