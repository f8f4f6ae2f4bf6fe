package reddit

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
)

// AuthorProfile is aggregate reputation for one username.
type AuthorProfile struct {
	Name       string
	TotalKarma int
	CreatedUTC int64
	IsGold     bool
	IsMod      bool
}

type aboutResponse struct {
	Data struct {
		TotalKarma int     `json:"total_karma"`
		CreatedUTC float64 `json:"created_utc"`
		IsGold     bool    `json:"is_gold"`
		IsMod      bool    `json:"is_mod"`
	} `json:"data"`
}

// LookupProfiles fetches profiles for up to maxUsers distinct usernames
// concurrently. Enrichment is best-effort: a failed lookup omits that
// username from the result map and never aborts the batch.
func (c *Client) LookupProfiles(ctx context.Context, usernames []string, maxUsers int) map[string]AuthorProfile {
	if maxUsers <= 0 {
		maxUsers = 6
	}

	seen := make(map[string]bool, len(usernames))
	var distinct []string
	for _, name := range usernames {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		distinct = append(distinct, name)
		if len(distinct) >= maxUsers {
			break
		}
	}

	out := make(map[string]AuthorProfile, len(distinct))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, name := range distinct {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			profile, err := c.lookupProfile(ctx, name)
			if err != nil {
				slog.Debug("Profile lookup failed", "user", name, "error", err)
				return
			}
			mu.Lock()
			out[name] = profile
			mu.Unlock()
		}(name)
	}
	wg.Wait()
	return out
}

func (c *Client) lookupProfile(ctx context.Context, name string) (AuthorProfile, error) {
	endpoint := fmt.Sprintf("%s/user/%s/about.json", c.baseURL, url.PathEscape(name))

	var about aboutResponse
	if err := c.getJSON(ctx, endpoint, profileTimeout, &about); err != nil {
		return AuthorProfile{}, fmt.Errorf("lookup u/%s: %w", name, err)
	}
	return AuthorProfile{
		Name:       name,
		TotalKarma: about.Data.TotalKarma,
		CreatedUTC: int64(about.Data.CreatedUTC),
		IsGold:     about.Data.IsGold,
		IsMod:      about.Data.IsMod,
	}, nil
}
