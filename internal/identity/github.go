package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPI = "https://api.github.com"

// NewGithubOAuth returns nil when the client id is not configured.
func NewGithubOAuth(clientID, clientSecret, redirectURL string) *oauth2.Config {
	if clientID == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"read:user", "user:email"},
		Endpoint:     github.Endpoint,
	}
}

// ExternalProfile is the provider-side account.
type ExternalProfile struct {
	ExternalID string
	Email      string
	Name       string
}

// ProfileFetcher loads the provider account behind an access token.
type ProfileFetcher interface {
	Fetch(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (ExternalProfile, error)
}

type GithubProfiles struct {
	BaseURL string
}

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (g GithubProfiles) Fetch(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (ExternalProfile, error) {
	base := g.BaseURL
	if base == "" {
		base = githubAPI
	}
	client := cfg.Client(ctx, token)

	var gu githubUser
	if err := getJSON(ctx, client, base+"/user", &gu); err != nil {
		return ExternalProfile{}, err
	}
	email := gu.Email
	if email == "" {
		var emails []githubEmail
		if err := getJSON(ctx, client, base+"/user/emails", &emails); err != nil {
			return ExternalProfile{}, err
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				email = e.Email
				break
			}
		}
	}
	if email == "" {
		return ExternalProfile{}, fmt.Errorf("%w: no verified email on github account", ErrOAuthFailed)
	}

	name := gu.Name
	if name == "" {
		name = gu.Login
	}
	return ExternalProfile{
		ExternalID: strconv.FormatInt(gu.ID, 10),
		Email:      email,
		Name:       name,
	}, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", ErrOAuthFailed, url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
