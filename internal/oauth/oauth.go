// Package oauth holds the identity provider table and the two-hop exchange:
// authorization code to access token, access token to profile.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"inkwell/internal/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// ErrUpstream marks failures talking to the identity provider.
var ErrUpstream = errors.New("identity provider request failed")

const requestTimeout = 15 * time.Second

// FieldMap names the profile document keys holding each identity attribute.
type FieldMap struct {
	ID      string
	Name    string
	Email   string
	Picture string
}

type Provider struct {
	Name       string
	OAuth2     *oauth2.Config
	ProfileURL string
	EmailsURL  string // optional, consulted when the profile has no email
	Fields     FieldMap

	HTTPClient *http.Client
}

// Profile is the provider-neutral identity returned after a successful exchange.
type Profile struct {
	ID         string
	Name       string
	Email      string
	PictureURL string
}

// Providers is built once at startup and never mutated afterwards.
type Providers map[string]*Provider

// NewProviders registers every provider that has credentials in cfg. Redirect
// URIs point at <secure-site-url>/oauth2callback/<name>/.
func NewProviders(cfg *config.Config) Providers {
	providers := Providers{}
	client := &http.Client{Timeout: requestTimeout}

	if creds, ok := cfg.Providers["google"]; ok {
		providers["google"] = &Provider{
			Name: "google",
			OAuth2: &oauth2.Config{
				ClientID:     creds.ClientID,
				ClientSecret: creds.ClientSecret,
				RedirectURL:  CallbackURL(cfg.SecureSiteURL, "google"),
				Scopes:       []string{"email", "https://www.googleapis.com/auth/userinfo.profile"},
				Endpoint:     google.Endpoint,
			},
			ProfileURL: "https://www.googleapis.com/oauth2/v3/userinfo",
			Fields:     FieldMap{ID: "sub", Name: "name", Email: "email", Picture: "picture"},
			HTTPClient: client,
		}
	}

	if creds, ok := cfg.Providers["github"]; ok {
		providers["github"] = &Provider{
			Name: "github",
			OAuth2: &oauth2.Config{
				ClientID:     creds.ClientID,
				ClientSecret: creds.ClientSecret,
				RedirectURL:  CallbackURL(cfg.SecureSiteURL, "github"),
				Scopes:       []string{"user"},
				Endpoint:     github.Endpoint,
			},
			ProfileURL: "https://api.github.com/user",
			EmailsURL:  "https://api.github.com/user/emails",
			Fields:     FieldMap{ID: "id", Name: "name", Email: "email", Picture: "avatar_url"},
			HTTPClient: client,
		}
	}

	return providers
}

func CallbackURL(secureSiteURL, provider string) string {
	return secureSiteURL + "/oauth2callback/" + provider + "/"
}

func (ps Providers) Get(name string) (*Provider, bool) {
	p, ok := ps[name]
	return p, ok
}

// Names lists the registered providers in a stable order for the login page.
func (ps Providers) Names() []string {
	var names []string
	for _, n := range []string{"google", "github"} {
		if _, ok := ps[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

func (p *Provider) AuthCodeURL(state string) string {
	return p.OAuth2.AuthCodeURL(state)
}

func (p *Provider) withClient(ctx context.Context) context.Context {
	if p.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.HTTPClient)
}

// Exchange trades an authorization code for an access token.
func (p *Provider) Exchange(ctx context.Context, code string) (*Exchange, error) {
	ctx = p.withClient(ctx)
	token, err := p.OAuth2.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %s token: %v", ErrUpstream, p.Name, err)
	}
	return &Exchange{provider: p, client: p.OAuth2.Client(ctx, token)}, nil
}

// Exchange is an authorized client for one provider and one access token.
type Exchange struct {
	provider *Provider
	client   *http.Client
}

// Profile fetches the identity document and maps it through the provider fields.
func (e *Exchange) Profile(ctx context.Context) (*Profile, error) {
	var doc map[string]any
	if err := e.getJSON(ctx, e.provider.ProfileURL, &doc); err != nil {
		return nil, err
	}

	f := e.provider.Fields
	profile := &Profile{
		ID:         field(doc, f.ID),
		Name:       field(doc, f.Name),
		Email:      field(doc, f.Email),
		PictureURL: field(doc, f.Picture),
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("%w: %s profile has no %q", ErrUpstream, e.provider.Name, f.ID)
	}
	return profile, nil
}

type emailEntry struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// PrimaryEmail asks the emails endpoint for an address, preferring the verified
// primary one and falling back to the first listed. It returns "" when the
// provider has no emails endpoint.
func (e *Exchange) PrimaryEmail(ctx context.Context) (string, error) {
	if e.provider.EmailsURL == "" {
		return "", nil
	}
	var entries []emailEntry
	if err := e.getJSON(ctx, e.provider.EmailsURL, &entries); err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.Primary && entry.Verified {
			return entry.Email, nil
		}
	}
	if len(entries) > 0 {
		return entries[0].Email, nil
	}
	return "", nil
}

func (e *Exchange) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUpstream, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %s: status %d", ErrUpstream, url, resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUpstream, url, err)
	}
	return nil
}

// field renders a scalar profile value as text. Numeric ids keep their exact digits.
func field(doc map[string]any, key string) string {
	switch v := doc[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return fmt.Sprint(v)
	}
	return ""
}
