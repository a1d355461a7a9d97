package npm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mailru/easyjson"
	"github.com/rs/zerolog/log"
)

// DefaultRegistry is used when no registry URL is configured
const DefaultRegistry = "https://registry.npmjs.org"

const defaultTimeout = 30 * time.Second

// ErrMalformed marks a registry answer that lacks the fields needed to pick a version
var ErrMalformed = errors.New("malformed packument")

// StatusError is returned for any non-200 registry response
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("registry request %s failed: HTTP %d", e.URL, e.StatusCode)
}

type AuthType string

const (
	AuthTypeNone  AuthType = "none"
	AuthTypeBasic AuthType = "basic"
	AuthTypeToken AuthType = "token"
)

// Options configures a registry client
type Options struct {
	BaseURL  string
	AuthType AuthType
	Username string
	Password string
	Token    string
	Timeout  time.Duration
}

// Client fetches packuments from an npm-compatible registry
type Client struct {
	Options *Options
	http    *http.Client
}

func NewClient(options *Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		Options: options,
		http:    &http.Client{Timeout: timeout},
	}
}

// PackageURL builds the packument URL for a package name.
// The name is escaped as one path segment, so "@scope/name" becomes "@scope%2Fname".
func (c *Client) PackageURL(name string) string {
	baseURL := c.Options.BaseURL
	if baseURL == "" {
		baseURL = DefaultRegistry
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + url.PathEscape(name)
}

// FetchPackument retrieves and decodes the packument for name
func (c *Client) FetchPackument(ctx context.Context, name string) (*Packument, error) {
	packageURL := c.PackageURL(name)
	log.Debug().Str("package", name).Str("url", packageURL).Msg("fetching packument")

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, packageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("Accept", "application/json")

	if c.Options.AuthType == AuthTypeToken && c.Options.Token != "" {
		request.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.Options.Token))
	} else if c.Options.AuthType == AuthTypeBasic && c.Options.Username != "" {
		request.SetBasicAuth(c.Options.Username, c.Options.Password)
	}

	response, err := c.http.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", packageURL, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: packageURL, StatusCode: response.StatusCode}
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", packageURL, err)
	}

	packument := &Packument{}
	if err := easyjson.Unmarshal(body, packument); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := packument.validate(); err != nil {
		return nil, err
	}

	log.Trace().
		Str("package", name).
		Int("versions", len(packument.Versions)).
		Str("latest", packument.DistTags["latest"]).
		Msg("decoded packument")

	return packument, nil
}
