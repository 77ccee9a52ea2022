package screenscraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/franz/retro-scraper/internal/metrics"
	"github.com/franz/retro-scraper/internal/util"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
)

const (
	// BaseURL is the Screenscraper API v2 base URL
	BaseURL = "https://api.screenscraper.fr/api2"

	// DefaultSoftName identifies this application to Screenscraper
	DefaultSoftName = "retro-scraper"

	// DefaultGameListURL is the static per-system CSV export; {id} is replaced by the system id
	DefaultGameListURL = "https://www.screenscraper.fr/exports/jeux_systeme_{id}.csv"

	// DefaultTimeout applies to every request, bulk exports included
	DefaultTimeout = 30 * time.Second

	maxBodySize = 32 << 20
)

// Config holds client configuration
type Config struct {
	BaseURL         string
	DevID           string
	DevPassword     string
	UserID          string // optional, raises quota
	UserPassword    string
	SoftName        string
	Timeout         time.Duration
	MinInterval     time.Duration
	GameListURL     string
	BreakerFailures uint32 // consecutive transient failures before the breaker opens; 0 disables

	HTTPClient *http.Client
	Limiter    Limiter
}

// Client handles Screenscraper API requests with rate limiting
type Client struct {
	httpClient  *http.Client
	limiter     Limiter
	breaker     *gobreaker.CircuitBreaker[*response]
	baseURL     string
	gameListURL string
	softName    string
	devID       string
	devPassword string
	userID      string
	userPass    string
}

type response struct {
	body        []byte
	contentType string
}

// NewClient creates a new Screenscraper API client
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.DevID == "" || cfg.DevPassword == "" {
		return nil, util.ErrMissingCredentials
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.SoftName == "" {
		cfg.SoftName = DefaultSoftName
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.GameListURL == "" {
		cfg.GameListURL = DefaultGameListURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Limiter == nil {
		interval := cfg.MinInterval
		if interval == 0 {
			interval = DefaultMinInterval
		}
		cfg.Limiter = NewIntervalLimiter(interval)
	}

	c := &Client{
		httpClient:  cfg.HTTPClient,
		limiter:     cfg.Limiter,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		gameListURL: cfg.GameListURL,
		softName:    cfg.SoftName,
		devID:       cfg.DevID,
		devPassword: cfg.DevPassword,
		userID:      cfg.UserID,
		userPass:    cfg.UserPassword,
	}

	if cfg.BreakerFailures > 0 {
		threshold := cfg.BreakerFailures
		c.breaker = gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
			Name:        "screenscraper",
			MaxRequests: 1,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			// Only transient failures count against the upstream
			IsSuccessful: func(err error) bool {
				return err == nil || !util.IsRetryableError(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				util.WarnLog("Circuit breaker %s: %s -> %s", name, from, to)
			},
		})
	}

	return c, nil
}

// GameInfo fetches one game. systemID may be 0 when unknown.
func (c *Client) GameInfo(ctx context.Context, gameID, systemID int64) (*Game, error) {
	params := url.Values{}
	params.Set("gameid", strconv.FormatInt(gameID, 10))
	if systemID > 0 {
		params.Set("systemeid", strconv.FormatInt(systemID, 10))
	}

	var result gameInfoResponse
	if err := c.getJSON(ctx, "jeuInfos.php", params, &result); err != nil {
		return nil, fmt.Errorf("game %d: %w", gameID, err)
	}
	if result.Response.Game == nil {
		return nil, fmt.Errorf("game %d: %w", gameID, util.ErrNotFound)
	}
	return result.Response.Game, nil
}

// SearchGames runs a name search, optionally scoped to a system
func (c *Client) SearchGames(ctx context.Context, name string, systemID int64) ([]GameSummary, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("search name cannot be empty")
	}
	params := url.Values{}
	params.Set("recherche", name)
	if systemID > 0 {
		params.Set("systemeid", strconv.FormatInt(systemID, 10))
	}

	var result searchResponse
	if err := c.getJSON(ctx, "jeuRecherche.php", params, &result); err != nil {
		return nil, err
	}
	return result.Response.Games, nil
}

// Systems fetches the full system list
func (c *Client) Systems(ctx context.Context) ([]System, error) {
	var result systemsResponse
	if err := c.getJSON(ctx, "systemesListe.php", url.Values{}, &result); err != nil {
		return nil, err
	}
	return result.Response.Systems, nil
}

// System returns one system from the system list
func (c *Client) System(ctx context.Context, id int64) (*System, error) {
	systems, err := c.Systems(ctx)
	if err != nil {
		return nil, err
	}
	for i := range systems {
		if rawInt(systems[i].ID) == id {
			return &systems[i], nil
		}
	}
	return nil, fmt.Errorf("system %d: %w", id, util.ErrNotFound)
}

// GameList downloads the static CSV export for a system and returns its game ids
func (c *Client) GameList(ctx context.Context, systemID int64) ([]int64, error) {
	rawURL := strings.ReplaceAll(c.gameListURL, "{id}", strconv.FormatInt(systemID, 10))

	resp, err := c.fetch(ctx, "gamelist", rawURL)
	if err != nil {
		return nil, fmt.Errorf("system %d game list: %w", systemID, err)
	}

	ids, err := parseGameList(bytes.NewReader(resp.body))
	if err != nil {
		return nil, fmt.Errorf("system %d game list: %w", systemID, err)
	}
	util.DebugLog("System %d game list: %d ids", systemID, len(ids))
	return ids, nil
}

// Genres fetches the genre reference list
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	var result genresResponse
	if err := c.getJSON(ctx, "genresListe.php", url.Values{}, &result); err != nil {
		return nil, err
	}
	return result.Response.Genres, nil
}

// CompanyLogoURL probes the company logo endpoint and returns a public,
// credential-free URL when a logo exists, or "" when there is none
func (c *Client) CompanyLogoURL(ctx context.Context, companyID int64) (string, error) {
	params := url.Values{}
	params.Set("companyid", strconv.FormatInt(companyID, 10))
	params.Set("media", "logo-monochrome")

	resp, err := c.fetch(ctx, "mediaCompagnie.php", c.endpointURL("mediaCompagnie.php", params, true))
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	if !strings.HasPrefix(resp.contentType, "image/") {
		// Text answers such as NOMEDIA mean no logo on file
		util.DebugLog("Company %d has no logo: %s", companyID, strings.TrimSpace(string(resp.body)))
		return "", nil
	}
	return c.endpointURL("mediaCompagnie.php", params, false), nil
}

// endpointURL builds an API URL; withAuth controls whether credentials are included
func (c *Client) endpointURL(endpoint string, params url.Values, withAuth bool) string {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	if withAuth {
		q.Set("devid", c.devID)
		q.Set("devpassword", c.devPassword)
		q.Set("softname", c.softName)
		if c.userID != "" {
			q.Set("ssid", c.userID)
			q.Set("sspassword", c.userPass)
		}
	}
	q.Set("output", "json")
	return c.baseURL + "/" + endpoint + "?" + q.Encode()
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	resp, err := c.fetch(ctx, endpoint, c.endpointURL(endpoint, params, true))
	if err != nil {
		return err
	}
	body := bytes.TrimSpace(resp.body)
	if len(body) == 0 || body[0] != '{' {
		// Upstream reports lookup failures as plain text with a 200 status
		return textError(endpoint, body)
	}

	var envelope struct {
		Header Header `json:"header"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Header.Error != "" {
		return fmt.Errorf("%s: upstream error: %s", endpoint, envelope.Header.Error)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", endpoint, err)
	}
	return nil
}

func textError(endpoint string, body []byte) error {
	msg := strings.TrimSpace(string(body))
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "non trouv"), strings.Contains(lower, "not found"):
		return fmt.Errorf("%s: %s: %w", endpoint, msg, util.ErrNotFound)
	case strings.Contains(lower, "quota"), strings.Contains(lower, "maximum"):
		return fmt.Errorf("%s: %s: %w", endpoint, msg, util.ErrQuotaExceeded)
	case strings.Contains(lower, "identifiants"), strings.Contains(lower, "login"):
		return fmt.Errorf("%s: %s: %w", endpoint, msg, util.ErrUnauthorized)
	}
	if msg == "" {
		msg = "empty response"
	}
	return fmt.Errorf("%s: unexpected response: %s", endpoint, msg)
}

// rawInt reads an id that may be encoded as a number or a quoted number
func rawInt(raw json.RawMessage) int64 {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// fetch waits for the rate limiter, then performs the request through the breaker
func (c *Client) fetch(ctx context.Context, endpoint, rawURL string) (*response, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("%s: rate limiter: %w", endpoint, err)
	}

	util.DebugLog("Screenscraper API: GET %s", RedactURL(rawURL))

	do := func() (*response, error) {
		return c.do(ctx, endpoint, rawURL)
	}
	if c.breaker == nil {
		return do()
	}
	resp, err := c.breaker.Execute(do)
	if err != nil && (errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)) {
		return nil, fmt.Errorf("%s: upstream unavailable: %w", endpoint, err)
	}
	return resp, err
}

func (c *Client) do(ctx context.Context, endpoint, rawURL string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.softName)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, 0, time.Since(started))
		return nil, fmt.Errorf("%s: failed to execute request: %w", endpoint, err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(endpoint, resp.StatusCode, time.Since(started))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(endpoint, resp.StatusCode, body)
	}

	return &response{body: body, contentType: resp.Header.Get("Content-Type")}, nil
}

// RedactURL hides credentials in a request URL for logging
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	for _, key := range []string{"devpassword", "sspassword"} {
		if q.Has(key) {
			q.Set(key, "***")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
