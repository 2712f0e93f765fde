// Package quay is a minimal client for the Quay.io repository API.
// See https://docs.quay.io/api/swagger/.
package quay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"
)

const (
	TokenEnv       = "QUAY_APIKEY"
	DefaultBaseURL = "https://quay.io"
	DefaultOrg     = "osd-addons"
)

// DefaultBackoff retries a failing call five times over roughly eight seconds.
var DefaultBackoff = wait.Backoff{
	Steps:    5,
	Duration: 500 * time.Millisecond,
	Factor:   2.0,
	Jitter:   0.1,
}

// APIError is a non-2xx response of the Quay API.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("error %s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

type Client struct {
	org        string
	token      string
	baseURL    string
	httpClient *http.Client
	backoff    wait.Backoff
	logger     *logrus.Entry
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithBackoff(backoff wait.Backoff) Option {
	return func(c *Client) {
		c.backoff = backoff
	}
}

func WithLogger(logger *logrus.Entry) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient returns a client acting on repositories of org.
func NewClient(org, token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, errors.New("invalid empty quay api token")
	}
	if org == "" {
		org = DefaultOrg
	}

	c := &Client{
		org:        org,
		token:      token,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		backoff:    DefaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	c.logger = c.logger.WithField("org", c.org)
	return c, nil
}

// NewClientFromEnv reads the token from QUAY_APIKEY.
func NewClientFromEnv(org string, opts ...Option) (*Client, error) {
	token, ok := os.LookupEnv(TokenEnv)
	if !ok {
		return nil, fmt.Errorf("%s is not set", TokenEnv)
	}
	if token == "" {
		return nil, fmt.Errorf("invalid empty %s environment variable", TokenEnv)
	}
	return NewClient(org, token, opts...)
}

// Org returns the organisation the client manages repositories in.
func (c *Client) Org() string {
	return c.org
}

// RepoExists reports whether org/name exists.
func (c *Client) RepoExists(ctx context.Context, name string) (bool, error) {
	query := url.Values{}
	query.Set("includeTags", "false")
	query.Set("includeStats", "false")

	status, err := c.do(ctx, http.MethodGet, "/api/v1/repository/"+c.org+"/"+name, query, nil, http.StatusNotFound)
	if err != nil {
		return false, err
	}
	return status >= 200 && status < 300, nil
}

type createRepoRequest struct {
	RepoKind    string `json:"repo_kind"`
	Namespace   string `json:"namespace"`
	Visibility  string `json:"visibility"`
	Repository  string `json:"repository"`
	Description string `json:"description"`
}

// CreateRepo creates the public image repository org/name.
func (c *Client) CreateRepo(ctx context.Context, name string) error {
	body := createRepoRequest{
		RepoKind:    "image",
		Namespace:   c.org,
		Visibility:  "public",
		Repository:  name,
		Description: "",
	}
	_, err := c.do(ctx, http.MethodPost, "/api/v1/repository", nil, body)
	return err
}

// EnsureRepo creates org/name unless it already exists. Robot accounts get
// write access to new repositories automatically.
func (c *Client) EnsureRepo(ctx context.Context, name string) error {
	logger := c.logger.WithField("repository", name)

	exists, err := c.RepoExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		logger.Debug("quay repository already exists")
		return nil
	}

	logger.Info("creating quay repository")
	return c.CreateRepo(ctx, name)
}

// do sends a request, retrying on transport errors and 5xx responses.
// Statuses listed in allowed are returned without error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, allowed ...int) (int, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return 0, err
		}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var status int
	err := retry.OnError(c.backoff, retriable, func() error {
		req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.WithError(err).Debugf("%s %s failed", method, u)
			return err
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		status = resp.StatusCode
		c.logger.WithField("status", status).Debugf("%s %s", method, u)

		if status >= 200 && status < 300 {
			return nil
		}
		for _, code := range allowed {
			if status == code {
				return nil
			}
		}
		return &APIError{Method: method, URL: u, StatusCode: status, Body: string(respBody)}
	})
	return status, err
}

func retriable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return true
}
