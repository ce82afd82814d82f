package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RemoteConfig configures the HTTP file-sync client. Credentials follow the
// refresh-token flow: a long-lived refresh token is exchanged at TokenURL
// for a short-lived access token whenever a request comes back 401.
type RemoteConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	RefreshToken string
	Timeout      time.Duration
}

// RemoteStore is a Store talking to the file-sync service over HTTP.
// File content lives under {base}/files/{path}; listings under
// {base}/list/{dir} return a JSON array of FileInfo.
type RemoteStore struct {
	cfg    RemoteConfig
	client *http.Client
	log    zerolog.Logger

	mu          sync.Mutex
	accessToken string
}

// NewRemoteStore creates a remote store client.
func NewRemoteStore(cfg RemoteConfig, log zerolog.Logger) (*RemoteStore, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote store requires a base URL")
	}
	if cfg.TokenURL == "" || cfg.RefreshToken == "" {
		return nil, fmt.Errorf("remote store requires token endpoint and refresh token")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &RemoteStore{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		log:    log.With().Str("component", "remote-store").Logger(),
	}, nil
}

// refreshAccessToken exchanges the refresh token for a new access token.
func (s *RemoteStore) refreshAccessToken(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {s.cfg.RefreshToken},
		"client_id":     {s.cfg.ClientID},
		"client_secret": {s.cfg.ClientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("refresh access token: unexpected status %s", resp.Status)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token response contained no access token")
	}

	s.mu.Lock()
	s.accessToken = payload.AccessToken
	s.mu.Unlock()
	s.log.Debug().Msg("access token refreshed")
	return payload.AccessToken, nil
}

func (s *RemoteStore) token(ctx context.Context) (string, error) {
	s.mu.Lock()
	token := s.accessToken
	s.mu.Unlock()
	if token != "" {
		return token, nil
	}
	return s.refreshAccessToken(ctx)
}

// do performs an authenticated request, refreshing the access token once
// on a 401. The caller owns the response body.
func (s *RemoteStore) do(ctx context.Context, method, endpoint string, body io.Reader, getBody func() (io.Reader, error)) (*http.Response, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}

	build := func(token string, body io.Reader) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	}

	req, err := build(token, body)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && getBody != nil {
		resp.Body.Close()
		token, err = s.refreshAccessToken(ctx)
		if err != nil {
			return nil, err
		}
		retryBody, err := getBody()
		if err != nil {
			return nil, err
		}
		req, err = build(token, retryBody)
		if err != nil {
			return nil, err
		}
		resp, err = s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s (retry): %w", method, endpoint, err)
		}
	}
	return resp, nil
}

func (s *RemoteStore) fileURL(kind, path string) string {
	return strings.TrimSuffix(s.cfg.BaseURL, "/") + "/" + kind + "/" + strings.TrimPrefix(path, "/")
}

// List implements Store.
func (s *RemoteStore) List(ctx context.Context, dir string) ([]FileInfo, error) {
	resp, err := s.do(ctx, http.MethodGet, s.fileURL("list", dir), nil, func() (io.Reader, error) { return nil, nil })
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list %s: unexpected status %s", dir, resp.Status)
	}
	var files []FileInfo
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		return nil, fmt.Errorf("decode listing for %s: %w", dir, err)
	}
	return files, nil
}

// Download implements Store.
func (s *RemoteStore) Download(ctx context.Context, path string, w io.Writer) error {
	resp, err := s.do(ctx, http.MethodGet, s.fileURL("files", path), nil, func() (io.Reader, error) { return nil, nil })
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", path, resp.Status)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return fmt.Errorf("download %s: %w", path, err)
	}
	s.log.Info().Str("path", path).Int64("bytes", n).Msg("downloaded file")
	return nil
}

// Upload implements Store. The content is buffered so the request can be
// replayed after a token refresh.
func (s *RemoteStore) Upload(ctx context.Context, path string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read upload content for %s: %w", path, err)
	}

	resp, err := s.do(ctx, http.MethodPut, s.fileURL("files", path),
		strings.NewReader(string(data)),
		func() (io.Reader, error) { return strings.NewReader(string(data)), nil })
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("upload %s: unexpected status %s", path, resp.Status)
	}
	s.log.Info().Str("path", path).Int("bytes", len(data)).Msg("uploaded file")
	return nil
}
