// Package platform is the typed client for the hosted school-management
// backend: REST reads/writes per entity, the realtime change feed, object
// storage and the auth boundary. Authorization decisions are made entirely
// by the platform; this client only attaches opaque credentials.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
)

// Credentials is the opaque credential pair attached to every call.
type Credentials interface {
	AnonKey() string
	AccessToken() string
}

type StaticCredentials struct {
	Key   string
	Token string
}

func (c StaticCredentials) AnonKey() string     { return c.Key }
func (c StaticCredentials) AccessToken() string { return c.Token }

// Client is the remote data gateway core shared by the per-entity gateways.
type Client struct {
	baseURL string
	http    *http.Client
	creds   Credentials
	log     core.Logger
}

func NewClient(conf *core.Config, creds Credentials, log core.Logger) *Client {
	timeout := conf.Platform.RequestTimeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(conf.Platform.URL, "/"),
		http:    &http.Client{Timeout: timeout},
		creds:   creds,
		log:     log,
	}
}

// WithCredentials returns a copy of the client using creds (e.g. after login).
func (c *Client) WithCredentials(creds Credentials) *Client {
	clone := *c
	clone.creds = creds
	return &clone
}

func (c *Client) get(ctx context.Context, p string, query url.Values, out interface{}) error {
	return c.send(ctx, http.MethodGet, p, query, nil, out)
}

func (c *Client) send(ctx context.Context, method, p string, query url.Values, body, out interface{}) error {
	u := c.baseURL + p
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "platform: encoding request body")
		}
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return errors.Wrap(err, "platform: building request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuth(req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return core.NewNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.errorFrom(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return core.NewNetworkError(errors.Wrap(err, "decoding response"))
	}
	return nil
}

func (c *Client) setAuth(h http.Header) {
	if key := c.creds.AnonKey(); key != "" {
		h.Set("apikey", key)
	}
	if tok := c.creds.AccessToken(); tok != "" {
		h.Set("Authorization", "Bearer "+tok)
	}
}

// errorFrom maps a platform error response onto the client error taxonomy:
// 401/403 policy denials, 404 missing resources, 400/409/422 validation
// failures (with field detail when the body carries it), 5xx transient.
func (c *Client) errorFrom(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	msg := strings.TrimSpace(string(raw))

	var payload map[string]string
	var flds []core.FieldError
	if json.Unmarshal(raw, &payload) == nil && len(payload) > 0 {
		if m, ok := payload["error"]; ok {
			msg = m
		} else if m, ok := payload["message"]; ok {
			msg = m
		} else {
			for fld, m := range payload {
				flds = append(flds, core.FieldError{Field: fld, Error: m})
			}
			msg = "validation failed"
		}
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return core.NewAuthorizationError(msg)
	case http.StatusNotFound:
		return core.NewNotFoundError(path.Base(resp.Request.URL.Path))
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return core.NewValidationError(errors.New(msg), flds...)
	}
	if resp.StatusCode >= 500 {
		return core.NewNetworkError(errors.Errorf("server error %d: %s", resp.StatusCode, msg))
	}
	return errors.Errorf("platform: unexpected status %d: %s", resp.StatusCode, msg)
}
