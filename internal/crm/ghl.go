// Package crm updates contact ownership in GoHighLevel after the router
// assigns a lead.
package crm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leadops_backend/platform/config"

	json "github.com/goccy/go-json"
)

const apiVersion = "2021-07-28"

// Reasons reported when an owner update is not attempted or fails.
const (
	ReasonMissingConfig = "missing_ghl_config_or_ids"
	ReasonUpdateFailed  = "ghl_update_failed"
)

// UpdateResult describes the outcome of an owner update.
type UpdateResult struct {
	OK     bool   `json:"ok"`
	URL    string `json:"url,omitempty"`
	Status int    `json:"status,omitempty"`
	Reason string `json:"reason,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Client is a minimal GHL contacts client.
type Client struct {
	apiKey     string
	baseURLs   []string
	userIDs    map[string]string
	fallbackID string
	http       *http.Client
}

// NewClient builds a client from configuration. Base URLs are tried in the
// configured order.
func NewClient(cfg config.CRMConfig) *Client {
	bases := make([]string, 0, len(cfg.GetGHLBaseURLs()))
	for _, b := range cfg.GetGHLBaseURLs() {
		if b = strings.TrimRight(strings.TrimSpace(b), "/"); b != "" {
			bases = append(bases, b)
		}
	}
	return &Client{
		apiKey:     strings.TrimSpace(cfg.GetGHLAPIKey()),
		baseURLs:   bases,
		userIDs:    cfg.GetGHLUserIDMap(),
		fallbackID: strings.TrimSpace(cfg.GetGHLFallbackUserID()),
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

// UserIDFor maps an owner name to a GHL user id, falling back to the
// configured default user.
func (c *Client) UserIDFor(ownerName string) string {
	if id := strings.TrimSpace(c.userIDs[strings.TrimSpace(ownerName)]); id != "" {
		return id
	}
	return c.fallbackID
}

// UpdateContactOwner sets assignedTo on a contact. Every base URL is tried
// with the current and the legacy v1 path until one succeeds. Failures are
// reported in the result, not as an error, so callers can return them to
// the webhook sender.
func (c *Client) UpdateContactOwner(ctx context.Context, contactID, userID string) UpdateResult {
	contactID = strings.TrimSpace(contactID)
	userID = strings.TrimSpace(userID)
	if c.apiKey == "" || contactID == "" || userID == "" {
		return UpdateResult{Reason: ReasonMissingConfig}
	}

	body, err := json.Marshal(map[string]string{"assignedTo": userID})
	if err != nil {
		return UpdateResult{Reason: ReasonUpdateFailed, Detail: err.Error()}
	}

	escaped := url.PathEscape(contactID)
	paths := []string{"/contacts/" + escaped, "/v1/contacts/" + escaped}

	lastError := "no base urls configured"
	for _, base := range c.baseURLs {
		for _, path := range paths {
			target := base + path
			status, err := c.put(ctx, target, body)
			if err == nil {
				return UpdateResult{OK: true, URL: target, Status: status}
			}
			lastError = fmt.Sprintf("%s -> %v", target, err)
			if ctx.Err() != nil {
				return UpdateResult{Reason: ReasonUpdateFailed, Detail: lastError}
			}
		}
	}
	return UpdateResult{Reason: ReasonUpdateFailed, Detail: lastError}
}

func (c *Client) put(ctx context.Context, target string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Version", apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return resp.StatusCode, fmt.Errorf("status %d %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return resp.StatusCode, nil
}
