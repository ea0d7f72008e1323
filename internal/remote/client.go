/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package remote talks to the backend REST API. Auth and search are
// synchronous; layout mutations go through the best-effort Sync queue.
// The session rides on a cookie jar, so every call shares credentials.
package remote

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Client is the HTTP client for the backend API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient normalizes the base URL and sets up a cookie-jar session.
func NewClient(baseURL string, timeout time.Duration, tlsInsecure bool) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	var transport http.RoundTripper
	if tlsInsecure {
		transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout, Jar: jar, Transport: transport},
	}, nil
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// APIError carries the server's error payload for surfacing to the user.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// doJSON issues a JSON request. Non-2xx responses become an *APIError
// with the server's "message" field when present.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, dest any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
		}
		if data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16)); err == nil {
			if json.Unmarshal(data, &payload) == nil {
				apiErr.Message = payload.Message
			}
		}
		return apiErr
	}
	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// SearchMatch is one hit from the contents search. TableName is the
// object's display name; ParentTableName is set when the object is
// nested inside another.
type SearchMatch struct {
	TableName       string `json:"table_name"`
	ParentTableName string `json:"parent_table_name,omitempty"`
}

// SearchContents queries the backend for objects whose stored rows match
// the given name and/or category.
func (c *Client) SearchContents(ctx context.Context, name, category string) ([]SearchMatch, error) {
	body := map[string]string{"name": name, "category": category}
	var out struct {
		Matches []SearchMatch `json:"matches"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/contents/search", body, &out); err != nil {
		return nil, err
	}
	return out.Matches, nil
}

// escapePath URL-encodes one path segment.
func escapePath(s string) string { return url.PathEscape(s) }
