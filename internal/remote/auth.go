/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package remote

import (
	"context"
	"errors"
	"net/http"
)

// User identifies the authenticated account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Auth errors surface the server's message payload; everything else in
// this package is best-effort. These fallbacks cover servers that reply
// without a message body.
var (
	ErrLoginFailed    = errors.New("login failed")
	ErrRegisterFailed = errors.New("registration failed")
)

type userEnvelope struct {
	User *User `json:"user"`
}

// Me returns the current session's user, or an error when
// unauthenticated.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var env userEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &env); err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, errors.New("not authenticated")
	}
	return env.User, nil
}

// Login authenticates and establishes the session cookie. Server
// rejections surface the server's message, or ErrLoginFailed without one.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	body := map[string]string{"username": username, "password": password}
	var env userEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &env); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Message == "" {
			return nil, ErrLoginFailed
		}
		return nil, err
	}
	if env.User == nil {
		return nil, ErrLoginFailed
	}
	return env.User, nil
}

// Register creates an account. Server rejections surface the server's
// message, or ErrRegisterFailed without one.
func (c *Client) Register(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", body, nil); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Message == "" {
			return ErrRegisterFailed
		}
		return err
	}
	return nil
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}
