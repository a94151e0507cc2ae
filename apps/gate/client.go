package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/darasa/darasa/core/attendance"
	"github.com/darasa/darasa/core/gatekeeper"
)

// apiClient is the terminal's thin HTTP client against the Darasa API.
type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func newAPIClient(base string) *apiClient {
	return &apiClient{
		base: base,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

type (
	loginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	loginResponse struct {
		Token string `json:"token"`
	}
	gatekeeperProfile struct {
		gatekeeper.Gatekeeper
		OnDuty bool `json:"on_duty"`
	}
	apiError struct {
		Error json.RawMessage `json:"error"`
	}
)

func (c *apiClient) Login(ctx context.Context, username, password string) error {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/v1/users/login", loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

func (c *apiClient) Me(ctx context.Context) (gatekeeperProfile, error) {
	var profile gatekeeperProfile
	err := c.do(ctx, http.MethodGet, "/v1/gatekeepers/me", nil, &profile)
	return profile, err
}

func (c *apiClient) Verify(ctx context.Context, code string) (attendance.Verification, error) {
	var v attendance.Verification
	err := c.do(ctx, http.MethodPost, "/v1/attendance/verify", attendance.ScanRequest{StudentCode: code}, &v)
	return v, err
}

func (c *apiClient) RecordEntry(ctx context.Context, code string) (attendance.Entry, error) {
	var e attendance.Entry
	err := c.do(ctx, http.MethodPost, "/v1/attendance/entry", attendance.ScanRequest{StudentCode: code}, &e)
	return e, err
}

func (c *apiClient) RecordExit(ctx context.Context, code string) (attendance.Entry, error) {
	var e attendance.Entry
	err := c.do(ctx, http.MethodPost, "/v1/attendance/exit", attendance.ScanRequest{StudentCode: code}, &e)
	return e, err
}

func (c *apiClient) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return errors.Wrap(err, "encoding request payload")
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &body)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if err = json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && len(apiErr.Error) > 0 {
			return errors.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return errors.Errorf("%s %s: HTTP %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "decoding response")
}
