package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const successCode = 200

// Client calls the upstream game-data API.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: httpClient}
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// FetchRoleList returns the account roster.
func (c *Client) FetchRoleList(ctx context.Context, uid, credential string) (*RoleList, error) {
	form := url.Values{
		"gameId":   {c.cfg.GameID},
		"serverId": {c.cfg.ServerID},
		"roleId":   {uid},
	}
	data, err := c.post(ctx, c.cfg.RoleListPath, credential, form, "")
	if err != nil {
		return nil, err
	}

	var list RoleList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: role list: %v", ErrMalformedResponse, err)
	}
	return &list, nil
}

// FetchCharacter returns one character's raw detail blob.
func (c *Client) FetchCharacter(ctx context.Context, roleID, uid, credential string) (map[string]any, error) {
	form := url.Values{
		"gameId":   {c.cfg.GameID},
		"serverId": {c.cfg.ServerID},
		"roleId":   {uid},
		"id":       {roleID},
	}
	data, err := c.post(ctx, c.cfg.RoleDetailPath, credential, form, roleID)
	if err != nil {
		return nil, err
	}

	var blob map[string]any
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("%w: role %s: %v", ErrMalformedResponse, roleID, err)
	}
	return blob, nil
}

func (c *Client) post(ctx context.Context, path, credential string, form url.Values, roleID string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")
	req.Header.Set("token", credential)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("upstream read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Failure{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode), RoleID: roleID}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if env.Code != successCode {
		return nil, &Failure{
			Code:    env.Code,
			Message: env.Msg,
			RoleID:  roleID,
			invalid: env.Code == c.cfg.InvalidCredentialCode,
		}
	}

	return unwrapData(env.Data)
}

// unwrapData handles payloads delivered either as an object or as a
// JSON-encoded string.
func unwrapData(data json.RawMessage) (json.RawMessage, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, fmt.Errorf("%w: empty data", ErrMalformedResponse)
	}
	if data[0] != '"' {
		return data, nil
	}
	var inner string
	if err := json.Unmarshal(data, &inner); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return json.RawMessage(inner), nil
}
