// ABOUTME: HTTP implementations of the manager's collaborator interfaces
// ABOUTME: Token auth, server-info and account-info requests against the sync server API

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/driftsync/driftsync/internal/account"
	"github.com/driftsync/driftsync/internal/capsync"
	"github.com/driftsync/driftsync/internal/login"
)

// apiClient talks to the sync server's HTTP API. It implements both
// login.Authenticator (password for token) and capsync.CapabilityClient
// (server and account metadata).
type apiClient struct {
	http *http.Client
}

var (
	_ login.Authenticator      = (*apiClient)(nil)
	_ capsync.CapabilityClient = (*apiClient)(nil)
)

func newAPIClient() *apiClient {
	return &apiClient{
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) Authenticate(ctx context.Context, acct account.Account, password string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"username": acct.Username,
		"password": password,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		apiURL(acct.ServerURL, "/api2/auth-token/"), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth failed: %s", resp.Status)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("auth response carried no token")
	}
	return out.Token, nil
}

func (c *apiClient) FetchCapabilities(ctx context.Context, acct account.Account) (account.ServerInfo, account.AccountInfo, error) {
	var srv struct {
		Version     string   `json:"version"`
		Features    []string `json:"features"`
		CustomBrand string   `json:"custom-brand"`
		CustomLogo  string   `json:"custom-logo"`
	}
	if err := c.get(ctx, acct, "/api2/server-info/", &srv); err != nil {
		return account.ServerInfo{}, account.AccountInfo{}, fmt.Errorf("fetching server info: %w", err)
	}

	var usr struct {
		Total int64  `json:"total"`
		Usage int64  `json:"usage"`
		Name  string `json:"name"`
	}
	if err := c.get(ctx, acct, "/api2/account/info/", &usr); err != nil {
		return account.ServerInfo{}, account.AccountInfo{}, fmt.Errorf("fetching account info: %w", err)
	}

	info := account.ServerInfo{
		Version:     srv.Version,
		Features:    srv.Features,
		CustomBrand: srv.CustomBrand,
		CustomLogo:  srv.CustomLogo,
	}
	acctInfo := account.AccountInfo{
		TotalStorage: usr.Total,
		UsedStorage:  usr.Usage,
		Name:         usr.Name,
	}
	return info, acctInfo, nil
}

func (c *apiClient) get(ctx context.Context, acct account.Account, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL(acct.ServerURL, path), nil)
	if err != nil {
		return err
	}
	if acct.Token != "" {
		req.Header.Set("Authorization", "Token "+acct.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiURL(serverURL, path string) string {
	return strings.TrimRight(serverURL, "/") + path
}
