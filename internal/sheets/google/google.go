// Package google exports note rollups to a Google Sheets tab.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	ports "rizesync/internal/sheets"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var (
	ErrMissingSpreadsheetID = errors.New("missing spreadsheet id")
	ErrNoCredentials        = errors.New("missing Google credentials (set a service account or an OAuth client and token)")
	ErrNotInitialized       = errors.New("sheets service not initialized")
)

// Config selects the target sheet and the credentials. A service account
// takes precedence over an OAuth client plus token.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientFile    string
	OAuthTokenFile     string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var _ ports.MetricsExporter = (*Client)(nil)

// New creates a Sheets client for cfg.
func New(ctx context.Context, cfg Config) (*Client, error) {
	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, ErrMissingSpreadsheetID
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, id, cfg.SheetName), nil
}

// NewWithService wraps an existing service. An empty sheet name selects
// "Rize".
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Rize"
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	saJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	saFile := strings.TrimSpace(cfg.ServiceAccountFile)

	switch {
	case saJSON != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		return newServiceAccountService(ctx, []byte(saJSON))
	case saFile != "":
		slog.DebugContext(ctx, "Reading service account credentials", "path", saFile)
		b, err := os.ReadFile(saFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return newServiceAccountService(ctx, b)
	case cfg.OAuthClientFile != "" && cfg.OAuthTokenFile != "":
		return newOAuthService(ctx, cfg.OAuthClientFile, cfg.OAuthTokenFile)
	}
	return nil, ErrNoCredentials
}

func newServiceAccountService(ctx context.Context, credentialsJSON []byte) (*gsheet.Service, error) {
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// newOAuthService authenticates with a user token minted by oauth-init.
func newOAuthService(ctx context.Context, clientFile, tokenFile string) (*gsheet.Service, error) {
	clientJSON, err := os.ReadFile(clientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client file: %w", err)
	}
	conf, err := OAuthConfig(clientJSON, "")
	if err != nil {
		return nil, err
	}
	tok, err := readToken(tokenFile)
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(conf.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// OAuthConfig builds the Sheets OAuth client configuration from a client
// secret JSON document.
func OAuthConfig(clientJSON []byte, redirectURL string) (*oauth2.Config, error) {
	conf, err := goauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	if redirectURL != "" {
		conf.RedirectURL = redirectURL
	}
	return conf, nil
}

// SaveToken writes tok to path, readable by the owner only.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}

func readToken(path string) (*oauth2.Token, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read oauth token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("decode oauth token: %w", err)
	}
	return &tok, nil
}

// newHTTPClientWithPooling is the transport used under the OAuth token
// source.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// Upsert rewrites the row whose columns A and B hold row.Kind and row.Key,
// or appends one. An empty sheet gets the header row first.
func (c *Client) Upsert(ctx context.Context, row ports.MetricsRow) (string, error) {
	if c.svc == nil {
		return "", ErrNotInitialized
	}

	keys := fmt.Sprintf("%s!A:B", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, keys).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", keys, err)
	}
	values := resp.Values

	if len(values) == 0 {
		if err := c.write(ctx, 1, headerValues()); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
		values = [][]interface{}{headerValues()}
	} else if !hasHeader(values) {
		slog.WarnContext(ctx, "Export sheet has no header row", "sheet", c.sheetName)
	}

	n := findRow(values, row.Kind, row.Key)
	if n == 0 {
		n = len(values) + 1
	}
	if err := c.write(ctx, n, rowValues(row)); err != nil {
		return "", err
	}

	ref := rowRange(c.sheetName, n)
	slog.DebugContext(ctx, "Exported note metrics", "kind", row.Kind, "key", row.Key, "ref", ref)
	return ref, nil
}

func (c *Client) write(ctx context.Context, row int, cells []interface{}) error {
	rng := rowRange(c.sheetName, row)
	vr := &gsheet.ValueRange{Values: [][]interface{}{cells}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}
