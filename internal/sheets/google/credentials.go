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

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Credentials selects how the publisher authenticates. A service account
// takes precedence over an OAuth client and token pair.
type Credentials struct {
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientJSON    string
	OAuthClientFile    string
	OAuthTokenJSON     string
	OAuthTokenFile     string
}

var jsonUnmarshal = json.Unmarshal

func readInlineOrFile(inline, file string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if f := strings.TrimSpace(file); f != "" {
		return os.ReadFile(f)
	}
	return nil, nil
}

// newSheetsService initializes a Sheets service from the given credentials.
func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	saJSON, err := readInlineOrFile(creds.ServiceAccountJSON, creds.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	if saJSON != nil {
		slog.InfoContext(ctx, "Creating Google Sheets service with service account",
			"credentials_size", len(saJSON))
		svc, err := gsheet.NewService(ctx,
			goption.WithCredentialsJSON(saJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope),
			goption.WithHTTPClient(newHTTPClientWithPooling()))
		if err != nil {
			return nil, fmt.Errorf("create sheets service: %w", err)
		}
		return svc, nil
	}

	clientJSON, err := readInlineOrFile(creds.OAuthClientJSON, creds.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client file: %w", err)
	}
	if clientJSON == nil {
		return nil, errors.New("missing oauth client (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
	}
	cfg, err := goauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}

	tokenJSON, err := readInlineOrFile(creds.OAuthTokenJSON, creds.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth token file: %w", err)
	}
	if tokenJSON == nil {
		return nil, errors.New("missing oauth token (set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE)")
	}
	var tok oauth2.Token
	if err := jsonUnmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}

	// the pooled transport carries the oauth2 round tripper
	base := context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(cfg.Client(base, &tok)))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created with OAuth token")
	return svc, nil
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API with
// connection pooling and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
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
