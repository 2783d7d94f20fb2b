// Command oauth-init runs the OAuth consent flow once and stores the token
// the worker uses to publish to Google Sheets.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"saa/internal/cli"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))

	b, err := clientCredentials()
	if err != nil {
		logger.Error("Missing OAuth client", "error", err)
		os.Exit(1)
	}

	cfg, err := google.ConfigFromJSON(b, sheets.SpreadsheetsScope)
	if err != nil {
		logger.Error("Invalid OAuth client", "error", err)
		os.Exit(1)
	}

	// The redirect URI must be listed on the OAuth client.
	redirectPort := os.Getenv("OAUTH_REDIRECT_PORT")
	if redirectPort == "" {
		redirectPort = "8085"
	}
	cfg.RedirectURL = "http://localhost:" + redirectPort + "/callback"

	state := uuid.NewString()
	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	srv := &http.Server{Addr: "localhost:" + redirectPort, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		if errStr := r.URL.Query().Get("error"); errStr != "" {
			http.Error(w, "OAuth error: "+errStr, http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Autorização concluída, pode fechar esta janela.")
		select {
		case codeCh <- r.URL.Query().Get("code"):
		default:
		}
	})
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Callback server failed", "error", err)
		}
	}()
	defer srv.Close()

	fmt.Printf("Open this URL to authorize:\n%s\n", cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var code string
	select {
	case code = <-codeCh:
	case <-time.After(5 * time.Minute):
		logger.Error("Authorization timed out")
		os.Exit(1)
	case <-ctx.Done():
		logger.Error("Interrupted")
		os.Exit(1)
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		logger.Error("Token exchange failed", "error", err)
		os.Exit(1)
	}

	outFile := os.Getenv("GOOGLE_OAUTH_TOKEN_FILE")
	if outFile == "" {
		outFile = "token.json"
	}
	if err := saveToken(outFile, tok); err != nil {
		logger.Error("Failed to save token", "error", err, "path", outFile)
		os.Exit(1)
	}
	logger.Info("Saved token", "path", outFile)

	if id := os.Getenv("GOOGLE_SPREADSHEET_ID"); id != "" {
		if err := checkAccess(ctx, cfg.TokenSource(ctx, tok), id); err != nil {
			logger.Warn("Token saved but the spreadsheet is not reachable", "error", err, "spreadsheet_id", id)
			return
		}
		logger.Info("Spreadsheet access verified", "spreadsheet_id", id)
	}
}

func clientCredentials() ([]byte, error) {
	if v := os.Getenv("GOOGLE_OAUTH_CLIENT_JSON"); v != "" {
		return []byte(v), nil
	}
	if path := os.Getenv("GOOGLE_OAUTH_CLIENT_FILE"); path != "" {
		return os.ReadFile(path)
	}
	return nil, fmt.Errorf("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// checkAccess reads the spreadsheet title with the new token.
func checkAccess(ctx context.Context, ts oauth2.TokenSource, spreadsheetID string) error {
	svc, err := sheets.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return err
	}
	_, err = svc.Spreadsheets.Get(spreadsheetID).Fields("properties.title").Context(ctx).Do()
	return err
}
