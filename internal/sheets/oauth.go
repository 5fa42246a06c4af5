package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

// DefaultCallbackAddr is where the consent flow listens for the redirect.
const DefaultCallbackAddr = "localhost:8080"

const authTimeout = 5 * time.Minute

// OAuth2Config identifies the OAuth client used to obtain a refresh token.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	TokenFile    string
	CallbackAddr string
}

func (c OAuth2Config) endpoint(redirectURL string) *oauth2.Config {
	return oauthConfig(c.ClientID, c.ClientSecret, redirectURL)
}

func oauthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       []string{sheets.SpreadsheetsScope},
	}
}

// callbackHandler receives the OAuth redirect and hands the code, or the
// reason there is none, to whoever is waiting. Only the first result counts.
type callbackHandler struct {
	codes chan string
	errs  chan error
	state string
}

func newCallbackHandler(state string) *callbackHandler {
	return &callbackHandler{
		state: state,
		codes: make(chan string, 1),
		errs:  make(chan error, 1),
	}
}

func (h *callbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")

	switch {
	case query.Get("state") != h.state:
		h.fail(errors.New("authorization callback carried an unexpected state"))
	case code == "":
		h.fail(fmt.Errorf("authorization denied: %s", query.Get("error")))
	default:
		select {
		case h.codes <- code:
		default:
		}
		_, _ = fmt.Fprint(w, "Authorized. You can close this window and return to the terminal.")
		return
	}
	http.Error(w, "Authorization failed. Please run 'ledger report auth' again.", http.StatusBadRequest)
}

func (h *callbackHandler) fail(err error) {
	select {
	case h.errs <- err:
	default:
	}
}

func (h *callbackHandler) wait(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case code := <-h.codes:
		return code, nil
	case err := <-h.errs:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", fmt.Errorf("authorization timed out after %s", timeout)
	}
}

// AuthenticateOAuth2Interactive prints a consent URL, waits for Google to
// redirect back to a local listener and exchanges the code for a token
// carrying a refresh token. The token is saved when TokenFile is set.
func AuthenticateOAuth2Interactive(ctx context.Context, config OAuth2Config) (*oauth2.Token, error) {
	addr := config.CallbackAddr
	if addr == "" {
		addr = DefaultCallbackAddr
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	handler := newCallbackHandler(uuid.NewString())
	mux := http.NewServeMux()
	mux.Handle("/callback", handler)

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			handler.fail(fmt.Errorf("callback server: %w", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Error shutting down callback server", "error", err)
		}
	}()

	cfg := config.endpoint(fmt.Sprintf("http://%s/callback", addr))
	slog.Info("Open this URL to authorize Google Sheets access",
		"url", cfg.AuthCodeURL(handler.state, oauth2.AccessTypeOffline, oauth2.ApprovalForce))

	code, err := handler.wait(ctx, authTimeout)
	if err != nil {
		return nil, err
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	persistToken(config.TokenFile, token)
	return token, nil
}

// LoadToken reads a token saved by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, err
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token %s: %w", path, err)
	}
	return &token, nil
}

// SaveToken writes token to path with owner-only permissions. The file is
// replaced atomically so a crash never leaves a truncated token behind.
func SaveToken(path string, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("failed to restrict token permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

func persistToken(path string, token *oauth2.Token) {
	if path == "" {
		return
	}
	if err := SaveToken(path, token); err != nil {
		slog.Warn("Failed to save token", "file", path, "error", err)
		return
	}
	slog.Info("Token saved", "file", path)
}

// RefreshTokenIfNeeded returns token unchanged while it is valid and
// otherwise exchanges its refresh token for a new one.
func RefreshTokenIfNeeded(ctx context.Context, config OAuth2Config, token *oauth2.Token) (*oauth2.Token, error) {
	if token.Valid() {
		return token, nil
	}

	fresh, err := config.endpoint("").TokenSource(ctx, token).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	persistToken(config.TokenFile, fresh)
	return fresh, nil
}

// GetOrCreateToken prefers the saved token and falls back to the consent
// flow when none can be read.
func GetOrCreateToken(ctx context.Context, config OAuth2Config) (*oauth2.Token, error) {
	if config.TokenFile != "" {
		token, err := LoadToken(config.TokenFile)
		if err == nil {
			return RefreshTokenIfNeeded(ctx, config, token)
		}
		slog.Info("No usable saved token, starting OAuth2 flow", "error", err)
	}

	return AuthenticateOAuth2Interactive(ctx, config)
}
