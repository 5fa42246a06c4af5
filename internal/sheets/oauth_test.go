package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestSaveAndLoadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	token := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, SaveToken(path, token))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, token.AccessToken, loaded.AccessToken)
	assert.Equal(t, token.RefreshToken, loaded.RefreshToken)
	assert.True(t, token.Expiry.Equal(loaded.Expiry))
}

func TestLoadTokenErrors(t *testing.T) {
	_, err := LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err = LoadToken(path)
	assert.Error(t, err)
}

func TestRefreshTokenIfNeededKeepsValidToken(t *testing.T) {
	token := &oauth2.Token{AccessToken: "still-good", Expiry: time.Now().Add(time.Hour)}

	got, err := RefreshTokenIfNeeded(context.Background(), OAuth2Config{}, token)
	require.NoError(t, err)
	assert.Same(t, token, got)
}

func TestSaveTokenReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")

	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "first"}))
	require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "second"}))

	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "second", loaded.AccessToken)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCode   string
		wantErr    string
	}{
		{name: "valid code", query: "state=s1&code=abc", wantStatus: http.StatusOK, wantCode: "abc"},
		{name: "wrong state", query: "state=other&code=abc", wantStatus: http.StatusBadRequest, wantErr: "unexpected state"},
		{name: "denied", query: "state=s1&error=access_denied", wantStatus: http.StatusBadRequest, wantErr: "access_denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newCallbackHandler("s1")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?"+tt.query, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)

			code, err := handler.wait(context.Background(), time.Second)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestCallbackHandlerWaitHonorsContext(t *testing.T) {
	handler := newCallbackHandler("s1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := handler.wait(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = handler.wait(context.Background(), time.Millisecond)
	assert.ErrorContains(t, err, "timed out")
}
