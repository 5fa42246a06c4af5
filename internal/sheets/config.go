// Package sheets publishes ledger reports to Google Sheets.
package sheets

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/Veraticus/spice-ledger/internal/common"
)

// Config holds the credentials and write settings for a Writer. Exactly one
// of service account or OAuth2 refresh-token authentication must be set.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	SheetName          string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
	EnableFormatting   bool
}

// DefaultConfig returns a Config without credentials.
func DefaultConfig() Config {
	return Config{
		SpreadsheetName:  "Ledger Report",
		SheetName:        "Report",
		EnableFormatting: true,
		TimeZone:         "Asia/Bangkok",
		BatchSize:        1000,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
	}
}

// Validate checks that exactly one authentication method is configured and
// that the batching, retry, and timezone settings are usable.
func (c *Config) Validate() error {
	hasOAuth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
	hasServiceAccount := c.ServiceAccountPath != ""

	switch {
	case !hasOAuth && !hasServiceAccount:
		return fmt.Errorf("%w: no authentication method configured: set a service account path or OAuth2 client id, secret, and refresh token", common.ErrMissingConfig)
	case hasOAuth && hasServiceAccount:
		return fmt.Errorf("%w: multiple authentication methods configured; use either OAuth2 or service account", common.ErrInvalidConfig)
	}

	checks := []struct {
		bad bool
		msg string
	}{
		{c.BatchSize <= 0, "batch size must be positive"},
		{c.RetryAttempts < 0, "retry attempts cannot be negative"},
		{c.RetryDelay < 0, "retry delay cannot be negative"},
	}
	for _, check := range checks {
		if check.bad {
			return fmt.Errorf("%w: %s", common.ErrInvalidConfig, check.msg)
		}
	}

	if c.TimeZone != "" {
		if _, err := time.LoadLocation(c.TimeZone); err != nil {
			return fmt.Errorf("%w: timezone %q: %w", common.ErrInvalidConfig, c.TimeZone, err)
		}
	}
	return nil
}

func (c *Config) retryOptions() common.RetryOptions {
	return common.RetryOptions{
		MaxAttempts:  c.RetryAttempts + 1,
		InitialDelay: c.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Retryable:    isTransient,
	}
}

// isTransient reports whether a failed API call may succeed when repeated:
// rate limits, server errors, and failures that never got an HTTP response.
func isTransient(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return !errors.Is(err, common.ErrInvalidInput) && !errors.Is(err, common.ErrInvalidConfig)
}

func (c *Config) sheetName() string {
	if c.SheetName == "" {
		return "Report"
	}
	return c.SheetName
}
