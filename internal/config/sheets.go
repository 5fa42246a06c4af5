package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/sheets"
)

// LoadSheetsConfig loads Google Sheets configuration with this precedence:
//  1. viper (config file or LEDGER_SHEETS_* env vars)
//  2. GOOGLE_SHEETS_* environment variables
//  3. defaults, with the timezone taken from ledger.timezone
func LoadSheetsConfig(v *viper.Viper) (*sheets.Config, error) {
	config := sheets.DefaultConfig()

	setString(v, "sheets.service_account_path", &config.ServiceAccountPath)
	setString(v, "sheets.client_id", &config.ClientID)
	setString(v, "sheets.client_secret", &config.ClientSecret)
	setString(v, "sheets.refresh_token", &config.RefreshToken)
	setString(v, "sheets.spreadsheet_id", &config.SpreadsheetID)
	setString(v, "sheets.spreadsheet_name", &config.SpreadsheetName)
	setString(v, "sheets.sheet_name", &config.SheetName)

	if tz := v.GetString("sheets.timezone"); tz != "" {
		config.TimeZone = tz
	} else if tz := v.GetString(KeyTimezone); tz != "" {
		config.TimeZone = tz
	}
	if v.IsSet("sheets.batch_size") {
		config.BatchSize = v.GetInt("sheets.batch_size")
	}
	if v.IsSet("sheets.retry_attempts") {
		config.RetryAttempts = v.GetInt("sheets.retry_attempts")
	}
	if v.IsSet("sheets.retry_delay") {
		config.RetryDelay = v.GetDuration("sheets.retry_delay")
	}
	if v.IsSet("sheets.enable_formatting") {
		config.EnableFormatting = v.GetBool("sheets.enable_formatting")
	}

	fallbackEnv(&config.ServiceAccountPath, "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH")
	fallbackEnv(&config.ClientID, "GOOGLE_SHEETS_CLIENT_ID")
	fallbackEnv(&config.ClientSecret, "GOOGLE_SHEETS_CLIENT_SECRET")
	fallbackEnv(&config.RefreshToken, "GOOGLE_SHEETS_REFRESH_TOKEN")
	fallbackEnv(&config.SpreadsheetID, "GOOGLE_SHEETS_SPREADSHEET_ID")
	if !v.IsSet("sheets.spreadsheet_name") {
		if name := os.Getenv("GOOGLE_SHEETS_SPREADSHEET_NAME"); name != "" {
			config.SpreadsheetName = name
		}
	}

	config.ServiceAccountPath = ExpandPath(config.ServiceAccountPath)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// TokenFile is where the interactive OAuth flow stores its token.
func TokenFile(v *viper.Viper) string {
	if path := v.GetString("sheets.token_file"); path != "" {
		return ExpandPath(path)
	}
	return filepath.Join(ConfigDir(), "sheets-token.json")
}

func setString(v *viper.Viper, key string, dst *string) {
	if s := v.GetString(key); s != "" {
		*dst = s
	}
}

func fallbackEnv(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}

