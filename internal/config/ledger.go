package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/period"
)

// Configuration keys.
const (
	KeyDatabasePath      = "database.path"
	KeyTimezone          = "ledger.timezone"
	KeyCurrency          = "ledger.currency"
	KeyDefaultCategories = "ledger.default_categories"
	KeyTenant            = "tenant"
	KeyLogLevel          = "logging.level"
	KeyLogFormat         = "logging.format"
)

// LedgerSettings is the resolved configuration of the ledger service.
type LedgerSettings struct {
	DatabasePath      string
	Timezone          string
	Currency          string
	Tenant            string
	DefaultCategories []model.CategorySeed
}

// SetDefaults registers the default value of every ledger key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, DefaultDatabasePath())
	v.SetDefault(KeyTimezone, period.DefaultTimezone)
	v.SetDefault(KeyCurrency, ledger.DefaultCurrency)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// LoadLedgerSettings reads and validates the ledger keys from v. Unset
// default_categories falls back to the built-in seed list.
func LoadLedgerSettings(v *viper.Viper) (*LedgerSettings, error) {
	settings := &LedgerSettings{
		DatabasePath: ExpandPath(strings.TrimSpace(v.GetString(KeyDatabasePath))),
		Timezone:     strings.TrimSpace(v.GetString(KeyTimezone)),
		Currency:     strings.ToUpper(strings.TrimSpace(v.GetString(KeyCurrency))),
		Tenant:       strings.TrimSpace(v.GetString(KeyTenant)),
	}

	if settings.DatabasePath == "" {
		settings.DatabasePath = DefaultDatabasePath()
	}
	if settings.Timezone == "" {
		settings.Timezone = period.DefaultTimezone
	}
	if _, err := time.LoadLocation(settings.Timezone); err != nil {
		return nil, fmt.Errorf("%w: %s %q: %w", common.ErrInvalidConfig, KeyTimezone, settings.Timezone, err)
	}

	if settings.Currency == "" {
		settings.Currency = ledger.DefaultCurrency
	}
	if !isCurrencyCode(settings.Currency) {
		return nil, fmt.Errorf("%w: %s %q is not a three-letter code", common.ErrInvalidConfig, KeyCurrency, settings.Currency)
	}

	seeds, err := loadSeeds(v)
	if err != nil {
		return nil, err
	}
	settings.DefaultCategories = seeds

	return settings, nil
}

func loadSeeds(v *viper.Viper) ([]model.CategorySeed, error) {
	if !v.IsSet(KeyDefaultCategories) {
		return model.DefaultCategorySeeds(), nil
	}

	var raw []model.CategorySeed
	if err := v.UnmarshalKey(KeyDefaultCategories, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrInvalidConfig, KeyDefaultCategories, err)
	}

	seeds := make([]model.CategorySeed, 0, len(raw))
	for i, seed := range raw {
		name := strings.TrimSpace(seed.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: %s[%d]: empty name", common.ErrInvalidConfig, KeyDefaultCategories, i)
		}
		kind, err := model.ParseCategoryKind(string(seed.Kind))
		if err != nil {
			return nil, fmt.Errorf("%w: %s[%d]: %w", common.ErrInvalidConfig, KeyDefaultCategories, i, err)
		}
		seeds = append(seeds, model.CategorySeed{Name: name, Kind: kind})
	}
	return seeds, nil
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("%w: %s: %w", common.ErrInvalidConfig, path, err)
		}
	}
	return nil
}
