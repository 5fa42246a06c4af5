package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/period"
	"github.com/Veraticus/spice-ledger/internal/storage"
)

// app is the wiring shared by every command: settings, store and service.
type app struct {
	settings *config.LedgerSettings
	store    *storage.SQLiteStorage
	svc      *ledger.Service
}

// openApp opens and migrates the configured database and builds the service.
func openApp(ctx context.Context) (*app, error) {
	settings, err := config.LoadLedgerSettings(viper.GetViper())
	if err != nil {
		return nil, err
	}

	store, err := initStorage(ctx, settings.DatabasePath)
	if err != nil {
		return nil, err
	}

	resolver, err := period.NewResolver(settings.Timezone)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	svc := ledger.New(store, resolver,
		ledger.WithCurrency(settings.Currency),
		ledger.WithDefaultCategories(settings.DefaultCategories))

	return &app{settings: settings, store: store, svc: svc}, nil
}

// initStorage opens the database and applies pending migrations.
func initStorage(ctx context.Context, dbPath string) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

// tenant resolves the --tenant flag (or the tenant config key). With no
// tenant configured, a ledger holding exactly one tenant uses that one.
func (a *app) tenant(ctx context.Context) (*model.Tenant, error) {
	ref := strings.TrimSpace(viper.GetString(config.KeyTenant))
	if ref != "" {
		return a.svc.ResolveTenant(ctx, ref)
	}

	tenants, err := a.svc.ListTenants(ctx)
	if err != nil {
		return nil, err
	}
	switch len(tenants) {
	case 0:
		return nil, common.NewUserError("no tenants yet; create one with 'ledger tenant create <name>'",
			fmt.Errorf("%w: tenant", common.ErrMissingField))
	case 1:
		return &tenants[0], nil
	default:
		return nil, common.NewUserError("several tenants exist; select one with --tenant",
			fmt.Errorf("%w: tenant", common.ErrMissingField))
	}
}

// withTenant opens the app, resolves the tenant and runs fn.
func withTenant(cmd *cobra.Command, fn func(ctx context.Context, a *app, tenant *model.Tenant) error) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	tenant, err := a.tenant(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, a, tenant)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", common.ErrInvalidInput, arg)
	}
	return id, nil
}

// resolveCategory accepts a category id or an exact name.
func resolveCategory(ctx context.Context, a *app, tenantID, ref string) (int64, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return id, nil
	}

	categories, err := a.svc.ListCategories(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	for _, category := range categories {
		if category.Name == ref {
			return category.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: no category named %q", common.ErrInvalidCategory, ref)
}

// outputFormat validates a --format flag value.
func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "table", "json":
		return format, nil
	default:
		return "", fmt.Errorf("%w: format %q (want table or json)", common.ErrInvalidInput, format)
	}
}

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().String("format", "table", "output format (table, json)")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func addWindowFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "start date (YYYY-MM-DD, inclusive)")
	cmd.Flags().String("to", "", "end date (YYYY-MM-DD, inclusive)")
}

func windowFlags(cmd *cobra.Command) (string, string) {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	return from, to
}
