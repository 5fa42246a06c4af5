package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category"},
		Short:   "Manage income and expense categories",
		Long:    `List, add, update, delete and seed the categories of a tenant.`,
	}

	cmd.AddCommand(
		listCategoriesCmd(),
		addCategoryCmd(),
		updateCategoryCmd(),
		deleteCategoryCmd(),
		seedCategoriesCmd(),
	)

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			return withTenant(cmd, func(ctx context.Context, a *app, tenant *model.Tenant) error {
				categories, err := a.svc.ListCategories(ctx, tenant.ID)
				if err != nil {
					return fmt.Errorf("failed to get categories: %w", err)
				}

				out := cmd.OutOrStdout()
				if format == "json" {
					return printJSON(out, categories)
				}
				if len(categories) == 0 {
					fmt.Fprintln(out, cli.InfoStyle.Render("No categories found. Use 'ledger categories add' to create one."))
					return nil
				}
				fmt.Fprintln(out, cli.RenderCategories(categories))
				return nil
			})
		},
	}
	addFormatFlag(cmd)
	return cmd
}

func addCategoryCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			categoryKind, err := model.ParseCategoryKind(kind)
			if err != nil {
				return err
			}

			return withTenant(cmd, func(ctx context.Context, a *app, tenant *model.Tenant) error {
				category, err := a.svc.CreateCategory(ctx, tenant.ID, args[0], categoryKind)
				if err != nil {
					return fmt.Errorf("failed to create category: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("Created %s category %q (id %d)", category.Kind, category.Name, category.ID)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&kind, "type", string(model.KindExpense), "category type (expense, income)")
	return cmd
}

func updateCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a category or change its type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var patch model.CategoryPatch
			if cmd.Flags().Changed("name") {
				name, _ := cmd.Flags().GetString("name")
				patch.Name = &name
			}
			if cmd.Flags().Changed("type") {
				raw, _ := cmd.Flags().GetString("type")
				kind, err := model.ParseCategoryKind(raw)
				if err != nil {
					return err
				}
				patch.Kind = &kind
			}

			return withTenant(cmd, func(ctx context.Context, a *app, tenant *model.Tenant) error {
				category, err := a.svc.UpdateCategory(ctx, tenant.ID, id, patch)
				if err != nil {
					return fmt.Errorf("failed to update category: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("Updated category %d: %s (%s)", category.ID, category.Name, category.Kind)))
				return nil
			})
		},
	}

	cmd.Flags().String("name", "", "new name")
	cmd.Flags().String("type", "", "new type (expense, income)")
	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long: `Delete a category. Transactions that used it are kept and are reported
under "Unknown" in exports and unfiltered analyses.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withTenant(cmd, func(ctx context.Context, a *app, tenant *model.Tenant) error {
				out := cmd.OutOrStdout()
				if !force {
					ok, err := cli.NewConfirmer(cmd.InOrStdin(), out).
						Confirm(ctx, fmt.Sprintf("Delete category %d?", id))
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(out, "Deletion cancelled.")
						return nil
					}
				}

				if err := a.svc.DeleteCategory(ctx, tenant.ID, id); err != nil {
					return fmt.Errorf("failed to delete category: %w", err)
				}

				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Deleted category %d", id)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "skip confirmation prompt")
	return cmd
}

func seedCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Add the configured default categories that are missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTenant(cmd, func(ctx context.Context, a *app, tenant *model.Tenant) error {
				created, err := a.svc.SeedDefaultCategories(ctx, tenant.ID)
				if err != nil {
					return fmt.Errorf("failed to seed categories: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added %d categories", len(created))))
				return nil
			})
		},
	}
}
