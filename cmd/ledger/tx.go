package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/aggregate"
	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/model"
)

var textFields = []string{"merchant", "account", "project", "tags", "note"}

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transactions"},
		Short:   "Record and edit transactions",
	}

	cmd.AddCommand(listTxCmd(), addTxCmd(), updateTxCmd(), deleteTxCmd())
	return cmd
}

func listTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions by date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			from, to := windowFlags(cmd)

			return withTenant(cmd, func(ctx context.Context, a *app, tenant *model.Tenant) error {
				txns, err := a.svc.ListTransactions(ctx, tenant.ID, from, to)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if format == "json" {
					return printJSON(out, txns)
				}

				categories, err := a.svc.ListCategories(ctx, tenant.ID)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, cli.RenderTransactions(txns, aggregate.NewCategoryIndex(categories)))
				return nil
			})
		},
	}
	addWindowFlags(cmd)
	addFormatFlag(cmd)
	return cmd
}

func addTextFlags(cmd *cobra.Command) {
	for _, name := range textFields {
		cmd.Flags().String(name, "", name)
	}
}

func addTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Example: `  ledger tx add --category Food --amount 120.50 --merchant "Cafe Amazon"
  ledger tx add --category Salary --amount 30000 --date 2024-03-25`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rawAmount, _ := cmd.Flags().GetString("amount")
			amount, err := model.ParseAmount(rawAmount)
			if err != nil {
				return err
			}
			categoryRef, _ := cmd.Flags().GetString("category")
			rawDate, _ := cmd.Flags().GetString("date")

			return withTenant(cmd, func(ctx context.Context, a *app, tenant *model.Tenant) error {
				date := a.svc.Today()
				if rawDate != "" {
					if date, err = model.ParseDate(rawDate); err != nil {
						return err
					}
				}

				categoryID, err := resolveCategory(ctx, a, tenant.ID, categoryRef)
				if err != nil {
					return err
				}

				input := model.TransactionInput{
					OccurredOn: date,
					Amount:     amount,
					CategoryID: categoryID,
				}
				input.Merchant, _ = cmd.Flags().GetString("merchant")
				input.Account, _ = cmd.Flags().GetString("account")
				input.Project, _ = cmd.Flags().GetString("project")
				input.Tags, _ = cmd.Flags().GetString("tags")
				input.Note, _ = cmd.Flags().GetString("note")

				txn, err := a.svc.CreateTransaction(ctx, tenant.ID, input)
				if err != nil {
					return fmt.Errorf("failed to record transaction: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("Recorded transaction %d: %s on %s", txn.ID, txn.Amount.StringFixed(2), txn.OccurredOn)))
				return nil
			})
		},
	}

	cmd.Flags().String("amount", "", "amount, greater than zero")
	cmd.Flags().String("category", "", "category id or name")
	cmd.Flags().String("date", "", "date (YYYY-MM-DD, default today)")
	addTextFlags(cmd)
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func updateTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit fields of a transaction",
		Long:  `Only the flags given are changed. Pass an empty value to clear a text field.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var patch model.TransactionPatch
			flags := cmd.Flags()
			if flags.Changed("amount") {
				raw, _ := flags.GetString("amount")
				amount, err := model.ParseAmount(raw)
				if err != nil {
					return err
				}
				patch.Amount = &amount
			}
			if flags.Changed("date") {
				raw, _ := flags.GetString("date")
				patch.OccurredOn = &raw
			}
			textTargets := map[string]**string{
				"merchant": &patch.Merchant,
				"account":  &patch.Account,
				"project":  &patch.Project,
				"tags":     &patch.Tags,
				"note":     &patch.Note,
			}
			for name, target := range textTargets {
				if flags.Changed(name) {
					value, _ := flags.GetString(name)
					*target = &value
				}
			}

			return withTenant(cmd, func(ctx context.Context, a *app, tenant *model.Tenant) error {
				if flags.Changed("category") {
					ref, _ := flags.GetString("category")
					categoryID, err := resolveCategory(ctx, a, tenant.ID, ref)
					if err != nil {
						return err
					}
					patch.CategoryID = &categoryID
				}

				txn, err := a.svc.UpdateTransaction(ctx, tenant.ID, id, patch)
				if err != nil {
					return fmt.Errorf("failed to update transaction: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
					fmt.Sprintf("Updated transaction %d: %s on %s", txn.ID, txn.Amount.StringFixed(2), txn.OccurredOn)))
				return nil
			})
		},
	}

	cmd.Flags().String("amount", "", "new amount")
	cmd.Flags().String("category", "", "new category id or name")
	cmd.Flags().String("date", "", "new date (YYYY-MM-DD)")
	addTextFlags(cmd)
	return cmd
}

func deleteTxCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withTenant(cmd, func(ctx context.Context, a *app, tenant *model.Tenant) error {
				out := cmd.OutOrStdout()
				if !force {
					ok, err := cli.NewConfirmer(cmd.InOrStdin(), out).
						Confirm(ctx, fmt.Sprintf("Delete transaction %d?", id))
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(out, "Deletion cancelled.")
						return nil
					}
				}

				if err := a.svc.DeleteTransaction(ctx, tenant.ID, id); err != nil {
					return fmt.Errorf("failed to delete transaction: %w", err)
				}

				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Deleted transaction %d", id)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "skip confirmation prompt")
	return cmd
}
