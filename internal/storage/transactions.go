package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

const transactionColumns = `id, tenant_id, category_id, amount, occurred_on,
	merchant, account, project, tags, note, created_at`

// CreateTransaction records a transaction against one of the tenant's categories.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, tenantID string, input model.TransactionInput) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var txn *model.Transaction
	err := s.withTx(ctx, "create transaction", func(q queryable) error {
		var err error
		txn, err = createTransaction(ctx, q, tenantID, input)
		return err
	})
	return txn, err
}

func createTransaction(ctx context.Context, q queryable, tenantID string, input model.TransactionInput) (*model.Transaction, error) {
	if err := validateTransactionInput(input); err != nil {
		return nil, err
	}
	if err := categoryOwned(ctx, q, tenantID, input.CategoryID); err != nil {
		return nil, err
	}

	txn := &model.Transaction{
		TenantID:   tenantID,
		CategoryID: input.CategoryID,
		Amount:     input.Amount,
		OccurredOn: input.OccurredOn,
		Merchant:   strings.TrimSpace(input.Merchant),
		Account:    strings.TrimSpace(input.Account),
		Project:    strings.TrimSpace(input.Project),
		Tags:       strings.TrimSpace(input.Tags),
		Note:       strings.TrimSpace(input.Note),
		CreatedAt:  time.Now().UTC(),
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO transactions (
			tenant_id, category_id, amount, occurred_on,
			merchant, account, project, tags, note, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.TenantID, txn.CategoryID, txn.Amount.String(), txn.OccurredOn,
		nullString(txn.Merchant), nullString(txn.Account), nullString(txn.Project),
		nullString(txn.Tags), nullString(txn.Note), txn.CreatedAt,
	)
	if err != nil {
		return nil, wrapStorageError("insert transaction", err)
	}

	txn.ID, err = result.LastInsertId()
	if err != nil {
		return nil, wrapStorageError("get transaction id", err)
	}
	return txn, nil
}

// GetTransaction returns a transaction owned by the tenant.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, tenantID string, id int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getTransaction(ctx, s.db, tenantID, id)
}

func getTransaction(ctx context.Context, q queryable, tenantID string, id int64) (*model.Transaction, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE tenant_id = ? AND id = ?`,
		tenantID, id)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, wrapStorageError("get transaction", err)
	}
	return txn, nil
}

// UpdateTransaction applies a partial edit. Provided fields overwrite, omitted
// fields are unchanged, and a new category must belong to the tenant.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, tenantID string, id int64, patch model.TransactionPatch) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var txn *model.Transaction
	err := s.withTx(ctx, "update transaction", func(q queryable) error {
		var err error
		txn, err = updateTransaction(ctx, q, tenantID, id, patch)
		return err
	})
	return txn, err
}

func updateTransaction(ctx context.Context, q queryable, tenantID string, id int64, patch model.TransactionPatch) (*model.Transaction, error) {
	txn, err := getTransaction(ctx, q, tenantID, id)
	if err != nil {
		return nil, err
	}

	if patch.OccurredOn != nil {
		occurredOn, err := model.ParseDate(*patch.OccurredOn)
		if err != nil {
			return nil, err
		}
		txn.OccurredOn = occurredOn
	}
	if patch.Amount != nil {
		if err := model.ValidateAmount(*patch.Amount); err != nil {
			return nil, err
		}
		txn.Amount = *patch.Amount
	}
	if patch.CategoryID != nil {
		if err := categoryOwned(ctx, q, tenantID, *patch.CategoryID); err != nil {
			return nil, err
		}
		txn.CategoryID = *patch.CategoryID
	}
	applyText(&txn.Merchant, patch.Merchant)
	applyText(&txn.Account, patch.Account)
	applyText(&txn.Project, patch.Project)
	applyText(&txn.Tags, patch.Tags)
	applyText(&txn.Note, patch.Note)

	_, err = q.ExecContext(ctx, `
		UPDATE transactions SET
			category_id = ?, amount = ?, occurred_on = ?,
			merchant = ?, account = ?, project = ?, tags = ?, note = ?
		WHERE tenant_id = ? AND id = ?`,
		txn.CategoryID, txn.Amount.String(), txn.OccurredOn,
		nullString(txn.Merchant), nullString(txn.Account), nullString(txn.Project),
		nullString(txn.Tags), nullString(txn.Note),
		tenantID, id,
	)
	if err != nil {
		return nil, wrapStorageError("update transaction", err)
	}
	return txn, nil
}

// DeleteTransaction hard-deletes a transaction owned by the tenant.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, tenantID string, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return deleteTransaction(ctx, s.db, tenantID, id)
}

func deleteTransaction(ctx context.Context, q queryable, tenantID string, id int64) error {
	result, err := q.ExecContext(ctx,
		`DELETE FROM transactions WHERE tenant_id = ? AND id = ?`, tenantID, id)
	if err != nil {
		return wrapStorageError("delete transaction", err)
	}
	return requireAffected(result, fmt.Sprintf("transaction %d", id))
}

// ListTransactions returns the tenant's transactions within the inclusive
// date bounds of filter. Results are in insertion order; callers needing a
// specific order must sort.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, tenantID string, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listTransactions(ctx, s.db, tenantID, filter)
}

func listTransactions(ctx context.Context, q queryable, tenantID string, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE tenant_id = ?`
	args := []any{tenantID}

	if filter.StartDate != nil {
		query += " AND occurred_on >= ?"
		args = append(args, filter.StartDate.String())
	}
	if filter.EndDate != nil {
		query += " AND occurred_on <= ?"
		args = append(args, filter.EndDate.String())
	}

	query += " ORDER BY id"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapStorageError("query transactions", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, wrapStorageError("scan transaction", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorageError("iterate transactions", err)
	}
	return transactions, nil
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var merchant, account, project, tags, note sql.NullString

	err := row.Scan(
		&txn.ID,
		&txn.TenantID,
		&txn.CategoryID,
		&txn.Amount,
		&txn.OccurredOn,
		&merchant,
		&account,
		&project,
		&tags,
		&note,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	txn.Merchant = merchant.String
	txn.Account = account.String
	txn.Project = project.String
	txn.Tags = tags.String
	txn.Note = note.String
	return &txn, nil
}

// nullString stores empty optional text as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func applyText(field *string, value *string) {
	if value != nil {
		*field = strings.TrimSpace(*value)
	}
}
