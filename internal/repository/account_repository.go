package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/crosswire-app/crosswire/internal/models"
)

type AccountRepository interface {
	GetGroup(ctx context.Context, groupID, userID int64) (*models.AccountGroup, error)
	ListGroups(ctx context.Context, userID int64) ([]*models.AccountGroup, error)
	ListAccounts(ctx context.Context, groupID int64) ([]*models.Account, error)
	GetAccount(ctx context.Context, accountID int64) (*models.Account, error)
	SetAccountStatus(ctx context.Context, accountID int64, status string) error
	RemoveAccount(ctx context.Context, accountID int64) error
}

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) GetGroup(ctx context.Context, groupID, userID int64) (*models.AccountGroup, error) {
	query := `SELECT id, user_id, name, created_at, updated_at FROM account_groups WHERE id = $1 AND user_id = $2`
	row := r.db.QueryRowContext(ctx, query, groupID, userID)

	var g models.AccountGroup
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &g, nil
}

func (r *accountRepository) ListGroups(ctx context.Context, userID int64) ([]*models.AccountGroup, error) {
	query := `SELECT id, user_id, name, created_at, updated_at FROM account_groups WHERE user_id = $1`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var groups []*models.AccountGroup
	for rows.Next() {
		var g models.AccountGroup
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.CreatedAt, &g.UpdatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		groups = append(groups, &g)
	}
	return groups, nil
}

func (r *accountRepository) ListAccounts(ctx context.Context, groupID int64) ([]*models.Account, error) {
	query := `
		SELECT id, group_id, platform, username, profile_key, account_status, created_at, updated_at
		FROM accounts WHERE group_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var a models.Account
		err := rows.Scan(&a.ID, &a.GroupID, &a.Platform, &a.Username, &a.ProfileKey, &a.AccountStatus, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, &a)
	}
	return accounts, nil
}

func (r *accountRepository) GetAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	query := `
		SELECT id, group_id, platform, username, profile_key, account_status, created_at, updated_at
		FROM accounts WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, accountID)

	var a models.Account
	err := row.Scan(&a.ID, &a.GroupID, &a.Platform, &a.Username, &a.ProfileKey, &a.AccountStatus, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &a, nil
}

func (r *accountRepository) SetAccountStatus(ctx context.Context, accountID int64, status string) error {
	query := `UPDATE accounts SET account_status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), accountID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *accountRepository) RemoveAccount(ctx context.Context, accountID int64) error {
	query := `DELETE FROM accounts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, accountID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
