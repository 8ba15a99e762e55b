package repo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgres(db), mock
}

func TestGetOrCreateWallet_ReturnsExisting(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, balance_cents FROM wallets WHERE user_id=\$1`).
		WithArgs("user-a").
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance_cents"}).AddRow("wallet-1", int64(500)))
	mock.ExpectCommit()

	id, balance, err := repo.GetOrCreateWallet(context.Background(), "user-a")
	require.NoError(t, err)
	assert.Equal(t, "wallet-1", id)
	assert.Equal(t, int64(500), balance)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateWallet_CreatesWhenMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, balance_cents FROM wallets WHERE user_id=\$1`).
		WithArgs("user-new").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO wallets`).
		WithArgs(sqlmock.AnyArg(), "user-new").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, balance, err := repo.GetOrCreateWallet(context.Background(), "user-new")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, int64(0), balance)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDebit_InsufficientFundsRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, balance_cents FROM wallets WHERE user_id=\$1 FOR UPDATE`).
		WithArgs("user-a").
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance_cents"}).AddRow("wallet-1", int64(30)))
	mock.ExpectRollback()

	_, _, err := repo.Debit(context.Background(), "user-a", 100, "bet-1")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDebit_WritesLedgerAndReturnsNewBalance(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, balance_cents FROM wallets WHERE user_id=\$1 FOR UPDATE`).
		WithArgs("user-a").
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance_cents"}).AddRow("wallet-1", int64(500)))
	mock.ExpectExec(`UPDATE wallets SET balance_cents = balance_cents - \$1`).
		WithArgs(int64(100), "wallet-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO wallet_ledger`).
		WithArgs("wallet-1", int64(100), "stake:bet-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	id, balance, err := repo.Debit(context.Background(), "user-a", 100, "bet-1")
	require.NoError(t, err)
	assert.Equal(t, "wallet-1", id)
	assert.Equal(t, int64(400), balance)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditPayout_AppliesNewReference(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, balance_cents FROM wallets WHERE user_id=\$1 FOR UPDATE`).
		WithArgs("user-a").
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance_cents"}).AddRow("wallet-1", int64(100)))
	mock.ExpectQuery(`SELECT id FROM wallet_ledger WHERE wallet_id=\$1 AND external_ref=\$2`).
		WithArgs("wallet-1", "payout:bet-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`UPDATE wallets SET balance_cents = balance_cents \+ \$1`).
		WithArgs(int64(150), "wallet-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO wallet_ledger`).
		WithArgs("wallet-1", int64(150), "payout:bet-1", "payout:bet-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	id, balance, err := repo.CreditPayout(context.Background(), "user-a", 150, "payout:bet-1")
	require.NoError(t, err)
	assert.Equal(t, "wallet-1", id)
	assert.Equal(t, int64(250), balance)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditPayout_DuplicateReferenceIsNoop(t *testing.T) {
	repo, mock := newMockRepo(t)

	// retry do settlement com a mesma referência: nenhum UPDATE acontece
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, balance_cents FROM wallets WHERE user_id=\$1 FOR UPDATE`).
		WithArgs("user-a").
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance_cents"}).AddRow("wallet-1", int64(250)))
	mock.ExpectQuery(`SELECT id FROM wallet_ledger WHERE wallet_id=\$1 AND external_ref=\$2`).
		WithArgs("wallet-1", "payout:bet-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectCommit()

	id, balance, err := repo.CreditPayout(context.Background(), "user-a", 150, "payout:bet-1")
	require.NoError(t, err)
	assert.Equal(t, "wallet-1", id)
	assert.Equal(t, int64(250), balance)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditPayout_UnknownUserMapsToNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, balance_cents FROM wallets WHERE user_id=\$1 FOR UPDATE`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := repo.CreditPayout(context.Background(), "ghost", 150, "payout:bet-1")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListTransactions_ReturnsRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT l.id, l.operation_type, l.amount_cents, l.description, l.created_at`).
		WithArgs("user-a", 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "operation_type", "amount_cents", "description", "created_at"}).
			AddRow(int64(2), "PAYOUT", int64(150), "payout:bet-1", now).
			AddRow(int64(1), "DEBIT", int64(100), "stake:bet-1", now.Add(-time.Minute)))

	txs, err := repo.ListTransactions(context.Background(), "user-a", 0)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "PAYOUT", txs[0].OperationType)
	assert.Equal(t, int64(150), txs[0].AmountCents)
	require.NoError(t, mock.ExpectationsWereMet())
}
