package pool

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

// Postgres implementa Store sobre o banco compartilhado.
// O índice único parcial em pools(state) WHERE state='OPEN' garante o
// invariante de pool OPEN único mesmo com múltiplas instâncias do worker.
type Postgres struct{ db *sql.DB }

// NewPostgres retorna o repositório de pools e apostas.
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const poolColumns = `id, state, opens_at, locks_at, settles_at, winning_side, heads_cents, tails_cents, version, created_at, updated_at`

func scanPool(row interface{ Scan(...any) error }) (Pool, error) {
	var p Pool
	var winning sql.NullString
	err := row.Scan(&p.ID, &p.State, &p.OpensAt, &p.LocksAt, &p.SettlesAt,
		&winning, &p.HeadsCents, &p.TailsCents, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Pool{}, err
	}
	if winning.Valid {
		s := Side(winning.String)
		p.WinningSide = &s
	}
	return p, nil
}

func (r *Postgres) FindOpenPool(ctx context.Context) (Pool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+poolColumns+` FROM pools WHERE state='OPEN' LIMIT 1`)
	p, err := scanPool(row)
	if err == sql.ErrNoRows {
		return Pool{}, ErrNotFound
	}
	return p, err
}

func (r *Postgres) FindDueForLock(ctx context.Context, now time.Time) ([]Pool, error) {
	return r.queryPools(ctx, `SELECT `+poolColumns+` FROM pools WHERE state='OPEN' AND locks_at <= $1 ORDER BY locks_at`, now)
}

func (r *Postgres) FindDueForSettle(ctx context.Context, now time.Time) ([]Pool, error) {
	return r.queryPools(ctx, `SELECT `+poolColumns+` FROM pools WHERE state='LOCKED' AND settles_at <= $1 ORDER BY settles_at`, now)
}

func (r *Postgres) queryPools(ctx context.Context, query string, args ...any) ([]Pool, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pools []Pool
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, err
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}

func (r *Postgres) CreatePool(ctx context.Context, p Pool) (Pool, error) {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Version = 1

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pools (id, state, opens_at, locks_at, settles_at, heads_cents, tails_cents, version, created_at, updated_at)
		VALUES ($1,'OPEN',$2,$3,$4,0,0,1,$5,$5)`,
		p.ID, p.OpensAt, p.LocksAt, p.SettlesAt, now)
	if err != nil {
		// 23505: violação do índice único parcial de pool OPEN
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return Pool{}, ErrOpenPoolExists
		}
		return Pool{}, err
	}
	p.State = StateOpen
	return p, nil
}

func (r *Postgres) TransitionState(ctx context.Context, poolID string, from, to State) error {
	if !ValidTransition(from, to) {
		return ErrInvalidTransition
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE pools SET state=$1, version=version+1, updated_at=NOW()
		WHERE id=$2 AND state=$3`, to, poolID, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleState
	}
	return nil
}

func (r *Postgres) RecordOutcome(ctx context.Context, poolID string, side Side) (Side, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var state string
	var recorded sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT state, winning_side FROM pools WHERE id=$1 FOR UPDATE`, poolID).
		Scan(&state, &recorded)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	} else if err != nil {
		return "", err
	}

	// Sorteio já registrado: retorna o gravado, nunca sorteia de novo
	if recorded.Valid {
		return Side(recorded.String), tx.Commit()
	}

	if State(state) != StateLocked {
		return "", ErrStaleState
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE pools SET winning_side=$1, version=version+1, updated_at=NOW() WHERE id=$2`,
		side, poolID); err != nil {
		return "", err
	}

	return side, tx.Commit()
}

func (r *Postgres) FindUnsettledBets(ctx context.Context, poolID string) ([]Bet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, pool_id, user_id, side, stake_cents, settled, payout_cents, created_at, settled_at
		FROM bets WHERE pool_id=$1 AND settled=false ORDER BY created_at`, poolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bets []Bet
	for rows.Next() {
		var b Bet
		var payout sql.NullInt64
		var settledAt sql.NullTime
		if err := rows.Scan(&b.ID, &b.PoolID, &b.UserID, &b.Side, &b.StakeCents,
			&b.Settled, &payout, &b.CreatedAt, &settledAt); err != nil {
			return nil, err
		}
		if payout.Valid {
			v := payout.Int64
			b.PayoutCents = &v
		}
		if settledAt.Valid {
			t := settledAt.Time
			b.SettledAt = &t
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

func (r *Postgres) MarkBetSettled(ctx context.Context, betID string, payoutCents int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bets SET settled=true, payout_cents=$1, settled_at=NOW()
		WHERE id=$2 AND settled=false`, payoutCents, betID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadySettled
	}
	return nil
}

func (r *Postgres) CreateBet(ctx context.Context, b Bet) (Bet, error) {
	// mesmo guard do CHECK do schema, aplicado antes de abrir transação
	if b.StakeCents <= 0 {
		return Bet{}, ErrInvalidStake
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Bet{}, err
	}
	defer tx.Rollback()

	// Lock pessimista na linha do pool: a aposta e o total do lado
	// precisam entrar juntos, e só enquanto o pool está OPEN
	var state string
	err = tx.QueryRowContext(ctx, `SELECT state FROM pools WHERE id=$1 FOR UPDATE`, b.PoolID).Scan(&state)
	if err == sql.ErrNoRows {
		return Bet{}, ErrNotFound
	} else if err != nil {
		return Bet{}, err
	}
	if State(state) != StateOpen {
		return Bet{}, ErrPoolNotOpen
	}

	now := time.Now().UTC()
	b.CreatedAt = now
	b.Settled = false

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO bets (id, pool_id, user_id, side, stake_cents, settled, created_at)
		VALUES ($1,$2,$3,$4,$5,false,$6)`,
		b.ID, b.PoolID, b.UserID, b.Side, b.StakeCents, now); err != nil {
		return Bet{}, err
	}

	column := "heads_cents"
	if b.Side == SideTails {
		column = "tails_cents"
	}
	if _, err = tx.ExecContext(ctx, `
		UPDATE pools SET `+column+` = `+column+` + $1, version=version+1, updated_at=NOW() WHERE id=$2`,
		b.StakeCents, b.PoolID); err != nil {
		return Bet{}, err
	}

	if err = tx.Commit(); err != nil {
		return Bet{}, err
	}
	return b, nil
}
