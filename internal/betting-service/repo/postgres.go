package repo

import (
	"context"
	"database/sql"
	"errors"
)

// Postgres consulta apostas para a API pública.
// A escrita de apostas passa pelo store do ciclo de jogo; aqui fica só a leitura.
type Postgres struct{ db *sql.DB }

// NewPostgres retorna o repositório de consulta de apostas.
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var ErrNotFound = errors.New("not found")

// BetStatus é a visão pública de uma aposta.
type BetStatus struct {
	BetID       string
	PoolID      string
	Side        string
	StakeCents  int64
	Settled     bool
	PayoutCents *int64
}

// GetBet retorna o estado corrente de uma aposta pelo betID
func (p *Postgres) GetBet(ctx context.Context, betID string) (BetStatus, error) {
	var b BetStatus
	var payout sql.NullInt64
	err := p.db.QueryRowContext(ctx, `
		SELECT id, pool_id, side, stake_cents, settled, payout_cents
		FROM bets WHERE id=$1`, betID).
		Scan(&b.BetID, &b.PoolID, &b.Side, &b.StakeCents, &b.Settled, &payout)
	if err == sql.ErrNoRows {
		return BetStatus{}, ErrNotFound
	} else if err != nil {
		return BetStatus{}, err
	}
	if payout.Valid {
		v := payout.Int64
		b.PayoutCents = &v
	}
	return b, nil
}
