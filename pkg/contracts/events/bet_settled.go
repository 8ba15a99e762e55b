package events

import "time"

// Evento emitido por aposta liquidada durante o settlement de um pool.
type BetSettled struct {
	BetID       string    `json:"betId"`
	PoolID      string    `json:"poolId"`
	UserID      string    `json:"userId"`
	Side        string    `json:"side"` // "HEADS" | "TAILS"
	StakeCents  int64     `json:"stake_cents"`
	PayoutCents int64     `json:"payout_cents"`
	Won         bool      `json:"won"`
	Ts          time.Time `json:"ts"`
}
