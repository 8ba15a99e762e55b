package dto

import "time"

// PlaceBetResponse confirma a aposta criada.
type PlaceBetResponse struct {
	BetID  string `json:"betId"`
	PoolID string `json:"poolId"`
	Status string `json:"status"` // "ACCEPTED"
}

// CurrentPoolResponse descreve o pool OPEN corrente.
type CurrentPoolResponse struct {
	PoolID     string    `json:"poolId"`
	State      string    `json:"state"`
	LocksAt    time.Time `json:"locksAt"`
	SettlesAt  time.Time `json:"settlesAt"`
	HeadsCents int64     `json:"heads_cents"`
	TailsCents int64     `json:"tails_cents"`
}

// BetStatusResponse devolve o estado de liquidação de uma aposta.
type BetStatusResponse struct {
	BetID       string `json:"betId"`
	PoolID      string `json:"poolId"`
	Side        string `json:"side"`
	StakeCents  int64  `json:"stake_cents"`
	Settled     bool   `json:"settled"`
	PayoutCents *int64 `json:"payout_cents,omitempty"`
}
