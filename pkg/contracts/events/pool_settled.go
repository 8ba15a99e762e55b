package events

import "time"

// Evento emitido pelo game-cycle-worker quando um pool é liquidado por completo.
type PoolSettled struct {
	PoolID      string    `json:"poolId"`
	WinningSide string    `json:"winningSide"` // "HEADS" | "TAILS"
	HeadsCents  int64     `json:"headsCents"`
	TailsCents  int64     `json:"tailsCents"`
	SettledBets int       `json:"settledBets"`
	Ts          time.Time `json:"ts"`
}
