package topics

const (
	// Ciclo de jogo
	PoolSettled = "pool_settled"
	BetSettled  = "bet_settled"

	// DLQs
	BetSettledDLQ = "bet_settled_dlq"
)
