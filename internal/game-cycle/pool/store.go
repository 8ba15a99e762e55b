package pool

import (
	"context"
	"time"
)

// Store define a persistência de pools e apostas consumida pelo engine.
// Toda garantia de idempotência do ciclo de jogo é imposta aqui: as
// transições de estado e o settle de aposta são escritas condicionais.
type Store interface {
	// FindOpenPool retorna o pool OPEN corrente, ou ErrNotFound.
	FindOpenPool(ctx context.Context) (Pool, error)

	// FindDueForLock retorna pools OPEN com locks_at <= now.
	FindDueForLock(ctx context.Context, now time.Time) ([]Pool, error)

	// FindDueForSettle retorna pools LOCKED com settles_at <= now.
	FindDueForSettle(ctx context.Context, now time.Time) ([]Pool, error)

	// CreatePool insere um pool novo em OPEN. Retorna ErrOpenPoolExists se
	// já houver um pool OPEN, inclusive sob corrida.
	CreatePool(ctx context.Context, p Pool) (Pool, error)

	// TransitionState faz o compare-and-set de estado em um único passo
	// atômico. Retorna ErrInvalidTransition quando (from, to) não é um
	// avanço legal do ciclo e ErrStaleState quando o estado corrente não
	// é `from`.
	TransitionState(ctx context.Context, poolID string, from, to State) error

	// RecordOutcome persiste o sorteio no pool no momento da resolução,
	// condicionado a estado LOCKED e lado ainda não registrado. Se já houver
	// lado registrado, retorna o registrado (reuso do sorteio em retry).
	RecordOutcome(ctx context.Context, poolID string, side Side) (Side, error)

	// FindUnsettledBets retorna as apostas não liquidadas de um pool.
	FindUnsettledBets(ctx context.Context, poolID string) ([]Bet, error)

	// MarkBetSettled marca a aposta como liquidada com o payout dado,
	// condicionado a settled=false. Retorna ErrAlreadySettled no guard miss.
	MarkBetSettled(ctx context.Context, betID string, payoutCents int64) error

	// CreateBet insere uma aposta somente enquanto o pool está OPEN,
	// atualizando o total do lado na mesma transação. Stake zero ou
	// negativo retorna ErrInvalidStake.
	CreateBet(ctx context.Context, b Bet) (Bet, error)
}
