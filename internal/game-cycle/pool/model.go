package pool

import "time"

// State é o estado do ciclo de vida de um pool.
// Transições válidas: OPEN -> LOCKED -> SETTLED, sem pulos e sem retorno.
type State string

const (
	StateOpen    State = "OPEN"
	StateLocked  State = "LOCKED"
	StateSettled State = "SETTLED"
)

// ValidTransition informa se (from, to) é um passo legal do ciclo de vida.
// Só os avanços OPEN -> LOCKED e LOCKED -> SETTLED existem; pulos e
// reversões nunca são aplicados, nem quando o estado corrente bate.
func ValidTransition(from, to State) bool {
	return (from == StateOpen && to == StateLocked) ||
		(from == StateLocked && to == StateSettled)
}

// Side é o lado apostado em um pool de cara-ou-coroa.
type Side string

const (
	SideHeads Side = "HEADS"
	SideTails Side = "TAILS"
)

// Other retorna o lado oposto.
func (s Side) Other() Side {
	if s == SideHeads {
		return SideTails
	}
	return SideHeads
}

// Valid informa se o valor corresponde a um lado conhecido.
func (s Side) Valid() bool {
	return s == SideHeads || s == SideTails
}

// Pool é uma rodada de apostas com janela de tempo fixa.
// No máximo um pool fica OPEN por vez; o lado vencedor só é
// preenchido no momento da resolução e nunca é recalculado.
type Pool struct {
	ID          string
	State       State
	OpensAt     time.Time
	LocksAt     time.Time
	SettlesAt   time.Time
	WinningSide *Side
	HeadsCents  int64
	TailsCents  int64
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SideTotal retorna o total apostado em um lado, em centavos.
func (p *Pool) SideTotal(s Side) int64 {
	if s == SideHeads {
		return p.HeadsCents
	}
	return p.TailsCents
}

// Bet é a aposta de um usuário em um lado de um pool.
// Uma aposta é liquidada exatamente uma vez; o payout fica nulo até lá.
type Bet struct {
	ID          string
	PoolID      string
	UserID      string
	Side        Side
	StakeCents  int64
	Settled     bool
	PayoutCents *int64
	CreatedAt   time.Time
	SettledAt   *time.Time
}
