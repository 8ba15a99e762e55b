package settlement

import (
	"context"

	"go.uber.org/zap"

	"github.com/radieske/cointoss-platform-poc/internal/game-cycle/outcome"
	"github.com/radieske/cointoss-platform-poc/internal/game-cycle/pool"
)

// Ledger é a carteira externa que recebe os créditos de payout.
// Credit deve ser atômico e idempotente por externalRef: um retry com a
// mesma referência nunca credita duas vezes.
type Ledger interface {
	Credit(ctx context.Context, userID string, amountCents int64, externalRef string) error
}

// BetStore é o recorte do store de apostas que o settlement usa.
type BetStore interface {
	FindUnsettledBets(ctx context.Context, poolID string) ([]pool.Bet, error)
	MarkBetSettled(ctx context.Context, betID string, payoutCents int64) error
}

// Result descreve uma aposta liquidada nesta passada.
type Result struct {
	Bet         pool.Bet
	PayoutCents int64
	Won         bool
}

// Engine aplica um outcome resolvido às apostas de um pool.
// Cada aposta é liquidada no máximo uma vez: o crédito no ledger é
// idempotente por referência e o flag settled é um compare-and-set, então a
// sequência credita-depois-marca é segura de repetir após falha parcial.
type Engine struct {
	store  BetStore
	ledger Ledger
	log    *zap.Logger

	OnBetSettled func() // métricas (counter++)
	OnBetFailed  func() // métricas
}

// New cria o engine de settlement.
func New(store BetStore, ledger Ledger, log *zap.Logger) *Engine {
	return &Engine{store: store, ledger: ledger, log: log}
}

// Settle processa as apostas ainda não liquidadas do pool. Falha em uma
// aposta não bloqueia as irmãs: a aposta fica não liquidada e o pool segue
// retryável no próximo ciclo. Retorna as apostas liquidadas nesta passada e
// quantas restaram pendentes.
func (e *Engine) Settle(ctx context.Context, p pool.Pool, out outcome.Outcome) ([]Result, int, error) {
	bets, err := e.store.FindUnsettledBets(ctx, p.ID)
	if err != nil {
		return nil, 0, err
	}

	var results []Result
	remaining := 0

	for _, b := range bets {
		won := b.Side == out.WinningSide
		var payout int64
		if won {
			payout = out.PayoutFor(b.StakeCents)
			// Crédito antes do flag: se o processo cair entre os dois, o
			// retry re-credita com a mesma referência e o ledger deduplica
			if err := e.ledger.Credit(ctx, b.UserID, payout, "payout:"+b.ID); err != nil {
				e.log.Warn("payout credit failed",
					zap.String("betId", b.ID),
					zap.String("userId", b.UserID),
					zap.Int64("payout_cents", payout),
					zap.Error(err),
				)
				if e.OnBetFailed != nil {
					e.OnBetFailed()
				}
				remaining++
				continue
			}
		}

		if err := e.store.MarkBetSettled(ctx, b.ID, payout); err != nil {
			if err == pool.ErrAlreadySettled {
				// outra invocação concorrente liquidou primeiro
				continue
			}
			e.log.Warn("mark settled failed", zap.String("betId", b.ID), zap.Error(err))
			if e.OnBetFailed != nil {
				e.OnBetFailed()
			}
			remaining++
			continue
		}

		if e.OnBetSettled != nil {
			e.OnBetSettled()
		}
		results = append(results, Result{Bet: b, PayoutCents: payout, Won: won})
	}

	return results, remaining, nil
}
