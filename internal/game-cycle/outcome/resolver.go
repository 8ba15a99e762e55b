package outcome

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/radieske/cointoss-platform-poc/internal/game-cycle/pool"
)

// Rule define a regra de resolução do pool.
type Rule string

const (
	// RuleCoinToss sorteia um lado com moeda justa, independente das apostas.
	RuleCoinToss Rule = "cointoss"
	// RuleMajority dá a vitória ao lado com maior stake; empate cai na moeda.
	RuleMajority Rule = "majority"
)

// Drawer fornece o sorteio de um lado. A implementação padrão usa
// crypto/rand; testes injetam sorteios determinísticos.
type Drawer interface {
	Draw(ctx context.Context) (pool.Side, error)
}

// CryptoDrawer sorteia um bit criptograficamente seguro por chamada.
type CryptoDrawer struct{}

func (CryptoDrawer) Draw(ctx context.Context) (pool.Side, error) {
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("coin draw: %w", err)
	}
	if b[0]&1 == 0 {
		return pool.SideHeads, nil
	}
	return pool.SideTails, nil
}

// Resolver calcula o lado vencedor de um pool. Função pura sobre o conjunto
// de apostas já gravado no pool; nenhum acesso a storage acontece aqui.
type Resolver struct {
	rule   Rule
	drawer Drawer
}

// New cria o resolver para a regra configurada.
func New(rule Rule, drawer Drawer) (*Resolver, error) {
	switch rule {
	case RuleCoinToss, RuleMajority:
	default:
		return nil, fmt.Errorf("unknown resolution rule %q", rule)
	}
	if drawer == nil {
		drawer = CryptoDrawer{}
	}
	return &Resolver{rule: rule, drawer: drawer}, nil
}

// Resolve determina o lado vencedor. O sorteio é fresco por resolução e
// nunca reaproveitado; o chamador persiste o resultado antes de liquidar.
func (r *Resolver) Resolve(ctx context.Context, p pool.Pool) (pool.Side, error) {
	switch r.rule {
	case RuleMajority:
		if p.HeadsCents > p.TailsCents {
			return pool.SideHeads, nil
		}
		if p.TailsCents > p.HeadsCents {
			return pool.SideTails, nil
		}
		// empate: decide na moeda
		return r.drawer.Draw(ctx)
	default:
		return r.drawer.Draw(ctx)
	}
}

// Outcome é o resultado resolvido de um pool, com os totais necessários
// para calcular payouts.
type Outcome struct {
	WinningSide  pool.Side
	WinningCents int64
	LosingCents  int64
}

// For monta o Outcome de um pool a partir do lado vencedor (recém-sorteado
// ou recarregado do registro em caso de retry).
func For(p pool.Pool, side pool.Side) Outcome {
	return Outcome{
		WinningSide:  side,
		WinningCents: p.SideTotal(side),
		LosingCents:  p.SideTotal(side.Other()),
	}
}

// PayoutFor calcula o payout de uma aposta vencedora: o stake de volta mais
// a fração proporcional do lado perdedor. Divisão inteira em centavos trunca
// para baixo; o resto fica sem alocação. O produto stake*losing passa por
// big.Int para não estourar int64; o resultado final cabe sempre, pois a
// fração nunca excede o total do lado perdedor.
func (o Outcome) PayoutFor(stakeCents int64) int64 {
	if o.WinningCents <= 0 {
		return 0
	}
	share := new(big.Int).Mul(big.NewInt(stakeCents), big.NewInt(o.LosingCents))
	share.Quo(share, big.NewInt(o.WinningCents))
	return stakeCents + share.Int64()
}
