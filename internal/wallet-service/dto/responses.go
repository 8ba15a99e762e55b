package dto

import "github.com/radieske/cointoss-platform-poc/internal/wallet-service/repo"

// WalletResponse devolve carteira e saldo corrente.
type WalletResponse struct {
	UserID       string `json:"userId"`
	WalletID     string `json:"walletId"`
	BalanceCents int64  `json:"balance_cents"`
}

// TransactionsResponse devolve o extrato da carteira.
type TransactionsResponse struct {
	UserID       string             `json:"userId"`
	Transactions []repo.Transaction `json:"transactions"`
}
