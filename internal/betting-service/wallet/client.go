package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	walletdto "github.com/radieske/cointoss-platform-poc/internal/betting-service/wallet/dto"
)

// ErrInsufficientFunds indica saldo insuficiente para o stake.
var ErrInsufficientFunds = errors.New("insufficient funds")

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

// Debit desconta o stake da carteira do usuário (external_ref = betID).
func (c *Client) Debit(ctx context.Context, userID string, cents int64, externalRef string) error {
	body, _ := json.Marshal(walletdto.DebitRequest{UserID: userID, AmountCents: cents, ExternalRef: externalRef})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/wallet/debit", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusConflict {
		return ErrInsufficientFunds
	}
	if res.StatusCode >= 300 {
		return fmt.Errorf("wallet debit http %d", res.StatusCode)
	}
	return nil
}

// Refund devolve o stake quando a aposta não chega a ser efetivada.
func (c *Client) Refund(ctx context.Context, userID string, cents int64, externalRef string) error {
	body, _ := json.Marshal(walletdto.DepositRequest{UserID: userID, AmountCents: cents, ExternalRef: externalRef})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/wallet/deposit", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("wallet refund http %d", res.StatusCode)
	}
	return nil
}
