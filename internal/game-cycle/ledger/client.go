package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client fala com o wallet-service (ledger de carteiras) por HTTP.
// O endpoint de crédito é idempotente por externalRef, o que torna o retry
// do settlement seguro mesmo após falha entre crédito e marcação da aposta.
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

type creditRequest struct {
	UserID      string `json:"userId"`
	AmountCents int64  `json:"amount_cents"`
	ExternalRef string `json:"external_ref"`
}

// Credit credita o payout na carteira do usuário.
func (c *Client) Credit(ctx context.Context, userID string, amountCents int64, externalRef string) error {
	body, _ := json.Marshal(creditRequest{UserID: userID, AmountCents: amountCents, ExternalRef: externalRef})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/wallet/credit", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("wallet credit http %d", res.StatusCode)
	}
	return nil
}
