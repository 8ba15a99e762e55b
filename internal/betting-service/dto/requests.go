package dto

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// PlaceBetRequest é o payload de criação de aposta no pool corrente.
type PlaceBetRequest struct {
	UserID     string `json:"userId" validate:"required"`
	Side       string `json:"side" validate:"required,oneof=HEADS TAILS"`
	StakeCents int64  `json:"stake_cents" validate:"required,gt=0"`
}

func (p *PlaceBetRequest) Validate() error {
	return validate.Struct(p)
}
