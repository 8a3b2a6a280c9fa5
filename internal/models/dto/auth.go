package dto

import "github.com/hongminglow/backoffice/internal/models"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type MeResponse struct {
	User models.User `json:"me"`
}

type StockMovementInput struct {
	Product  string `json:"product" validate:"required,max=200"`
	Quantity int64  `json:"quantity" validate:"gt=0"`
	Kind     string `json:"kind" validate:"oneof=entry exit"`
}
