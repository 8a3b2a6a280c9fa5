package models

import "time"

const (
	StockEntry = "entry"
	StockExit  = "exit"
)

// StockMovement is a single tenant-owned inventory entry or exit.
type StockMovement struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	Product   string    `json:"product"`
	Quantity  int64     `json:"quantity"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}
