package model

import "time"

// Tenant is the isolation boundary owning a private set of categories and transactions.
type Tenant struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
}
