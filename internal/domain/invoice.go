package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice represents a billing document nested under exactly one client.
// The PDF lives under <client-dir>/invoices/ with a timestamp+random prefix.
type Invoice struct {
	ID             string // UUID
	ClientID       string
	AttachmentPath string
	Date           time.Time
	Description    string
	Total          decimal.Decimal
	CreatedAt      time.Time
}

// InvoiceRepository defines data access for invoices
type InvoiceRepository interface {
	Create(invoice *Invoice) error
	GetByID(id string) (*Invoice, error)
	// SearchByClient returns one page of a client's invoices whose description
	// or decimal-rendered total contains search case-insensitively, newest
	// date first, along with the total number of matching rows.
	SearchByClient(clientID, search string, limit, offset int) ([]*Invoice, int, error)
	Delete(id string) error
}
