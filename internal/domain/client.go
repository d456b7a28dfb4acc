package domain

import "time"

// Client represents a billed customer. The canonical record is split between
// the clients table and a per-client directory on disk holding the tax
// certificate attachment.
type Client struct {
	ID             string // UUID
	Name           string // Display name; also keys the on-disk directory
	TaxID          string
	Email          string // Optional; required only for invoice dispatch
	PostalCode     string
	TaxRegime      string
	AttachmentPath string // Relative path of the stored attachment, empty if none
	RegisteredDate time.Time
	CreatedAt      time.Time
}

// ClientRepository defines data access for clients
type ClientRepository interface {
	Create(client *Client) error
	GetByID(id string) (*Client, error)
	List() ([]*Client, error)
	Update(client *Client) error
	Delete(id string) error
}
