package service

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/invoicedesk/internal/domain"
	"github.com/yourorg/invoicedesk/internal/observability/metrics"
	"github.com/yourorg/invoicedesk/internal/security/audit"
	"github.com/yourorg/invoicedesk/internal/storage"
	"github.com/yourorg/invoicedesk/pkg/cache"
)

const clientListCacheKey = "clients:list"

// Upload carries an uploaded file into the services.
type Upload struct {
	Filename string
	Content  io.Reader
}

// ClientInput holds the user-editable client fields.
type ClientInput struct {
	Name           string
	TaxID          string
	Email          string
	PostalCode     string
	TaxRegime      string
	RegisteredDate time.Time
}

// ClientService owns the client lifecycle: each write pairs a row mutation
// with a file transition staged through the storage manager.
type ClientService struct {
	clients  domain.ClientRepository
	store    *storage.Manager
	cache    *cache.Cache
	cacheTTL time.Duration
	audit    *audit.Logger
	logger   *slog.Logger
}

// NewClientService creates a new client service. auditLog may be nil.
func NewClientService(
	clients domain.ClientRepository,
	store *storage.Manager,
	listCache *cache.Cache,
	cacheTTL time.Duration,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *ClientService {
	if logger == nil {
		logger = slog.Default()
	}

	return &ClientService{
		clients:  clients,
		store:    store,
		cache:    listCache,
		cacheTTL: cacheTTL,
		audit:    auditLog,
		logger:   logger,
	}
}

// List returns all clients, newest first. Results are briefly cached; any
// write invalidates the cache.
func (s *ClientService) List() ([]*domain.Client, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(clientListCacheKey); ok {
			return v.([]*domain.Client), nil
		}
	}

	clients, err := s.clients.List()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(clientListCacheKey, clients, s.cacheTTL)
	}
	return clients, nil
}

// Get returns a single client or domain.ErrNotFound
func (s *ClientService) Get(id string) (*domain.Client, error) {
	return s.clients.GetByID(id)
}

// Create stores the mandatory attachment under the client's directory and
// then inserts the row. A failed insert rolls the staged file back.
func (s *ClientService) Create(in ClientInput, file Upload) (*domain.Client, error) {
	if in.Name == "" || in.TaxID == "" {
		return nil, fmt.Errorf("%w: name and taxId are required", domain.ErrValidation)
	}
	if file.Content == nil {
		return nil, fmt.Errorf("%w: attachment file is required", domain.ErrValidation)
	}

	unlock := s.store.LockNames(in.Name)
	defer unlock()

	path, err := s.store.SaveClientAttachment(in.Name, file.Filename, file.Content)
	if err != nil {
		metrics.ObserveFileOp("client_attachment_write", "error")
		return nil, err
	}
	metrics.ObserveFileOp("client_attachment_write", "success")

	client := &domain.Client{
		ID:             uuid.NewString(),
		Name:           in.Name,
		TaxID:          in.TaxID,
		Email:          in.Email,
		PostalCode:     in.PostalCode,
		TaxRegime:      in.TaxRegime,
		AttachmentPath: path,
		RegisteredDate: in.RegisteredDate,
	}

	if err := s.clients.Create(client); err != nil {
		s.store.Discard(path)
		return nil, err
	}

	s.invalidate()
	s.audit.LogFileChange("create", "client_attachment", client.ID, path)
	s.logger.Info("client created",
		slog.String("client_id", client.ID),
		slog.String("path", path),
	)
	return client, nil
}

// Update rewrites the client fields; a replacement file triggers the staged
// replace: the new file is written under a temporary name first, the row
// committed, then the staged file promoted into place and the superseded
// file removed. When the normalized name changed the old directory goes
// entirely, nested invoice files included.
func (s *ClientService) Update(id string, in ClientInput, file *Upload) (*domain.Client, error) {
	if in.Name == "" || in.TaxID == "" {
		return nil, fmt.Errorf("%w: name and taxId are required", domain.ErrValidation)
	}

	existing, err := s.clients.GetByID(id)
	if err != nil {
		return nil, err
	}

	unlock := s.store.LockNames(existing.Name, in.Name)
	defer unlock()

	attachmentPath := existing.AttachmentPath
	staged, final := "", ""
	if file != nil {
		staged, final, err = s.store.StageClientAttachment(in.Name, file.Filename, file.Content)
		if err != nil {
			metrics.ObserveFileOp("client_attachment_write", "error")
			return nil, err
		}
		metrics.ObserveFileOp("client_attachment_write", "success")
		attachmentPath = final
	}

	updated := &domain.Client{
		ID:             id,
		Name:           in.Name,
		TaxID:          in.TaxID,
		Email:          in.Email,
		PostalCode:     in.PostalCode,
		TaxRegime:      in.TaxRegime,
		AttachmentPath: attachmentPath,
		RegisteredDate: in.RegisteredDate,
		CreatedAt:      existing.CreatedAt,
	}

	if err := s.clients.Update(updated); err != nil {
		if staged != "" {
			s.store.Discard(staged)
		}
		return nil, err
	}

	if staged != "" {
		if err := s.store.Promote(staged, final); err != nil {
			// Row already committed; it points at final, so surface loudly.
			s.logger.Error("failed to promote staged attachment",
				slog.String("client_id", id),
				slog.String("error", err.Error()),
			)
		} else if err := s.store.CleanupReplaced(existing.AttachmentPath, final); err != nil {
			// Row already committed; the orphan file is the lesser evil.
			s.logger.Error("failed to remove replaced attachment",
				slog.String("client_id", id),
				slog.String("error", err.Error()),
			)
		}
		s.audit.LogFileChange("replace", "client_attachment", id, final)
	}

	s.invalidate()
	s.logger.Info("client updated", slog.String("client_id", id))
	return updated, nil
}

// Delete removes the row (cascading the invoice rows) and then the whole
// client directory. A filesystem failure after the commit is surfaced but
// nothing is rolled back.
func (s *ClientService) Delete(id string) error {
	existing, err := s.clients.GetByID(id)
	if err != nil {
		return err
	}

	unlock := s.store.LockNames(existing.Name)
	defer unlock()

	if err := s.clients.Delete(id); err != nil {
		return err
	}
	s.invalidate()

	if err := s.store.RemoveClientTree(existing.AttachmentPath); err != nil {
		metrics.ObserveFileOp("client_tree_delete", "error")
		s.logger.Error("client row deleted but directory removal failed",
			slog.String("client_id", id),
			slog.String("error", err.Error()),
		)
		return err
	}
	metrics.ObserveFileOp("client_tree_delete", "success")

	s.audit.LogFileChange("delete", "client_tree", id, existing.AttachmentPath)
	s.logger.Info("client deleted", slog.String("client_id", id))
	return nil
}

func (s *ClientService) invalidate() {
	if s.cache != nil {
		s.cache.Invalidate("clients:")
	}
}
