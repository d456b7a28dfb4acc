package service

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/yourorg/invoicedesk/internal/domain"
	"github.com/yourorg/invoicedesk/internal/storage"
	"github.com/yourorg/invoicedesk/pkg/cache"
)

type memClientRepo struct {
	byID      map[string]*domain.Client
	failWrite error
}

func newMemClientRepo() *memClientRepo {
	return &memClientRepo{byID: map[string]*domain.Client{}}
}

func (m *memClientRepo) Create(c *domain.Client) error {
	if m.failWrite != nil {
		return m.failWrite
	}
	c.CreatedAt = time.Now()
	m.byID[c.ID] = c
	return nil
}

func (m *memClientRepo) GetByID(id string) (*domain.Client, error) {
	if c, ok := m.byID[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memClientRepo) List() ([]*domain.Client, error) {
	out := []*domain.Client{}
	for _, c := range m.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memClientRepo) Update(c *domain.Client) error {
	if m.failWrite != nil {
		return m.failWrite
	}
	if _, ok := m.byID[c.ID]; !ok {
		return domain.ErrNotFound
	}
	m.byID[c.ID] = c
	return nil
}

func (m *memClientRepo) Delete(id string) error {
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func newTestClientService(t *testing.T, repo *memClientRepo) (*ClientService, *storage.Manager) {
	t.Helper()
	store := storage.NewManager(t.TempDir(), nil)
	return NewClientService(repo, store, cache.New(), time.Minute, nil, nil), store
}

func upload(name, content string) Upload {
	return Upload{Filename: name, Content: strings.NewReader(content)}
}

func TestClientCreateWritesAttachment(t *testing.T) {
	repo := newMemClientRepo()
	s, store := newTestClientService(t, repo)

	client, err := s.Create(ClientInput{Name: "Juan Perez", TaxID: "X123"}, upload("cert.pdf", "pdf-bytes"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	want := filepath.Join(store.Root(), "Juan_Perez", "attachment.pdf")
	if client.AttachmentPath != want {
		t.Fatalf("attachment path = %q, want %q", client.AttachmentPath, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("attachment not on disk: %v", err)
	}
	if string(data) != "pdf-bytes" {
		t.Fatalf("attachment content = %q", data)
	}
	if _, ok := repo.byID[client.ID]; !ok {
		t.Fatalf("row not persisted")
	}
}

func TestClientCreateRollsBackFileOnInsertFailure(t *testing.T) {
	repo := newMemClientRepo()
	repo.failWrite = errors.New("insert failed")
	s, store := newTestClientService(t, repo)

	if _, err := s.Create(ClientInput{Name: "Juan Perez", TaxID: "X123"}, upload("cert.pdf", "x")); err == nil {
		t.Fatalf("expected insert failure")
	}

	if _, err := os.Stat(filepath.Join(store.Root(), "Juan_Perez")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("staged directory survived the rollback: %v", err)
	}
}

func TestClientCreateValidation(t *testing.T) {
	s, _ := newTestClientService(t, newMemClientRepo())

	if _, err := s.Create(ClientInput{TaxID: "X123"}, upload("a.pdf", "x")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error without name, got %v", err)
	}
	if _, err := s.Create(ClientInput{Name: "A", TaxID: "X"}, Upload{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error without file, got %v", err)
	}
}

func TestClientUpdateReplacesAttachmentInPlace(t *testing.T) {
	repo := newMemClientRepo()
	s, store := newTestClientService(t, repo)

	client, err := s.Create(ClientInput{Name: "Juan Perez", TaxID: "X123"}, upload("cert.pdf", "old"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// A sibling invoice file must survive a same-directory replace.
	invoiceDir := store.InvoiceDir("Juan Perez")
	if err := os.MkdirAll(invoiceDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	invoicePath := filepath.Join(invoiceDir, "1-1-f.pdf")
	if err := os.WriteFile(invoicePath, []byte("inv"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	in := ClientInput{Name: "Juan Perez", TaxID: "X123"}
	u := upload("cert.png", "new")
	updated, err := s.Update(client.ID, in, &u)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	want := filepath.Join(store.Root(), "Juan_Perez", "attachment.png")
	if updated.AttachmentPath != want {
		t.Fatalf("attachment path = %q, want %q", updated.AttachmentPath, want)
	}
	if _, err := os.Stat(client.AttachmentPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("superseded attachment survived: %v", err)
	}
	if _, err := os.Stat(invoicePath); err != nil {
		t.Fatalf("sibling invoice file removed by replace: %v", err)
	}
}

func TestClientRenameRemovesOldDirectory(t *testing.T) {
	repo := newMemClientRepo()
	s, store := newTestClientService(t, repo)

	client, err := s.Create(ClientInput{Name: "Juan Perez", TaxID: "X123"}, upload("cert.pdf", "old"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	in := ClientInput{Name: "Juan Garcia", TaxID: "X123"}
	u := upload("cert.pdf", "new")
	updated, err := s.Update(client.ID, in, &u)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(store.Root(), "Juan_Perez")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("old directory survived the rename: %v", err)
	}
	if _, err := os.Stat(updated.AttachmentPath); err != nil {
		t.Fatalf("new attachment missing: %v", err)
	}
}

func TestClientUpdateRollsBackStagedFileOnCommitFailure(t *testing.T) {
	repo := newMemClientRepo()
	s, store := newTestClientService(t, repo)

	client, err := s.Create(ClientInput{Name: "Juan Perez", TaxID: "X123"}, upload("cert.pdf", "old"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	repo.failWrite = errors.New("update failed")
	in := ClientInput{Name: "Juan Garcia", TaxID: "X123"}
	u := upload("cert.pdf", "new")
	if _, err := s.Update(client.ID, in, &u); err == nil {
		t.Fatalf("expected update failure")
	}

	// Staged file in the new directory is gone, the old one is intact.
	if _, err := os.Stat(filepath.Join(store.Root(), "Juan_Garcia")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("staged directory survived the rollback: %v", err)
	}
	if _, err := os.Stat(client.AttachmentPath); err != nil {
		t.Fatalf("old attachment lost on failed update: %v", err)
	}
}

func TestClientUpdateSameFileRollbackKeepsOldContent(t *testing.T) {
	repo := newMemClientRepo()
	s, _ := newTestClientService(t, repo)

	client, err := s.Create(ClientInput{Name: "Juan Perez", TaxID: "X123"}, upload("cert.pdf", "old-content"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Same name and same extension: the replacement lands on the same path.
	repo.failWrite = errors.New("update failed")
	in := ClientInput{Name: "Juan Perez", TaxID: "X123"}
	u := upload("cert.pdf", "new-content")
	if _, err := s.Update(client.ID, in, &u); err == nil {
		t.Fatalf("expected update failure")
	}

	data, err := os.ReadFile(client.AttachmentPath)
	if err != nil {
		t.Fatalf("old attachment gone after failed commit: %v", err)
	}
	if string(data) != "old-content" {
		t.Fatalf("old attachment overwritten: %q", data)
	}
	if _, err := os.Stat(client.AttachmentPath + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("staged file survived the rollback: %v", err)
	}
}

func TestClientDeleteRemovesWholeTree(t *testing.T) {
	repo := newMemClientRepo()
	s, store := newTestClientService(t, repo)

	client, err := s.Create(ClientInput{Name: "Juan Perez", TaxID: "X123"}, upload("cert.pdf", "x"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	invoiceDir := store.InvoiceDir("Juan Perez")
	if err := os.MkdirAll(invoiceDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(invoiceDir, "1-1-f.pdf"), []byte("inv"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := s.Delete(client.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(store.Root(), "Juan_Perez")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("client directory survived the delete: %v", err)
	}
	if _, ok := repo.byID[client.ID]; ok {
		t.Fatalf("row survived the delete")
	}

	if err := s.Delete(client.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestClientListUsesCacheUntilWrite(t *testing.T) {
	repo := newMemClientRepo()
	s, _ := newTestClientService(t, repo)

	if _, err := s.Create(ClientInput{Name: "Ana", TaxID: "T1"}, upload("c.pdf", "x")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	first, err := s.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	// A mutation behind the service's back is masked by the cache.
	repo.byID["ghost"] = &domain.Client{ID: "ghost", Name: "Ghost"}
	cached, err := s.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(cached) != len(first) {
		t.Fatalf("expected cached listing of %d, got %d", len(first), len(cached))
	}

	// Any write through the service invalidates.
	if _, err := s.Create(ClientInput{Name: "Bea", TaxID: "T2"}, upload("c.pdf", "x")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	fresh, err := s.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(fresh) != 3 {
		t.Fatalf("expected 3 clients after invalidation, got %d", len(fresh))
	}
}
