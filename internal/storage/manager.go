package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Manager owns the on-disk attachment tree. Every client gets a directory
// keyed by its normalized display name under the upload root; invoice files
// live in an invoices/ subdirectory of the owning client.
//
// File writes are staged: callers write the new file, commit the database
// row, and only then discard the replaced file, so a failed commit never
// leaves the row pointing at a missing file.
type Manager struct {
	root   string
	locks  *dirLocks
	logger *slog.Logger
}

// NewManager creates a manager rooted at dir (typically "uploads").
func NewManager(root string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		root:   root,
		locks:  newDirLocks(),
		logger: logger,
	}
}

// Root returns the upload root directory.
func (m *Manager) Root() string {
	return m.root
}

// ClientDir returns the directory for a client display name.
func (m *Manager) ClientDir(name string) string {
	return filepath.Join(m.root, Normalize(name))
}

// InvoiceDir returns the invoices subdirectory for a client display name.
func (m *Manager) InvoiceDir(name string) string {
	return filepath.Join(m.ClientDir(name), "invoices")
}

// LockNames serializes file operations for the given client names and
// returns a release func. Names normalizing to the same directory share
// one lock.
func (m *Manager) LockNames(names ...string) func() {
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = Normalize(n)
	}
	return m.locks.acquire(keys...)
}

// SaveClientAttachment writes the uploaded file as the client's attachment,
// creating the directory first. The stored filename is fixed to
// attachment.<ext>; a same-extension write replaces the previous content.
func (m *Manager) SaveClientAttachment(name, originalName string, content io.Reader) (string, error) {
	dir := m.ClientDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create client directory: %w", err)
	}
	path := filepath.Join(dir, AttachmentFilename(originalName))
	if err := writeFile(path, content); err != nil {
		return "", err
	}
	return path, nil
}

// StageClientAttachment writes a replacement attachment next to its final
// location under a temporary name and returns both paths. The previous
// attachment stays untouched until Promote moves the staged file into place,
// so a failed row commit can Discard the staged copy without data loss even
// when the final path equals the current one.
func (m *Manager) StageClientAttachment(name, originalName string, content io.Reader) (staged, final string, err error) {
	dir := m.ClientDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create client directory: %w", err)
	}
	final = filepath.Join(dir, AttachmentFilename(originalName))
	staged = final + ".tmp"
	if err := writeFile(staged, content); err != nil {
		return "", "", err
	}
	return staged, final, nil
}

// Promote moves a staged attachment into its final place after the row
// commit succeeded.
func (m *Manager) Promote(staged, final string) error {
	if err := os.Rename(staged, final); err != nil {
		return fmt.Errorf("failed to promote staged file: %w", err)
	}
	return nil
}

// SaveInvoiceFile writes an uploaded invoice under the owning client's
// invoices directory with a timestamp+random disambiguated name.
func (m *Manager) SaveInvoiceFile(clientName, originalName string, content io.Reader) (string, error) {
	dir := m.InvoiceDir(clientName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create invoices directory: %w", err)
	}
	path := filepath.Join(dir, InvoiceFilename(originalName))
	if err := writeFile(path, content); err != nil {
		return "", err
	}
	return path, nil
}

// Discard removes a freshly staged file after a failed row commit. The
// parent directory is removed too when the rollback leaves it empty.
func (m *Manager) Discard(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		m.logger.Error("failed to roll back staged file",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return
	}
	// Best effort: os.Remove refuses non-empty directories.
	dir := filepath.Dir(path)
	if dir != m.root {
		_ = os.Remove(dir)
	}
}

// CleanupReplaced removes whatever the old attachment path points at once a
// replacement has been committed. When the client directory changed (the
// name was edited) the whole old directory goes, nested invoice files
// included; when it is the same directory only the superseded file is
// deleted, leaving sibling content intact.
func (m *Manager) CleanupReplaced(oldPath, newPath string) error {
	if oldPath == "" || oldPath == newPath {
		return nil
	}
	oldDir := filepath.Dir(oldPath)
	if oldDir != filepath.Dir(newPath) {
		return m.removeTree(oldDir)
	}
	if err := os.Remove(oldPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove replaced attachment: %w", err)
	}
	return nil
}

// RemoveClientTree recursively deletes the directory containing the given
// client attachment. Missing files or directories are not an error: the
// row is already gone and the tree state is what matters.
func (m *Manager) RemoveClientTree(attachmentPath string) error {
	if attachmentPath == "" {
		return nil
	}
	return m.removeTree(filepath.Dir(attachmentPath))
}

// RemoveInvoiceFile deletes a single invoice file, never its parent
// directory. A missing file is not an error.
func (m *Manager) RemoveInvoiceFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove invoice file: %w", err)
	}
	return nil
}

func (m *Manager) removeTree(dir string) error {
	// Never let a stored path escape the upload root.
	if dir == "" || dir == m.root || dir == "." || dir == string(filepath.Separator) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove directory %s: %w", dir, err)
	}
	return nil
}

func writeFile(path string, content io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}
