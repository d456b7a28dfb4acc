package audit

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLogFileChange(t *testing.T) {
	var buf bytes.Buffer
	al := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogFileChange("replace", "client_attachment", "c-1", "uploads/Acme/attachment.pdf")

	out := buf.String()
	for _, want := range []string{"audit_file", "replace", "client_attachment", "c-1", "uploads/Acme/attachment.pdf"} {
		if !strings.Contains(out, want) {
			t.Fatalf("audit entry missing %q: %s", want, out)
		}
	}
}

func TestLogFileChangeNilLogger(t *testing.T) {
	// Services run without an audit trail in tests; a nil logger is a no-op.
	var al *Logger
	al.LogFileChange("create", "invoice_file", "i-1", "uploads/Acme/invoices/x.pdf")
}
