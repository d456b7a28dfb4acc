package storage

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"regexp"
	"time"
)

var whitespaceRuns = regexp.MustCompile(`\s+`)

// Normalize collapses whitespace runs in a client display name to a single
// underscore so it can be used as a path segment. No further sanitization is
// applied: two names that normalize identically share the same directory.
func Normalize(name string) string {
	return whitespaceRuns.ReplaceAllString(name, "_")
}

// AttachmentFilename returns the fixed client attachment name, keeping the
// extension of the uploaded file ("attachment.pdf" for "anything.pdf").
func AttachmentFilename(originalName string) string {
	return "attachment" + filepath.Ext(originalName)
}

// InvoiceFilename prefixes the original name with epoch millis and a random
// int, guaranteeing uniqueness without inspecting existing entries.
func InvoiceFilename(originalName string) string {
	return fmt.Sprintf("%d-%d-%s", time.Now().UnixMilli(), rand.IntN(1_000_000_000), originalName)
}
