package mail

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const fallbackName = "adjunto.pdf"

var unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename makes an attachment name safe for the local filesystem.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	name = unsafeNameRe.ReplaceAllString(name, "_")
	if name == "" {
		return fallbackName
	}
	return name
}

// EnsurePDFExt forces a .pdf extension when the MIME type says pdf, and
// leaves names that already end in .pdf alone.
func EnsurePDFExt(filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if strings.EqualFold(contentType, "application/pdf") && ext != ".pdf" {
		return strings.TrimSuffix(filename, filepath.Ext(filename)) + ".pdf"
	}
	return filename
}

// IsPDFPart decides whether a message part carries a PDF, by MIME type or
// by attachment filename.
func IsPDFPart(contentType, filename string) bool {
	ct := strings.ToLower(contentType)
	fname := strings.ToLower(filename)
	if ct == "application/pdf" {
		return true
	}
	if ct == "application/octet-stream" && strings.HasSuffix(fname, ".pdf") {
		return true
	}
	return strings.HasSuffix(fname, ".pdf")
}

// UniquePath returns a collision-free path in dir for the sanitized
// filename, always with a .pdf extension.
func UniquePath(dir, filename string) string {
	base := SanitizeFilename(filename)
	ext := filepath.Ext(base)
	root := strings.TrimSuffix(base, ext)
	if !strings.EqualFold(ext, ".pdf") {
		ext = ".pdf"
	}
	path := filepath.Join(dir, root+ext)
	for i := 1; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		path = filepath.Join(dir, fmt.Sprintf("%s-%d%s", root, i, ext))
	}
}
