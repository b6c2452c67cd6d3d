package actions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pdfx "github.com/ledongthuc/pdf"
)

const maxReadSize = 1024 * 1024 // 1MiB

// ReadFileAction reads a text or PDF file from the allowed directories.
// Inputs:
// - path: string (required)
// Output: {"content": string, "path": string}
type ReadFileAction struct {
	// AllowedDirs are the only directory prefixes the action may read from.
	AllowedDirs []string
}

func NewReadFile(allowedDirs ...string) *ReadFileAction {
	if len(allowedDirs) == 0 {
		allowedDirs = []string{"uploads", "data"}
	}
	return &ReadFileAction{AllowedDirs: allowedDirs}
}

func (a *ReadFileAction) Name() string { return "read_file" }

func (a *ReadFileAction) Execute(ctx context.Context, input map[string]any) Result {
	path := getString(input, "path")
	if path == "" {
		return failed("missing path")
	}
	if !a.pathAllowed(path) {
		return failed("Access denied: Path '%s' is unsafe or restricted.", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return failed("File not found: %s", path)
	}
	if info.Size() > maxReadSize {
		return failed("File too large: %d bytes (Max: %d)", info.Size(), maxReadSize)
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		content, err := extractPDFText(path)
		if err != nil {
			return failed("pdf extraction failed: %v", err)
		}
		return success(map[string]any{"content": content, "path": path})
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return failed("read failed: %v", err)
	}
	return success(map[string]any{"content": string(buf), "path": path})
}

func (a *ReadFileAction) pathAllowed(path string) bool {
	clean := filepath.Clean(path)
	for _, part := range strings.Split(clean, string(os.PathSeparator)) {
		if part == ".." {
			return false
		}
	}
	absTarget, err := filepath.Abs(clean)
	if err != nil {
		return false
	}
	for _, dir := range a.AllowedDirs {
		absAllowed, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		if absTarget == absAllowed || strings.HasPrefix(absTarget, absAllowed+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func extractPDFText(path string) (string, error) {
	f, r, err := pdfx.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	var out strings.Builder
	for page := 1; page <= r.NumPage(); page++ {
		p := r.Page(page)
		txt, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		t := strings.TrimSpace(txt)
		if t != "" {
			out.WriteString(t)
			out.WriteString("\n\n")
		}
	}
	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("no extractable text")
	}
	return text, nil
}
