package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"testing"
)

// The runtime paths share stderr with the structured logger; stray
// prints would interleave with JSON log lines.
func TestNoFmtOrStdLogPrintingInRuntimePaths(t *testing.T) {
	t.Helper()

	banned := regexp.MustCompile(`\bfmt\.(Print|Printf|Println|Fprint|Fprintf|Fprintln)\b|\blog\.(Print|Printf|Println)\b`)
	roots := []string{"cmd/viewlink", "internal/session", "internal/dispatch"}
	violations := make([]string, 0)

	for _, root := range roots {
		walkRoot := filepath.Join("..", "..", root)
		_ = filepath.WalkDir(walkRoot, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			raw, readErr := os.ReadFile(path)
			if readErr != nil {
				return readErr
			}
			lines := strings.Split(string(raw), "\n")
			for i, line := range lines {
				if banned.MatchString(line) {
					violations = append(violations, fmt.Sprintf("%s:%d: %s", filepath.ToSlash(path), i+1, strings.TrimSpace(line)))
				}
			}
			return nil
		})
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		t.Fatalf("found banned logging calls:\n%s", strings.Join(violations, "\n"))
	}
}
