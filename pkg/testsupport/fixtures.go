package testsupport

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// UpdateGoldenEnv rewrites golden files instead of comparing when set to "1".
const UpdateGoldenEnv = "UPDATE_GOLDEN"

// LoadFixture reads a fixture file or fails the test.
func LoadFixture(tb testing.TB, path string) []byte {
	tb.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("load fixture %s: %v", path, err)
	}
	return data
}

// LoadGolden decodes a JSON golden file into v.
func LoadGolden(tb testing.TB, path string, v any) {
	tb.Helper()
	if err := json.Unmarshal(LoadFixture(tb, path), v); err != nil {
		tb.Fatalf("decode golden %s: %v", path, err)
	}
}

// AssertGolden compares got with the content of path.
func AssertGolden(tb testing.TB, path string, got []byte) {
	tb.Helper()
	if os.Getenv(UpdateGoldenEnv) == "1" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			tb.Fatalf("create golden dir: %v", err)
		}
		if err := os.WriteFile(path, got, 0o644); err != nil {
			tb.Fatalf("write golden %s: %v", path, err)
		}
		return
	}
	want := LoadFixture(tb, path)
	if !bytes.Equal(want, got) {
		tb.Fatalf("golden mismatch for %s\n--- want ---\n%s\n--- got ---\n%s", path, want, got)
	}
}
