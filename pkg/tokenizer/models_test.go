package tokenizer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeModels(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestTokenizer_LoadModels(t *testing.T) {
	tok := newTestTokenizer()
	path := writeModels(t, `
models:
  - pattern: "llama-3*"
    context_size: 8192
    encoding: cl100k_base
  - pattern: "in-house-chat"
    context_size: 32768
  - pattern: "gpt-4*"
    context_size: 100000
    encoding: cl100k_base
`)

	if err := tok.LoadModels(path); err != nil {
		t.Fatalf("LoadModels: %v", err)
	}

	spec, err := tok.Resolve("llama-3-70b")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if spec.ContextSize != 8192 {
		t.Errorf("ContextSize = %d, want 8192", spec.ContextSize)
	}

	// Encoding defaults to cl100k_base when omitted.
	spec, err = tok.Resolve("in-house-chat")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if spec.Encoding != EncodingCL100K {
		t.Errorf("Encoding = %q, want %q", spec.Encoding, EncodingCL100K)
	}

	// A file entry replaces the built-in spec with the same pattern.
	spec, err = tok.Resolve("gpt-4-0314")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if spec.ContextSize != 100000 {
		t.Errorf("ContextSize = %d, want 100000", spec.ContextSize)
	}

	// Untouched built-ins survive the merge.
	if _, err := tok.Resolve("gpt-4o"); err != nil {
		t.Errorf("Resolve(gpt-4o): %v", err)
	}
}

func TestTokenizer_LoadModels_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "models: [pattern", "parsing models file"},
		{"no pattern", "models:\n  - context_size: 100\n", "has no pattern"},
		{"zero context", "models:\n  - pattern: \"m*\"\n", "context size"},
		{"malformed pattern", "models:\n  - pattern: \"m[\"\n    context_size: 100\n", "malformed pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := newTestTokenizer()
			err := tok.LoadModels(writeModels(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		tok := newTestTokenizer()
		err := tok.LoadModels(filepath.Join(t.TempDir(), "absent.yaml"))
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "reading models file") {
			t.Errorf("error = %q", err)
		}
	})
}
