package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/formwork/pkg/ports"
)

// DocumentSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.DocumentSource.
func DocumentSourceContractTest(t *testing.T, source ports.DocumentSource, setupData map[string][]byte) {
	t.Helper()
	ctx := context.Background()

	t.Run("ReadDocument_Success", func(t *testing.T) {
		for key, expected := range setupData {
			content, err := source.ReadDocument(ctx, key)
			if err != nil {
				t.Fatalf("unexpected error reading %s: %v", key, err)
			}
			if string(content) != string(expected) {
				t.Errorf("content mismatch for %s. got %q, want %q", key, content, expected)
			}
		}
	})

	t.Run("ReadDocument_NotFound", func(t *testing.T) {
		_, err := source.ReadDocument(ctx, "non-existent/document.json")
		if err == nil {
			t.Fatal("expected error for non-existent document, got nil")
		}
		if !errors.Is(err, ports.ErrDocumentNotFound) {
			t.Errorf("expected ErrDocumentNotFound, got %v", err)
		}
	})
}
