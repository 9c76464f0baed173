//go:build integration
// +build integration

package ncbi

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/akrmnd/vitalis/internal/sniff"
)

// This file contains integration tests that hit the real NCBI API. They are
// excluded by default; run with `go test -tags=integration ./...`.

func TestIntegrationFetchLive(t *testing.T) {
	c := NewClient(t.TempDir(), os.Getenv("NCBI_API_KEY"))
	got, err := c.Fetch(context.Background(), "NM_000350", sniff.FormatGenbank)
	if err != nil {
		t.Fatalf("live fetch failed: %v", err)
	}
	if !strings.HasPrefix(got, "LOCUS") {
		t.Fatalf("expected a GenBank record, got %.80q", got)
	}
}
