package backup

import (
	"testing"
	"time"
)

func TestApplyRetention(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	bundles := make([]Bundle, 5)
	for i := range bundles {
		bundles[i] = Bundle{ID: string(rune('a' + i)), CreatedAt: base.Add(time.Duration(i) * time.Hour)}
	}

	kept, evicted := applyRetention(bundles, 3)
	if evicted != 2 || len(kept) != 3 {
		t.Fatalf("kept %d evicted %d, want 3/2", len(kept), evicted)
	}
	if kept[0].ID != "e" || kept[2].ID != "c" {
		t.Errorf("unexpected survivors: %v", []string{kept[0].ID, kept[1].ID, kept[2].ID})
	}

	kept, evicted = applyRetention(bundles, 10)
	if evicted != 0 || len(kept) != 5 {
		t.Errorf("under the cap nothing should be evicted, got %d/%d", len(kept), evicted)
	}
}
