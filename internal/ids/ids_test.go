package ids

import (
	"sort"
	"testing"
)

func TestNewSortsByCreationOrder(t *testing.T) {
	var values []string
	for i := 0; i < 100; i++ {
		values = append(values, New())
	}

	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if len(v) != 26 {
			t.Fatalf("id %q has length %d, want 26", v, len(v))
		}
		if seen[v] {
			t.Fatalf("duplicate id %q", v)
		}
		seen[v] = true
	}

	if !sort.StringsAreSorted(values) {
		t.Fatal("ids generated in one process should sort in creation order")
	}
}
