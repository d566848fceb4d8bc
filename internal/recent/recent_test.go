package recent

import (
	"testing"
)

func TestManagerAddMostRecentFirst(t *testing.T) {
	t.Parallel()

	m := NewManager(5, nil)
	m.Add("a")
	m.Add("b")
	m.Add("c")

	got := m.Locators()
	want := []string{"c", "b", "a"}
	if len(got) != len(want) {
		t.Fatalf("Locators() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Locators()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestManagerAddDeduplicates(t *testing.T) {
	t.Parallel()

	m := NewManager(5, nil)
	m.Add("a")
	m.Add("b")
	m.Add("a")

	got := m.Locators()
	if len(got) != 2 {
		t.Fatalf("Locators() = %v, want 2 entries", got)
	}
	if got[0] != "a" || got[1] != "b" {
		t.Errorf("Locators() = %v, want [a b]", got)
	}
}

func TestManagerEvictsOldest(t *testing.T) {
	t.Parallel()

	m := NewManager(2, nil)
	m.Add("a")
	m.Add("b")
	m.Add("c")

	got := m.Locators()
	if len(got) != 2 || got[0] != "c" || got[1] != "b" {
		t.Errorf("Locators() = %v, want [c b]", got)
	}
}

func TestManagerRemove(t *testing.T) {
	t.Parallel()

	m := NewManager(5, nil)
	m.Add("a")
	m.Add("b")
	m.Remove("a")

	got := m.Locators()
	if len(got) != 1 || got[0] != "b" {
		t.Errorf("Locators() after Remove = %v, want [b]", got)
	}

	// Removing something absent is a no-op.
	m.Remove("missing")
	if got := m.Locators(); len(got) != 1 {
		t.Errorf("Locators() = %v, want 1 entry", got)
	}
}

func TestManagerReplaceRespectsLimit(t *testing.T) {
	t.Parallel()

	m := NewManager(2, nil)
	m.Replace([]string{"a", "b", "c"})

	got := m.Locators()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Locators() after Replace = %v, want [a b]", got)
	}
}
