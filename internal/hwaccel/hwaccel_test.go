package hwaccel

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()

	for _, d := range All {
		got, err := Parse(d.ShortName())
		if err != nil {
			t.Errorf("Parse(%q) error: %v", d.ShortName(), err)
			continue
		}
		if got != d {
			t.Errorf("Parse(%q) = %v, want %v", d.ShortName(), got, d)
		}
	}
}

func TestParseUnknown(t *testing.T) {
	t.Parallel()

	_, err := Parse("quicksync")
	if err == nil {
		t.Fatal("Parse of unknown name succeeded")
	}
	if !strings.Contains(err.Error(), "quicksync") {
		t.Errorf("error %q does not name the rejected value", err)
	}
	if !strings.Contains(err.Error(), "vaapi") {
		t.Errorf("error %q does not list valid choices", err)
	}
}

func TestShortNameRoundTrip(t *testing.T) {
	t.Parallel()

	seen := make(map[string]DeviceType)
	for _, d := range All {
		name := d.ShortName()
		if prev, ok := seen[name]; ok {
			t.Errorf("ShortName %q shared by %v and %v", name, prev, d)
		}
		seen[name] = d
	}
}
