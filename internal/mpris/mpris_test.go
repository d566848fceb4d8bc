package mpris

import (
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()

	if got, want := statusFor(true), "Paused"; got != want {
		t.Errorf("statusFor(true) = %q, want %q", got, want)
	}
	if got, want := statusFor(false), "Playing"; got != want {
		t.Errorf("statusFor(false) = %q, want %q", got, want)
	}
}

func TestMetadataFor(t *testing.T) {
	t.Parallel()

	meta := metadataFor("/videos/movie.mkv", 90*time.Second)

	if got, want := meta["mpris:length"], dbus.MakeVariant(int64(90_000_000)); got != want {
		t.Errorf("mpris:length = %v, want %v", got, want)
	}
	if got, want := meta["xesam:title"], dbus.MakeVariant("movie.mkv"); got != want {
		t.Errorf("xesam:title = %v, want %v", got, want)
	}
	if _, ok := meta["mpris:trackid"]; !ok {
		t.Error("mpris:trackid missing")
	}
}

func TestMetadataForEmptyTitle(t *testing.T) {
	t.Parallel()

	meta := metadataFor("", 0)
	if _, ok := meta["xesam:title"]; ok {
		t.Error("xesam:title present for empty locator")
	}
	if _, ok := meta["xesam:url"]; ok {
		t.Error("xesam:url present for empty locator")
	}
}
