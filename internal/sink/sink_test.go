package sink

import (
	"encoding/binary"
	"log/slog"
	"testing"

	"github.com/tessera-media/tessera/internal/queue"
)

func TestQueueReaderConvertsSamples(t *testing.T) {
	t.Parallel()

	q := queue.NewAudioQueue(2, 48000)
	q.Write([]float32{0, 0.5, -0.5, 1})
	r := newQueueReader(q, 48000, 2, slog.Default())

	buf := make([]byte, 8)
	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("Read = %d bytes, want %d", n, len(buf))
	}

	want := []int16{0, 16383, -16383, 32767}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(buf[2*i:]))
		if got != w {
			t.Errorf("sample %d = %d, want %d", i, got, w)
		}
	}
	if got := r.underruns.Load(); got != 0 {
		t.Errorf("underruns = %d, want 0", got)
	}
}

func TestQueueReaderClampsOutOfRange(t *testing.T) {
	t.Parallel()

	q := queue.NewAudioQueue(1, 48000)
	q.Write([]float32{2, -2})
	r := newQueueReader(q, 48000, 1, slog.Default())

	buf := make([]byte, 4)
	r.Read(buf)

	if got := int16(binary.LittleEndian.Uint16(buf[0:])); got != 32767 {
		t.Errorf("over-range sample = %d, want 32767", got)
	}
	if got := int16(binary.LittleEndian.Uint16(buf[2:])); got != -32767 {
		t.Errorf("under-range sample = %d, want -32767", got)
	}
}

func TestQueueReaderUnderrunFillsSilence(t *testing.T) {
	t.Parallel()

	q := queue.NewAudioQueue(2, 48000)
	q.Write([]float32{1})
	r := newQueueReader(q, 48000, 2, slog.Default())

	buf := make([]byte, 8)
	for i := range buf {
		buf[i] = 0xFF
	}
	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("Read = %d bytes, want %d (short reads stall the device)", n, len(buf))
	}

	for i := 2; i < len(buf); i++ {
		if buf[i] != 0 {
			t.Fatalf("buf[%d] = %#x, want silence", i, buf[i])
		}
	}
	if got, want := r.underruns.Load(), int64(3); got != want {
		t.Errorf("underruns = %d, want %d", got, want)
	}
	if got := q.Len(); got != 0 {
		t.Errorf("queue Len after underrun = %d, want 0", got)
	}
}
