package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestFrame_PrependsBigEndianLength(t *testing.T) {
	framed := Frame([]byte("abc"))
	want := []byte{0, 0, 0, 3, 'a', 'b', 'c'}
	if !bytes.Equal(framed, want) {
		t.Fatalf("unexpected frame bytes: %v", framed)
	}
}

func TestExtractor_EveryFragmentationOffset(t *testing.T) {
	payload := []byte("hello framed world")
	framed := Frame(payload)
	for cut := 0; cut <= len(framed); cut++ {
		ex := NewExtractor(0)
		ex.Feed(framed[:cut])
		if _, ok, err := ex.Next(); err != nil {
			t.Fatalf("cut %d: unexpected error: %v", cut, err)
		} else if ok && cut < len(framed) {
			t.Fatalf("cut %d: got payload before all bytes arrived", cut)
		}
		ex.Feed(framed[cut:])
		got, ok, err := ex.Next()
		if err != nil {
			t.Fatalf("cut %d: %v", cut, err)
		}
		if !ok {
			t.Fatalf("cut %d: expected complete payload", cut)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("cut %d: payload mismatch: %q", cut, got)
		}
	}
}

func TestExtractor_BackToBackFramesInOneFeed(t *testing.T) {
	ex := NewExtractor(0)
	var stream []byte
	stream = append(stream, Frame([]byte("one"))...)
	stream = append(stream, Frame([]byte(""))...)
	stream = append(stream, Frame([]byte("three"))...)
	ex.Feed(stream)

	for i, want := range [][]byte{[]byte("one"), {}, []byte("three")} {
		got, ok, err := ex.Next()
		if err != nil || !ok {
			t.Fatalf("frame %d: ok=%v err=%v", i, ok, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("frame %d: got %q want %q", i, got, want)
		}
	}
	if _, ok, _ := ex.Next(); ok {
		t.Fatal("expected no further frames")
	}
	if ex.Buffered() != 0 {
		t.Fatalf("expected empty buffer, have %d bytes", ex.Buffered())
	}
}

func TestExtractor_OversizedLengthIsFatal(t *testing.T) {
	ex := NewExtractor(16)
	ex.Feed([]byte{0, 0, 1, 0})
	_, _, err := ex.Next()
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestReadFrame_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, []byte("payload")); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadFrame(&buf, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("unexpected payload: %q", got)
	}
}

func TestReadFrame_RejectsOversized(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	if _, err := ReadFrame(&buf, 1024); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}
