package docsync

import "testing"

func TestLatestWriteWins(t *testing.T) {
	d := NewDocument()
	if rev := d.SetContent("one"); rev != 1 {
		t.Fatalf("rev=%d, want 1", rev)
	}
	d.SetContent("two")
	if rev := d.SetContent("three"); rev != 3 {
		t.Fatalf("rev=%d, want 3", rev)
	}
	if got := d.Content(); got != "three" {
		t.Fatalf("content=%q, want three", got)
	}
}

func TestCursorLifecycle(t *testing.T) {
	d := NewDocument()
	d.SetCursor("a", Cursor{Row: 3, Col: 7})
	d.SetCursor("b", Cursor{Row: 1, Col: 0})

	cursors := d.Cursors()
	if cursors["a"] != (Cursor{Row: 3, Col: 7}) {
		t.Fatalf("cursor a=%+v", cursors["a"])
	}

	// The returned map is a copy, not a window into the document.
	cursors["a"] = Cursor{Row: 99, Col: 99}
	if d.Cursors()["a"] != (Cursor{Row: 3, Col: 7}) {
		t.Fatal("Cursors leaked internal state")
	}

	d.DropCursor("a")
	if _, ok := d.Cursors()["a"]; ok {
		t.Fatal("cursor a not dropped")
	}
	if _, ok := d.Cursors()["b"]; !ok {
		t.Fatal("cursor b lost")
	}
}

func TestMessageRoundTrip(t *testing.T) {
	msg, err := NewMessage(KindContentSync, ContentPayload{Content: "hello"})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	frame, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Type != KindContentSync {
		t.Fatalf("type=%q", decoded.Type)
	}
	var payload ContentPayload
	if err := decoded.DecodePayload(&payload); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if payload.Content != "hello" {
		t.Fatalf("content=%q", payload.Content)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte{0xc1}); err == nil {
		t.Fatal("expected error for invalid msgpack")
	}
}
