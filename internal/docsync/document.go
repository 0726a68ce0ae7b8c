package docsync

import "sync"

// Cursor is one participant's position in the document.
type Cursor struct {
	Row int
	Col int
}

// Document holds the locally known latest content and the remote cursors.
// The latest write wins wholesale; concurrent edits are not merged.
//
// The editing surface and the coordinator loop touch the document from
// different goroutines, so access is serialized with a lock.
type Document struct {
	mu       sync.Mutex
	content  string
	revision uint64
	cursors  map[string]Cursor
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{cursors: make(map[string]Cursor)}
}

// SetContent replaces the content wholesale and returns the new local
// revision. The revision is diagnostic only, it never goes on the wire.
func (d *Document) SetContent(content string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.content = content
	d.revision++
	return d.revision
}

// Content returns the latest content.
func (d *Document) Content() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.content
}

// Revision returns the local revision counter.
func (d *Document) Revision() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.revision
}

// SetCursor records a participant's cursor position.
func (d *Document) SetCursor(clientID string, cur Cursor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cursors[clientID] = cur
}

// DropCursor forgets a departed participant's cursor.
func (d *Document) DropCursor(clientID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.cursors, clientID)
}

// Cursors returns a copy of the known cursor positions.
func (d *Document) Cursors() map[string]Cursor {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]Cursor, len(d.cursors))
	for id, cur := range d.cursors {
		out[id] = cur
	}
	return out
}
