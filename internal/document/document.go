package document

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Block is a snapshot of one document line. The ID is stable for the
// lifetime of the line; Text is the line's content at snapshot time.
type Block struct {
	ID   uuid.UUID
	Text string
}

// Zero reports whether b is the zero Block (no line).
func (b Block) Zero() bool {
	return b.ID == uuid.Nil
}

// Artifact is the side-table payload attached to an engine-generated
// preview block.
type Artifact struct {
	// SourceKey is the resolved image source the block renders.
	SourceKey string
}

// ChangeFunc receives host-style change notifications: the character
// position of the change and the number of characters removed and added.
type ChangeFunc func(pos, charsRemoved, charsAdded int)

// line is the internal mutable representation of a block.
type line struct {
	id   uuid.UUID
	text string
}

// Document is an ordered sequence of blocks with an artifact side-table.
// All methods are safe for concurrent use; change observers are invoked
// outside the document lock.
type Document struct {
	mu        sync.RWMutex
	lines     []*line
	artifacts map[uuid.UUID]Artifact
	modified  bool
	observers []ChangeFunc
}

// New creates an empty document with a single empty block.
func New() *Document {
	return NewFromString("")
}

// NewFromString creates a document from text, splitting on newlines.
func NewFromString(text string) *Document {
	parts := strings.Split(text, "\n")
	d := &Document{
		lines:     make([]*line, 0, len(parts)),
		artifacts: make(map[uuid.UUID]Artifact),
	}
	for _, p := range parts {
		d.lines = append(d.lines, &line{id: uuid.New(), text: p})
	}
	return d
}

// OnChange registers a change observer. Observers run after the mutation
// completes, outside the document lock, on the mutating goroutine.
// No-op deltas (0 removed, 0 added) are never delivered.
func (d *Document) OnChange(fn ChangeFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, fn)
}

// Len returns the number of blocks.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.lines)
}

// Text returns the full document text.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	parts := make([]string, len(d.lines))
	for i, ln := range d.lines {
		parts[i] = ln.text
	}
	return strings.Join(parts, "\n")
}

// Blocks returns a snapshot of every block in order.
func (d *Document) Blocks() []Block {
	d.mu.RLock()
	defer d.mu.RUnlock()

	blocks := make([]Block, len(d.lines))
	for i, ln := range d.lines {
		blocks[i] = Block{ID: ln.id, Text: ln.text}
	}
	return blocks
}

// First returns the first block.
func (d *Document) First() (Block, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.lines) == 0 {
		return Block{}, false
	}
	return Block{ID: d.lines[0].id, Text: d.lines[0].text}, true
}

// Next returns the block following id.
func (d *Document) Next(id uuid.UUID) (Block, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	i, ok := d.indexOf(id)
	if !ok || i+1 >= len(d.lines) {
		return Block{}, false
	}
	ln := d.lines[i+1]
	return Block{ID: ln.id, Text: ln.text}, true
}

// Previous returns the block preceding id.
func (d *Document) Previous(id uuid.UUID) (Block, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	i, ok := d.indexOf(id)
	if !ok || i == 0 {
		return Block{}, false
	}
	ln := d.lines[i-1]
	return Block{ID: ln.id, Text: ln.text}, true
}

// BlockByID returns the current snapshot of the block with the given ID.
func (d *Document) BlockByID(id uuid.UUID) (Block, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	i, ok := d.indexOf(id)
	if !ok {
		return Block{}, false
	}
	return Block{ID: d.lines[i].id, Text: d.lines[i].text}, true
}

// BlockAt returns the block at ordinal position i.
func (d *Document) BlockAt(i int) (Block, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if i < 0 || i >= len(d.lines) {
		return Block{}, false
	}
	return Block{ID: d.lines[i].id, Text: d.lines[i].text}, true
}

// Position returns the ordinal position of the block with the given ID.
func (d *Document) Position(id uuid.UUID) (int, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.indexOf(id)
}

// InsertAfter inserts a new block with the given text directly after id
// and returns it.
func (d *Document) InsertAfter(id uuid.UUID, text string) (Block, error) {
	d.mu.Lock()
	i, ok := d.indexOf(id)
	if !ok {
		d.mu.Unlock()
		return Block{}, ErrBlockNotFound
	}

	ln := &line{id: uuid.New(), text: text}
	d.lines = append(d.lines, nil)
	copy(d.lines[i+2:], d.lines[i+1:])
	d.lines[i+1] = ln

	pos := d.offsetOf(i + 1)
	d.modified = true
	observers := d.observers
	d.mu.Unlock()

	notify(observers, pos, 0, len([]rune(text))+1)
	return Block{ID: ln.id, Text: ln.text}, nil
}

// Remove deletes the block with the given ID, along with any artifact
// payload attached to it, and returns the successor block to resume
// iteration from.
func (d *Document) Remove(id uuid.UUID) (Block, bool) {
	d.mu.Lock()
	i, ok := d.indexOf(id)
	if !ok {
		d.mu.Unlock()
		return Block{}, false
	}

	removed := d.lines[i]
	pos := d.offsetOf(i)
	d.lines = append(d.lines[:i], d.lines[i+1:]...)
	delete(d.artifacts, id)

	var succ Block
	var hasSucc bool
	if i < len(d.lines) {
		succ = Block{ID: d.lines[i].id, Text: d.lines[i].text}
		hasSucc = true
	}

	d.modified = true
	observers := d.observers
	d.mu.Unlock()

	notify(observers, pos, len([]rune(removed.text))+1, 0)
	return succ, hasSucc
}

// SetText replaces the text of the block with the given ID. Setting the
// same text is a no-op and emits no notification.
func (d *Document) SetText(id uuid.UUID, text string) error {
	d.mu.Lock()
	i, ok := d.indexOf(id)
	if !ok {
		d.mu.Unlock()
		return ErrBlockNotFound
	}

	old := d.lines[i].text
	if old == text {
		d.mu.Unlock()
		return nil
	}

	d.lines[i].text = text
	pos := d.offsetOf(i)
	d.modified = true
	observers := d.observers
	d.mu.Unlock()

	notify(observers, pos, len([]rune(old)), len([]rune(text)))
	return nil
}

// Modified reports whether the document has unsaved changes.
func (d *Document) Modified() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.modified
}

// SetModified sets the modified flag.
func (d *Document) SetModified(modified bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.modified = modified
}

// SetArtifact attaches an artifact payload to the block with the given ID.
func (d *Document) SetArtifact(id uuid.UUID, a Artifact) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.indexOf(id); !ok {
		return
	}
	d.artifacts[id] = a
}

// Artifact returns the artifact payload attached to the block, if any.
func (d *Document) Artifact(id uuid.UUID) (Artifact, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	a, ok := d.artifacts[id]
	return a, ok
}

// ClearArtifact removes the artifact payload attached to the block.
func (d *Document) ClearArtifact(id uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.artifacts, id)
}

// indexOf returns the ordinal position of the line with the given ID.
// Called with the lock held.
func (d *Document) indexOf(id uuid.UUID) (int, bool) {
	for i, ln := range d.lines {
		if ln.id == id {
			return i, true
		}
	}
	return 0, false
}

// offsetOf returns the character offset of the start of line i.
// Called with the lock held.
func (d *Document) offsetOf(i int) int {
	off := 0
	for j := 0; j < i && j < len(d.lines); j++ {
		off += len([]rune(d.lines[j].text)) + 1
	}
	return off
}

// notify delivers a change to observers, suppressing no-op deltas.
func notify(observers []ChangeFunc, pos, removed, added int) {
	if removed == 0 && added == 0 {
		return
	}
	for _, fn := range observers {
		fn(pos, removed, added)
	}
}
