package preview

import (
	"strings"

	"github.com/dshills/mdpreview/internal/document"
)

// previewImages runs one full reconciliation pass over the document.
// Guarded by the scanning flag: a re-entrant call (the debounce timer
// can fire again during a refresh triggered from a handler) is a no-op.
func (e *Engine) previewImages() {
	if e.scanning {
		return
	}

	e.scanning = true
	e.stats.scans.Add(1)

	block, ok := e.doc.First()
	for ok && e.enabled {
		if e.isArtifactBlock(block) {
			if !e.isValidArtifactBlock(block) {
				// Orphaned: its source line no longer references it.
				block, ok = e.removeArtifact(block.ID)
			} else {
				block, ok = e.doc.Next(block.ID)
			}
		} else {
			e.clearCorruptedBlock(block)
			block, ok = e.previewBlock(block)
		}
	}

	e.scanning = false

	if e.pendingClear {
		e.pendingClear = false
		e.clearAll()
	}

	if e.pendingRefresh {
		e.pendingRefresh = false
		e.Refresh()
	}

	e.notifyStatus()
}

// isArtifactBlock reports whether the block's text is exactly one
// placeholder rune, ignoring surrounding whitespace.
func (e *Engine) isArtifactBlock(block document.Block) bool {
	return strings.TrimSpace(block.Text) == string(Placeholder)
}

// isValidArtifactBlock reports whether an artifact block is still backed
// by its source: the preceding block must yield a reference resolving to
// the same source key the artifact was created for.
func (e *Engine) isValidArtifactBlock(block document.Block) bool {
	prev, ok := e.doc.Previous(block.ID)
	if !ok {
		return false
	}

	key := e.sourceKey(prev.Text)
	if key == "" {
		return false
	}

	payload, ok := e.doc.Artifact(block.ID)
	return ok && payload.SourceKey == key
}

// sourceKey extracts and resolves a line's image reference. Empty means
// the line is not previewable.
func (e *Engine) sourceKey(text string) string {
	ref, ok := e.extractor.Reference(text)
	if !ok {
		return ""
	}

	return e.resolver.Resolve(ref)
}

// previewBlock reconciles one source block and returns the successor to
// resume the scan from.
func (e *Engine) previewBlock(block document.Block) (document.Block, bool) {
	next, nextOK := e.doc.Next(block.ID)

	// Corruption cleanup may have rewritten the text; use the current state.
	cur, ok := e.doc.BlockByID(block.ID)
	if !ok {
		return next, nextOK
	}

	key := e.sourceKey(cur.Text)
	if key == "" {
		return next, nextOK
	}

	if nextOK && e.isArtifactBlock(next) {
		after, afterOK := e.doc.Next(next.ID)
		e.updateArtifact(next, key)
		return after, afterOK
	}

	inserted, ok := e.insertArtifact(cur, key)
	if !ok {
		return next, nextOK
	}
	return e.doc.Next(inserted.ID)
}
