package preview

import (
	"strings"

	"github.com/google/uuid"

	"github.com/dshills/mdpreview/internal/document"
)

// insertArtifact creates an artifact block directly after the source
// block. If the key cannot be resolved to a cached resource (decode
// failed, or a download is still pending) nothing is inserted. The
// document's modified flag is preserved: generated previews are not
// user edits.
func (e *Engine) insertArtifact(after document.Block, key string) (document.Block, bool) {
	if _, ok := e.resolveCacheResource(key); !ok {
		return document.Block{}, false
	}

	modified := e.doc.Modified()

	block, err := e.doc.InsertAfter(after.ID, string(Placeholder))
	if err != nil {
		e.doc.SetModified(modified)
		return document.Block{}, false
	}
	e.doc.SetArtifact(block.ID, document.Artifact{SourceKey: key})

	e.doc.SetModified(modified)
	e.stats.artifactsInserted.Add(1)
	return block, true
}

// updateArtifact rewrites an artifact block's binding when its source
// line now references a different key. If the new key fails to resolve
// the block is removed rather than left showing a stale image.
func (e *Engine) updateArtifact(block document.Block, key string) {
	payload, _ := e.doc.Artifact(block.ID)
	if payload.SourceKey == key {
		return
	}

	if _, ok := e.resolveCacheResource(key); !ok {
		e.removeArtifact(block.ID)
		return
	}

	modified := e.doc.Modified()
	e.doc.SetArtifact(block.ID, document.Artifact{SourceKey: key})
	e.doc.SetModified(modified)
	e.stats.artifactsUpdated.Add(1)
}

// removeArtifact deletes an artifact block and returns the successor to
// resume from, preserving the modified flag.
func (e *Engine) removeArtifact(id uuid.UUID) (document.Block, bool) {
	modified := e.doc.Modified()
	succ, ok := e.doc.Remove(id)
	e.doc.SetModified(modified)

	e.stats.artifactsRemoved.Add(1)
	return succ, ok
}

// clearCorruptedBlock strips placeholder runes from a source block the
// user has typed over or beside. Blocks that are only placeholder plus
// whitespace are left alone; the orphan logic owns those.
func (e *Engine) clearCorruptedBlock(block document.Block) {
	text := block.Text
	if !strings.ContainsRune(text, Placeholder) {
		return
	}

	stripped := strings.Map(func(r rune) rune {
		if r == Placeholder {
			return -1
		}
		return r
	}, text)

	if strings.TrimSpace(stripped) == "" {
		return
	}

	modified := e.doc.Modified()
	if err := e.doc.SetText(block.ID, stripped); err != nil {
		e.doc.SetModified(modified)
		return
	}
	e.doc.SetModified(modified)
	e.stats.corruptionsCleaned.Add(1)
}

// clearAll removes every artifact block and strips every corrupted
// block across the document in one walk.
func (e *Engine) clearAll() {
	modified := e.doc.Modified()

	block, ok := e.doc.First()
	for ok {
		if e.isArtifactBlock(block) {
			block, ok = e.removeArtifact(block.ID)
		} else {
			e.clearCorruptedBlock(block)
			block, ok = e.doc.Next(block.ID)
		}
	}

	e.doc.SetModified(modified)
	e.notifyStatus()
}
