// Package document provides the block model the preview engine operates
// on: an ordered sequence of text lines ("blocks") with stable identities,
// an artifact side-table, and host-style change notification.
//
// Every block carries a stable ID that survives edits elsewhere in the
// document, so the engine can iterate and mutate by handle instead of by
// live cursor. Mutating operations return the successor block to resume
// iteration from.
//
// Artifacts are engine-generated annotations kept in a side-table keyed
// by block ID, decoupled from the text itself. The text of an artifact
// block holds exactly one placeholder rune; the side-table holds the
// source key that produced it.
//
// The document tracks a modified flag the way an editor widget does:
// every mutation marks the document modified, and the engine brackets its
// own mutations with Modified/SetModified so generated previews never
// make a clean document look dirty.
package document
