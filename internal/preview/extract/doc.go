// Package extract parses image references out of document lines and
// resolves them into canonical source keys.
//
// A line is previewable only when it contains exactly one markdown image
// (![alt](ref)); lines with none or several are never previewed. Parsing
// uses goldmark's inline parser rather than a hand-rolled pattern, so
// escaping and nesting behave the way a markdown renderer would treat
// them.
//
// Resolution never fails: a reference either names an existing file under
// the document's base path (resolved to a canonical absolute path) or is
// treated as a URL (resolved to its normalized string form). Unparsable
// input falls back to the raw reference as the key.
package extract
