package preview

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/mdpreview/internal/document"
	"github.com/dshills/mdpreview/internal/event"
	"github.com/dshills/mdpreview/internal/imgutil"
	"github.com/dshills/mdpreview/internal/preview/extract"
)

// writePNG writes a decodable PNG into dir and returns its path.
func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
	return path
}

// pngData returns decodable PNG bytes.
func pngData(t *testing.T, w, h int) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// newTestEngine builds an engine over a fresh document rooted at base.
// The queue is deliberately not started: tests drive the engine
// synchronously through ScanNow and direct handler calls.
func newTestEngine(t *testing.T, text, base string, opts ...Option) (*Engine, *document.Document) {
	t.Helper()

	doc := document.NewFromString(text)
	doc.SetModified(false)

	e := NewEngine(doc, extract.NewResolver(base), event.New(), opts...)
	t.Cleanup(e.Close)
	return e, doc
}

// docTexts returns the document's line texts with placeholder runes
// spelled out for readable diffs.
func docTexts(doc *document.Document) []string {
	blocks := doc.Blocks()
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = strings.ReplaceAll(b.Text, string(Placeholder), "<img>")
	}
	return out
}

// artifactBlocks returns the blocks holding a lone placeholder rune.
func artifactBlocks(doc *document.Document) []document.Block {
	var out []document.Block
	for _, b := range doc.Blocks() {
		if strings.TrimSpace(b.Text) == string(Placeholder) {
			out = append(out, b)
		}
	}
	return out
}

type fakeFetcher struct {
	keys []string
}

func (f *fakeFetcher) Fetch(key string) {
	f.keys = append(f.keys, key)
}

// countingDecode wraps the default decoder and counts invocations.
func countingDecode(calls *int) imgutil.DecodeFunc {
	return func(data []byte) (image.Image, error) {
		*calls++
		return imgutil.Decode(data)
	}
}

func TestScanInsertsArtifact(t *testing.T) {
	dir := t.TempDir()
	imgPath := writePNG(t, dir, "logo.png", 4, 4)

	e, doc := newTestEngine(t, "# title\n![logo](logo.png)\ntrailing", dir)
	e.ScanNow()

	want := []string{"# title", "![logo](logo.png)", "<img>", "trailing"}
	if diff := cmp.Diff(want, docTexts(doc)); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}

	arts := artifactBlocks(doc)
	if len(arts) != 1 {
		t.Fatalf("expected 1 artifact block, got %d", len(arts))
	}
	payload, ok := doc.Artifact(arts[0].ID)
	if !ok {
		t.Fatal("artifact payload missing")
	}
	if payload.SourceKey != imgPath {
		t.Errorf("expected key %q, got %q", imgPath, payload.SourceKey)
	}
	if doc.Modified() {
		t.Error("generated previews must not mark the document modified")
	}
}

func TestScanIdempotent(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 2, 2)
	writePNG(t, dir, "b.png", 2, 2)

	e, doc := newTestEngine(t, "![a](a.png)\nplain\n![b](b.png)", dir)
	e.ScanNow()

	first := doc.Blocks()
	e.ScanNow()
	second := doc.Blocks()

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second scan changed the document (-first +second):\n%s", diff)
	}
}

func TestAmbiguousLineNeverPreviewed(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 2, 2)
	writePNG(t, dir, "b.png", 2, 2)

	e, doc := newTestEngine(t, "![a](a.png) ![b](b.png)", dir)
	e.ScanNow()

	if n := len(artifactBlocks(doc)); n != 0 {
		t.Errorf("ambiguous line produced %d artifact blocks", n)
	}
}

func TestOrphanRemoval(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 2, 2)

	e, doc := newTestEngine(t, "unrelated\n![a](a.png)", dir)
	e.ScanNow()
	if len(artifactBlocks(doc)) != 1 {
		t.Fatal("expected artifact after first scan")
	}

	// The user deletes the source line; its artifact is now preceded by
	// an unrelated block.
	src, _ := doc.BlockAt(1)
	doc.Remove(src.ID)

	e.ScanNow()
	if n := len(artifactBlocks(doc)); n != 0 {
		t.Errorf("expected orphan removed, got %d artifact blocks", n)
	}
	if diff := cmp.Diff([]string{"unrelated"}, docTexts(doc)); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestStaleKeyUpdateInPlace(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 2, 2)
	bPath := writePNG(t, dir, "b.png", 2, 2)

	e, doc := newTestEngine(t, "![x](a.png)", dir)
	e.ScanNow()

	before := artifactBlocks(doc)
	if len(before) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(before))
	}

	src, _ := doc.First()
	if err := doc.SetText(src.ID, "![x](b.png)"); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	e.ScanNow()

	after := artifactBlocks(doc)
	if len(after) != 1 {
		t.Fatalf("expected 1 artifact after update, got %d", len(after))
	}
	if after[0].ID != before[0].ID {
		t.Error("update should rewrite the existing artifact block, not insert a new one")
	}
	payload, _ := doc.Artifact(after[0].ID)
	if payload.SourceKey != bPath {
		t.Errorf("expected key %q, got %q", bPath, payload.SourceKey)
	}
}

func TestStaleKeyUpdateResolutionFailureRemoves(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 2, 2)

	e, doc := newTestEngine(t, "![x](a.png)", dir)
	e.ScanNow()
	if len(artifactBlocks(doc)) != 1 {
		t.Fatal("expected artifact after first scan")
	}

	// New reference resolves to a remote key with no fetcher configured:
	// resolution fails, and the stale image is removed rather than left.
	src, _ := doc.First()
	if err := doc.SetText(src.ID, "![x](https://example.com/gone.png)"); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	e.ScanNow()

	if n := len(artifactBlocks(doc)); n != 0 {
		t.Errorf("expected stale artifact removed, got %d", n)
	}
}

func TestCorruptionStrip(t *testing.T) {
	e, doc := newTestEngine(t, "abc"+string(Placeholder)+"def", t.TempDir())

	wasModified := doc.Modified()
	e.ScanNow()

	first, _ := doc.First()
	if first.Text != "abcdef" {
		t.Errorf("expected %q, got %q", "abcdef", first.Text)
	}
	if doc.Modified() != wasModified {
		t.Error("corruption strip must preserve the modified flag")
	}
}

func TestCorruptionStripMultiplePlaceholders(t *testing.T) {
	line := string(Placeholder) + "ab" + string(Placeholder) + "cd" + string(Placeholder)
	e, doc := newTestEngine(t, line, t.TempDir())
	e.ScanNow()

	first, _ := doc.First()
	if first.Text != "abcd" {
		t.Errorf("expected %q, got %q", "abcd", first.Text)
	}
}

func TestWhitespacePlaceholderHandledAsOrphan(t *testing.T) {
	// Placeholder plus whitespace is a (padded) artifact block, owned by
	// the orphan logic, not the corruption cleaner.
	e, doc := newTestEngine(t, "plain\n  "+string(Placeholder)+"  ", t.TempDir())
	e.ScanNow()

	if diff := cmp.Diff([]string{"plain"}, docTexts(doc)); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeFailureNoRetry(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not a png"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	var calls int
	e, doc := newTestEngine(t, "![bad](bad.png)", dir, WithDecodeFunc(countingDecode(&calls)))

	e.ScanNow()
	e.ScanNow()

	if n := len(artifactBlocks(doc)); n != 0 {
		t.Errorf("undecodable image produced %d artifacts", n)
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 decode attempt, got %d", calls)
	}
	if !e.Cache().Failed(bad) {
		t.Error("failed key should be remembered")
	}
}

func TestRemoteReferenceDownloadFlow(t *testing.T) {
	const url = "https://example.com/cat.png"
	fetcher := &fakeFetcher{}
	e, doc := newTestEngine(t, "![cat]("+url+")", t.TempDir(), WithFetcher(fetcher))

	// First scan: nothing cached yet; the block stays unpreviewed and a
	// download is issued.
	e.ScanNow()
	if n := len(artifactBlocks(doc)); n != 0 {
		t.Fatalf("expected no artifact before download, got %d", n)
	}
	if diff := cmp.Diff([]string{url}, fetcher.keys); diff != "" {
		t.Fatalf("fetch keys mismatch (-want +got):\n%s", diff)
	}

	// Completion registers the image; the follow-up scan materializes it.
	e.onDownloaded(url, pngData(t, 3, 3))
	e.ScanNow()

	arts := artifactBlocks(doc)
	if len(arts) != 1 {
		t.Fatalf("expected 1 artifact after download, got %d", len(arts))
	}
	if img, ok := e.CachedImage(arts[0].ID); !ok || img == nil {
		t.Error("cached image should be retrievable by artifact block ID")
	}
}

func TestDownloadFirstWriterWins(t *testing.T) {
	const url = "https://example.com/dup.png"
	e, _ := newTestEngine(t, "![d]("+url+")", t.TempDir(), WithFetcher(&fakeFetcher{}))

	e.onDownloaded(url, pngData(t, 1, 1))
	e.onDownloaded(url, pngData(t, 9, 9))

	img, ok := e.Cache().Image(url)
	if !ok {
		t.Fatal("image missing from cache")
	}
	if img.Bounds().Dx() != 1 {
		t.Error("first successful decode should win")
	}
	if got := e.Stats().DownloadsCompleted; got != 1 {
		t.Errorf("expected 1 completed download, got %d", got)
	}
}

func TestDownloadDecodeFailureDropped(t *testing.T) {
	const url = "https://example.com/garbage.bin"
	e, _ := newTestEngine(t, "x", t.TempDir())

	e.onDownloaded(url, []byte("garbage"))

	if e.Cache().Len() != 0 {
		t.Error("failed decode must not enter the cache")
	}
	if got := e.Stats().DownloadsDropped; got != 1 {
		t.Errorf("expected 1 dropped download, got %d", got)
	}
}

func TestDisable(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 2, 2)

	e, doc := newTestEngine(t, "![a](a.png)", dir)
	e.ScanNow()
	if len(artifactBlocks(doc)) != 1 {
		t.Fatal("expected artifact before disable")
	}

	e.Disable()

	if e.IsEnabled() {
		t.Error("engine should be disabled")
	}
	if n := len(artifactBlocks(doc)); n != 0 {
		t.Errorf("disable should clear artifacts, got %d", n)
	}
	if doc.Modified() {
		t.Error("clearing must preserve the modified flag")
	}
}

func TestDisableMidScanDefersClear(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 2, 2)
	writePNG(t, dir, "b.png", 2, 2)

	e, doc := newTestEngine(t, "![a](a.png)\n![b](b.png)", dir)

	// The host reacts to the first generated insertion by disabling
	// previewing from inside the change notification: the clear must be
	// latched until the active scan completes.
	disabled := false
	doc.OnChange(func(_, _, added int) {
		if !disabled && added > 0 && e.scanning {
			disabled = true
			e.Disable()
			if n := len(artifactBlocks(doc)); n == 0 {
				t.Error("clear ran before the active scan completed")
			}
		}
	})

	e.ScanNow()

	if e.IsEnabled() {
		t.Error("engine should be disabled")
	}
	if n := len(artifactBlocks(doc)); n != 0 {
		t.Errorf("expected all artifacts cleared after scan, got %d", n)
	}
}

func TestRefreshMidScanDefers(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 2, 2)

	var calls int
	e, doc := newTestEngine(t, "![a](a.png)", dir, WithDecodeFunc(countingDecode(&calls)))

	refreshed := false
	doc.OnChange(func(_, _, added int) {
		if !refreshed && added > 0 && e.scanning {
			refreshed = true
			e.Refresh()
		}
	})

	e.ScanNow()

	// The deferred refresh cleared cache and artifacts after the scan.
	if e.Cache().Len() != 0 {
		t.Error("deferred refresh should clear the cache")
	}
	if n := len(artifactBlocks(doc)); n != 0 {
		t.Errorf("expected artifacts cleared by deferred refresh, got %d", n)
	}
}

func TestRefreshRebuildsFromScratch(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 2, 2)

	var calls int
	e, doc := newTestEngine(t, "![a](a.png)", dir, WithDecodeFunc(countingDecode(&calls)))

	e.ScanNow()
	if calls != 1 || e.Cache().Len() != 1 {
		t.Fatalf("unexpected state after first scan: calls=%d cache=%d", calls, e.Cache().Len())
	}

	e.Refresh()
	if e.Cache().Len() != 0 {
		t.Error("refresh should empty the cache")
	}
	if n := len(artifactBlocks(doc)); n != 0 {
		t.Errorf("refresh should clear artifacts, got %d", n)
	}

	e.ScanNow()
	if calls != 2 {
		t.Errorf("previously cached source should decode again, calls=%d", calls)
	}
	if n := len(artifactBlocks(doc)); n != 1 {
		t.Errorf("expected artifact rebuilt, got %d", n)
	}
}

func TestAutoDisableWhenNotPermitted(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 2, 2)

	permitted := true
	e, doc := newTestEngine(t, "![a](a.png)", dir,
		WithSettings(SettingsFunc(func() bool { return permitted })))

	e.ScanNow()
	if len(artifactBlocks(doc)) != 1 {
		t.Fatal("expected artifact while permitted")
	}

	permitted = false
	e.ScanNow()

	if e.IsEnabled() {
		t.Error("engine should auto-disable when previewing is not permitted")
	}
	if n := len(artifactBlocks(doc)); n != 0 {
		t.Errorf("expected artifacts cleared, got %d", n)
	}
}

func TestScanWhileDisabledIsNoOp(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 2, 2)

	e, doc := newTestEngine(t, "![a](a.png)", dir)
	e.Disable()
	e.ScanNow()

	if n := len(artifactBlocks(doc)); n != 0 {
		t.Errorf("disabled engine must not insert artifacts, got %d", n)
	}
}

func TestNoOpDeltaIgnored(t *testing.T) {
	e, _ := newTestEngine(t, "x", t.TempDir())

	e.HandleContentChange(5, 0, 0)

	e.timerMu.Lock()
	armed := e.timer != nil
	e.timerMu.Unlock()
	if armed {
		t.Error("a (0,0) delta must not arm the debounce timer")
	}

	e.HandleContentChange(5, 1, 0)
	e.timerMu.Lock()
	armed = e.timer != nil
	e.timerMu.Unlock()
	if !armed {
		t.Error("a real delta should arm the debounce timer")
	}
}

func TestStatusCallback(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 2, 2)

	var fired int
	e, _ := newTestEngine(t, "![a](a.png)", dir, WithStatusFunc(func() { fired++ }))

	e.ScanNow()
	if fired != 1 {
		t.Errorf("expected 1 status notification per scan, got %d", fired)
	}

	e.Disable()
	if fired != 2 {
		t.Errorf("expected clear to notify, got %d", fired)
	}
}

func TestFitBounds(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "big.png", 400, 100)

	e, doc := newTestEngine(t, "![big](big.png)", dir, WithFitBounds(200, 200))
	e.ScanNow()

	arts := artifactBlocks(doc)
	if len(arts) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(arts))
	}
	img, ok := e.CachedImage(arts[0].ID)
	if !ok {
		t.Fatal("cached image missing")
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 50 {
		t.Errorf("expected 200x50 after fit, got %dx%d",
			img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestScanStats(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 2, 2)

	e, doc := newTestEngine(t, "![a](a.png)", dir)
	e.ScanNow()

	src, _ := doc.First()
	doc.Remove(src.ID)
	e.ScanNow()

	stats := e.Stats()
	if stats.Scans != 2 {
		t.Errorf("expected 2 scans, got %d", stats.Scans)
	}
	if stats.ArtifactsInserted != 1 {
		t.Errorf("expected 1 insert, got %d", stats.ArtifactsInserted)
	}
	if stats.ArtifactsRemoved != 1 {
		t.Errorf("expected 1 removal, got %d", stats.ArtifactsRemoved)
	}
}
