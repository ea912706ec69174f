package preview

import "sync/atomic"

// engineStats holds the engine's internal counters.
type engineStats struct {
	scans              atomic.Uint64
	artifactsInserted  atomic.Uint64
	artifactsUpdated   atomic.Uint64
	artifactsRemoved   atomic.Uint64
	corruptionsCleaned atomic.Uint64
	downloadsCompleted atomic.Uint64
	downloadsDropped   atomic.Uint64
}

// Stats is a snapshot of engine activity.
type Stats struct {
	// Scans is the number of completed full passes.
	Scans uint64

	// ArtifactsInserted counts newly created artifact blocks.
	ArtifactsInserted uint64

	// ArtifactsUpdated counts artifact blocks rebound to a new key.
	ArtifactsUpdated uint64

	// ArtifactsRemoved counts orphaned or cleared artifact blocks.
	ArtifactsRemoved uint64

	// CorruptionsCleaned counts blocks stripped of stray placeholders.
	CorruptionsCleaned uint64

	// DownloadsCompleted counts downloads that entered the cache.
	DownloadsCompleted uint64

	// DownloadsDropped counts downloads discarded on decode failure.
	DownloadsDropped uint64
}

// Stats returns a snapshot of engine activity counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Scans:              e.stats.scans.Load(),
		ArtifactsInserted:  e.stats.artifactsInserted.Load(),
		ArtifactsUpdated:   e.stats.artifactsUpdated.Load(),
		ArtifactsRemoved:   e.stats.artifactsRemoved.Load(),
		CorruptionsCleaned: e.stats.corruptionsCleaned.Load(),
		DownloadsCompleted: e.stats.downloadsCompleted.Load(),
		DownloadsDropped:   e.stats.downloadsDropped.Load(),
	}
}
