package catalog

// LookupStatus describes what a cache read returned.
type LookupStatus string

const (
	LookupHit         LookupStatus = "hit"
	LookupMiss        LookupStatus = "miss"
	LookupUnavailable LookupStatus = "unavailable"
	LookupCorrupt     LookupStatus = "corrupt"
	LookupDisabled    LookupStatus = "disabled"
)

// PopulateStatus describes what happened when writing a list back to the cache.
type PopulateStatus string

const (
	PopulateNotAttempted PopulateStatus = ""
	PopulateStored       PopulateStatus = "stored"
	PopulateSkippedEmpty PopulateStatus = "skipped_empty"
	PopulateFailed       PopulateStatus = "failed"
	PopulateDisabled     PopulateStatus = "disabled"
)

// InvalidateStatus describes the result of deleting a cached list.
type InvalidateStatus string

const (
	InvalidateDeleted  InvalidateStatus = "deleted"
	InvalidateFailed   InvalidateStatus = "failed"
	InvalidateDisabled InvalidateStatus = "disabled"
)

// Source says where a list was served from.
type Source string

const (
	SourceCache Source = "cache"
	SourceStore Source = "store"
)

// LookupResult is the typed outcome of a cache read. Err is set for the
// unavailable and corrupt statuses.
type LookupResult struct {
	Status LookupStatus
	Err    error
}

// PopulateResult is the typed outcome of a cache write.
type PopulateResult struct {
	Status PopulateStatus
	Err    error
}

// InvalidateResult is the typed outcome of an invalidation. A failed
// invalidation never fails the write that triggered it.
type InvalidateResult struct {
	Resource Resource
	Status   InvalidateStatus
	Err      error
}

// OK reports whether the cache no longer holds the resource's list.
func (r InvalidateResult) OK() bool {
	return r.Status == InvalidateDeleted || r.Status == InvalidateDisabled
}

// Trace records the cache interactions of a single list read.
type Trace struct {
	Resource Resource
	Source   Source
	Lookup   LookupResult
	Populate PopulateResult
	// Shared is set when the store result came from a concurrent read of the
	// same resource in this process.
	Shared bool
}
