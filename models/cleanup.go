package models

// Cleanup outcomes for a post's remote attachments. Cleanup never blocks a
// delete; callers get a typed report instead of digging through logs.
const (
	CleanupClean        = "clean"
	CleanupPartial      = "partial"
	CleanupNotAttempted = "not_attempted"
)

// FileResult is the outcome of one remote delete attempt.
type FileResult struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId,omitempty"`
	Deleted  bool   `json:"deleted"`
	Error    string `json:"error,omitempty"`
}

// CleanupCounts aggregates FileResults for one attachment kind.
type CleanupCounts struct {
	Deleted int      `json:"deleted"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// Add folds one result into the counters.
func (c *CleanupCounts) Add(r FileResult) {
	if r.Deleted {
		c.Deleted++
		return
	}
	c.Failed++
	c.Errors = append(c.Errors, r.Error)
}

// CleanupReport is returned from a post delete so the caller can tell the
// user whether remote files were fully, partially, or not at all removed.
type CleanupReport struct {
	Images    CleanupCounts `json:"images"`
	Documents CleanupCounts `json:"documents"`
	Attempted bool          `json:"-"`
	Outcome   string        `json:"outcome"`
}

// Resolve sets Outcome from the aggregated counters.
func (r *CleanupReport) Resolve() {
	switch {
	case !r.Attempted:
		r.Outcome = CleanupNotAttempted
	case r.Images.Failed+r.Documents.Failed == 0:
		r.Outcome = CleanupClean
	default:
		r.Outcome = CleanupPartial
	}
}
