package types

// BuildStatus is the terminal state of one build.
type BuildStatus string

// Terminal build states.
const (
	// StatusSuccess means the artifact was accepted, possibly after healing.
	StatusSuccess BuildStatus = "success"
	// StatusRejected means every attempt was exhausted; the last artifact is
	// preserved under a BROKEN_ name for inspection.
	StatusRejected BuildStatus = "rejected"
	// StatusFailed means rendering itself failed; no remediation was attempted.
	StatusFailed BuildStatus = "failed"
	// StatusCancelled means the build was cancelled between attempts.
	StatusCancelled BuildStatus = "cancelled"
)

// BuildResult is the terminal outcome of a build.
type BuildResult struct {
	Status       BuildStatus   `json:"status"`
	OutputPath   string        `json:"output_path,omitempty"`
	Theme        string        `json:"theme"`
	Attempts     int           `json:"attempts"`
	Verdict      *AuditVerdict `json:"verdict,omitempty"`
	FixesApplied []string      `json:"fixes_applied,omitempty"`
	Errors       []string      `json:"errors,omitempty"`
}

// Succeeded reports whether the build reached an accepted artifact.
func (r *BuildResult) Succeeded() bool {
	return r != nil && r.Status == StatusSuccess
}
