package domain

import "time"

// CheckResult is the outcome of checking one target. Exactly one of Commit
// and Error is set.
type CheckResult struct {
	Target Target        `json:"target"`
	Commit *CommitRecord `json:"commit,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// Success reports whether the target resolved to a commit
func (r CheckResult) Success() bool {
	return r.Commit != nil
}

// NewSuccess creates a successful result
func NewSuccess(target Target, commit *CommitRecord) CheckResult {
	return CheckResult{Target: target, Commit: commit}
}

// NewFailure creates a failed result
func NewFailure(target Target, message string) CheckResult {
	return CheckResult{Target: target, Error: message}
}

// Batch represents one check run over a list of targets
type Batch struct {
	ID         string        `json:"id"`
	GitLabURL  string        `json:"gitlabUrl"`
	Results    []CheckResult `json:"results"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
}

// Failed returns the number of failed results in the batch
func (b *Batch) Failed() int {
	n := 0
	for _, r := range b.Results {
		if !r.Success() {
			n++
		}
	}
	return n
}
