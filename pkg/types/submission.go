package types

import "time"

// EvidenceSkippedMarker is rendered in place of a screenshot link when the
// requester chose not to upload one.
const EvidenceSkippedMarker = "No screenshot provided (skipped by user)"

// Evidence is the answer to the final interview step: either the URL of the
// first uploaded attachment or an explicit skip.
type Evidence struct {
	URL     string
	Skipped bool
}

func SkippedEvidence() Evidence {
	return Evidence{Skipped: true}
}

func AttachmentEvidence(url string) Evidence {
	return Evidence{URL: url}
}

// String returns the URL, or the skipped marker.
func (e Evidence) String() string {
	if e.Skipped {
		return EvidenceSkippedMarker
	}
	return e.URL
}

// Submission is the immutable result of a completed interview.
type Submission struct {
	SessionID string
	GuildID   string
	Requester Requester

	Identity       string
	Age            string
	Consent        string
	RulesAgreement string
	Evidence       Evidence

	AccountAgeDays int
	SubmittedAt    time.Time
}

// AccountCreated formats the requester's account creation date.
func (s Submission) AccountCreated() string {
	return s.Requester.CreatedAt.UTC().Format("2006-01-02")
}
