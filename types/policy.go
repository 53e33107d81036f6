package types

import "time"

// Policy status values reported by the policy-status API client.
// ERROR marks a degraded lookup: the upstream call failed and the payload
// carries only a message, never a silent empty result.
const (
	PolicyStatusActive   = "ACTIVE"
	PolicyStatusNotFound = "NOT_FOUND"
	PolicyStatusError    = "ERROR"
)

// PolicyStatus is the result of a policy-status lookup against the
// Federal Register documents API.
type PolicyStatus struct {
	Status          string `json:"status"`
	Title           string `json:"title,omitempty"`
	DocumentNumber  string `json:"document_number,omitempty"`
	PublicationDate string `json:"publication_date,omitempty"`
	DocumentType    string `json:"type,omitempty"`
	Abstract        string `json:"abstract,omitempty"`
	HTMLURL         string `json:"html_url,omitempty"`
	PDFURL          string `json:"pdf_url,omitempty"`
	LastChecked     string `json:"last_checked,omitempty"`
	Source          string `json:"source,omitempty"`
	Message         string `json:"message,omitempty"`
}

// Active reports whether the lookup found a live document.
func (p *PolicyStatus) Active() bool {
	return p != nil && p.Status == PolicyStatusActive
}

// PolicyDocSummary is one entry of a recent-documents listing.
type PolicyDocSummary struct {
	Title           string `json:"title"`
	DocumentNumber  string `json:"document_number,omitempty"`
	PublicationDate string `json:"publication_date,omitempty"`
	DocumentType    string `json:"type,omitempty"`
	HTMLURL         string `json:"html_url,omitempty"`
}

// CaseItem is one court case returned by the case-law search client.
type CaseItem struct {
	Name     string `json:"name"`
	Court    string `json:"court,omitempty"`
	Year     string `json:"year,omitempty"`
	Citation string `json:"citation,omitempty"`
	Summary  string `json:"summary,omitempty"`
	URL      string `json:"url,omitempty"`
}

// APIResultKind tags which government API produced an APIResult.
type APIResultKind string

const (
	APIResultPolicy APIResultKind = "policy_status"
	APIResultCases  APIResultKind = "case_law"
)

// APIResult is the tagged union carried through the answer pipeline.
// Exactly one of Policy or Cases is populated according to Kind. Err is set
// when the upstream call degraded; the payload may still hold fallback data
// (the case-law client substitutes a deterministic case set on transport
// failure), so Err never implies an empty result.
type APIResult struct {
	Kind   APIResultKind `json:"kind"`
	Policy *PolicyStatus `json:"policy,omitempty"`
	Cases  []CaseItem    `json:"cases,omitempty"`
	Err    *Error        `json:"error,omitempty"`

	// FetchedAt records when the upstream call completed.
	FetchedAt time.Time `json:"fetched_at,omitempty"`
}

// Degraded reports whether the upstream call failed, regardless of whether
// fallback data is present.
func (r *APIResult) Degraded() bool {
	return r != nil && r.Err != nil
}

// ActivePolicy reports whether the result is a policy lookup whose status
// is ACTIVE.
func (r *APIResult) ActivePolicy() bool {
	return r != nil && r.Kind == APIResultPolicy && r.Policy.Active()
}
