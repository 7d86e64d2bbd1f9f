package model

// StageOutcome is the observed result of one cascade stage.
type StageOutcome string

const (
	OutcomeFound       StageOutcome = "found"
	OutcomeEmpty       StageOutcome = "empty"
	OutcomeTimeout     StageOutcome = "timeout"
	OutcomeFailed      StageOutcome = "failed"
	OutcomeUnavailable StageOutcome = "unavailable"
	OutcomeSkipped     StageOutcome = "skipped"
)

// StageAttempt records one attempted stage for result metadata.
type StageAttempt struct {
	Stage      string       `json:"stage"`
	Outcome    StageOutcome `json:"outcome"`
	DurationMs int64        `json:"durationMs"`
	Leads      int          `json:"leads,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// Metadata describes how a result was produced.
type Metadata struct {
	Source           string         `json:"source"`
	ProcessingTimeMs int64          `json:"processingTimeMs"`
	CacheHit         bool           `json:"cacheHit"`
	StagesAttempted  []StageAttempt `json:"stagesAttempted,omitempty"`
}

// EnrichmentResult is the domain orchestrator's output envelope.
type EnrichmentResult struct {
	Success     bool         `json:"success"`
	Leads       []Lead       `json:"leads"`
	CompanyInfo *CompanyInfo `json:"companyInfo,omitempty"`
	Error       string       `json:"error,omitempty"`
	Message     string       `json:"message,omitempty"`
	Metadata    Metadata     `json:"metadata"`
}

// Confidence grades an email enrichment.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ParseConfidence maps free text onto a Confidence, defaulting to low.
func ParseConfidence(s string) Confidence {
	switch Confidence(collapseLower(s)) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceMedium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// EmailEnrichmentResult is the email orchestrator's output envelope.
type EmailEnrichmentResult struct {
	Success     bool         `json:"success"`
	Lead        *Lead        `json:"lead"`
	CompanyInfo *CompanyInfo `json:"companyInfo,omitempty"`
	Confidence  Confidence   `json:"confidence,omitempty"`
	Sources     []string     `json:"sources"`
	Error       string       `json:"error,omitempty"`
	Message     string       `json:"message,omitempty"`
	Metadata    Metadata     `json:"metadata"`
}

// DedupeResult is the CSV batch consolidation output.
type DedupeResult struct {
	Leads           []Lead `json:"leads"`
	InputCount      int    `json:"inputCount"`
	OutputCount     int    `json:"outputCount"`
	DuplicateGroups int    `json:"duplicateGroups"`
}
