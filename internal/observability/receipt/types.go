// Package receipt provides stable evidence artifacts for audit/compliance.
package receipt

// ReceiptSchemaVersion current
const ReceiptSchemaVersion = "1.0"

// Receipt structure
type Receipt struct {
	SchemaVersion string          `json:"schema_version"`
	OpID          string          `json:"op_id"`
	TsStart       string          `json:"ts_start"`
	TsEnd         string          `json:"ts_end"`
	Command       string          `json:"command"`
	Args          []string        `json:"args"`
	ArgsRedacted  bool            `json:"args_redacted,omitempty"` // true if any args were sanitized
	Result        Result          `json:"result"`
	Artifact      *ArtifactRef    `json:"artifact,omitempty"`
	Chain         *ChainSummary   `json:"chain,omitempty"`
	Drift         *DriftSummary   `json:"drift,omitempty"`
	Policy        *PolicySummary  `json:"policy,omitempty"`
}

// Result status
type Result struct {
	Status string `json:"status"` // "success" or "fail"
	Error  string `json:"error,omitempty"`
}

// ArtifactRef identifies the artifact an operation acted on, plus its
// integrity hash when one was computed or checked.
type ArtifactRef struct {
	Kind   string `json:"kind"` // directive|tool|knowledge
	ID     string `json:"id"`
	Version string `json:"version,omitempty"`
	Hash   string `json:"hash,omitempty"`
}

// ChainSummary describes a resolved executor chain.
type ChainSummary struct {
	Length          int    `json:"length"`
	TerminalID      string `json:"terminal_id,omitempty"`
	IntegrityOK     bool   `json:"integrity_ok"`
}

// DriftSummary detail
type DriftSummary struct {
	DriftType    string   `json:"drift_type"` // added|removed|changed|no_change
	Translations []string `json:"translations,omitempty"`
}

// PolicySummary detail
type PolicySummary struct {
	Preset   string    `json:"preset,omitempty"` // baseline|strict|custom
	Status   string    `json:"status"`           // pass|fail
	RulesHit []RuleHit `json:"rules_hit,omitempty"`
}

// RuleHit detail
type RuleHit struct {
	Name       string `json:"name"`
	FailureMsg string `json:"failure_msg,omitempty"`
}
