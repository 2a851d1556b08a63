package entity

import "time"

// Provider identifiers accepted on the command line and in config files.
const (
	ProviderGCP   = "gcp"
	ProviderAzure = "azure"
	ProviderEntra = "entra"
	ProviderAWS   = "aws"
)

// AllProviders lists the supported providers in collection order.
var AllProviders = []string{ProviderGCP, ProviderAzure, ProviderEntra, ProviderAWS}

// DefaultFilenames maps each provider to the output file it writes when the
// config does not override it.
var DefaultFilenames = map[string]string{
	ProviderGCP:   "gcp_audit_logs.json",
	ProviderAzure: "azure_events.json",
	ProviderEntra: "entra_id_signins.json",
	ProviderAWS:   "aws_events.json",
}

// ProviderRun summarizes one provider's collection pass.
type ProviderRun struct {
	Provider   string        `json:"provider"`
	Records    int           `json:"records"`
	Window     TimeWindow    `json:"-"`
	WindowText string        `json:"window"`
	Duration   time.Duration `json:"-"`
	Elapsed    string        `json:"elapsed"`
	OutputFile string        `json:"output_file,omitempty"`
	Error      string        `json:"error,omitempty"`
	Details    []string      `json:"details,omitempty"`
}

// Succeeded reports whether the provider run collected and wrote its records.
func (r ProviderRun) Succeeded() bool {
	return r.Error == ""
}
