package types

// Config represents the application configuration that can be loaded from a file.
type Config struct {
	Providers   []string          `json:"providers" yaml:"providers" toml:"providers"`
	Start       string            `json:"start" yaml:"start" toml:"start"`
	End         string            `json:"end" yaml:"end" toml:"end"`
	Days        int               `json:"days" yaml:"days" toml:"days"`
	MaxResults  int               `json:"max_results" yaml:"max_results" toml:"max_results"`
	Filter      string            `json:"filter" yaml:"filter" toml:"filter"`
	AWSAccounts []string          `json:"aws_accounts" yaml:"aws_accounts" toml:"aws_accounts"`
	AWSRole     string            `json:"aws_role" yaml:"aws_role" toml:"aws_role"`
	AWSRegions  []string          `json:"aws_regions" yaml:"aws_regions" toml:"aws_regions"`
	Dir         string            `json:"dir" yaml:"dir" toml:"dir"`
	ReportName  string            `json:"report_name" yaml:"report_name" toml:"report_name"`
	ReportType  []string          `json:"report_type" yaml:"report_type" toml:"report_type"`
	Filenames   map[string]string `json:"filenames" yaml:"filenames" toml:"filenames"`
}
