package types

// CLIArgs represents the command-line arguments.
type CLIArgs struct {
	ConfigFile  string
	Providers   []string
	Start       string
	End         string
	Days        int
	MaxResults  int
	Filter      string
	AWSAccounts []string
	AWSRole     string
	AWSRegions  []string
	Dir         string
	ReportName  string
	ReportType  []string
}
