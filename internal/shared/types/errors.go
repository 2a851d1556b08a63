package types

import "errors"

var (
	ErrNoProvidersSelected = errors.New("no log providers selected. Use --providers or a config file")
	ErrInvalidTimeWindow   = errors.New("invalid time window: start must be before end")
	ErrNoAWSAccounts       = errors.New("no AWS accounts configured. Set --aws-accounts and --aws-role")
	ErrAllProvidersFailed  = errors.New("all selected providers failed to collect logs")
)
