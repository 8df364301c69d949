package research

import "fmt"

// ConfigurationError reports a required configuration value that is
// missing or invalid. It is detected before the first node runs, so a
// misconfigured run never makes a network call.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}

// ProviderError reports a language-model or search-provider capability
// that returned a transport failure or timed out. It is fatal to the
// run; there is no local retry.
type ProviderError struct {
	Capability string // "language model" or "web search"
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider failed: %v", e.Capability, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func providerErr(capability string, err error) error {
	return &ProviderError{Capability: capability, Err: err}
}
