package forecast

import "fmt"

// ConfigurationError reports an input that makes a computation impossible.
// It is fatal for the current request and always names the offending field.
type ConfigurationError struct {
	Field   string
	Horizon Horizon // zero when the error is not horizon specific
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Horizon != 0 {
		return fmt.Sprintf("configuration error: %s (horizon %d): %s", e.Field, int(e.Horizon), e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}
