package kalshi

import "fmt"

// ConfigError reports credentials that cannot be used at all, such as a
// malformed private key. Fatal at startup.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "kalshi: bad configuration: " + e.Reason
}

// AuthError reports a rejected or failed login attempt.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	if e.Status == 0 {
		return "kalshi: login failed: " + e.Body
	}
	return fmt.Sprintf("kalshi: login rejected: status %d: %s", e.Status, e.Body)
}

// UpstreamError reports a data call that did not produce a usable 200
// response. Transport-level failures carry Status 0.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return "kalshi: request failed: " + e.Body
	}
	return fmt.Sprintf("kalshi: upstream status %d: %s", e.Status, e.Body)
}
