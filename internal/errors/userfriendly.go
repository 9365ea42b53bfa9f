package errors

import (
	"fmt"
	"strings"
)

// UserFriendlyError provides user-facing error messages with context
// and hints.
type UserFriendlyError struct {
	Message string
	Reason  string
	Hint    string
	Try     string
	Err     error
}

func (e UserFriendlyError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Message)
	if e.Reason != "" {
		buf.WriteString("\n  Reason: " + e.Reason)
	}
	if e.Hint != "" {
		buf.WriteString("\n  Hint: " + e.Hint)
	}
	if e.Try != "" {
		buf.WriteString("\n  Try: " + e.Try)
	}
	if e.Err != nil {
		buf.WriteString("\n  Details: " + e.Err.Error())
	}
	return buf.String()
}

func (e UserFriendlyError) Unwrap() error {
	return e.Err
}

// WrapNetworkError wraps connection-level failures reaching the probe.
func WrapNetworkError(err error, host string, port int) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Failed to reach probe at %s:%d", host, port),
		Reason:  extractNetworkReason(err),
		Hint:    "The probe may be powered off, on a different network, or the port may be wrong",
		Try:     fmt.Sprintf("airprobe ping --host %s --port %d", host, port),
		Err:     err,
	}
}

// WrapProbeError wraps binary API failures with operation context.
func WrapProbeError(err error, operation string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Probe operation failed: %s", operation),
		Reason:  err.Error(),
		Hint:    "The target may be powered down, held in reset, or the debug domain may not be powered up",
		Try:     "Run the basic scenario first: airprobe run basic",
		Err:     err,
	}
}

// WrapConfigError wraps configuration errors with the file path.
func WrapConfigError(err error, configPath string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Configuration error in %s", configPath),
		Reason:  err.Error(),
		Hint:    "Scenario steps need an op (read/write), an addr, and a value for writes",
		Try:     fmt.Sprintf("airprobe list --config %s", configPath),
		Err:     err,
	}
}

func extractNetworkReason(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return "connection timed out"
	case strings.Contains(msg, "connection refused"):
		return "connection refused - nothing is listening on that port"
	case strings.Contains(msg, "no route to host"):
		return "no route to host"
	case strings.Contains(msg, "network is unreachable"):
		return "network is unreachable"
	default:
		return msg
	}
}
