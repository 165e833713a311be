package domain

import (
	"errors"
	"fmt"
)

// Base errors for the two fatal, non-retryable categories.
// These can be checked with errors.Is against any wrapped error below.
var (
	// ErrConfig is the base error for invalid configuration: bad geometry,
	// missing font, invalid ratios. Surfaced immediately, never retried.
	ErrConfig = errors.New("labelpress: invalid configuration")

	// ErrContent is the base error for invalid print content: no populated
	// field, copy count out of bounds. Rejected before any rendering.
	ErrContent = errors.New("labelpress: invalid content")
)

// ConfigError describes a configuration problem on a specific field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("labelpress: config %s: %s", e.Field, e.Reason)
}

// Unwrap makes errors.Is(err, ErrConfig) work.
func (e *ConfigError) Unwrap() error { return ErrConfig }

// ContentError describes an invalid ContentRequest.
type ContentError struct {
	Reason string
}

func (e *ContentError) Error() string {
	return "labelpress: content: " + e.Reason
}

// Unwrap makes errors.Is(err, ErrContent) work.
func (e *ContentError) Unwrap() error { return ErrContent }

// SendErrorKind classifies transport-level send failures.
// All kinds are retryable up to the configured retry budget.
type SendErrorKind int

const (
	// DeviceNotFound means the named printer or peripheral is absent.
	DeviceNotFound SendErrorKind = iota
	// SpoolerRejected means the local spooler refused the job submission.
	SpoolerRejected
	// QueueUnavailable means the print queueing subsystem cannot be reached.
	QueueUnavailable
	// NotConnected means no transport session exists for the send.
	NotConnected
	// Timeout means an acknowledgment window elapsed mid-transfer.
	Timeout
	// TransferAborted means the peripheral signaled a mid-transfer fault.
	TransferAborted
)

// String returns the kind name used in logs and error messages.
func (k SendErrorKind) String() string {
	switch k {
	case DeviceNotFound:
		return "DeviceNotFound"
	case SpoolerRejected:
		return "SpoolerRejected"
	case QueueUnavailable:
		return "QueueUnavailable"
	case NotConnected:
		return "NotConnected"
	case Timeout:
		return "Timeout"
	case TransferAborted:
		return "TransferAborted"
	default:
		return "Unknown"
	}
}

// SendError is a retryable transport failure from a printer driver.
type SendError struct {
	Kind      SendErrorKind
	Transport string
	Err       error
}

func (e *SendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("labelpress: %s send %s: %v", e.Transport, e.Kind, e.Err)
	}
	return fmt.Sprintf("labelpress: %s send %s", e.Transport, e.Kind)
}

func (e *SendError) Unwrap() error { return e.Err }

// DispatchError is the terminal failure surfaced after the retry budget is
// exhausted. It carries the attempt count and the last underlying SendError.
type DispatchError struct {
	Attempts int
	Copy     int
	Err      error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("labelpress: dispatch failed on copy %d after %d attempts: %v",
		e.Copy, e.Attempts, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
