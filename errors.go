package godsiot

import (
	"errors"
	"fmt"
)

// Result codes returned by the device in the "rsc" field.
const (
	rscOK       = 2000
	rscAccepted = 2004
	rscRejected = 4000
)

// CommError is a transport-level failure: timeout, cancellation, connection
// error, or a response missing its top-level container. Always retryable.
type CommError struct {
	Message string
	Err     error
}

func (e *CommError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("communication error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("communication error: %s", e.Message)
}

func (e *CommError) Unwrap() error {
	return e.Err
}

func NewCommError(message string, err error) *CommError {
	return &CommError{Message: message, Err: err}
}

// ProtocolError is a decode-level failure: unknown catalog key, missing tree
// node, or an unmapped device code for a mandatory field. Fatal to the current
// operation; previously held state is left intact.
type ProtocolError struct {
	Message string
	Err     error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("protocol error: %s", e.Message)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func NewProtocolError(message string, err error) *ProtocolError {
	return &ProtocolError{Message: message, Err: err}
}

// DeviceError carries a non-success result code reported by the device for a
// specific endpoint. Code 4000 marks a rejected value (out of range or
// mis-quantized) and is recoverable only by the temperature negotiator.
type DeviceError struct {
	Endpoint string
	Code     int
}

func (e *DeviceError) Error() string {
	if e.Code == rscRejected {
		return fmt.Sprintf("device rejected request to %s (code %d)", e.Endpoint, e.Code)
	}
	return fmt.Sprintf("device error for %s: code %d", e.Endpoint, e.Code)
}

// isRejection reports whether err is a device rejection (rsc 4000), the one
// device error a caller may recover from.
func isRejection(err error) bool {
	var devErr *DeviceError
	return errors.As(err, &devErr) && devErr.Code == rscRejected
}
