// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind categorizes API failures for programmatic handling.
type ErrorKind int

const (
	// KindConnection means no response was received.
	KindConnection ErrorKind = iota

	// KindRejected means the service answered with an error status.
	KindRejected

	// KindInvalidResponse means the response could not be decoded or lacked
	// a required field.
	KindInvalidResponse

	// KindCancelled means the context was cancelled or timed out.
	KindCancelled
)

// String returns the kind name used in logs and metric labels.
func (k ErrorKind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindRejected:
		return "rejected"
	case KindInvalidResponse:
		return "invalid_response"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Fallback messages shown when the service gives no message of its own.
const (
	msgConnection  = "connection error, please try again later"
	msgLoginFailed = "login failed, please verify your credentials"
	msgCancelled   = "request cancelled"
)

// APIError describes a failed call to the catalog service.
type APIError struct {
	// Kind categorizes the failure.
	Kind ErrorKind

	// Operation names the call, e.g. "create_item".
	Operation string

	// Status is the HTTP status for KindRejected, otherwise 0.
	Status int

	// Message is safe to show to the user. For rejected calls it is the
	// service's own "message" when the body carries one.
	Message string

	// Detail is technical context for logs.
	Detail string

	cause error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Operation, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

// Unwrap exposes the underlying transport or decode error.
func (e *APIError) Unwrap() error {
	return e.cause
}

// FullError includes the technical detail.
func (e *APIError) FullError() string {
	var buf bytes.Buffer
	buf.WriteString(e.Error())
	if e.Detail != "" {
		buf.WriteString("\n\nDetails: ")
		buf.WriteString(e.Detail)
	}
	return buf.String()
}

// KindOf returns the kind of an *APIError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return 0, false
}

// UserMessage returns the message to show for err: the APIError message
// when there is one, err.Error() otherwise.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// serviceMessage pulls a "message" (or "error") string out of an error body.
func serviceMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if m := strings.TrimSpace(payload.Message); m != "" {
		return m
	}
	return strings.TrimSpace(payload.Error)
}
