package domain

import (
	"fmt"
	"strings"
)

// ExternalAPIError reports a failed call to a third-party API. StatusCode is
// zero when the request never got a response.
type ExternalAPIError struct {
	Service    string
	StatusCode int
	Body       string
	Err        error
}

func (e *ExternalAPIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s API error: %v", e.Service, e.Err)
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s API error (%d)", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s API error (%d): %s", e.Service, e.StatusCode, body)
}

func (e *ExternalAPIError) Unwrap() error { return e.Err }

// ParseError reports a response that did not have the expected shape.
type ParseError struct {
	Service string
	Reason  string
	Raw     string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: invalid response: %s: %v", e.Service, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: invalid response: %s", e.Service, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NotFoundError is returned when a recipe lookup answers 404. The message
// keeps the "(404)" marker older clients match on.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found (404)", e.Resource, e.ID)
}

// ConfigurationError reports a required setting that is missing.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Key)
}

// ValidationError reports a value the caller supplied that is not allowed.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}
