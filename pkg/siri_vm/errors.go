package siri_vm

import (
	"errors"
	"fmt"
)

// Reasons a document could not be decoded. Every error returned by Parse is a
// *ParsingError whose Reason is one of these, so callers can use errors.Is.
var (
	ErrMalformedDocument = errors.New("malformed document")
	ErrMissingContainer  = errors.New("missing mandatory element")
	ErrMissingField      = errors.New("missing mandatory field")
	ErrInvalidValue      = errors.New("invalid value")
)

type ParsingError struct {
	Reason error

	// Element is the local name of the element at fault, empty for
	// malformed documents.
	Element string
	// Path is where the element is, or was expected to be, in the document.
	Path string
	// Value holds the offending text for ErrInvalidValue.
	Value string

	Err error
}

func (e *ParsingError) Error() string {
	switch {
	case e.Reason == ErrMalformedDocument:
		return fmt.Sprintf("siri-vm: %s: %v", e.Reason, e.Err)
	case e.Reason == ErrInvalidValue:
		return fmt.Sprintf("siri-vm: %s %q for %s at %s: %v", e.Reason, e.Value, e.Element, e.Path, e.Err)
	default:
		return fmt.Sprintf("siri-vm: %s %s (expected at %s)", e.Reason, e.Element, e.Path)
	}
}

func (e *ParsingError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

func malformedDocument(err error) *ParsingError {
	return &ParsingError{Reason: ErrMalformedDocument, Err: err}
}

func missingContainer(element, path string) *ParsingError {
	return &ParsingError{Reason: ErrMissingContainer, Element: element, Path: path}
}

func missingField(element, path string) *ParsingError {
	return &ParsingError{Reason: ErrMissingField, Element: element, Path: path}
}

func invalidValue(element, path, value string, err error) *ParsingError {
	return &ParsingError{Reason: ErrInvalidValue, Element: element, Path: path, Value: value, Err: err}
}
