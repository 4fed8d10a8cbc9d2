// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package errors wraps pkg/errors and adds error codes, so that callers can
// tell an unreadable file apart from a malformed column without string
// matching.
package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Code is an error code which can be used to check against a given error. For
// example, see the Is() method.
type Code string

const (
	ErrUncoded Code = "Uncoded"

	// ErrIO covers missing files, permission problems and truncated reads.
	ErrIO Code = "IOError"

	// ErrFormat covers files which are not valid Parquet, periods which
	// cannot be parsed, and schemas which cannot be reconciled.
	ErrFormat Code = "FormatError"

	// ErrData is returned when an expected column is missing from a batch,
	// or is present with the wrong type.
	ErrData Code = "DataError"

	// ErrValidation marks a malformed batch. These are logged, not returned,
	// by the ingest and store paths.
	ErrValidation Code = "ValidationError"

	ErrUnknownRegister  Code = "UnknownRegister"
	ErrUnknownCovariate Code = "UnknownCovariate"
)

func New(code Code, message string) error {
	return errors.WithStack(codedError{
		Code:    code,
		Message: message,
	})
}

// Newf is New with a format string.
func Newf(code Code, format string, args ...interface{}) error {
	return New(code, fmt.Sprintf(format, args...))
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

func Cause(err error) error {
	return errors.Cause(err)
}

func Errorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

// Is is a fork of the Is() method from `pkg/errors` which takes as its target
// an error Code instead of an error.
func Is(err error, target Code) bool {
	match := codedError{
		Code: target,
	}
	return errors.Is(err, match)
}

// CodeOf returns the code of the outermost coded error in err's chain, or
// ErrUncoded.
func CodeOf(err error) Code {
	var ce codedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrUncoded
}

func WithMessage(err error, message string) error {
	return errors.WithMessage(err, message)
}

func WithMessagef(err error, format string, args ...interface{}) error {
	return errors.WithMessagef(err, format, args...)
}

func WithStack(err error) error {
	return errors.WithStack(err)
}

func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

func Wrapf(err error, fmt string, args ...interface{}) error {
	return errors.Wrapf(err, fmt, args...)
}

// WithCode attaches code to err while keeping err's message. If err is nil,
// WithCode returns nil.
func WithCode(err error, code Code) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(codedError{
		Code:    code,
		Message: err.Error(),
		cause:   err,
	})
}

// codedError is the fundamental type used by this package to provide coded
// errors.
type codedError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (ce codedError) Error() string {
	return ce.Message
}

func (ce codedError) Is(err error) bool {
	if e, ok := err.(codedError); ok && ce.Code == e.Code {
		return true
	}
	return false
}

func (ce codedError) Unwrap() error {
	return ce.cause
}

// Multi collects independent errors keyed by the thing that failed, usually a
// file path. A directory scan uses it to report every failed file while
// keeping the files which loaded.
type Multi map[string]error

// Add records err under key. Nil errors are ignored.
func (m Multi) Add(key string, err error) {
	if err != nil {
		m[key] = err
	}
}

// ErrorOrNil returns nil if m is empty, and m otherwise.
func (m Multi) ErrorOrNil() error {
	if len(m) == 0 {
		return nil
	}
	return m
}

func (m Multi) Error() string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + m[k].Error()
	}
	return fmt.Sprintf("%d error(s): %s", len(m), strings.Join(parts, "; "))
}
