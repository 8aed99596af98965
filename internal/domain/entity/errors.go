package entity

import (
	"errors"
	"fmt"
)

// ErrorKind категория ошибки анализа
type ErrorKind string

const (
	KindMissingCredential  ErrorKind = "MissingCredentialError"
	KindCredentialFetch    ErrorKind = "CredentialFetchError"
	KindSourceUnavailable  ErrorKind = "SourceUnavailableError"
	KindRead               ErrorKind = "ReadError"
	KindInvalidRequest     ErrorKind = "InvalidRequestError"
	KindPayloadTooLarge    ErrorKind = "PayloadTooLargeError"
	KindRateLimitExceeded  ErrorKind = "RateLimitExceeded"
	KindServiceUnavailable ErrorKind = "ServiceUnavailableError"
	KindTransport          ErrorKind = "TransportError"
	KindMalformedResponse  ErrorKind = "MalformedResponseError"
	KindCancelled          ErrorKind = "CancelledError"
	KindSinkWrite          ErrorKind = "SinkWriteError"
	KindConfig             ErrorKind = "ConfigError"
	KindUnknown            ErrorKind = "UnknownError"
)

// Error типизированная ошибка с категорией и операцией
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError создаёт ошибку без причины.
func NewError(kind ErrorKind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// WrapError оборачивает err в ошибку указанной категории.
// Уже типизированная ошибка возвращается как есть.
func WrapError(kind ErrorKind, op, message string, err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	return &Error{Kind: kind, Op: op, Message: message, Cause: err}
}

// KindOf возвращает категорию первой типизированной ошибки в цепочке.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindUnknown
}

// IsKind проверяет категорию ошибки.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
