package analyzer

import "fmt"

// Code is a machine-readable failure code returned to callers.
type Code string

const (
	CodePasswordRequired   Code = "PASSWORD_REQUIRED"
	CodeIncorrectPassword  Code = "INCORRECT_PASSWORD"
	CodeNoTextFound        Code = "NO_TEXT_FOUND"
	CodeNoTransactions     Code = "NO_TRANSACTIONS_FOUND"
	CodeUnsupportedFormat  Code = "UNSUPPORTED_FORMAT"
	CodeUnreadableDocument Code = "UNREADABLE_DOCUMENT"
	CodeCancelled          Code = "CANCELLED"
)

var messages = map[Code]string{
	CodePasswordRequired:   "This statement is password protected. Please enter the password and try again.",
	CodeIncorrectPassword:  "The password is incorrect. Please check it and try again.",
	CodeNoTextFound:        "No readable text was found in the document, even after OCR.",
	CodeNoTransactions:     "No transactions could be found in the statement.",
	CodeUnsupportedFormat:  "Unsupported file type. Please upload a CSV or PDF statement.",
	CodeUnreadableDocument: "The document could not be read. It may be damaged or in an unsupported layout.",
	CodeCancelled:          "Analysis took too long and was cancelled.",
}

// Message returns the human-readable text for a code.
func (c Code) Message() string {
	if m, ok := messages[c]; ok {
		return m
	}
	return string(c)
}

// Error is an expected analysis failure. Two Errors match with errors.Is
// when their codes are equal.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func newError(code Code, err error) *Error {
	return &Error{Code: code, Message: code.Message(), Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrPasswordRequired   = newError(CodePasswordRequired, nil)
	ErrIncorrectPassword  = newError(CodeIncorrectPassword, nil)
	ErrNoTextFound        = newError(CodeNoTextFound, nil)
	ErrNoTransactions     = newError(CodeNoTransactions, nil)
	ErrUnsupportedFormat  = newError(CodeUnsupportedFormat, nil)
	ErrUnreadableDocument = newError(CodeUnreadableDocument, nil)
	ErrCancelled          = newError(CodeCancelled, nil)
)
