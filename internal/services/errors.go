package services

import (
	"errors"
	"fmt"
)

var (
	ErrExtractionFailed  = errors.New("text extraction failed")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrTextTooShort      = errors.New("extracted text too short")
	ErrEnrichmentFailed  = errors.New("enrichment failed")
	ErrDecode            = errors.New("text is not valid utf-8")
)

// DocumentError carries the failing operation and document alongside one of
// the sentinel errors above.
type DocumentError struct {
	Op       string
	Kind     DocumentKind
	Filename string
	BaseErr  error
	Detail   error
}

func (e *DocumentError) Error() string {
	msg := e.Op
	if e.Filename != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Filename)
	}
	if e.Kind != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Kind)
	}
	msg = fmt.Sprintf("%s: %v", msg, e.BaseErr)
	if e.Detail != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Detail)
	}
	return msg
}

func (e *DocumentError) Unwrap() []error {
	if e.Detail == nil {
		return []error{e.BaseErr}
	}
	return []error{e.BaseErr, e.Detail}
}

func newDocumentError(op string, kind DocumentKind, base, detail error) *DocumentError {
	return &DocumentError{Op: op, Kind: kind, BaseErr: base, Detail: detail}
}

// WithFilename returns err annotated with the uploaded file name when it is a
// *DocumentError.
func WithFilename(err error, filename string) error {
	var docErr *DocumentError
	if errors.As(err, &docErr) {
		cp := *docErr
		cp.Filename = filename
		return &cp
	}
	return err
}

// IsCallerError reports whether err was caused by the submitted input rather
// than by the server.
func IsCallerError(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrDecode) ||
		errors.Is(err, ErrTextTooShort)
}
