package cmd

import (
	"errors"
	"strings"
)

type pdfiumError struct {
	originalError error
}

func (e *pdfiumError) Error() string {
	return e.originalError.Error()
}

func (e *pdfiumError) Unwrap() error {
	return e.originalError
}

func newPdfiumError(err error) *pdfiumError {
	return &pdfiumError{
		originalError: err,
	}
}

type ExitCodeError struct {
	originalError error
	exitCode      int
}

func (e *ExitCodeError) Error() string {
	return e.originalError.Error()
}

func (e *ExitCodeError) Unwrap() error {
	return e.originalError
}

func (e *ExitCodeError) ExitCode() int {
	return e.exitCode
}

func newExitCodeError(err error, code int) *ExitCodeError {
	return &ExitCodeError{
		originalError: err,
		exitCode:      code,
	}
}

// pdfiumExitCode maps a pdfium error to an exit code. Pdfium prefixes its
// errors with the FPDF_ERR code, 4 being a missing or wrong password.
func pdfiumExitCode(err error) int {
	target := &pdfiumError{}
	if errors.As(err, &target) && strings.HasPrefix(target.Error(), "4: ") {
		return ExitCodePdfiumPasswordError
	}

	return ExitCodePdfiumError
}
