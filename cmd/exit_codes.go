package cmd

const (
	ExitCodeUnknownError        = 1
	ExitCodeInvalidArguments    = 2
	ExitCodeInvalidInput        = 3
	ExitCodeInvalidOutput       = 4
	ExitCodeInvalidImage        = 5
	ExitCodeInvalidConfig       = 6
	ExitCodePdfiumError         = 7
	ExitCodePdfiumPasswordError = 8
	ExitCodeInvalidPageRange    = 9
	ExitCodeEncodeError         = 10
)
