package errors

type ExitCode int

const (
	ExitSuccess        ExitCode = 0
	ExitGeneralError   ExitCode = 1
	ExitConfigError    ExitCode = 2
	ExitStreamError    ExitCode = 3
	ExitToolError      ExitCode = 4
	ExitStoreError     ExitCode = 5
	ExitInterrupted    ExitCode = 6
	ExitPartialSuccess ExitCode = 10
)

func (e ExitCode) Int() int {
	return int(e)
}
