package main

import (
	"errors"
	"os"

	"github.com/glitchfx/glitch-cli/cmd"
)

func main() {
	err := cmd.Execute()
	if err != nil {
		exitCodeError := &cmd.ExitCodeError{}
		if errors.As(err, &exitCodeError) {
			os.Exit(exitCodeError.ExitCode())
		} else {
			os.Exit(cmd.ExitCodeInvalidArguments)
		}
	}
}
