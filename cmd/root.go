package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/glitchfx/glitch-cli/glitch"
	"github.com/glitchfx/glitch-cli/version"

	"github.com/spf13/cobra"
)

var (
	// Used for flags.
	verbose bool

	rootCmd = &cobra.Command{
		Use:     "glitch [input] [output]",
		Short:   "Apply a band-shift glitch to an image",
		Long:    "glitch shifts random horizontal bands of the red and green channels of an image, leaving the blue channel untouched.\n[input] can either be a file path or - for stdin.\n[output] can either be a file path or - for stdout. The output format is taken from the file extension, or from --file-type when writing to stdout.",
		Version: version.VERSION,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				glitch.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})))
			}
		},
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(2)(cmd, args); err != nil {
				return newExitCodeError(err, ExitCodeInvalidArguments)
			}

			if err := validFile(args[0]); err != nil {
				return fmt.Errorf("could not open input file %s: %w", args[0], newExitCodeError(err, ExitCodeInvalidInput))
			}

			if err := validOutput(args[1]); err != nil {
				return fmt.Errorf("could not write output file %s: %w", args[1], newExitCodeError(err, ExitCodeInvalidOutput))
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			format, err := outputFormat(args[1])
			if err != nil {
				return newExitCodeError(err, ExitCodeInvalidArguments)
			}

			filter, err := newFilter()
			if err != nil {
				return newExitCodeError(err, ExitCodeInvalidConfig)
			}

			data, err := readInput(cmd, args[0])
			if err != nil {
				return fmt.Errorf("could not read input file %s: %w", args[0], newExitCodeError(err, ExitCodeInvalidInput))
			}

			img, err := decodeImage(data)
			if err != nil {
				return fmt.Errorf("could not decode input file %s: %w", args[0], newExitCodeError(err, ExitCodeInvalidInput))
			}

			glitched, err := glitchImage(filter, img)
			if err != nil {
				return fmt.Errorf("could not glitch %s: %w", args[0], err)
			}

			encoded, err := encodeImage(glitched, format)
			if err != nil {
				return fmt.Errorf("could not encode output: %w", newExitCodeError(err, ExitCodeEncodeError))
			}

			if err := writeOutput(cmd, args[1], encoded); err != nil {
				return fmt.Errorf("could not write output file %s: %w", args[1], newExitCodeError(err, ExitCodeInvalidOutput))
			}

			if args[1] != stdFilename {
				cmd.Printf("Glitched %s into %s\n", args[0], args[1])
			}

			return nil
		},
	}
)

// Execute executes the root command.
func Execute() error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every band and shift to stderr.")
	addGlitchOptions(rootCmd)
}

// validOutput checks that the directory of an output path exists.
func validOutput(filename string) error {
	if filename == stdFilename {
		return nil
	}

	dirStat, err := os.Stat(filepath.Dir(filename))
	if err != nil {
		return err
	}

	if !dirStat.IsDir() {
		return fmt.Errorf("%s is not a folder", filepath.Dir(filename))
	}

	return nil
}
