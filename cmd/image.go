package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/glitchfx/glitch-cli/glitch"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	_ "golang.org/x/image/webp"
)

const stdFilename = "-"

func validFile(filename string) error {
	if filename == stdFilename {
		return nil
	}

	if _, err := os.Stat(filename); err != nil {
		return err
	}

	return nil
}

// readInput reads a whole file, or stdin for "-".
func readInput(cmd *cobra.Command, filename string) ([]byte, error) {
	if filename == stdFilename {
		return io.ReadAll(cmd.InOrStdin())
	}

	return os.ReadFile(filename)
}

// writeOutput writes data to a file, or stdout for "-".
func writeOutput(cmd *cobra.Command, filename string, data []byte) error {
	if filename == stdFilename {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	return os.WriteFile(filename, data, 0o644)
}

// decodeImage decodes any registered image format, applying the EXIF
// orientation of JPEG files.
func decodeImage(data []byte) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}

// outputFormat picks the encoder from the output extension, falling back to
// the --file-type flag.
func outputFormat(filename string) (imaging.Format, error) {
	if filename != stdFilename {
		if format, err := imaging.FormatFromFilename(filename); err == nil {
			return format, nil
		}
	}

	format, err := imaging.FormatFromExtension(fileType)
	if err != nil {
		return 0, fmt.Errorf("unsupported file type %s: %w", fileType, err)
	}

	return format, nil
}

// glitchImage converts img to RGB and renders the glitch on it.
func glitchImage(filter *glitch.Filter, img image.Image) (*glitch.RGB, error) {
	rgb, err := glitch.FromImage(img, convert)
	if err != nil {
		if errors.Is(err, glitch.ErrInvalidChannelCount) {
			err = fmt.Errorf("%w (use --convert to convert it to RGB)", err)
		}
		return nil, newExitCodeError(err, ExitCodeInvalidImage)
	}

	glitched, err := filter.Render(rgb)
	if err != nil {
		return nil, newExitCodeError(err, ExitCodeInvalidImage)
	}

	return glitched, nil
}

// encodeImage encodes img in memory so that a failing encoder never leaves a
// partial file behind.
func encodeImage(img image.Image, format imaging.Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
