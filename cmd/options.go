package cmd

import (
	"log/slog"

	"github.com/glitchfx/glitch-cli/glitch"

	"github.com/spf13/cobra"
)

var (
	// Used for flags.
	seed        int64
	hshiftMin   float64
	hshiftMax   float64
	vbandMin    float64
	vbandMax    float64
	fileType    string
	jpegQuality int
	convert     bool
)

func addGlitchOptions(command *cobra.Command) {
	defaults := glitch.DefaultConfig()
	command.Flags().Int64VarP(&seed, "seed", "s", -1, "Random seed, the same seed always produces the same glitch. Use -1 for a random seed.")
	command.Flags().Float64VarP(&hshiftMin, "hshift-min", "", defaults.HShiftMin, "Minimum horizontal shift of a band, as a fraction of the image width.")
	command.Flags().Float64VarP(&hshiftMax, "hshift-max", "", defaults.HShiftMax, "Maximum horizontal shift of a band, as a fraction of the image width.")
	command.Flags().Float64VarP(&vbandMin, "vband-min", "", defaults.VBandMin, "Minimum band height, as a fraction of the image height.")
	command.Flags().Float64VarP(&vbandMax, "vband-max", "", defaults.VBandMax, "Maximum band height, as a fraction of the image height.")
	command.Flags().StringVarP(&fileType, "file-type", "", "png", "The file type to write when it can't be derived from the output filename: jpeg, png, gif, tiff or bmp")
	command.Flags().IntVarP(&jpegQuality, "jpeg-quality", "", 95, "Quality to use when file type is jpeg")
	command.Flags().BoolVarP(&convert, "convert", "", false, "Convert grayscale and translucent images to RGB instead of rejecting them.")
}

// newFilter builds a filter from the glitch flags.
func newFilter() (*glitch.Filter, error) {
	cfg := glitch.Config{
		HShiftMin: hshiftMin,
		HShiftMax: hshiftMax,
		VBandMin:  vbandMin,
		VBandMax:  vbandMax,
	}

	var src glitch.Source
	if seed >= 0 {
		src = glitch.NewSource(uint64(seed))
	}

	filter, err := glitch.New(cfg, src)
	if err != nil {
		return nil, err
	}

	cfg = filter.Config()
	glitch.Logger().Debug("glitch config",
		slog.Int64("seed", seed),
		slog.Float64("hshift_min", cfg.HShiftMin),
		slog.Float64("hshift_max", cfg.HShiftMax),
		slog.Float64("vband_min", cfg.VBandMin),
		slog.Float64("vband_max", cfg.VBandMax))

	return filter, nil
}
