//go:build glitch_cli_use_cgo

package pdf

import (
	"time"

	"github.com/klippa-app/go-pdfium/single_threaded"
)

// LoadPdfium initializes a natively linked pdfium.
func LoadPdfium() error {
	if isLoaded {
		return nil
	}

	var err error
	pool = single_threaded.Init(single_threaded.Config{})

	PdfiumInstance, err = pool.GetInstance(time.Second * 30)
	if err != nil {
		pool.Close()
		return err
	}

	isLoaded = true

	return nil
}
