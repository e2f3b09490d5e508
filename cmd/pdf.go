package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/glitchfx/glitch-cli/pdf"

	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/responses"
	"github.com/spf13/cobra"
)

var (
	// Used for flags.
	password         string
	stdFileDelimiter string
	pages            string
	dpi              int
)

func init() {
	pdfCmd.Flags().StringVarP(&password, "password", "p", "", "Password on the input PDF file.")
	pdfCmd.Flags().StringVarP(&stdFileDelimiter, "std-file-delimiter", "", "--glitch-cli-file-boundary", "The delimiter to use between pages when writing to stdout.")
	pdfCmd.Flags().StringVarP(&pages, "pages", "", "first-last", "The pages or page ranges to glitch. Ranges are like '1-3,5', which will glitch pages 1, 2, 3 and 5. You can use the keywords first and last. You can prepend a page number with r to start counting from the end. Examples: use '2-last' for the second page until the last page, use '3-r1' for page 3 until the second-last page.")
	pdfCmd.Flags().IntVarP(&dpi, "dpi", "", 150, "The DPI to render the pages in")
	addGlitchOptions(pdfCmd)

	rootCmd.AddCommand(pdfCmd)
}

var pdfCmd = &cobra.Command{
	Use:   "pdf [input] [output]",
	Short: "Render the pages of a PDF and glitch them",
	Long:  "Render the pages of a PDF into images and apply the glitch to every page.\n[input] can either be a file path or - for stdin.\n[output] should contain a \"%d\" placeholder for the page number, e.g. glitch pdf invoice.pdf invoice-%d.png, the result for a 2-page PDF will be invoice-1.png and invoice-2.png. [output] can also be - for stdout. In the case of stdout, the pages will be delimited by the value of the std-file-delimiter, with a newline before and after it.",
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(2)(cmd, args); err != nil {
			return newExitCodeError(err, ExitCodeInvalidArguments)
		}

		if err := validFile(args[0]); err != nil {
			return fmt.Errorf("could not open input file %s: %w", args[0], newExitCodeError(err, ExitCodeInvalidInput))
		}

		if args[1] != stdFilename && !strings.Contains(args[1], "%d") {
			return newExitCodeError(fmt.Errorf("output string %s should contain page pattern %%d", args[1]), ExitCodeInvalidOutput)
		}

		if err := validOutput(args[1]); err != nil {
			return fmt.Errorf("could not write output file %s: %w", args[1], newExitCodeError(err, ExitCodeInvalidOutput))
		}

		if dpi <= 0 {
			return newExitCodeError(fmt.Errorf("invalid dpi %d", dpi), ExitCodeInvalidArguments)
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		format, err := outputFormat(strings.Replace(args[1], "%d", "1", -1))
		if err != nil {
			return newExitCodeError(err, ExitCodeInvalidArguments)
		}

		filter, err := newFilter()
		if err != nil {
			return newExitCodeError(err, ExitCodeInvalidConfig)
		}

		err = pdf.LoadPdfium()
		if err != nil {
			return newExitCodeError(fmt.Errorf("could not load pdfium: %w", newPdfiumError(err)), ExitCodePdfiumError)
		}
		defer pdf.ClosePdfium()

		document, closeFile, err := openFile(cmd, args[0])
		if err != nil {
			closeFile()
			return newExitCodeError(fmt.Errorf("could not open input file %s: %w", args[0], err), pdfiumExitCode(err))
		}
		defer closeFile()

		pageCount, err := pdf.PdfiumInstance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
			Document: document.Document,
		})
		if err != nil {
			return newExitCodeError(fmt.Errorf("could not get page count for PDF %s: %w", args[0], newPdfiumError(err)), ExitCodePdfiumError)
		}

		pageRange := "first-last"
		if pages != "" {
			pageRange = pages
		}

		parsedPageRange, _, err := pdf.NormalizePageRange(pageCount.PageCount, pageRange)
		if err != nil {
			return newExitCodeError(fmt.Errorf("invalid page range '%s': %w", pageRange, err), ExitCodeInvalidPageRange)
		}

		for i, page := range strings.Split(*parsedPageRange, ",") {
			pageInt, _ := strconv.Atoi(page)
			pageRender, err := pdf.PdfiumInstance.RenderPageInDPI(&requests.RenderPageInDPI{
				Page: requests.Page{
					ByIndex: &requests.PageByIndex{
						Document: document.Document,
						Index:    pageInt - 1, // pdfium is 0-index based
					},
				},
				DPI: dpi,
			})
			if err != nil {
				return newExitCodeError(fmt.Errorf("could not render page %d of PDF %s: %w", pageInt, args[0], newPdfiumError(err)), ExitCodePdfiumError)
			}

			// Pdfium renders with a white background, so pages are always opaque.
			glitched, err := glitchImage(filter, pageRender.Result.Image)
			pageRender.Cleanup()
			if err != nil {
				return fmt.Errorf("could not glitch page %d of PDF %s: %w", pageInt, args[0], err)
			}

			encoded, err := encodeImage(glitched, format)
			if err != nil {
				return fmt.Errorf("could not encode page %d: %w", pageInt, newExitCodeError(err, ExitCodeEncodeError))
			}

			if args[1] == stdFilename {
				if i > 0 {
					if _, err := io.WriteString(cmd.OutOrStdout(), "\n"+stdFileDelimiter+"\n"); err != nil {
						return fmt.Errorf("could not write page delimiter to stdout: %w", newExitCodeError(err, ExitCodeInvalidOutput))
					}
				}
				if err := writeOutput(cmd, stdFilename, encoded); err != nil {
					return fmt.Errorf("could not write page %d to stdout: %w", pageInt, newExitCodeError(err, ExitCodeInvalidOutput))
				}
				continue
			}

			newFilePath := strings.Replace(args[1], "%d", page, -1)
			if err := writeOutput(cmd, newFilePath, encoded); err != nil {
				return fmt.Errorf("could not write page %d into %s: %w", pageInt, newFilePath, newExitCodeError(err, ExitCodeInvalidOutput))
			}

			cmd.Printf("Glitched page %s into %s\n", page, newFilePath)
		}

		return nil
	},
}

// openFile opens a PDF from a path or from stdin.
func openFile(cmd *cobra.Command, filename string) (*responses.OpenDocument, func(), error) {
	openDocumentRequest := &requests.OpenDocument{}

	closeFile := func() {}

	if filename == stdFilename {
		// Pdfium can't stream a document of unknown size, read it in full.
		readStdin, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, closeFile, err
		}

		reader := bytes.NewReader(readStdin)
		openDocumentRequest.FileReader = reader
		openDocumentRequest.FileReaderSize = reader.Size()
	} else {
		file, err := os.Open(filename)
		if err != nil {
			return nil, closeFile, err
		}

		closeFile = func() {
			file.Close()
		}

		// Pdfium needs the file size to seek in the file.
		fileStat, err := file.Stat()
		if err != nil {
			return nil, closeFile, err
		}

		openDocumentRequest.FileReader = file
		openDocumentRequest.FileReaderSize = fileStat.Size()
	}

	if password != "" {
		openDocumentRequest.Password = &password
	}

	openedDocument, err := pdf.PdfiumInstance.OpenDocument(openDocumentRequest)
	if err != nil {
		return nil, closeFile, fmt.Errorf("could not open file with pdfium: %w", newPdfiumError(err))
	}

	originalCloseFile := closeFile
	closeFile = func() {
		pdf.PdfiumInstance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: openedDocument.Document})
		originalCloseFile()
	}

	return openedDocument, closeFile, nil
}
