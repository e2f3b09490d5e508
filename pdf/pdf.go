// Package pdf manages the pdfium instance used to rasterize PDF pages and
// parses page range expressions.
package pdf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/klippa-app/go-pdfium"
)

// Be sure to close pools/instances when you're done with them.
var pool pdfium.Pool
var PdfiumInstance pdfium.Pdfium
var isLoaded bool

func ClosePdfium() {
	if !isLoaded {
		return
	}

	PdfiumInstance.Close()
	pool.Close()
	isLoaded = false
}

// NormalizePageRange converts a page range into a comma separated list of
// page numbers. Ranges are like "1-3,5", the keywords first and last can be
// used, and a number prefixed with r counts from the end, so "3-r1" runs
// from page 3 until the second-last page. Pages are returned in the order
// they are requested, without duplicates.
func NormalizePageRange(pageCount int, pageRange string) (*string, *int, error) {
	var calculatedPageNumbers []string
	seenPageNumbers := map[int]bool{}

	addPage := func(page int) {
		if !seenPageNumbers[page] {
			seenPageNumbers[page] = true
			calculatedPageNumbers = append(calculatedPageNumbers, strconv.Itoa(page))
		}
	}

	for _, part := range strings.Split(pageRange, ",") {
		pageRangeParts := strings.Split(strings.TrimSpace(part), "-")
		if len(pageRangeParts) == 0 || len(pageRangeParts) > 2 {
			return nil, nil, errors.New("a page range must contain 1 or 2 components")
		}

		var pageNumbers []int
		for _, token := range pageRangeParts {
			pageNumber, err := parsePageNumber(pageCount, token)
			if err != nil {
				return nil, nil, err
			}
			pageNumbers = append(pageNumbers, pageNumber)
		}

		if len(pageNumbers) == 1 {
			addPage(pageNumbers[0])
			continue
		}

		if pageNumbers[0] > pageNumbers[1] {
			return nil, nil, fmt.Errorf("page range %s runs backwards", part)
		}

		for i := pageNumbers[0]; i <= pageNumbers[1]; i++ {
			addPage(i)
		}
	}

	normalized := strings.Join(calculatedPageNumbers, ",")
	calculatedPageCount := len(calculatedPageNumbers)

	return &normalized, &calculatedPageCount, nil
}

func parsePageNumber(pageCount int, token string) (int, error) {
	switch {
	case token == "first":
		return 1, nil
	case token == "last":
		return pageCount, nil
	case strings.HasPrefix(token, "r"):
		parsedPageNumber, err := strconv.Atoi(strings.TrimPrefix(token, "r"))
		if err != nil {
			return 0, fmt.Errorf("%s is not a valid page number", strings.TrimPrefix(token, "r"))
		}

		pageNumber := pageCount - parsedPageNumber
		if pageNumber < 1 || pageNumber > pageCount {
			return 0, fmt.Errorf("%d is not a valid page number, the document has %d page(s)", pageNumber, pageCount)
		}

		return pageNumber, nil
	default:
		parsedPageNumber, err := strconv.Atoi(token)
		if err != nil {
			return 0, fmt.Errorf("%s is not a valid page number", token)
		}

		if parsedPageNumber < 1 || parsedPageNumber > pageCount {
			return 0, fmt.Errorf("%s is not a valid page number, the document has %d page(s)", token, pageCount)
		}

		return parsedPageNumber, nil
	}
}
