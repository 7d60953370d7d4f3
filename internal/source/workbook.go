package source

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

var errNoSheets = errors.New("workbook has no sheets")

// readWorkbook returns the rows of the first sheet. Trailing empty cells are
// dropped by excelize, so rows may be shorter than the header.
func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}
