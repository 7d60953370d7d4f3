// Package source reads the raw earthquake catalog from disk.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/quake-data-explorer/internal/domain"
)

var errIsDirectory = errors.New("is a directory")

// Format identifies how a catalog file is decoded.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// File is a catalog stored in a local file. The format is taken from the
// extension: .tsv is tab separated, .xlsx is read from its first sheet and
// anything else is treated as comma separated.
type File struct {
	Path string
}

// NewFile returns a File for path.
func NewFile(path string) *File {
	return &File{Path: path}
}

// Format reports how the file will be decoded.
func (f *File) Format() Format {
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".tsv":
		return FormatTSV
	case ".xlsx":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// Identity returns a key that changes whenever the file is replaced or
// rewritten: the path, modification time and size.
func (f *File) Identity() (string, error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		return "", &domain.SourceUnavailableError{Path: f.Path, Err: err}
	}
	if info.IsDir() {
		return "", &domain.SourceUnavailableError{Path: f.Path, Err: errIsDirectory}
	}
	return fmt.Sprintf("%s|%d|%d", f.Path, info.ModTime().UnixNano(), info.Size()), nil
}

// Load reads the whole file into a RawTable. The first row is the header.
// A missing or unreadable file yields a *domain.SourceUnavailableError.
func (f *File) Load(ctx context.Context) (domain.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawTable{}, err
	}

	var (
		rows [][]string
		err  error
	)
	switch f.Format() {
	case FormatXLSX:
		rows, err = readWorkbook(f.Path)
	case FormatTSV:
		rows, err = readDelimited(f.Path, '\t')
	default:
		rows, err = readDelimited(f.Path, ',')
	}
	if err != nil {
		return domain.RawTable{}, &domain.SourceUnavailableError{Path: f.Path, Err: err}
	}
	return toRawTable(rows), nil
}

func toRawTable(rows [][]string) domain.RawTable {
	if len(rows) == 0 {
		return domain.RawTable{}
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return domain.RawTable{Header: header, Rows: rows[1:]}
}
