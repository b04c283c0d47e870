// Package importer reads batches of raw expense submissions from
// <book>/import/*.csv.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cleared-dev/spent/internal/model"
)

// Row is one submission read from an import file.
type Row struct {
	Line int // 1-based line in the file, header is line 1
	Raw  model.RawExpense
}

// FileInfo describes a CSV file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// ImportDir is the subdirectory for import CSVs.
const ImportDir = "import"

// ProcessedDir is the subdirectory for processed CSVs.
const ProcessedDir = "import/processed"

// Columns, matched case-insensitively. "note" is optional.
const (
	colAmount   = "amount"
	colCategory = "category"
	colDate     = "date"
	colNote     = "note"
)

// ReadRows reads an import CSV. The header names the columns, in any order.
// Values are passed through untouched; validation happens on submission.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idx := map[string]int{}
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colAmount, colCategory, colDate} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("missing %q column in header", required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading import CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, Row{
			Line: line,
			Raw: model.RawExpense{
				Amount:   field(rec, colAmount),
				Category: field(rec, colCategory),
				Date:     field(rec, colDate),
				Note:     field(rec, colNote),
			},
		})
	}
	return rows, nil
}

// ReadFile reads an import CSV from disk.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// Scan returns CSV files in <bookDir>/import/, sorted by name.
func Scan(bookDir string) ([]FileInfo, error) {
	dir := filepath.Join(bookDir, ImportDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(bookDir, fileName string) error {
	src := filepath.Join(bookDir, ImportDir, fileName)
	dstDir := filepath.Join(bookDir, ProcessedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
