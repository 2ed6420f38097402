package zonemeter

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// Workbook is the persistence boundary: it opens an xlsx file, hands out
// sheets as Grids and saves the mutated workbook back.
type Workbook struct {
	path   string
	file   *excelize.File
	sheets map[string]*ExcelizeSheet
}

// Open opens an xlsx workbook from disk.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	wb := NewWorkbook(f)
	wb.path = path
	return wb, nil
}

// OpenReader opens an xlsx workbook from a reader. Save requires SaveAs.
func OpenReader(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return NewWorkbook(f), nil
}

// NewWorkbook wraps an already opened excelize file.
func NewWorkbook(f *excelize.File) *Workbook {
	return &Workbook{file: f, sheets: make(map[string]*ExcelizeSheet)}
}

// Path returns the file path the workbook was opened from, if any.
func (w *Workbook) Path() string { return w.path }

// SheetNames returns all sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	return w.file.GetSheetList()
}

// Sheet returns the named sheet, reading it into memory on first access.
func (w *Workbook) Sheet(name string) (*ExcelizeSheet, error) {
	if s, ok := w.sheets[name]; ok {
		return s, nil
	}
	s, err := NewExcelizeSheet(w.file, name)
	if err != nil {
		return nil, err
	}
	w.sheets[name] = s
	return s, nil
}

// Save writes the workbook back to the path it was opened from.
func (w *Workbook) Save() error {
	if w.path == "" {
		return errors.New("workbook has no path; use SaveAs")
	}
	return w.SaveAs(w.path)
}

// SaveAs writes the workbook to path through a temporary file in the same
// directory, so a failed write never leaves a truncated workbook behind.
// A file held open by another program fails with *ResourceLockedError.
func (w *Workbook) SaveAs(path string) error {
	if IsLocked(path) {
		return &ResourceLockedError{Path: path, Err: errors.New("office owner lock file present")}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".zonemeter-*.xlsx")
	if err != nil {
		return classifySaveError(path, fmt.Errorf("create temp file: %w", err))
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := w.file.Write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write workbook %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return classifySaveError(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return classifySaveError(path, err)
	}
	w.path = path
	return nil
}

// Write writes the workbook to the given writer.
func (w *Workbook) Write(out io.Writer) error {
	return w.file.Write(out)
}

// Close closes the underlying excelize file.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// File returns the underlying excelize file for advanced operations.
func (w *Workbook) File() *excelize.File {
	return w.file
}

// lockFilePath returns the owner file Excel creates next to an open workbook.
func lockFilePath(path string) string {
	return filepath.Join(filepath.Dir(path), "~$"+filepath.Base(path))
}

// libreLockFilePath returns LibreOffice's equivalent of lockFilePath.
func libreLockFilePath(path string) string {
	return filepath.Join(filepath.Dir(path), ".~lock."+filepath.Base(path)+"#")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsLocked reports whether an office suite currently holds path open.
func IsLocked(path string) bool {
	return fileExists(lockFilePath(path)) || fileExists(libreLockFilePath(path))
}

func classifySaveError(path string, err error) error {
	if errors.Is(err, fs.ErrPermission) || isBusy(err) {
		return &ResourceLockedError{Path: path, Err: err}
	}
	return fmt.Errorf("save workbook %q: %w", path, err)
}
