package zonemeter

import (
	"errors"
	"fmt"
)

// ErrDuplicateBlock indicates a summary block already exists for the requested month.
var ErrDuplicateBlock = errors.New("summary block already exists")

// ErrMergedCellWrite indicates a write to a non-anchor cell of a merged region.
var ErrMergedCellWrite = errors.New("write to non-anchor cell of merged region")

// ErrSheetNotFound indicates the workbook has no sheet with the requested name.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrResourceLocked indicates the workbook file is held by another process.
var ErrResourceLocked = errors.New("workbook is locked by another process")

// DuplicateBlockError reports the title row of the existing block.
type DuplicateBlockError struct {
	Sheet string
	Year  int
	Month int
	Row   int
}

func (e *DuplicateBlockError) Error() string {
	return fmt.Sprintf("sheet %q: %d年%d月 block already exists at row %d", e.Sheet, e.Year, e.Month, e.Row)
}

func (e *DuplicateBlockError) Unwrap() error {
	return ErrDuplicateBlock
}

// StraddlingRegionError reports a merged region that spans the insertion point.
type StraddlingRegionError struct {
	Sheet  string
	Region AreaRef
	After  int // rows would be inserted after this row
}

func (e *StraddlingRegionError) Error() string {
	return fmt.Sprintf("sheet %q: merged region %s straddles insertion after row %d", e.Sheet, e.Region, e.After)
}

// BlockConflictError reports an insertion point that lies inside an existing block.
type BlockConflictError struct {
	Sheet string
	After int
	Block BlockInfo
}

func (e *BlockConflictError) Error() string {
	return fmt.Sprintf("sheet %q: insertion after row %d falls inside %d年%d月 block (rows %d-%d)",
		e.Sheet, e.After, e.Block.Year, int(e.Block.Month), e.Block.Row, e.Block.LastRow)
}

// ResourceLockedError reports a workbook file that could not be acquired for writing.
// It is retryable once the other process releases the file.
type ResourceLockedError struct {
	Path string
	Err  error
}

func (e *ResourceLockedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("workbook %q is locked by another process", e.Path)
	}
	return fmt.Sprintf("workbook %q is locked by another process: %v", e.Path, e.Err)
}

func (e *ResourceLockedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrResourceLocked}
	}
	return []error{ErrResourceLocked, e.Err}
}
