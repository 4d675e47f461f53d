package stmt

import (
	"context"
	"fmt"

	"github.com/jeroenrinzema/pqodbc/internal/convert"
	"github.com/jeroenrinzema/pqodbc/internal/result"
	"github.com/jeroenrinzema/pqodbc/internal/wireproto"
)

// FetchOrientation mirrors result.Orientation at the statement boundary.
type FetchOrientation = result.Orientation

const (
	FetchNext     = result.Next
	FetchPrior    = result.Prior
	FetchFirst    = result.First
	FetchLast     = result.Last
	FetchAbsolute = result.Absolute
	FetchRelative = result.Relative
	FetchBookmark = result.Bookmark
)

// RowStatus mirrors result.RowStatus at the statement boundary.
type RowStatus = result.RowStatus

// ColAttrField names a handful of SQLColAttribute fields this driver
// resolves directly from a ColumnDescriptor.
type ColAttrField int

const (
	ColAttrName ColAttrField = iota
	ColAttrTypeOID
	ColAttrLength
	ColAttrPrecision
	ColAttrNullable
)

// NumResultCols reports the current result set's column count.
func (s *Statement) NumResultCols() (int, error) {
	r, err := s.currentResult()
	if err != nil {
		return 0, nil // no result set is not an error: 0 columns
	}
	return len(r.Columns), nil
}

// DescribeCol returns the 1-indexed column's server-reported metadata.
func (s *Statement) DescribeCol(index int) (wireproto.ColumnDescriptor, error) {
	r, err := s.currentResult()
	if err != nil {
		return wireproto.ColumnDescriptor{}, err
	}
	if index < 1 || index > len(r.Columns) {
		return wireproto.ColumnDescriptor{}, fmt.Errorf("stmt: column index %d out of range", index)
	}
	return r.Columns[index-1], nil
}

// ColAttribute resolves one SQLColAttribute field for a described column.
func (s *Statement) ColAttribute(index int, field ColAttrField) (any, error) {
	col, err := s.DescribeCol(index)
	if err != nil {
		return nil, err
	}
	switch field {
	case ColAttrName:
		return col.Name, nil
	case ColAttrTypeOID:
		return col.TypeOID, nil
	case ColAttrLength:
		return col.TypeSize, nil
	case ColAttrPrecision:
		return col.TypeModifier, nil
	case ColAttrNullable:
		return true, nil // PostgreSQL's wire protocol does not report column nullability
	default:
		return nil, fmt.Errorf("stmt: unknown column attribute field %d", field)
	}
}

// BindCol records a bound output column buffer for later Fetch calls to
// write converted data into.
func (s *Statement) BindCol(index int, cType convert.CType, buf convert.Binding) error {
	if index < 1 {
		return fmt.Errorf("stmt: column index must be >= 1")
	}
	s.cols[index] = &boundCol{cType: cType, buf: buf}
	delete(s.getDataClasses, index)
	return nil
}

// Fetch advances the cursor one row and, for every bound column, converts
// the row's cell into the bound buffer.
func (s *Statement) Fetch(ctx context.Context) error {
	r, err := s.currentResult()
	if err != nil {
		return err
	}
	pos, err := r.Scroll(result.Next, 0)
	if err != nil {
		return err
	}
	if pos < 0 || pos >= r.RawLen() {
		return ErrNoData
	}

	s.getDataClasses = map[int]*convert.GetDataClass{}
	return s.copyBoundColumns(r, pos)
}

// ErrNoData mirrors SQL_NO_DATA: Fetch moved past the last row.
var ErrNoData = fmt.Errorf("stmt: no more rows")

// FetchScroll repositions the cursor per orient/offset and fills bound
// columns for the resulting row, for scrollable cursors.
func (s *Statement) FetchScroll(ctx context.Context, orient FetchOrientation, offset int64) error {
	r, err := s.currentResult()
	if err != nil {
		return err
	}
	pos, err := r.Scroll(orient, offset)
	if err != nil {
		return err
	}
	if pos < 0 || pos >= r.RawLen() {
		return ErrNoData
	}

	s.getDataClasses = map[int]*convert.GetDataClass{}
	return s.copyBoundColumns(r, pos)
}

// ExtendedFetch performs a block fetch of rowsetSize rows starting after
// repositioning per orient/offset, and reports each fetched row's status
// without copying into bound columns (arrayed column binding for an
// entire rowset is outside this driver's Binding model).
func (s *Statement) ExtendedFetch(ctx context.Context, orient FetchOrientation, offset int64, rowsetSize int) ([]RowStatus, error) {
	r, err := s.currentResult()
	if err != nil {
		return nil, err
	}
	if _, err := r.Scroll(orient, offset); err != nil {
		return nil, err
	}
	_, statuses, err := r.FetchBlock(rowsetSize)
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

// copyBoundColumns converts row idx's cells into every currently bound
// output column buffer via component F.
func (s *Statement) copyBoundColumns(r *result.Result, idx int) error {
	row, err := r.Row(idx)
	if err != nil {
		return err
	}
	for col, bc := range s.cols {
		if col < 1 || col > len(row) {
			continue
		}
		if row[col-1] == nil {
			continue // SQL NULL: caller inspects the indicator it passed in, unchanged here
		}
		gd := s.getDataClasses[col]
		if gd == nil {
			gd = &convert.GetDataClass{}
			s.getDataClasses[col] = gd
		}
		if _, _, _, err := convert.ToClient(row[col-1], bc.cType, bc.buf.Buffer, gd, s.cfg.Opts); err != nil {
			return fmt.Errorf("stmt: column %d: %w", col, err)
		}
	}
	return nil
}

// GetData converts the current row's col cell on demand, supporting
// repeated truncated reads via the per-column GetDataClass, per
// spec.md §4.6.
func (s *Statement) GetData(col int, cType convert.CType, buf []byte, indicator *int64) (int, error) {
	r, err := s.currentResult()
	if err != nil {
		return 0, err
	}
	row, err := r.Row(r.Pos())
	if err != nil {
		return 0, err
	}
	if col < 1 || col > len(row) {
		return 0, fmt.Errorf("stmt: column index %d out of range", col)
	}
	if row[col-1] == nil {
		if indicator != nil {
			*indicator = -1
		}
		return 0, nil
	}

	gd := s.getDataClasses[col]
	if gd == nil {
		gd = &convert.GetDataClass{}
		s.getDataClasses[col] = gd
	}

	n, fullLen, _, err := convert.ToClient(row[col-1], cType, buf, gd, s.cfg.Opts)
	if err != nil && err != convert.ErrTruncated {
		return 0, err
	}
	if indicator != nil {
		*indicator = int64(fullLen)
	}
	return n, nil
}
