package geno

import (
	"bufio"
	"os"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// FileStream walks a delimited dosage file one sample row at a time, so QC
// passes over large panels never hold the full matrix. Row and column
// filters narrow later passes to the samples and markers that survived
// earlier ones.
type FileStream struct {
	filename  string
	file      *os.File
	scanner   *bufio.Scanner
	delim     string
	numRows   int
	numCols   int
	lineCount int

	filtRows []bool
	filtCols []bool

	filtNumRow int
	filtNumCol int

	missingReplace []float64
	replaceMissing bool
}

func NewFileStream(filename string, numRows, numCols int, delim string, replaceMissing bool) *FileStream {
	file, err := os.Open(filename)
	if err != nil {
		panic(err)
	}

	return &FileStream{
		filename:       filename,
		file:           file,
		scanner:        bufio.NewScanner(file),
		delim:          delim,
		numRows:        numRows,
		numCols:        numCols,
		replaceMissing: replaceMissing,
	}
}

func (fs *FileStream) readRow() []float64 {
	if fs.CheckEOF() {
		return nil
	}
	if !fs.scanner.Scan() {
		panic("unexpected end of " + fs.filename)
	}

	fields := strings.Split(fs.scanner.Text(), fs.delim)
	if len(fields) != fs.numCols {
		panic("row width mismatch in " + fs.filename)
	}

	var out []float64
	if fs.filtCols != nil {
		out = make([]float64, 0, fs.filtNumCol)
	} else {
		out = make([]float64, 0, fs.numCols)
	}

	for j, cell := range fields {
		if fs.filtCols != nil && !fs.filtCols[j] {
			continue
		}
		v := parseCall(cell, fs.filename)
		if fs.replaceMissing && v == Missing {
			if fs.missingReplace != nil {
				v = fs.missingReplace[j]
			} else {
				v = 0
			}
		}
		out = append(out, v)
	}

	fs.lineCount++
	return out
}

// skipRow consumes a filtered-out line without parsing it, so non-numeric
// rows (a header line, say) can be filtered away.
func (fs *FileStream) skipRow() {
	if fs.CheckEOF() {
		return
	}
	if !fs.scanner.Scan() {
		panic("unexpected end of " + fs.filename)
	}
	fs.lineCount++
}

// NextRow returns the next unfiltered sample row, or nil at EOF.
func (fs *FileStream) NextRow() []float64 {
	if fs.CheckEOF() {
		return nil
	}
	if fs.filtRows != nil {
		for fs.lineCount < len(fs.filtRows) && !fs.filtRows[fs.lineCount] {
			fs.skipRow()
		}
	}
	return fs.readRow()
}

func (fs *FileStream) Reset() {
	var err error
	if fs.file == nil {
		fs.file, err = os.Open(fs.filename)
	} else {
		_, err = fs.file.Seek(0, 0)
	}
	if err != nil {
		panic(err)
	}
	fs.scanner = bufio.NewScanner(fs.file)
	fs.lineCount = 0
}

func (fs *FileStream) CheckEOF() bool {
	if fs.lineCount >= fs.numRows {
		if fs.file != nil {
			fs.file.Close()
		}
		fs.file = nil
		fs.scanner = nil
		return true
	}
	return false
}

func (fs *FileStream) NumRows() int { return fs.numRows }
func (fs *FileStream) NumCols() int { return fs.numCols }

func (fs *FileStream) NumRowsToKeep() int {
	if fs.filtRows == nil {
		return fs.numRows
	}
	return fs.filtNumRow
}

func (fs *FileStream) NumColsToKeep() int {
	if fs.filtCols == nil {
		return fs.numCols
	}
	return fs.filtNumCol
}

// UpdateRowFilt intersects the current row filter with a, indexed over the
// currently kept rows. Returns the number of rows remaining.
func (fs *FileStream) UpdateRowFilt(a []bool) int {
	if len(a) != fs.NumRowsToKeep() {
		panic("invalid length of input array")
	}

	if fs.filtRows == nil {
		fs.filtRows = make([]bool, fs.numRows)
		for i := range fs.filtRows {
			fs.filtRows[i] = true
		}
	}

	sum, idx := 0, 0
	for i := range fs.filtRows {
		if fs.filtRows[i] {
			fs.filtRows[i] = a[idx]
			idx++
			if fs.filtRows[i] {
				sum++
			}
		}
	}
	fs.filtNumRow = sum
	return sum
}

// UpdateColFilt intersects the current column filter with a, indexed over
// the currently kept columns. Returns the number of columns remaining.
func (fs *FileStream) UpdateColFilt(a []bool) int {
	if len(a) != fs.NumColsToKeep() {
		panic("invalid length of input array")
	}

	if fs.filtCols == nil {
		fs.filtCols = make([]bool, fs.numCols)
		for i := range fs.filtCols {
			fs.filtCols[i] = true
		}
	}

	sum, idx := 0, 0
	for i := range fs.filtCols {
		if fs.filtCols[i] {
			fs.filtCols[i] = a[idx]
			idx++
			if fs.filtCols[i] {
				sum++
			}
		}
	}
	fs.filtNumCol = sum
	return sum
}

func (fs *FileStream) RowFilt() []bool { return fs.filtRows }
func (fs *FileStream) ColFilt() []bool { return fs.filtCols }

// SetMissingReplace installs per-column replacement values for missing
// calls, indexed over the unfiltered columns.
func (fs *FileStream) SetMissingReplace(a []float64) {
	if a != nil && len(a) != fs.numCols {
		panic("invalid length of input array")
	}
	fs.missingReplace = a
}

// ToMatDense materializes the kept rows and columns.
func (fs *FileStream) ToMatDense() *mat.Dense {
	fs.Reset()
	a := mat.NewDense(fs.NumRowsToKeep(), fs.NumColsToKeep(), nil)
	for i := 0; i < fs.NumRowsToKeep(); i++ {
		a.SetRow(i, fs.NextRow())
	}
	return a
}
