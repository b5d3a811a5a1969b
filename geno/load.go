package geno

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"
	"strings"

	"go.dedis.ch/onet/v3/log"
	"gonum.org/v1/gonum/mat"
)

// LoadMatrixFromFile reads a delimited numeric table with no header into a
// dense matrix.
func LoadMatrixFromFile(filename string, delim rune) *mat.Dense {
	text := readAll(filename, delim)

	lines := len(text)
	columns := len(text[0])

	data := make([]float64, columns*lines)
	for i := 0; i < lines; i++ {
		for j := 0; j < columns; j++ {
			v, err := strconv.ParseFloat(text[i][j], 64)
			if err != nil {
				log.Fatal("parse", filename, "row", i, "col", j, ":", err)
			}
			data[i*columns+j] = v
		}
	}

	return mat.NewDense(lines, columns, data)
}

// LoadGenotypes reads a dosage table: header row of marker names, first
// column of sample ids, cells 0/1/2 with NA (or -) for missing calls.
func LoadGenotypes(filename string, delim rune) (*mat.Dense, []string, []string) {
	text := readAll(filename, delim)
	if len(text) < 2 {
		log.Fatal("genotype file", filename, "has no data rows")
	}

	markers := text[0][1:]
	rows := text[1:]

	samples := make([]string, len(rows))
	data := make([]float64, len(rows)*len(markers))
	for i, row := range rows {
		samples[i] = row[0]
		for j, cell := range row[1:] {
			data[i*len(markers)+j] = parseCall(cell, filename)
		}
	}

	return mat.NewDense(len(rows), len(markers), data), samples, markers
}

// StreamGenotypes opens a dosage table as a sample-row stream with the
// header row and the sample-id column already filtered out, so passes over
// large panels never materialize the matrix.
func StreamGenotypes(filename string, numSamples, numMarkers int, delim rune) *FileStream {
	fs := NewFileStream(filename, numSamples+1, numMarkers+1, string(delim), false)

	rows := make([]bool, numSamples+1)
	for i := 1; i < len(rows); i++ {
		rows[i] = true
	}
	fs.UpdateRowFilt(rows)

	cols := make([]bool, numMarkers+1)
	for j := 1; j < len(cols); j++ {
		cols[j] = true
	}
	fs.UpdateColFilt(cols)
	return fs
}

// LoadPhenotypes reads a phenotype table: header row of trait names, first
// column of sample ids, numeric cells (NA allowed, stored as NaN).
func LoadPhenotypes(filename string, delim rune) (*mat.Dense, []string, []string) {
	text := readAll(filename, delim)
	if len(text) < 2 {
		log.Fatal("phenotype file", filename, "has no data rows")
	}

	traits := text[0][1:]
	rows := text[1:]

	samples := make([]string, len(rows))
	data := make([]float64, len(rows)*len(traits))
	for i, row := range rows {
		samples[i] = row[0]
		for j, cell := range row[1:] {
			if isNA(cell) {
				data[i*len(traits)+j] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				log.Fatal("parse", filename, "row", i, ":", err)
			}
			data[i*len(traits)+j] = v
		}
	}

	return mat.NewDense(len(rows), len(traits), data), samples, traits
}

// LoadMarkerMap reads a three-column map file (marker, chromosome, position)
// with a header row. Order of markers must match the genotype table.
func LoadMarkerMap(filename string, delim rune) []Marker {
	text := readAll(filename, delim)
	if len(text) < 2 {
		log.Fatal("marker map", filename, "has no data rows")
	}

	out := make([]Marker, len(text)-1)
	for i, row := range text[1:] {
		if len(row) < 3 {
			log.Fatal("marker map", filename, "row", i+1, "has", len(row), "fields, want 3")
		}
		pos, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			log.Fatal("parse", filename, "row", i+1, ":", err)
		}
		out[i] = Marker{Name: row[0], Chrom: row[1], Pos: pos}
	}
	return out
}

// LoadDataset assembles a Dataset from genotype, phenotype and map files
// sharing one delimiter. Sample order of the phenotype table must match the
// genotype table; the marker map must cover the genotype columns.
func LoadDataset(genoFile, phenoFile, mapFile string, delim rune) *Dataset {
	g, samples, markerNames := LoadGenotypes(genoFile, delim)
	p, phenoSamples, traits := LoadPhenotypes(phenoFile, delim)
	markers := LoadMarkerMap(mapFile, delim)

	if len(phenoSamples) != len(samples) {
		log.Fatal("genotype and phenotype tables disagree on sample count:",
			len(samples), "vs", len(phenoSamples))
	}
	if len(markers) != len(markerNames) {
		log.Fatal("marker map covers", len(markers), "markers, genotype table has", len(markerNames))
	}
	for j, name := range markerNames {
		if markers[j].Name != name {
			log.Fatal("marker order mismatch at column", j, ":", markers[j].Name, "vs", name)
		}
	}

	return NewDataset(g, samples, markers, p, traits)
}

func readAll(filename string, delim rune) [][]string {
	f, err := os.Open(filename)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	c := csv.NewReader(f)
	c.Comma = delim
	c.FieldsPerRecord = -1
	text, err := c.ReadAll()
	if err != nil {
		log.Fatal("read", filename, ":", err)
	}
	if len(text) == 0 {
		log.Fatal("empty file:", filename)
	}
	return text
}

func parseCall(cell, filename string) float64 {
	if isNA(cell) {
		return Missing
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		log.Fatal("parse genotype call in", filename, ":", err)
	}
	if v != 0 && v != 1 && v != 2 {
		log.Fatal("genotype call out of range in", filename, ":", cell)
	}
	return v
}

func isNA(cell string) bool {
	s := strings.TrimSpace(cell)
	return s == "" || s == "NA" || s == "-" || s == "."
}
