package geno

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.dedis.ch/onet/v3/log"
	"gonum.org/v1/gonum/mat"
)

// SaveMatrixToFile writes a dense matrix as delimited text, one row per
// line, values in %.6e.
func SaveMatrixToFile(m *mat.Dense, delim string, filename string) {
	f, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		line := make([]string, cols)
		for j := 0; j < cols; j++ {
			line[j] = fmt.Sprintf("%.6e", m.At(i, j))
		}
		w.WriteString(strings.Join(line, delim) + "\n")
	}
	w.Flush()

	log.LLvl1("Saved data to", filename)
}

// SaveFloatVectorToFile writes one value per line in %.6e.
func SaveFloatVectorToFile(filename string, x []float64) {
	f, err := os.Create(filename)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i := range x {
		w.WriteString(fmt.Sprintf("%.6e\n", x[i]))
	}
	w.Flush()
}

// SaveTSV writes a header row followed by record rows, tab separated.
func SaveTSV(filename string, header []string, rows [][]string) {
	f, err := os.Create(filename)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	w.WriteString(strings.Join(header, "\t") + "\n")
	for _, row := range rows {
		w.WriteString(strings.Join(row, "\t") + "\n")
	}
	w.Flush()

	log.LLvl1("Saved data to", filename)
}

// SaveJSON serializes one run's result bundle. Each run writes its own file;
// there is no shared session state.
func SaveJSON(filename string, v interface{}) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	log.LLvl1("Saved bundle to", filename)
	return nil
}
