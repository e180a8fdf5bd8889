package hubness

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/exp/mmap"
)

// Dexter benchmark dimensions: 300 samples with 20000 sparse text features.
const (
	DexterSamples  = 300
	DexterFeatures = 20000

	dexterDataFile   = "dexter_train.data"
	dexterLabelsFile = "dexter_train.labels"
	dexterCacheFile  = "dexter_train.matrix"
)

// LoadDexter reads the dexter benchmark from dir: dexter_train.data holds one
// sample per line as space-separated "column:value" pairs with 1-based
// columns, dexter_train.labels one ±1 label per line. The returned matrix is
// dense with at least DexterFeatures columns. Loading is deterministic: the
// same files always produce identical X and y.
func LoadDexter(dir string) ([][]float64, []int, error) {
	X, y, err := LoadSparse(filepath.Join(dir, dexterDataFile), filepath.Join(dir, dexterLabelsFile))
	if err != nil {
		return nil, nil, err
	}
	if len(X) > 0 && len(X[0]) < DexterFeatures {
		for i := range X {
			padded := make([]float64, DexterFeatures)
			copy(padded, X[i])
			X[i] = padded
		}
	}
	return X, y, nil
}

// LoadSparse reads a sparse "column:value" sample file and an aligned integer
// label file into a dense feature matrix and label vector. The matrix width
// is the largest column index seen.
func LoadSparse(dataPath, labelsPath string) ([][]float64, []int, error) {
	rows, maxCol, err := readSparseRows(dataPath)
	if err != nil {
		return nil, nil, err
	}
	y, err := readLabels(labelsPath)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) != len(y) {
		return nil, nil, fmt.Errorf("hubness: %d samples but %d labels", len(rows), len(y))
	}

	X := make([][]float64, len(rows))
	for i, row := range rows {
		dense := make([]float64, maxCol)
		for col, val := range row {
			dense[col-1] = val
		}
		X[i] = dense
	}
	return X, y, nil
}

func readSparseRows(path string) ([]map[int]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("hubness: open data file: %w", err)
	}
	defer f.Close()

	var rows []map[int]float64
	maxCol := 0

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		row := make(map[int]float64)
		if line != "" {
			for _, pair := range strings.Fields(line) {
				colStr, valStr, ok := strings.Cut(pair, ":")
				if !ok {
					return nil, 0, fmt.Errorf("hubness: %s:%d: malformed pair %q", path, lineNo, pair)
				}
				col, err := strconv.Atoi(colStr)
				if err != nil || col < 1 {
					return nil, 0, fmt.Errorf("hubness: %s:%d: bad column in %q", path, lineNo, pair)
				}
				val, err := strconv.ParseFloat(valStr, 64)
				if err != nil {
					return nil, 0, fmt.Errorf("hubness: %s:%d: bad value in %q", path, lineNo, pair)
				}
				row[col] = val
				if col > maxCol {
					maxCol = col
				}
			}
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, 0, fmt.Errorf("hubness: read data file: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("hubness: data file %s is empty", path)
	}
	return rows, maxCol, nil
}

func readLabels(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hubness: open labels file: %w", err)
	}
	defer f.Close()

	var y []int
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		label, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("hubness: %s:%d: bad label %q", path, lineNo, line)
		}
		y = append(y, label)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("hubness: read labels file: %w", err)
	}
	return y, nil
}

// --- binary sidecar cache ---

var matrixMagic = [4]byte{'H', 'U', 'B', 'X'}

const matrixVersion uint16 = 1

type matrixHeader struct {
	Magic   [4]byte
	Version uint16
	_       uint16 // reserved
	Rows    uint32
	Cols    uint32
}

// LoadDexterCached behaves like LoadDexter but maintains a binary sidecar
// next to the text files. The first load parses the text and writes the
// sidecar; subsequent loads memory-map it, skipping the parse entirely.
func LoadDexterCached(dir string) ([][]float64, []int, error) {
	cachePath := filepath.Join(dir, dexterCacheFile)
	if _, err := os.Stat(cachePath); err == nil {
		return readMatrixFile(cachePath)
	}

	X, y, err := LoadDexter(dir)
	if err != nil {
		return nil, nil, err
	}
	if err := writeMatrixFile(cachePath, X, y); err != nil {
		return nil, nil, err
	}
	return X, y, nil
}

// writeMatrixFile serializes X and y: header, row-major float64 payload,
// then int32 labels, all little-endian.
func writeMatrixFile(path string, X [][]float64, y []int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("hubness: create matrix cache: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	header := matrixHeader{
		Magic:   matrixMagic,
		Version: matrixVersion,
		Rows:    uint32(len(X)),
		Cols:    uint32(len(X[0])),
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}
	buf := make([]byte, 8)
	for _, row := range X {
		for _, v := range row {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
	}
	for _, label := range y {
		binary.LittleEndian.PutUint32(buf[:4], uint32(int32(label)))
		if _, err := w.Write(buf[:4]); err != nil {
			return err
		}
	}
	return w.Flush()
}

// readMatrixFile memory-maps a matrix cache and decodes it.
func readMatrixFile(path string) ([][]float64, []int, error) {
	ra, err := mmap.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("hubness: mmap matrix cache: %w", err)
	}
	defer ra.Close()

	headerSize := 4 + 2 + 2 + 4 + 4
	hdr := make([]byte, headerSize)
	if _, err := ra.ReadAt(hdr, 0); err != nil {
		return nil, nil, fmt.Errorf("hubness: matrix cache header: %w", err)
	}
	var magic [4]byte
	copy(magic[:], hdr[:4])
	if magic != matrixMagic {
		return nil, nil, fmt.Errorf("hubness: %s is not a matrix cache", path)
	}
	if v := binary.LittleEndian.Uint16(hdr[4:6]); v != matrixVersion {
		return nil, nil, fmt.Errorf("hubness: unsupported matrix cache version %d", v)
	}
	rows := int(binary.LittleEndian.Uint32(hdr[8:12]))
	cols := int(binary.LittleEndian.Uint32(hdr[12:16]))

	payload := rows * cols * 8
	labels := rows * 4
	if ra.Len() != headerSize+payload+labels {
		return nil, nil, fmt.Errorf("hubness: matrix cache %s is truncated", path)
	}

	data := make([]byte, payload+labels)
	if _, err := ra.ReadAt(data, int64(headerSize)); err != nil {
		return nil, nil, fmt.Errorf("hubness: matrix cache payload: %w", err)
	}

	X := make([][]float64, rows)
	off := 0
	for i := range X {
		row := make([]float64, cols)
		for j := range row {
			row[j] = math.Float64frombits(binary.LittleEndian.Uint64(data[off:]))
			off += 8
		}
		X[i] = row
	}
	y := make([]int, rows)
	for i := range y {
		y[i] = int(int32(binary.LittleEndian.Uint32(data[off:])))
		off += 4
	}
	return X, y, nil
}
