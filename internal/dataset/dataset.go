// Package dataset holds (feature, target) sample pairs ready for training.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strconv"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/matrix"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/rng"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrEmpty = errors.New("dataset has no samples")

// Dataset is an ordered collection of samples and targets.
// Features[i] and Targets[i] are 1 x n matrices describing sample i.
type Dataset struct {
	Features []*matrix.Matrix
	Targets  []*matrix.Matrix
}

// FromRows builds a dataset from parallel feature and target rows.
func FromRows(features, targets [][]float32) (*Dataset, error) {
	if len(features) != len(targets) {
		return nil, fmt.Errorf("%d feature rows, %d target rows: %w", len(features), len(targets), matrix.ErrShapeMismatch)
	}
	ds := &Dataset{
		Features: make([]*matrix.Matrix, len(features)),
		Targets:  make([]*matrix.Matrix, len(targets)),
	}
	for i := range features {
		ds.Features[i] = matrix.FromSlice(features[i])
		ds.Targets[i] = matrix.FromSlice(targets[i])
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// LoadCSV loads data from a CSV file.
// labelCols specifies the indices of columns to be used as targets.
// All other columns are used as features.
// hasHeader skips the first line if true.
func LoadCSV(filename string, labelCols []int, hasHeader bool) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file, labelCols, hasHeader)
}

// ReadCSV parses CSV records from r. See LoadCSV.
func ReadCSV(r io.Reader, labelCols []int, hasHeader bool) (*Dataset, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("csv file is empty")
	}

	startRow := 0
	if hasHeader {
		startRow = 1
	}

	if len(records) <= startRow {
		return nil, fmt.Errorf("csv file has no data rows")
	}

	numCols := len(records[0])
	isLabelCol := make(map[int]bool)
	for _, col := range labelCols {
		if col < 0 || col >= numCols {
			return nil, fmt.Errorf("label column %d outside %d columns: %w", col, numCols, matrix.ErrOutOfBounds)
		}
		isLabelCol[col] = true
	}

	numSamples := len(records) - startRow
	features := make([][]float32, numSamples)
	targets := make([][]float32, numSamples)

	for i := startRow; i < len(records); i++ {
		record := records[i]
		if len(record) != numCols {
			return nil, fmt.Errorf("inconsistent number of columns at row %d", i)
		}

		featureRow := make([]float32, 0, numCols-len(isLabelCol))
		labelValues := make(map[int]float32, len(labelCols))

		for j, valStr := range record {
			val, err := strconv.ParseFloat(valStr, 32)
			if err != nil {
				return nil, fmt.Errorf("failed to parse value at row %d, col %d: %w", i, j, err)
			}

			if isLabelCol[j] {
				labelValues[j] = float32(val)
			} else {
				featureRow = append(featureRow, float32(val))
			}
		}

		// targets keep the order given in labelCols
		targetRow := make([]float32, 0, len(labelCols))
		for _, col := range labelCols {
			targetRow = append(targetRow, labelValues[col])
		}

		features[i-startRow] = featureRow
		targets[i-startRow] = targetRow
	}

	return FromRows(features, targets)
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Features)
}

// Pairs yields (feature, target) pairs in order.
func (d *Dataset) Pairs() iter.Seq2[*matrix.Matrix, *matrix.Matrix] {
	return func(yield func(*matrix.Matrix, *matrix.Matrix) bool) {
		for i := range d.Features {
			if !yield(d.Features[i], d.Targets[i]) {
				return
			}
		}
	}
}

// Validate checks that every sample and every target share one width.
func (d *Dataset) Validate() error {
	if len(d.Features) != len(d.Targets) {
		return fmt.Errorf("%d features, %d targets: %w", len(d.Features), len(d.Targets), matrix.ErrShapeMismatch)
	}
	for i := range d.Features {
		if d.Features[i].Shape() != d.Features[0].Shape() {
			return fmt.Errorf("sample %d shape %v, want %v: %w", i, d.Features[i].Shape(), d.Features[0].Shape(), matrix.ErrShapeMismatch)
		}
		if d.Targets[i].Shape() != d.Targets[0].Shape() {
			return fmt.Errorf("target %d shape %v, want %v: %w", i, d.Targets[i].Shape(), d.Targets[0].Shape(), matrix.ErrShapeMismatch)
		}
	}
	return nil
}

// column copies feature column c of every sample.
func (d *Dataset) column(c int) []float64 {
	col := make([]float64, len(d.Features))
	for i, f := range d.Features {
		col[i] = float64(f.Raw()[c])
	}
	return col
}

func (d *Dataset) numFeatures() int {
	if len(d.Features) == 0 {
		return 0
	}
	return d.Features[0].Len()
}

// Scaler maps feature column c to (x - Offset[c]) / Scale[c]. Columns with a
// zero Scale map to 0.
type Scaler struct {
	Offset []float64
	Scale  []float64
}

// Apply rescales the features of d in place.
func (s *Scaler) Apply(d *Dataset) error {
	if d.Len() > 0 && d.numFeatures() != len(s.Offset) {
		return fmt.Errorf("scaler fitted on %d features, dataset has %d: %w", len(s.Offset), d.numFeatures(), matrix.ErrShapeMismatch)
	}
	for _, f := range d.Features {
		x := f.Raw()
		for c := range s.Offset {
			if s.Scale[c] != 0 {
				x[c] = float32((float64(x[c]) - s.Offset[c]) / s.Scale[c])
			} else {
				x[c] = 0
			}
		}
	}
	return nil
}

// fit builds a scaler from per-column statistics and applies it to d.
func (d *Dataset) fit(stats func(col []float64) (offset, scale float64)) *Scaler {
	n := d.numFeatures()
	s := &Scaler{Offset: make([]float64, n), Scale: make([]float64, n)}
	for c := 0; c < n; c++ {
		s.Offset[c], s.Scale[c] = stats(d.column(c))
	}
	s.Apply(d)
	return s
}

// Normalize performs min-max normalization of every feature column into [0, 1]
// and returns the scaler, so the same mapping can be applied to held-out data.
// Constant columns become 0.
func (d *Dataset) Normalize() *Scaler {
	return d.fit(func(col []float64) (float64, float64) {
		lo := floats.Min(col)
		return lo, floats.Max(col) - lo
	})
}

// Standardize rescales every feature column to zero mean and unit variance
// and returns the scaler. Constant columns become 0.
func (d *Dataset) Standardize() *Scaler {
	return d.fit(func(col []float64) (float64, float64) {
		return stat.PopMeanStdDev(col, nil)
	})
}

// Split splits the dataset into two based on the given ratio (0.0 to 1.0).
// Returns two new Datasets (train, test) sharing the sample matrices.
func (d *Dataset) Split(ratio float32) (*Dataset, *Dataset) {
	if ratio <= 0 {
		return &Dataset{}, d
	}
	if ratio >= 1 {
		return d, &Dataset{}
	}

	splitIdx := int(float32(len(d.Features)) * ratio)

	train := &Dataset{
		Features: d.Features[:splitIdx],
		Targets:  d.Targets[:splitIdx],
	}

	test := &Dataset{
		Features: d.Features[splitIdx:],
		Targets:  d.Targets[splitIdx:],
	}

	return train, test
}

// Shuffle reorders samples in place, keeping features and targets paired.
func (d *Dataset) Shuffle(src *rng.Source) {
	if src == nil {
		src = rng.Default()
	}
	src.Shuffle(len(d.Features), func(i, j int) {
		d.Features[i], d.Features[j] = d.Features[j], d.Features[i]
		d.Targets[i], d.Targets[j] = d.Targets[j], d.Targets[i]
	})
}

// Subset returns the samples at idx, in that order.
func (d *Dataset) Subset(idx []int) *Dataset {
	sub := &Dataset{
		Features: make([]*matrix.Matrix, len(idx)),
		Targets:  make([]*matrix.Matrix, len(idx)),
	}
	for i, k := range idx {
		sub.Features[i] = d.Features[k]
		sub.Targets[i] = d.Targets[k]
	}
	return sub
}

// Batches cuts the dataset into consecutive batches of at most size samples.
// size <= 0 yields a single batch holding everything.
func (d *Dataset) Batches(size int) []*Dataset {
	n := d.Len()
	if n == 0 {
		return nil
	}
	if size <= 0 || size >= n {
		return []*Dataset{d}
	}
	batches := make([]*Dataset, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		batches = append(batches, &Dataset{
			Features: d.Features[start:end],
			Targets:  d.Targets[start:end],
		})
	}
	return batches
}
