// Package weights holds the OCR network's tensors and persists them as a
// JSON record with rotating backups.
package weights

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"
)

const (
	// InputSize is the number of pixels in a 20x20 sample.
	InputSize = 400
	// OutputSize is the number of digit classes.
	OutputSize = 10

	// DefaultMaxBackups is the number of backups kept when callers have no preference.
	DefaultMaxBackups = 5

	initRange = 0.12
)

// Store owns the four tensors of a network and, when persistent, the record
// path and the index of backups made from it.
//
// Theta1 is hidden×400, Theta2 is 10×hidden, B1 has length hidden (added to the
// hidden pre-activation) and B2 has length 10 (added to the output).
type Store struct {
	Theta1 *mat.Dense
	Theta2 *mat.Dense
	B1     *mat.VecDense
	B2     *mat.VecDense

	path    string
	enabled bool

	// oldest first
	backups []Backup
	last    time.Time
	now     func() time.Time
}

// NewStore returns a persistent store for the record at path. Backups left
// next to the record by earlier runs are indexed once, here.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("weights: empty record path")
	}
	s := &Store{path: path, enabled: true, now: time.Now}
	if err := s.scanBackups(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewMemoryStore returns a store whose Save, Load and restore are no-ops.
func NewMemoryStore() *Store {
	return &Store{now: time.Now}
}

// RandomInitialize returns a rowsOut×colsIn matrix drawn uniformly from [-0.06, 0.06).
func RandomInitialize(rnd *rand.Rand, rowsOut, colsIn int) *mat.Dense {
	data := make([]float64, rowsOut*colsIn)
	for i := range data {
		data[i] = rnd.Float64()*initRange - initRange/2
	}
	return mat.NewDense(rowsOut, colsIn, data)
}

// RandomVector returns a vector of length n drawn like RandomInitialize.
func RandomVector(rnd *rand.Rand, n int) *mat.VecDense {
	return mat.NewVecDense(n, RandomInitialize(rnd, n, 1).RawMatrix().Data)
}

// Randomize replaces all four tensors with fresh random values for the given
// hidden width.
func (s *Store) Randomize(hidden int, rnd *rand.Rand) {
	s.Theta1 = RandomInitialize(rnd, hidden, InputSize)
	s.Theta2 = RandomInitialize(rnd, OutputSize, hidden)
	s.B1 = RandomVector(rnd, hidden)
	s.B2 = RandomVector(rnd, OutputSize)
}

// Enabled reports whether the store persists to disk.
func (s *Store) Enabled() bool { return s.enabled }

// Path returns the record path, empty for a memory store.
func (s *Store) Path() string { return s.path }

// HiddenNodes returns the current hidden width.
func (s *Store) HiddenNodes() int {
	if s.Theta1 == nil {
		return 0
	}
	r, _ := s.Theta1.Dims()
	return r
}

// Exists reports whether a record is present at the path.
func (s *Store) Exists() bool {
	if !s.enabled {
		return false
	}
	info, err := os.Stat(s.path)
	return err == nil && info.Mode().IsRegular()
}

// Record returns a copy of the current tensors in persisted form.
func (s *Store) Record() *Record {
	return &Record{
		Theta1: rowsOf(s.Theta1),
		Theta2: rowsOf(s.Theta2),
		B1:     valuesOf(s.B1),
		B2:     valuesOf(s.B2),
	}
}

// Save rotates any existing record into a backup, prunes backups beyond
// maxBackups (oldest first) and writes the current tensors as the new record.
func (s *Store) Save(maxBackups int) error {
	if !s.enabled {
		return nil
	}
	if s.Theta1 == nil {
		return &IOError{Op: "save", Path: s.path, Err: errors.New("no tensors to save")}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return &IOError{Op: "mkdir", Path: filepath.Dir(s.path), Err: err}
	}

	if s.Exists() {
		if err := s.rotate(maxBackups); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	if err := s.Record().Encode(&buf); err != nil {
		return &IOError{Op: "save", Path: s.path, Err: err}
	}
	return writeFileAtomic(s.path, buf.Bytes())
}

// Load replaces all four tensors with the record's. On any failure the
// current tensors are left untouched.
func (s *Store) Load() error {
	if !s.enabled {
		return nil
	}
	theta1, theta2, b1, b2, err := readTensors(s.path)
	if err != nil {
		return err
	}
	s.Theta1, s.Theta2, s.B1, s.B2 = theta1, theta2, b1, b2
	return nil
}

func readTensors(path string) (theta1, theta2 *mat.Dense, b1, b2 *mat.VecDense, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, nil, &LoadError{Path: path, Err: err}
	}
	return decodeTensors(path, data)
}

func decodeTensors(path string, data []byte) (theta1, theta2 *mat.Dense, b1, b2 *mat.VecDense, err error) {
	rec, err := DecodeRecord(data)
	if err != nil {
		return nil, nil, nil, nil, &LoadError{Path: path, Err: err}
	}
	theta1, theta2, b1, b2, err = rec.tensors()
	if err != nil {
		return nil, nil, nil, nil, &LoadError{Path: path, Err: err}
	}
	return theta1, theta2, b1, b2, nil
}

// writeFileAtomic replaces path with data via a temp file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	name := tmp.Name()

	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(name, 0o644)
	}
	if err == nil {
		err = os.Rename(name, path)
	}
	if err != nil {
		os.Remove(name)
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func (s *Store) String() string {
	if !s.enabled {
		return fmt.Sprintf("memory store (%d hidden)", s.HiddenNodes())
	}
	return fmt.Sprintf("%s (%d hidden, %d backups)", s.path, s.HiddenNodes(), len(s.backups))
}
