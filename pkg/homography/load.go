package homography

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// MatrixKey is the YAML key holding the matrix in the calibration file.
const MatrixKey = "homografia_matrix"

// DefaultPath is the calibration file name written by the calibration tool.
const DefaultPath = "homografia_robot.yml"

type calibrationFile struct {
	Matrix [][]float64 `yaml:"homografia_matrix"`
}

// Load reads a calibration file. A missing file returns ErrNotFound; any
// other problem returns an error wrapping ErrMalformed.
func Load(path string) (Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Matrix{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Matrix{}, fmt.Errorf("read calibration %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return Matrix{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes calibration YAML.
func Parse(data []byte) (Matrix, error) {
	var f calibrationFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Matrix{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if f.Matrix == nil {
		return Matrix{}, fmt.Errorf("%w: missing key %q", ErrMalformed, MatrixKey)
	}
	m, err := FromRows(f.Matrix)
	if err != nil {
		return Matrix{}, err
	}
	if err := m.Validate(); err != nil {
		return Matrix{}, err
	}
	return m, nil
}

// Save writes m in the calibration file format.
func Save(path string, m Matrix) error {
	data, err := yaml.Marshal(calibrationFile{Matrix: m.Rows()})
	if err != nil {
		return fmt.Errorf("encode calibration: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write calibration %s: %w", path, err)
	}
	return nil
}

// LoadMapper loads path and returns a mapper. A missing file yields an
// uncalibrated mapper together with ErrNotFound so the caller can log the
// fallback; malformed files return a nil mapper.
func LoadMapper(path string) (*Mapper, error) {
	m, err := Load(path)
	if errors.Is(err, ErrNotFound) {
		return Uncalibrated(), err
	}
	if err != nil {
		return nil, err
	}
	return NewMapper(&m), nil
}
