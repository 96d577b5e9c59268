package groundtruth

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"armangle/internal/services"
)

// Record is the externally supplied reference angle for one unit.
type Record struct {
	UnitID   string
	ArmAngle float64
}

// Table maps unit IDs to their ground truth records. Units without an entry
// are excluded from aggregation, not errors.
type Table map[string]Record

// Load reads a ground truth CSV keyed by unit identifier. Required columns
// are PitchId and ArmAngle; any additional columns are ignored.
func Load(path string) (Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "export", "open ground truth", path, err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads ground truth rows from r. Duplicate unit IDs keep the last row,
// matching a spreadsheet's "latest correction wins" behaviour.
func Parse(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "export", "read ground truth header", "", err)
	}

	idCol, angleCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "PitchId":
			idCol = i
		case "ArmAngle":
			angleCol = i
		}
	}
	if idCol < 0 || angleCol < 0 {
		return nil, services.Wrap(services.ErrValidation, "export", "read ground truth header",
			"PitchId and ArmAngle columns are required", nil)
	}

	table := make(Table)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "export", "read ground truth",
				fmt.Sprintf("line %d", line), err)
		}
		if idCol >= len(row) || angleCol >= len(row) {
			return nil, services.Wrap(services.ErrValidation, "export", "read ground truth",
				fmt.Sprintf("line %d: missing columns", line), nil)
		}
		id := strings.TrimSpace(row[idCol])
		if id == "" {
			continue
		}
		angle, err := strconv.ParseFloat(strings.TrimSpace(row[angleCol]), 64)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "export", "read ground truth",
				fmt.Sprintf("line %d: bad ArmAngle for %s", line, id), err)
		}
		table[id] = Record{UnitID: id, ArmAngle: angle}
	}
	return table, nil
}
