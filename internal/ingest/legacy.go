package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/napytau/internal/model"
)

// ReadLegacy crawls root and builds one dataset per bundle.
func ReadLegacy(root, fitFile string) ([]*model.DataSet, error) {
	bundles, err := Crawl(root, fitFile)
	if err != nil {
		return nil, err
	}
	out := make([]*model.DataSet, 0, len(bundles))
	for _, b := range bundles {
		ds, err := ReadLegacyBundle(b)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, nil
}

// ReadLegacyBundle parses the four files of one bundle.
func ReadLegacyBundle(files SetupFiles) (*model.DataSet, error) {
	velocity, velocityErr, err := readVelocity(files.VelocityFile)
	if err != nil {
		return nil, err
	}
	distances, err := readIndexedRows(files.DistancesFile, 3)
	if err != nil {
		return nil, err
	}
	calibrations, err := readIndexedRows(files.CalibrationFile, 3)
	if err != nil {
		return nil, err
	}
	fits, err := readIndexedRows(files.FitFile, 5, 9)
	if err != nil {
		return nil, err
	}

	c := model.NewDatapointCollection()
	for _, row := range distances {
		dp := model.NewDatapoint(model.Pair(row.values[0], row.values[1]))
		if cal, ok := calibrations.byIndex(row.index); ok {
			dp.Calibration = pairAt(cal.values, 0)
		}
		if fit, ok := fits.byIndex(row.index); ok {
			dp.ShiftedIntensity = pairAt(fit.values, 0)
			dp.UnshiftedIntensity = pairAt(fit.values, 2)
			if len(fit.values) == 8 {
				dp.FeedingShiftedIntensity = pairAt(fit.values, 4)
				dp.FeedingUnshiftedIntensity = pairAt(fit.values, 6)
			}
		}
		if err := c.Add(dp); err != nil {
			return nil, &ParseError{File: files.DistancesFile, Line: row.line, Message: err.Error(), Err: err}
		}
	}

	v, err := model.NewRelativeVelocity(velocity)
	if err != nil {
		return nil, &ParseError{File: files.VelocityFile, Line: 1, Message: err.Error(), Err: err}
	}
	return model.NewDataSet(files.Dir, v, velocityErr, c), nil
}

func pairAt(values []float64, i int) *model.ValueErrorPair {
	return &model.ValueErrorPair{Value: values[i], Error: values[i+1]}
}

type indexedRow struct {
	line   int
	index  int
	values []float64
}

type indexedRows []indexedRow

func (r indexedRows) byIndex(index int) (indexedRow, bool) {
	for _, row := range r {
		if row.index == index {
			return row, true
		}
	}
	return indexedRow{}, false
}

func readVelocity(path string) (float64, float64, error) {
	rows, err := readRows(path)
	if err != nil {
		return 0, 0, err
	}
	if len(rows) == 0 {
		return 0, 0, &ParseError{File: path, Message: "no velocity row"}
	}
	first := rows[0]
	if len(first.fields) > 2 {
		return 0, 0, &ParseError{File: path, Line: first.line,
			Message: fmt.Sprintf("expected velocity and optional error, got %d columns", len(first.fields))}
	}
	values, err := parseFloats(path, first)
	if err != nil {
		return 0, 0, err
	}
	if len(values) == 1 {
		return values[0], 0, nil
	}
	return values[0], values[1], nil
}

// readIndexedRows parses rows whose first column is an integer index and
// whose column count is one of columns.
func readIndexedRows(path string, columns ...int) (indexedRows, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	out := make(indexedRows, 0, len(rows))
	seen := make(map[int]int, len(rows))
	for _, row := range rows {
		if !slices.Contains(columns, len(row.fields)) {
			return nil, &ParseError{File: path, Line: row.line,
				Message: fmt.Sprintf("expected %s columns, got %d", joinInts(columns), len(row.fields))}
		}
		index, err := strconv.Atoi(row.fields[0])
		if err != nil {
			return nil, &ParseError{File: path, Line: row.line,
				Message: fmt.Sprintf("invalid index %q", row.fields[0]), Err: err}
		}
		if prev, dup := seen[index]; dup {
			return nil, &ParseError{File: path, Line: row.line,
				Message: fmt.Sprintf("index %d already defined on line %d", index, prev)}
		}
		seen[index] = row.line
		values, err := parseFloats(path, rawRow{line: row.line, fields: row.fields[1:]})
		if err != nil {
			return nil, err
		}
		out = append(out, indexedRow{line: row.line, index: index, values: values})
	}
	return out, nil
}

type rawRow struct {
	line   int
	fields []string
}

func readRows(path string) ([]rawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()
	return scanRows(path, f)
}

func scanRows(path string, r io.Reader) ([]rawRow, error) {
	var rows []rawRow
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		rows = append(rows, rawRow{line: line, fields: strings.Fields(text)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func parseFloats(path string, row rawRow) ([]float64, error) {
	out := make([]float64, len(row.fields))
	for i, field := range row.fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, &ParseError{File: path, Line: row.line,
				Message: fmt.Sprintf("column %d: invalid number %q", i+1, field), Err: err}
		}
		out[i] = v
	}
	return out, nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " or ")
}
