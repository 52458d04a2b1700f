package rocketsim

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseThrustCurve reads a two column (time, thrust) table. Fields are separated
// by comma, lines starting with # are ignored, and a non numeric first row is
// treated as a header.
func ParseThrustCurve(rd io.Reader, comma rune) (times, thrusts []float64, err error) {
	r := csv.NewReader(rd)
	r.Comma = comma
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	for row := 0; ; row++ {
		record, rerr := r.Read()
		if rerr == io.EOF {
			break
		} else if rerr != nil {
			return nil, nil, fmt.Errorf("thrust curve: %w", rerr)
		}
		if len(record) < 2 {
			return nil, nil, fmt.Errorf("thrust curve: row %d has %d fields", row, len(record))
		}
		t, terr := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		T, Terr := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if terr != nil || Terr != nil {
			if row == 0 {
				continue // header
			}
			return nil, nil, fmt.Errorf("thrust curve: row %d: invalid number in %v", row, record)
		}
		times = append(times, t)
		thrusts = append(thrusts, T)
	}
	return times, thrusts, nil
}

// LoadThrustCurve reads a thrust curve file, see ParseThrustCurve.
func LoadThrustCurve(path string, comma rune) (times, thrusts []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ParseThrustCurve(f, comma)
}
