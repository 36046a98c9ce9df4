package factor

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

// Factor is one named column of exposures, aligned with Frame.Assets.
type Factor struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// MarshalJSON encodes missing (NaN) values as null.
func (f Factor) MarshalJSON() ([]byte, error) {
	vals := make([]*float64, len(f.Values))
	for i := range f.Values {
		if !math.IsNaN(f.Values[i]) {
			vals[i] = &f.Values[i]
		}
	}
	return json.Marshal(struct {
		Name   string     `json:"name"`
		Values []*float64 `json:"values"`
	}{f.Name, vals})
}

// UnmarshalJSON decodes null values as NaN.
func (f *Factor) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name   string     `json:"name"`
		Values []*float64 `json:"values"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Name = raw.Name
	f.Values = make([]float64, len(raw.Values))
	for i, v := range raw.Values {
		if v == nil {
			f.Values[i] = math.NaN()
			continue
		}
		f.Values[i] = *v
	}
	return nil
}

// Frame is a cross-section of factor exposures.
type Frame struct {
	Assets  []string `json:"assets"`
	Factors []Factor `json:"factors"`
}

// Validate checks that every factor has one value per asset and that
// factor names are unique.
func (f *Frame) Validate() error {
	if len(f.Factors) == 0 {
		return fmt.Errorf("%w: frame has no factors", domain.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(f.Factors))
	for _, fac := range f.Factors {
		if len(fac.Values) != len(f.Assets) {
			return fmt.Errorf("%w: factor %q has %d values for %d assets",
				domain.ErrInvalidInput, fac.Name, len(fac.Values), len(f.Assets))
		}
		if seen[fac.Name] {
			return fmt.Errorf("%w: duplicate factor %q", domain.ErrInvalidInput, fac.Name)
		}
		seen[fac.Name] = true
	}
	return nil
}

// Factor returns the named factor.
func (f *Frame) Factor(name string) (*Factor, bool) {
	for i := range f.Factors {
		if f.Factors[i].Name == name {
			return &f.Factors[i], true
		}
	}
	return nil, false
}

// Names lists factor names in column order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.Factors))
	for i := range f.Factors {
		names[i] = f.Factors[i].Name
	}
	return names
}

// Apply returns a copy of the frame with fn applied to every factor.
func (f *Frame) Apply(fn func([]float64) []float64) Frame {
	out := Frame{Assets: append([]string(nil), f.Assets...)}
	for _, fac := range f.Factors {
		out.Factors = append(out.Factors, Factor{Name: fac.Name, Values: fn(fac.Values)})
	}
	return out
}

// ReadFrame parses CSV with a header row: the first column holds asset
// identifiers and each further column one factor. Empty cells, "NA" and
// "NaN" become NaN.
func ReadFrame(r io.Reader) (Frame, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, fmt.Errorf("%w: empty CSV", domain.ErrInvalidInput)
		}
		return Frame{}, fmt.Errorf("%w: CSV header: %v", domain.ErrParse, err)
	}
	if len(header) < 2 {
		return Frame{}, fmt.Errorf("%w: CSV needs an asset column and at least one factor", domain.ErrInvalidInput)
	}

	frame := Frame{Factors: make([]Factor, len(header)-1)}
	for i, name := range header[1:] {
		frame.Factors[i].Name = strings.TrimSpace(name)
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Frame{}, fmt.Errorf("%w: CSV line %d: %v", domain.ErrParse, line, err)
		}
		frame.Assets = append(frame.Assets, strings.TrimSpace(rec[0]))
		for i, cell := range rec[1:] {
			v, err := parseCell(cell)
			if err != nil {
				return Frame{}, fmt.Errorf("%w: CSV line %d column %q: %v",
					domain.ErrParse, line, frame.Factors[i].Name, err)
			}
			frame.Factors[i].Values = append(frame.Factors[i].Values, v)
		}
	}

	return frame, frame.Validate()
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "na", "nan", "null":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// WriteFrame writes the frame as CSV in the layout ReadFrame accepts.
func WriteFrame(w io.Writer, f Frame) error {
	cw := csv.NewWriter(w)
	header := append([]string{"asset"}, f.Names()...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, asset := range f.Assets {
		row := make([]string, 0, len(f.Factors)+1)
		row = append(row, asset)
		for _, fac := range f.Factors {
			v := fac.Values[i]
			if math.IsNaN(v) {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
