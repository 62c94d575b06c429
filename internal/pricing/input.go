package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaterialType selects which plate price acts as the print fee floor.
type MaterialType int

const (
	CopperPlate MaterialType = iota
	RubberPlate
)

const (
	copperLabel = "铜板"
	rubberLabel = "胶版"
)

// ParseMaterialType maps a label to a MaterialType. An empty label is a
// copper plate; any label that is not a copper plate is a rubber plate.
func ParseMaterialType(label string) MaterialType {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", copperLabel, "copper", "copper_plate":
		return CopperPlate
	default:
		return RubberPlate
	}
}

func (m MaterialType) String() string {
	if m == CopperPlate {
		return copperLabel
	}
	return rubberLabel
}

// MaterialTypeLabels lists the labels a front end offers for selection.
func MaterialTypeLabels() []string {
	return []string{copperLabel, rubberLabel}
}

// RawInputs holds the operator's text fields before normalization.
type RawInputs struct {
	Opening       string
	Width         string
	Thickness     string
	ParamValue    string
	MaterialPrice string
	Quantity      string
	ProcessParam  string
	PrintParam    string
	MaterialType  string
}

// InputError reports a field whose text is not a decimal number.
type InputError struct {
	Field string
	Value string
	Err   error
}

func (e *InputError) Error() string {
	if errors.Is(e.Err, ErrOutOfRange) {
		return fmt.Sprintf("%s: number %q out of range", e.Field, e.Value)
	}
	return fmt.Sprintf("%s: invalid number %q", e.Field, e.Value)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Normalize converts raw text into calculation inputs. Empty or zero values
// fall back to defaults: coefficients take the settings snapshot (or the
// stock value when the snapshot has none), dimensions and quantity take zero.
// Literals must stay within ParseNumber's bounds; value ranges are not
// checked here.
func Normalize(raw RawInputs, s Settings) (Inputs, error) {
	var (
		in  Inputs
		err error
	)

	fields := []struct {
		name  string
		text  string
		def   decimal.Decimal
		dst   *decimal.Decimal
		shown *string
	}{
		{KeyOpening, raw.Opening, decimal.Zero, &in.Opening, &in.Text.Opening},
		{KeyWidth, raw.Width, decimal.Zero, &in.Width, &in.Text.Width},
		{KeyThickness, raw.Thickness, decimal.Zero, &in.Thickness, &in.Text.Thickness},
		{KeyParamValue, raw.ParamValue, orStock(s.ParamValue, stockParamValue), &in.ParamValue, &in.Text.ParamValue},
		{KeyMaterialPrice, raw.MaterialPrice, orStock(s.MaterialPrice, stockMaterialPrice), &in.MaterialPrice, &in.Text.MaterialPrice},
		{KeyQuantity, raw.Quantity, decimal.Zero, &in.Quantity, &in.Text.Quantity},
		{KeyProcessParam, raw.ProcessParam, orStock(s.ProcessParam, stockProcessParam), &in.ProcessParam, &in.Text.ProcessParam},
		{KeyPrintParam, raw.PrintParam, orStock(s.PrintParam, stockPrintParam), &in.PrintParam, &in.Text.PrintParam},
	}
	for _, f := range fields {
		if *f.dst, *f.shown, err = parseOperand(f.name, f.text, f.def); err != nil {
			return Inputs{}, err
		}
	}

	in.MaterialType = s.MaterialType
	if strings.TrimSpace(raw.MaterialType) != "" {
		in.MaterialType = ParseMaterialType(raw.MaterialType)
	}

	return in, nil
}

// parseOperand returns the operand and the text it is displayed with.
func parseOperand(field, text string, def decimal.Decimal) (decimal.Decimal, string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return def, def.String(), nil
	}

	d, err := ParseNumber(field, text)
	if err != nil {
		return decimal.Zero, "", err
	}
	if d.IsZero() {
		return def, def.String(), nil
	}
	return d, text, nil
}

func orStock(d, stock decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return stock
	}
	return d
}
