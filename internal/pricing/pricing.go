package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places every output is rounded to.
const Places = 3

var two = decimal.NewFromInt(2)

// ErrCalculation is returned by Quote when a calculation cannot be produced.
var ErrCalculation = errors.New("calculation failed")

// Inputs represents the normalized operands of one calculation.
type Inputs struct {
	Opening       decimal.Decimal
	Width         decimal.Decimal
	Thickness     decimal.Decimal
	ParamValue    decimal.Decimal
	MaterialPrice decimal.Decimal
	Quantity      decimal.Decimal
	ProcessParam  decimal.Decimal
	PrintParam    decimal.Decimal
	MaterialType  MaterialType

	// Text is what the spec string and the formula trace print. Empty
	// entries print the decimal's canonical form.
	Text OperandText
}

// OperandText holds the display text of each operand: the operator's
// trimmed literal, or the default's canonical form when the default was used.
type OperandText struct {
	Opening       string
	Width         string
	Thickness     string
	ParamValue    string
	MaterialPrice string
	Quantity      string
	ProcessParam  string
	PrintParam    string
}

// MaterialFee is the output of the material module.
type MaterialFee struct {
	UnitPrice decimal.Decimal
	Weight    decimal.Decimal
}

// ProcessFee is the output of the process (labor) module.
type ProcessFee struct {
	UnitPrice decimal.Decimal
	Fee       decimal.Decimal
}

// PrintFee is the output of the print module. PlatePrice is the minimum fee
// that was resolved from the material type.
type PrintFee struct {
	UnitPrice  decimal.Decimal
	Fee        decimal.Decimal
	PlatePrice decimal.Decimal
}

// Breakdown contains the per-module line items of the calculation.
type Breakdown struct {
	Material MaterialFee
	Process  ProcessFee
	Print    PrintFee
}

// Totals contains roll-up values from the calculation.
type Totals struct {
	BagUnitPrice decimal.Decimal
	TotalFee     decimal.Decimal
}

// Result groups the full pricing output, including the formula trace.
type Result struct {
	Breakdown Breakdown
	Totals    Totals
	Spec      string
	Detail    string
}

// Calculate computes the bag unit price from normalized inputs and the
// settings snapshot. Every numeric field of the result is rounded to Places
// decimals, half up. Disabled modules report zero for all of their fields.
func Calculate(in Inputs, s Settings) Result {
	var b Breakdown
	if s.MaterialEnabled {
		b.Material = calculateMaterial(in)
	}
	if s.ProcessEnabled {
		b.Process = calculateProcess(in, s.minProcessFee())
	}
	if s.PrintEnabled {
		b.Print = calculatePrint(in, s.platePrice(in.MaterialType))
	}

	// Per-module values are already rounded; the sum is rounded again.
	totals := Totals{
		BagUnitPrice: Round(b.Material.UnitPrice.Add(b.Process.UnitPrice).Add(b.Print.UnitPrice)),
		TotalFee:     Round(b.Material.UnitPrice.Mul(in.Quantity).Add(b.Process.Fee).Add(b.Print.Fee)),
	}

	return Result{
		Breakdown: b,
		Totals:    totals,
		Spec:      formatSpec(in),
		Detail:    renderDetail(in, s, b, totals),
	}
}

// Quote normalizes raw text inputs and calculates them in one step. Any
// failure is reported as ErrCalculation wrapping the cause; no partial
// result is returned.
func Quote(raw RawInputs, s Settings) (Result, error) {
	in, err := Normalize(raw, s)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrCalculation, err)
	}
	return Calculate(in, s), nil
}

func calculateMaterial(in Inputs) MaterialFee {
	volume := in.Opening.Shift(-2).
		Mul(in.Width.Shift(-2)).
		Mul(in.Thickness.Mul(two).Shift(-2)).
		Mul(in.ParamValue)

	return MaterialFee{
		UnitPrice: Round(volume.Mul(in.MaterialPrice)),
		Weight:    Round(volume.Mul(in.Quantity)),
	}
}

func calculateProcess(in Inputs, minFee decimal.Decimal) ProcessFee {
	unitPrice := in.Opening.Shift(-2).Mul(in.ProcessParam)
	fee := unitPrice.Mul(in.Quantity)

	if fee.LessThan(minFee) {
		fee = minFee
		unitPrice = spread(minFee, in.Quantity)
	}

	return ProcessFee{UnitPrice: Round(unitPrice), Fee: Round(fee)}
}

func calculatePrint(in Inputs, platePrice decimal.Decimal) PrintFee {
	unitPrice := in.PrintParam
	fee := unitPrice.Mul(in.Quantity)

	if fee.LessThan(platePrice) {
		fee = platePrice
		unitPrice = spread(platePrice, in.Quantity)
	}

	return PrintFee{
		UnitPrice:  Round(unitPrice),
		Fee:        Round(fee),
		PlatePrice: Round(platePrice),
	}
}

// spread divides a floored fee across the run. A run without units has no
// per-unit price.
func spread(fee, quantity decimal.Decimal) decimal.Decimal {
	if !quantity.IsPositive() {
		return decimal.Zero
	}
	return fee.Div(quantity)
}

// Round rounds d to Places decimals, ties away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Fixed formats d with exactly Places decimals.
func Fixed(d decimal.Decimal) string {
	return d.StringFixed(Places)
}
