package pricing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Keys of the flat settings record and of the operator input fields.
const (
	KeyOpening          = "opening"
	KeyWidth            = "width"
	KeyThickness        = "thickness"
	KeyQuantity         = "quantity"
	KeyParamValue       = "param_value"
	KeyMaterialPrice    = "material_price"
	KeyProcessParam     = "process_param"
	KeyPrintParam       = "print_param"
	KeyMaterialType     = "material_type"
	KeyPlatePriceCopper = "material_type_price_copper"
	KeyPlatePriceRubber = "material_type_price_rubber"
	KeyMinProcessFee    = "min_process_fee"
	KeyMaterialEnabled  = "material_enabled"
	KeyProcessEnabled   = "process_enabled"
	KeyPrintEnabled     = "print_enabled"
)

var (
	stockParamValue       = decimal.RequireFromString("0.95")
	stockMaterialPrice    = decimal.NewFromInt(9)
	stockProcessParam     = decimal.RequireFromString("0.2")
	stockPrintParam       = decimal.RequireFromString("0.015")
	stockPlatePriceCopper = decimal.NewFromInt(100)
	stockPlatePriceRubber = decimal.NewFromInt(50)
	stockMinProcessFee    = decimal.NewFromInt(100)
)

// Settings is the resolved snapshot of a template that a calculation runs
// against. Zero coefficients and floors mean "use the stock value".
type Settings struct {
	ParamValue       decimal.Decimal
	MaterialPrice    decimal.Decimal
	ProcessParam     decimal.Decimal
	PrintParam       decimal.Decimal
	MaterialType     MaterialType
	PlatePriceCopper decimal.Decimal
	PlatePriceRubber decimal.Decimal
	MinProcessFee    decimal.Decimal
	MaterialEnabled  bool
	ProcessEnabled   bool
	PrintEnabled     bool
}

// DefaultSettings returns the stock settings with every module enabled.
func DefaultSettings() Settings {
	return Settings{
		ParamValue:       stockParamValue,
		MaterialPrice:    stockMaterialPrice,
		ProcessParam:     stockProcessParam,
		PrintParam:       stockPrintParam,
		MaterialType:     CopperPlate,
		PlatePriceCopper: stockPlatePriceCopper,
		PlatePriceRubber: stockPlatePriceRubber,
		MinProcessFee:    stockMinProcessFee,
		MaterialEnabled:  true,
		ProcessEnabled:   true,
		PrintEnabled:     true,
	}
}

func (s Settings) minProcessFee() decimal.Decimal {
	return orStock(s.MinProcessFee, stockMinProcessFee)
}

// platePrice resolves the print floor. Anything that is not a copper plate
// uses the rubber plate price.
func (s Settings) platePrice(t MaterialType) decimal.Decimal {
	if t == CopperPlate {
		return orStock(s.PlatePriceCopper, stockPlatePriceCopper)
	}
	return orStock(s.PlatePriceRubber, stockPlatePriceRubber)
}

// Record is the flat key/value form of Settings as kept by the template store.
type Record map[string]string

// RecordKeys lists the keys a settings record may carry.
func RecordKeys() []string {
	return []string{
		KeyParamValue,
		KeyMaterialPrice,
		KeyProcessParam,
		KeyPrintParam,
		KeyMaterialType,
		KeyPlatePriceCopper,
		KeyPlatePriceRubber,
		KeyMinProcessFee,
		KeyMaterialEnabled,
		KeyProcessEnabled,
		KeyPrintEnabled,
	}
}

// DefaultRecord returns the stock settings as a record.
func DefaultRecord() Record {
	return DefaultSettings().Record()
}

// Record converts s back into its flat form.
func (s Settings) Record() Record {
	return Record{
		KeyParamValue:       s.ParamValue.String(),
		KeyMaterialPrice:    s.MaterialPrice.String(),
		KeyProcessParam:     s.ProcessParam.String(),
		KeyPrintParam:       s.PrintParam.String(),
		KeyMaterialType:     s.MaterialType.String(),
		KeyPlatePriceCopper: s.PlatePriceCopper.String(),
		KeyPlatePriceRubber: s.PlatePriceRubber.String(),
		KeyMinProcessFee:    s.MinProcessFee.String(),
		KeyMaterialEnabled:  strconv.FormatBool(s.MaterialEnabled),
		KeyProcessEnabled:   strconv.FormatBool(s.ProcessEnabled),
		KeyPrintEnabled:     strconv.FormatBool(s.PrintEnabled),
	}
}

// ParseSettings resolves a record into Settings. Absent or empty keys take
// the stock values.
func ParseSettings(rec Record) (Settings, error) {
	s := DefaultSettings()

	numbers := []struct {
		key string
		dst *decimal.Decimal
	}{
		{KeyParamValue, &s.ParamValue},
		{KeyMaterialPrice, &s.MaterialPrice},
		{KeyProcessParam, &s.ProcessParam},
		{KeyPrintParam, &s.PrintParam},
		{KeyPlatePriceCopper, &s.PlatePriceCopper},
		{KeyPlatePriceRubber, &s.PlatePriceRubber},
		{KeyMinProcessFee, &s.MinProcessFee},
	}
	for _, n := range numbers {
		text := strings.TrimSpace(rec[n.key])
		if text == "" {
			continue
		}
		d, err := ParseNumber(n.key, text)
		if err != nil {
			return Settings{}, fmt.Errorf("parse settings: %w", err)
		}
		*n.dst = d
	}

	flags := []struct {
		key string
		dst *bool
	}{
		{KeyMaterialEnabled, &s.MaterialEnabled},
		{KeyProcessEnabled, &s.ProcessEnabled},
		{KeyPrintEnabled, &s.PrintEnabled},
	}
	for _, f := range flags {
		text := strings.TrimSpace(rec[f.key])
		if text == "" {
			continue
		}
		v, err := strconv.ParseBool(text)
		if err != nil {
			return Settings{}, fmt.Errorf("parse settings: %s: invalid flag %q", f.key, text)
		}
		*f.dst = v
	}

	s.MaterialType = ParseMaterialType(rec[KeyMaterialType])
	return s, nil
}
