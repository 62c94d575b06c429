package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/moyu7925/bag-unit-price-calculator/internal/pricing"
)

// numberText accepts either a JSON number or a JSON string and keeps the
// literal text, so "12.50" and 12.50 reach the engine the same way.
type numberText string

func (n *numberText) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = numberText(s)
		return nil
	}
	*n = numberText(b)
	return nil
}

type calculationRequest struct {
	Template        string     `json:"template"`
	Opening         numberText `json:"opening"`
	Width           numberText `json:"width"`
	Thickness       numberText `json:"thickness"`
	ParamValue      numberText `json:"param_value"`
	MaterialPrice   numberText `json:"material_price"`
	Quantity        numberText `json:"quantity"`
	ProcessParam    numberText `json:"process_param"`
	PrintParam      numberText `json:"print_param"`
	MaterialType    string     `json:"material_type"`
	MaterialEnabled *bool      `json:"material_enabled"`
	ProcessEnabled  *bool      `json:"process_enabled"`
	PrintEnabled    *bool      `json:"print_enabled"`
}

func (req calculationRequest) rawInputs() pricing.RawInputs {
	return pricing.RawInputs{
		Opening:       string(req.Opening),
		Width:         string(req.Width),
		Thickness:     string(req.Thickness),
		ParamValue:    string(req.ParamValue),
		MaterialPrice: string(req.MaterialPrice),
		Quantity:      string(req.Quantity),
		ProcessParam:  string(req.ProcessParam),
		PrintParam:    string(req.PrintParam),
		MaterialType:  req.MaterialType,
	}
}

// applyFlags overrides the template's enable flags with the ones the
// request carries.
func (req calculationRequest) applyFlags(s *pricing.Settings) {
	if req.MaterialEnabled != nil {
		s.MaterialEnabled = *req.MaterialEnabled
	}
	if req.ProcessEnabled != nil {
		s.ProcessEnabled = *req.ProcessEnabled
	}
	if req.PrintEnabled != nil {
		s.PrintEnabled = *req.PrintEnabled
	}
}

// validationError is an operator input problem reported before the engine runs.
type validationError struct {
	msg string
}

func (e *validationError) Error() string {
	return e.msg
}

func fieldLabel(key string) string {
	switch key {
	case pricing.KeyOpening:
		return "开口"
	case pricing.KeyWidth:
		return "宽度"
	case pricing.KeyThickness:
		return "厚度"
	case pricing.KeyParamValue:
		return "参数值"
	case pricing.KeyMaterialPrice:
		return "原料价格"
	case pricing.KeyQuantity:
		return "数量"
	case pricing.KeyProcessParam:
		return "加工工费参数"
	case pricing.KeyPrintParam:
		return "印刷工费参数"
	default:
		return key
	}
}

// validateInputs checks number format and sign of the operator's fields.
// Empty fields are allowed; the engine fills them with defaults.
func validateInputs(raw pricing.RawInputs) error {
	fields := []struct {
		key  string
		text string
	}{
		{pricing.KeyOpening, raw.Opening},
		{pricing.KeyWidth, raw.Width},
		{pricing.KeyThickness, raw.Thickness},
		{pricing.KeyParamValue, raw.ParamValue},
		{pricing.KeyMaterialPrice, raw.MaterialPrice},
		{pricing.KeyQuantity, raw.Quantity},
		{pricing.KeyProcessParam, raw.ProcessParam},
		{pricing.KeyPrintParam, raw.PrintParam},
	}
	for _, f := range fields {
		text := strings.TrimSpace(f.text)
		if text == "" {
			continue
		}
		if _, err := parseNonNegativeDecimal(f.key, text); err != nil {
			return &validationError{msg: err.Error()}
		}
	}
	return nil
}

func parseNonNegativeDecimal(key, raw string) (decimal.Decimal, error) {
	field := fieldLabel(key)
	value, err := pricing.ParseNumber(key, raw)
	switch {
	case errors.Is(err, pricing.ErrOutOfRange):
		return decimal.Zero, fmt.Errorf("%s 数值超出范围", field)
	case err != nil:
		return decimal.Zero, fmt.Errorf("%s 请输入有效数字", field)
	case value.IsNegative():
		return decimal.Zero, fmt.Errorf("%s 不能小于 0", field)
	}
	return value, nil
}

// parseCalculationForm reads the calculator page form. Unchecked module
// boxes are absent from the form and therefore disable the module.
func parseCalculationForm(r *http.Request) calculationRequest {
	flag := func(name string) *bool {
		v := r.FormValue(name) == "1"
		return &v
	}

	return calculationRequest{
		Template:        strings.TrimSpace(r.FormValue("template")),
		Opening:         numberText(r.FormValue(pricing.KeyOpening)),
		Width:           numberText(r.FormValue(pricing.KeyWidth)),
		Thickness:       numberText(r.FormValue(pricing.KeyThickness)),
		ParamValue:      numberText(r.FormValue(pricing.KeyParamValue)),
		MaterialPrice:   numberText(r.FormValue(pricing.KeyMaterialPrice)),
		Quantity:        numberText(r.FormValue(pricing.KeyQuantity)),
		ProcessParam:    numberText(r.FormValue(pricing.KeyProcessParam)),
		PrintParam:      numberText(r.FormValue(pricing.KeyPrintParam)),
		MaterialType:    r.FormValue(pricing.KeyMaterialType),
		MaterialEnabled: flag(pricing.KeyMaterialEnabled),
		ProcessEnabled:  flag(pricing.KeyProcessEnabled),
		PrintEnabled:    flag(pricing.KeyPrintEnabled),
	}
}

// parseSettingsForm reads a template settings form into a record.
func parseSettingsForm(r *http.Request) pricing.Record {
	rec := pricing.Record{}
	for _, key := range pricing.RecordKeys() {
		switch key {
		case pricing.KeyMaterialEnabled, pricing.KeyProcessEnabled, pricing.KeyPrintEnabled:
			rec[key] = strconv.FormatBool(r.FormValue(key) == "1")
		default:
			rec[key] = strings.TrimSpace(r.FormValue(key))
		}
	}
	return rec
}
