package templates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/moyu7925/bag-unit-price-calculator/internal/pricing"
)

type fieldRange struct {
	key   string
	label string
	min   decimal.Decimal
	max   decimal.Decimal
}

var settingRanges = []fieldRange{
	{pricing.KeyParamValue, "参数值", decimal.RequireFromString("0.01"), decimal.NewFromInt(10)},
	{pricing.KeyMaterialPrice, "原料价格", decimal.NewFromInt(1), decimal.NewFromInt(1000)},
	{pricing.KeyProcessParam, "加工工费参数", decimal.RequireFromString("0.01"), decimal.NewFromInt(5)},
	{pricing.KeyPrintParam, "印刷工费参数", decimal.RequireFromString("0.001"), decimal.NewFromInt(1)},
	{pricing.KeyPlatePriceCopper, "铜板价格", decimal.NewFromInt(10), decimal.NewFromInt(1000)},
	{pricing.KeyPlatePriceRubber, "胶版价格", decimal.NewFromInt(10), decimal.NewFromInt(500)},
}

// Validate checks a settings record before it is saved. Empty values are
// allowed and fall back to stock values when the record is used. Every
// failing field is reported.
func Validate(rec pricing.Record) error {
	var errs []error

	for _, r := range settingRanges {
		text := strings.TrimSpace(rec[r.key])
		if text == "" {
			continue
		}
		v, err := pricing.ParseNumber(r.key, text)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s 请输入有效数字", r.label))
			continue
		}
		if v.LessThan(r.min) || v.GreaterThan(r.max) {
			errs = append(errs, fmt.Errorf("%s 超出有效范围（%s ~ %s）", r.label, r.min, r.max))
		}
	}

	if text := strings.TrimSpace(rec[pricing.KeyMinProcessFee]); text != "" {
		if v, err := pricing.ParseNumber(pricing.KeyMinProcessFee, text); err != nil || v.IsNegative() {
			errs = append(errs, fmt.Errorf("最低加工费 请输入有效数字"))
		}
	}

	for _, key := range []string{pricing.KeyMaterialEnabled, pricing.KeyProcessEnabled, pricing.KeyPrintEnabled} {
		text := strings.TrimSpace(rec[key])
		if text == "" {
			continue
		}
		if _, err := strconv.ParseBool(text); err != nil {
			errs = append(errs, fmt.Errorf("%s 必须是 true 或 false", key))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
	}
	return nil
}

// normalizeRecord keeps only known keys with trimmed values.
func normalizeRecord(rec pricing.Record) pricing.Record {
	out := make(pricing.Record, len(rec))
	for _, key := range pricing.RecordKeys() {
		if v, ok := rec[key]; ok {
			out[key] = strings.TrimSpace(v)
		}
	}
	return out
}
