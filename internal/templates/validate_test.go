package templates

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moyu7925/bag-unit-price-calculator/internal/pricing"
)

func TestValidate_AcceptsStockAndEmptyValues(t *testing.T) {
	assert.NoError(t, Validate(pricing.DefaultRecord()))
	assert.NoError(t, Validate(pricing.Record{pricing.KeyParamValue: ""}))
}

func TestValidate_ReportsEveryFailingField(t *testing.T) {
	err := Validate(pricing.Record{
		pricing.KeyMaterialPrice:    "0.5",
		pricing.KeyPrintParam:       "2",
		pricing.KeyPlatePriceCopper: "1001",
		pricing.KeyPrintEnabled:     "yes please",
	})

	assert.True(t, errors.Is(err, ErrInvalidSettings))
	assert.Contains(t, err.Error(), "原料价格 超出有效范围（1 ~ 1000）")
	assert.Contains(t, err.Error(), "印刷工费参数 超出有效范围（0.001 ~ 1）")
	assert.Contains(t, err.Error(), "铜板价格 超出有效范围（10 ~ 1000）")
	assert.Contains(t, err.Error(), pricing.KeyPrintEnabled)
}

func TestValidate_BoundsAreInclusive(t *testing.T) {
	assert.NoError(t, Validate(pricing.Record{
		pricing.KeyParamValue:       "0.01",
		pricing.KeyProcessParam:     "5",
		pricing.KeyPlatePriceRubber: "500",
	}))
}

func TestValidate_RejectsOversizedLiterals(t *testing.T) {
	err := Validate(pricing.Record{
		pricing.KeyParamValue:    "1e-5000000",
		pricing.KeyMinProcessFee: "1e-5000000",
	})

	assert.True(t, errors.Is(err, ErrInvalidSettings))
	assert.Contains(t, err.Error(), "参数值 请输入有效数字")
	assert.Contains(t, err.Error(), "最低加工费 请输入有效数字")
}
