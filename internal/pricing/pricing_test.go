package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertFixed(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	assert.Equal(t, want, Fixed(got), name)
}

func quote(t *testing.T, raw RawInputs, s Settings) Result {
	t.Helper()
	result, err := Quote(raw, s)
	require.NoError(t, err)
	return result
}

func TestCalculate_ProcessFloorSingleUnit(t *testing.T) {
	result := quote(t, RawInputs{Opening: "10", ProcessParam: "0.2", Quantity: "1"}, DefaultSettings())

	assertFixed(t, "process fee", result.Breakdown.Process.Fee, "100.000")
	assertFixed(t, "process unit price", result.Breakdown.Process.UnitPrice, "100.000")
}

func TestCalculate_ProcessFloorSpreadAcrossRun(t *testing.T) {
	result := quote(t, RawInputs{Opening: "1000", ProcessParam: "0.2", Quantity: "10"}, DefaultSettings())

	assertFixed(t, "process fee", result.Breakdown.Process.Fee, "100.000")
	assertFixed(t, "process unit price", result.Breakdown.Process.UnitPrice, "10.000")
}

func TestCalculate_ProcessFeeAtFloorIsNotClamped(t *testing.T) {
	result := quote(t, RawInputs{Opening: "50", ProcessParam: "0.2", Quantity: "1000"}, DefaultSettings())

	assertFixed(t, "process fee", result.Breakdown.Process.Fee, "100.000")
	assertFixed(t, "process unit price", result.Breakdown.Process.UnitPrice, "0.100")

	above := quote(t, RawInputs{Opening: "50", ProcessParam: "0.3", Quantity: "1000"}, DefaultSettings())
	assertFixed(t, "process fee above floor", above.Breakdown.Process.Fee, "150.000")
	assertFixed(t, "process unit price above floor", above.Breakdown.Process.UnitPrice, "0.150")
}

func TestCalculate_PrintFloorByPlate(t *testing.T) {
	copper := quote(t, RawInputs{PrintParam: "0.015", Quantity: "100", MaterialType: "铜板"}, DefaultSettings())
	assertFixed(t, "copper print fee", copper.Breakdown.Print.Fee, "100.000")
	assertFixed(t, "copper print unit price", copper.Breakdown.Print.UnitPrice, "1.000")
	assertFixed(t, "copper plate price", copper.Breakdown.Print.PlatePrice, "100.000")

	rubber := quote(t, RawInputs{PrintParam: "0.015", Quantity: "100", MaterialType: "胶版"}, DefaultSettings())
	assertFixed(t, "rubber print fee", rubber.Breakdown.Print.Fee, "50.000")
	assertFixed(t, "rubber print unit price", rubber.Breakdown.Print.UnitPrice, "0.500")
	assertFixed(t, "rubber plate price", rubber.Breakdown.Print.PlatePrice, "50.000")
}

func TestCalculate_UnknownMaterialTypeUsesRubberPlate(t *testing.T) {
	result := quote(t, RawInputs{PrintParam: "0.015", Quantity: "100", MaterialType: "纸板"}, DefaultSettings())

	assertFixed(t, "plate price", result.Breakdown.Print.PlatePrice, "50.000")
	assertFixed(t, "print fee", result.Breakdown.Print.Fee, "50.000")
}

func TestCalculate_PlatePricesFromSettings(t *testing.T) {
	s := DefaultSettings()
	s.PlatePriceCopper = dec("120")
	s.PlatePriceRubber = dec("80")

	copper := quote(t, RawInputs{Quantity: "100"}, s)
	assertFixed(t, "copper floor", copper.Breakdown.Print.Fee, "120.000")
	assertFixed(t, "copper unit price", copper.Breakdown.Print.UnitPrice, "1.200")

	rubber := quote(t, RawInputs{Quantity: "100", MaterialType: "胶版"}, s)
	assertFixed(t, "rubber floor", rubber.Breakdown.Print.Fee, "80.000")
	assertFixed(t, "rubber unit price", rubber.Breakdown.Print.UnitPrice, "0.800")
}

func TestCalculate_MaterialFormulaExactness(t *testing.T) {
	result := quote(t, RawInputs{
		Opening:       "20",
		Width:         "10",
		Thickness:     "0.05",
		ParamValue:    "0.95",
		MaterialPrice: "9",
		Quantity:      "1000",
	}, DefaultSettings())

	assertFixed(t, "material unit price", result.Breakdown.Material.UnitPrice, "0.000")
	assertFixed(t, "material weight", result.Breakdown.Material.Weight, "0.019")
}

func TestRound_HalfUp(t *testing.T) {
	assertFixed(t, "0.1235", Round(dec("0.1235")), "0.124")
	assertFixed(t, "0.1245", Round(dec("0.1245")), "0.125")
	assertFixed(t, "0.12349", Round(dec("0.12349")), "0.123")
}

func TestCalculate_PrintUnitPriceRoundsHalfUp(t *testing.T) {
	result := quote(t, RawInputs{PrintParam: "0.0125", Quantity: "10000"}, DefaultSettings())

	assertFixed(t, "print unit price", result.Breakdown.Print.UnitPrice, "0.013")
	assertFixed(t, "print fee", result.Breakdown.Print.Fee, "125.000")
}

func TestCalculate_ZeroQuantityIsSafe(t *testing.T) {
	result := quote(t, RawInputs{Opening: "30", Width: "20", Thickness: "4"}, DefaultSettings())

	assertFixed(t, "process unit price", result.Breakdown.Process.UnitPrice, "0.000")
	assertFixed(t, "process fee", result.Breakdown.Process.Fee, "100.000")
	assertFixed(t, "print unit price", result.Breakdown.Print.UnitPrice, "0.000")
	assertFixed(t, "print fee", result.Breakdown.Print.Fee, "100.000")
	assertFixed(t, "material weight", result.Breakdown.Material.Weight, "0.000")
}

func TestCalculate_DisabledModulesReportZero(t *testing.T) {
	raw := RawInputs{Opening: "30", Width: "20", Thickness: "4", Quantity: "1000"}

	s := DefaultSettings()
	s.MaterialEnabled = false
	noMaterial := quote(t, raw, s)
	assertFixed(t, "material unit price", noMaterial.Breakdown.Material.UnitPrice, "0.000")
	assertFixed(t, "material weight", noMaterial.Breakdown.Material.Weight, "0.000")
	assertFixed(t, "bag unit price", noMaterial.Totals.BagUnitPrice, "0.200")

	s = DefaultSettings()
	s.ProcessEnabled = false
	s.PrintEnabled = false
	materialOnly := quote(t, raw, s)
	assertFixed(t, "process unit price", materialOnly.Breakdown.Process.UnitPrice, "0.000")
	assertFixed(t, "process fee", materialOnly.Breakdown.Process.Fee, "0.000")
	assertFixed(t, "print unit price", materialOnly.Breakdown.Print.UnitPrice, "0.000")
	assertFixed(t, "print fee", materialOnly.Breakdown.Print.Fee, "0.000")
	assertFixed(t, "plate price", materialOnly.Breakdown.Print.PlatePrice, "0.000")
	assertFixed(t, "bag unit price", materialOnly.Totals.BagUnitPrice, "0.041")
	assertFixed(t, "total fee", materialOnly.Totals.TotalFee, "41.000")
}

func TestCalculate_BagUnitPriceSumsRoundedModules(t *testing.T) {
	result := quote(t, RawInputs{
		Opening:       "10",
		Width:         "10",
		Thickness:     "0.5",
		ParamValue:    "1",
		MaterialPrice: "4",
		Quantity:      "250000",
		ProcessParam:  "0.004",
		PrintParam:    "0.0004",
	}, DefaultSettings())

	assertFixed(t, "material unit price", result.Breakdown.Material.UnitPrice, "0.000")
	assertFixed(t, "process unit price", result.Breakdown.Process.UnitPrice, "0.000")
	assertFixed(t, "print unit price", result.Breakdown.Print.UnitPrice, "0.000")
	assertFixed(t, "bag unit price", result.Totals.BagUnitPrice, "0.000")
	assertFixed(t, "material weight", result.Breakdown.Material.Weight, "25.000")
	assertFixed(t, "total fee", result.Totals.TotalFee, "200.000")
}

func TestCalculate_FullTrace(t *testing.T) {
	result := quote(t, RawInputs{
		Opening:   "30",
		Width:     "20",
		Thickness: "4",
		Quantity:  "1000",
	}, DefaultSettings())

	assertFixed(t, "material unit price", result.Breakdown.Material.UnitPrice, "0.041")
	assertFixed(t, "material weight", result.Breakdown.Material.Weight, "4.560")
	assertFixed(t, "process unit price", result.Breakdown.Process.UnitPrice, "0.100")
	assertFixed(t, "print unit price", result.Breakdown.Print.UnitPrice, "0.100")
	assertFixed(t, "bag unit price", result.Totals.BagUnitPrice, "0.241")
	assertFixed(t, "total fee", result.Totals.TotalFee, "241.000")
	assert.Equal(t, "30 * 20    4C", result.Spec)

	want := "=== 计算算式 ===\n\n" +
		"原料计算：\n" +
		"- 原料单价 = (30/100) × (20/100) × (4×2/100) × 0.95 × 9 = 0.041 元/个\n" +
		"- 原料重量 = (30/100) × (20/100) × (4×2/100) × 0.95 × 1000 = 4.560 公斤\n\n" +
		"加工计算：\n" +
		"- 加工单价 = (30/100) × 0.2 = 0.100 元/个\n" +
		"- 加工费 = 0.100 × 1000 = 100.000 元（最低100元）\n\n" +
		"印刷计算：\n" +
		"- 印刷单价 = 0.015 = 0.100 元/个\n" +
		"- 印刷费 = 0.100 × 1000 = 100.000 元（最低100.000元）\n\n" +
		"单袋单价 = 0.041 + 0.100 + 0.100 = 0.241 元/个\n"
	assert.Equal(t, want, result.Detail)
}

func TestCalculate_TracePrintsOperandsAsEntered(t *testing.T) {
	result := quote(t, RawInputs{
		Opening:   "30.0",
		Width:     "2e1",
		Thickness: "4.00",
		Quantity:  "1000",
	}, DefaultSettings())

	assert.Equal(t, "30.0 * 2e1    4.00C", result.Spec)
	assert.Contains(t, result.Detail, "- 原料单价 = (30.0/100) × (2e1/100) × (4.00×2/100) × 0.95 × 9 = 0.041 元/个\n")
	assert.Contains(t, result.Detail, "- 加工单价 = (30.0/100) × 0.2 = 0.100 元/个\n")
	assertFixed(t, "bag unit price", result.Totals.BagUnitPrice, "0.241")
}

func TestQuote_OutOfRangeLiteralIsCalculationError(t *testing.T) {
	_, err := Quote(RawInputs{Opening: "10", Width: "10", Thickness: "1", Quantity: "1e-5000000"}, DefaultSettings())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCalculation), "got %v", err)
	assert.True(t, errors.Is(err, ErrOutOfRange), "got %v", err)
}

func TestCalculate_IsDeterministic(t *testing.T) {
	raw := RawInputs{Opening: "33.3", Width: "17", Thickness: "3.5", Quantity: "777", MaterialType: "胶版"}

	first := quote(t, raw, DefaultSettings())
	for i := 0; i < 5; i++ {
		again := quote(t, raw, DefaultSettings())
		assert.Equal(t, first.Detail, again.Detail)
		assert.Equal(t, first.Spec, again.Spec)
		assert.True(t, first.Totals.BagUnitPrice.Equal(again.Totals.BagUnitPrice))
		assert.True(t, first.Totals.TotalFee.Equal(again.Totals.TotalFee))
	}
}

func TestQuote_InvalidNumberIsCalculationError(t *testing.T) {
	_, err := Quote(RawInputs{Opening: "abc"}, DefaultSettings())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCalculation))

	var inputErr *InputError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, KeyOpening, inputErr.Field)
	assert.Equal(t, "abc", inputErr.Value)
}
