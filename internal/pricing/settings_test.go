package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSettings_AbsentKeysUseStockValues(t *testing.T) {
	s, err := ParseSettings(Record{})
	require.NoError(t, err)

	assert.Equal(t, "0.95", s.ParamValue.String())
	assert.Equal(t, "9", s.MaterialPrice.String())
	assert.Equal(t, "0.2", s.ProcessParam.String())
	assert.Equal(t, "0.015", s.PrintParam.String())
	assert.Equal(t, "100", s.PlatePriceCopper.String())
	assert.Equal(t, "50", s.PlatePriceRubber.String())
	assert.Equal(t, "100", s.MinProcessFee.String())
	assert.Equal(t, CopperPlate, s.MaterialType)
	assert.True(t, s.MaterialEnabled)
	assert.True(t, s.ProcessEnabled)
	assert.True(t, s.PrintEnabled)
}

func TestParseSettings_ReadsRecord(t *testing.T) {
	s, err := ParseSettings(Record{
		KeyParamValue:       "0.9",
		KeyPlatePriceRubber: "60",
		KeyMaterialType:     "胶版",
		KeyPrintEnabled:     "false",
		KeyProcessEnabled:   "0",
	})
	require.NoError(t, err)

	assert.Equal(t, "0.9", s.ParamValue.String())
	assert.Equal(t, "60", s.PlatePriceRubber.String())
	assert.Equal(t, RubberPlate, s.MaterialType)
	assert.True(t, s.MaterialEnabled)
	assert.False(t, s.ProcessEnabled)
	assert.False(t, s.PrintEnabled)
}

func TestParseSettings_RejectsBadValues(t *testing.T) {
	_, err := ParseSettings(Record{KeyMaterialPrice: "nine"})
	assert.ErrorContains(t, err, KeyMaterialPrice)

	_, err = ParseSettings(Record{KeyMaterialEnabled: "maybe"})
	assert.ErrorContains(t, err, KeyMaterialEnabled)

	_, err = ParseSettings(Record{KeyMinProcessFee: "1e-5000000"})
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestSettingsRecord_RoundTripsDefaults(t *testing.T) {
	rec := DefaultRecord()
	assert.Equal(t, "0.95", rec[KeyParamValue])
	assert.Equal(t, "铜板", rec[KeyMaterialType])
	assert.Equal(t, "true", rec[KeyPrintEnabled])

	s, err := ParseSettings(rec)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings().Record(), s.Record())
}
