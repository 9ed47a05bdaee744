package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastHour(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"cde2017010200.03.m01.grib2", 3},
		{"cde2017010200.24.m20.grb", 24},
		{"cde2017010200.07.m01", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ForecastHour(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, h)
		})
	}

	_, err := ForecastHour("cde.readme")
	assert.Error(t, err)
}

func TestMember(t *testing.T) {
	m, err := Member("/data/cde2017010200.03.m07.grib2")
	require.NoError(t, err)
	assert.Equal(t, 7, m)

	_, err = Member("cde2017010200.03.grib2")
	assert.Error(t, err)
}

func TestVariableOf(t *testing.T) {
	assert.Equal(t, "tp", VariableOf("/tmp/split/tp.grib2"))
	assert.Equal(t, "2t", VariableOf("2t.grib1"))
	assert.Equal(t, "plain", VariableOf("plain"))
}
