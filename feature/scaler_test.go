package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardScaler(t *testing.T) {
	s, err := FitStandardScaler([][]float64{{1, 5}, {3, 5}})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 5}, s.Mean)
	assert.Equal(t, []float64{1, 0}, s.Std)

	out, err := s.Transform([]float64{4, 7})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2}, out)

	_, err = s.Transform([]float64{1})
	assert.Error(t, err)

	_, err = FitStandardScaler(nil)
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = FitStandardScaler([][]float64{{1, 2}, {1}})
	assert.Error(t, err)
}
