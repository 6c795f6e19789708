package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `validate:"required"`
	Count int    `validate:"min=1,max=20"`
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateStruct(sample{Name: "ok", Count: 3}))

	err := ValidateStruct(sample{Count: 40})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample.Name must satisfy required")
	assert.Contains(t, err.Error(), "sample.Count must satisfy max=20")
}
