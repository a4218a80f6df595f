package attr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlags_SetHas(t *testing.T) {
	var fs Flags
	assert.False(t, fs.Has(Readonly))

	fs = fs.Set(Readonly).Set(Hidden)
	assert.True(t, fs.Has(Readonly))
	assert.True(t, fs.Has(Hidden))
	assert.False(t, fs.Has(Archive))
	assert.False(t, fs.Has(System))
}

func TestFlags_String(t *testing.T) {
	var fs Flags
	assert.Equal(t, "none", fs.String())

	fs = fs.Set(Readonly).Set(System)
	assert.Equal(t, "readonly,system", fs.String())
}

func TestApplied_Partial(t *testing.T) {
	assert.False(t, Applied{}.Partial())
	assert.True(t, Applied{Dropped: []Flag{Archive}}.Partial())
}
