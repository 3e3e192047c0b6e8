package jsonbytes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	out, err := Marshal([]byte{0, 1, 255})
	require.NoError(t, err)
	assert.Equal(t, "[0,1,255]", string(out))

	var dst [3]byte
	require.NoError(t, UnmarshalFixed(out, dst[:]))
	assert.Equal(t, [3]byte{0, 1, 255}, dst)
}

func TestUnmarshalFixedRejectsWrongShape(t *testing.T) {
	var dst [3]byte
	assert.Error(t, UnmarshalFixed([]byte("[1,2]"), dst[:]))
	assert.Error(t, UnmarshalFixed([]byte("[1,2,3,4]"), dst[:]))
	assert.Error(t, UnmarshalFixed([]byte("[1,2,256]"), dst[:]))
	assert.Error(t, UnmarshalFixed([]byte(`"AQID"`), dst[:]))
	assert.Equal(t, [3]byte{}, dst)
}
