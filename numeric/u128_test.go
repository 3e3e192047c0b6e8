package numeric

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestU128JSONNumber(t *testing.T) {
	big128, ok := new(big.Int).SetString("340282366920938463463374607431768211455", 10)
	require.True(t, ok)
	top, err := U128FromBig(big128)
	require.NoError(t, err)
	assert.Equal(t, U128{Lo: ^uint64(0), Hi: ^uint64(0)}, top)

	out, err := json.Marshal(map[string]U128{"t": top})
	require.NoError(t, err)
	assert.Equal(t, `{"t":340282366920938463463374607431768211455}`, string(out))

	var in map[string]U128
	require.NoError(t, json.Unmarshal(out, &in))
	assert.Equal(t, top, in["t"])

	require.NoError(t, json.Unmarshal([]byte(`{"t":"17"}`), &in))
	assert.Equal(t, U128From64(17), in["t"])

	var u U128
	require.NoError(t, u.UnmarshalJSON([]byte(`"\u0031\u0037"`)))
	assert.Equal(t, U128From64(17), u)
	assert.Error(t, u.UnmarshalJSON([]byte(`""17""`)))
	assert.Error(t, u.UnmarshalJSON([]byte(`"17`)))

	_, err = U128FromBig(new(big.Int).Lsh(big.NewInt(1), 128))
	assert.Error(t, err)
	_, err = ParseU128("-1")
	assert.Error(t, err)
}
