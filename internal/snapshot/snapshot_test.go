package snapshot

import (
	"bytes"
	"strings"
	"testing"

	"github.com/steelbatch/orderbook-engine/pkg/bkerrors"
	"github.com/steelbatch/orderbook-engine/pkg/orderbook"
	"github.com/steelbatch/orderbook-engine/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleUTXOs(t *testing.T) []orderbook.UTXO {
	t.Helper()
	owner, err := types.ParseAddress("0x853e3dC3005b83db47B21d6532F3c5500E970d8F")
	require.NoError(t, err)
	return []orderbook.UTXO{
		orderbook.NewUTXO(orderbook.Order{Side: types.Buy, Price: 100, Quantity: 10, Owner: owner, Nonce: 1, ExpiryBatch: 10}),
		orderbook.NewUTXO(orderbook.Order{Side: types.Sell, Price: 101, Quantity: 5, Owner: owner, Nonce: 2, ExpiryBatch: 10}),
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	utxos := sampleUTXOs(t)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, utxos))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	require.Len(t, loaded, len(utxos))
	for i := range utxos {
		assert.Equal(t, utxos[i], loaded[i])
	}
}

func TestLoad_EmptyStreamYieldsNoUtxos(t *testing.T) {
	loaded, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoad_EmptyArray(t *testing.T) {
	loaded, err := Load(strings.NewReader("[]"))
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoad_TamperedIDIsFatal(t *testing.T) {
	utxos := sampleUTXOs(t)
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, utxos))

	tampered := strings.Replace(buf.String(), utxos[0].ID.String(), strings.Repeat("0", 64), 1)
	_, err := Load(strings.NewReader(tampered))
	require.Error(t, err)
	assert.Equal(t, bkerrors.KindDecodeError, bkerrors.KindOf(err))
}

func TestLoad_InvalidSideIsFatal(t *testing.T) {
	json := `[{"id":"` + strings.Repeat("0", 64) + `","side":"sideways","price":1,"quantity":1,"owner":"0x853e3dC3005b83db47B21d6532F3c5500E970d8F","nonce":1,"expiry_batch":1}]`
	_, err := Load(strings.NewReader(json))
	require.Error(t, err)
	assert.Equal(t, bkerrors.KindDecodeError, bkerrors.KindOf(err))
}

func TestLoad_MalformedJSONIsFatal(t *testing.T) {
	_, err := Load(strings.NewReader("not json"))
	require.Error(t, err)
	assert.Equal(t, bkerrors.KindDecodeError, bkerrors.KindOf(err))
}
