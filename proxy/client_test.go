package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastset.xyz/setcore/errs"
	"fastset.xyz/setcore/numeric"
	"fastset.xyz/setcore/signing"
	"fastset.xyz/setcore/types"
)

type recorded struct {
	Method string                     `json:"method"`
	Params map[string]json.RawMessage `json:"params"`
	ID     uint64                     `json:"id"`
}

// rpcServer answers every request with result (or rpcErr) and records the last request.
func rpcServer(t *testing.T, result string, rpcErr string) (*httptest.Server, *recorded) {
	t.Helper()
	last := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, last))
		w.Header().Set("Content-Type", "application/json")
		if rpcErr != "" {
			_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":1,"error":`+rpcErr+`}`)
			return
		}
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":1,"result":`+result+`}`)
	}))
	t.Cleanup(srv.Close)
	return srv, last
}

func keyPair(t *testing.T, b byte) signing.KeyPair {
	t.Helper()
	k, err := signing.KeyPairFromSeed(bytes.Repeat([]byte{b}, signing.SeedSize))
	require.NoError(t, err)
	return k
}

func sampleEnvelope(t *testing.T) types.TransactionEnvelope {
	t.Helper()
	a, b := keyPair(t, 1), keyPair(t, 2)
	tx := types.Transaction{
		Sender:         a.Address(),
		Recipient:      b.Address(),
		Nonce:          7,
		TimestampNanos: numeric.U128From64(1_700_000_000_000_000_000),
		Claim: types.TransferClaim(types.TokenTransfer{
			TokenID: types.NativeTokenID(),
			Amount:  numeric.MustParseAmount("ffff"),
		}),
	}
	env, err := signing.SignTransaction(tx, a)
	require.NoError(t, err)
	return env
}

func TestSubmitTransactionSuccess(t *testing.T) {
	env := sampleEnvelope(t)
	vt, err := signing.Attest(env, keyPair(t, 9))
	require.NoError(t, err)
	cert, err := signing.Certify(env, vt)
	require.NoError(t, err)
	body, err := EncodeSubmitResult(Success{Certificate: cert})
	require.NoError(t, err)

	srv, last := rpcServer(t, string(body), "")
	c := NewClient(srv.URL, Options{})

	res, err := c.SubmitTransaction(context.Background(), env)
	require.NoError(t, err)
	got, ok := res.(Success)
	require.True(t, ok)
	assert.Equal(t, cert, got.Certificate)

	assert.Equal(t, MethodSubmitTransaction, last.Method)
	assert.Contains(t, last.Params, "transaction")
	assert.Contains(t, last.Params, "signature")
	assert.Contains(t, string(last.Params["signature"]), `"Signature"`)
}

func TestSubmitTransactionIncomplete(t *testing.T) {
	cases := map[string]SubmitResult{
		`{"IncompleteVerifierSigs":[]}`: IncompleteVerifierSigs{},
		`{"IncompleteMultiSig":[]}`:     IncompleteMultiSig{},
		`"IncompleteMultiSig"`:          IncompleteMultiSig{},
	}
	for body, want := range cases {
		t.Run(body, func(t *testing.T) {
			srv, _ := rpcServer(t, body, "")
			res, err := NewClient(srv.URL, Options{}).SubmitTransaction(context.Background(), sampleEnvelope(t))
			require.NoError(t, err)
			assert.Equal(t, want, res)
		})
	}
}

func TestSubmitTransactionUnknownVariant(t *testing.T) {
	srv, _ := rpcServer(t, `{"Queued":[]}`, "")
	_, err := NewClient(srv.URL, Options{}).SubmitTransaction(context.Background(), sampleEnvelope(t))
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindUnknownVariant))
}

func TestRPCErrorIsReturned(t *testing.T) {
	srv, _ := rpcServer(t, "", `{"code":-32602,"message":"invalid params"}`)
	err := NewClient(srv.URL, Options{}).FaucetDrip(context.Background(), keyPair(t, 1).Address(), numeric.NewAmount(5), nil)
	require.Error(t, err)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32602, rpcErr.Code)
	assert.Contains(t, err.Error(), MethodFaucetDrip)
}

func TestFaucetDripParams(t *testing.T) {
	srv, last := rpcServer(t, "null", "")
	c := NewClient(srv.URL, Options{})
	to := keyPair(t, 3).Address()

	native := types.NativeTokenID()
	require.NoError(t, c.FaucetDrip(context.Background(), to, numeric.MustParseAmount("1f4"), &native))
	assert.Equal(t, MethodFaucetDrip, last.Method)
	assert.JSONEq(t, `"1f4"`, string(last.Params["amount"]))
	assert.Equal(t, byte('['), last.Params["recipient"][0])

	require.NoError(t, c.FaucetDrip(context.Background(), to, numeric.NewAmount(1), nil))
	assert.JSONEq(t, `null`, string(last.Params["token_id"]))
}

func TestGetAccountInfo(t *testing.T) {
	addr := keyPair(t, 4).Address()
	want := types.AccountInfoResponse{Sender: addr, Balance: numeric.NewBalance(500), NextNonce: 3}
	body, err := json.Marshal(want)
	require.NoError(t, err)

	srv, last := rpcServer(t, string(body), "")
	c := NewClient(srv.URL, Options{})

	empty := []types.TokenID{}
	got, err := c.GetAccountInfo(context.Background(), addr, AccountQuery{
		TokenBalances:      &empty,
		CertificateByNonce: &types.NonceRange{Start: 0, Limit: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, addr, got.Sender)
	assert.Equal(t, types.Nonce(3), got.NextNonce)
	assert.Equal(t, 0, got.Balance.Cmp(numeric.NewBalance(500)))

	assert.JSONEq(t, `[]`, string(last.Params["token_balances_filter"]))
	assert.JSONEq(t, `null`, string(last.Params["state_key_filter"]))
	assert.JSONEq(t, `{"start":0,"limit":10}`, string(last.Params["certificate_by_nonce"]))
}

func TestGetTokenInfoSendsEmptyList(t *testing.T) {
	srv, last := rpcServer(t, `{"requested_token_metadata":[]}`, "")
	_, err := NewClient(srv.URL, Options{}).GetTokenInfo(context.Background(), nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(last.Params["token_ids"]))
}

func TestHTTPErrorAndRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":1,"result":null}`)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, Options{RetryCount: 3}).FaucetDrip(context.Background(), keyPair(t, 1).Address(), numeric.NewAmount(1), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())

	calls.Store(0)
	err = NewClient(srv.URL, Options{}).FaucetDrip(context.Background(), keyPair(t, 1).Address(), numeric.NewAmount(1), nil)
	require.Error(t, err)
	assert.Equal(t, "SET-RPC-002", errs.RuleID(err))
}

func TestMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>`)
	}))
	defer srv.Close()
	err := NewClient(srv.URL, Options{}).FaucetDrip(context.Background(), keyPair(t, 1).Address(), numeric.NewAmount(1), nil)
	assert.Equal(t, "SET-RPC-004", errs.RuleID(err))
}

func TestSubmitResultRoundTrip(t *testing.T) {
	for _, r := range []SubmitResult{IncompleteVerifierSigs{}, IncompleteMultiSig{}} {
		b, err := EncodeSubmitResult(r)
		require.NoError(t, err)
		got, err := DecodeSubmitResult(b)
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
	b, err := EncodeSubmitResult(IncompleteVerifierSigs{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"IncompleteVerifierSigs":[]}`, string(b))

	_, err = DecodeSubmitResult([]byte(`{"IncompleteMultiSig":[1]}`))
	assert.True(t, errs.IsKind(err, errs.KindParse))
	_, err = DecodeSubmitResult([]byte(`{"Success":[],"IncompleteMultiSig":[]}`))
	assert.True(t, errs.IsKind(err, errs.KindParse))
}
