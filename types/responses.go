package types

import (
	"encoding/json"

	"fastset.xyz/setcore/address"
	"fastset.xyz/setcore/bcs"
	"fastset.xyz/setcore/errs"
	"fastset.xyz/setcore/internal/jsonbytes"
	"fastset.xyz/setcore/numeric"
)

// TokenMetadata describes a custom token.
type TokenMetadata struct {
	// UpdateID counts management operations applied to the token.
	UpdateID    Nonce                    `json:"update_id"`
	Admin       address.PublicKeyBytes   `json:"admin"`
	TokenName   string                   `json:"token_name"`
	Decimals    uint8                    `json:"decimals"`
	TotalSupply numeric.Amount           `json:"total_supply"`
	Mints       []address.PublicKeyBytes `json:"mints"`
}

func (TokenMetadata) TypeName() string { return "TokenMetadata" }

func (m TokenMetadata) MarshalBCS(e *bcs.Encoder) {
	m.UpdateID.MarshalBCS(e)
	m.Admin.MarshalBCS(e)
	e.String(m.TokenName)
	e.U8(m.Decimals)
	m.TotalSupply.MarshalBCS(e)
	encodeAddresses(e, m.Mints)
}

func (m *TokenMetadata) UnmarshalBCS(d *bcs.Decoder) {
	m.UpdateID.UnmarshalBCS(d)
	m.Admin.UnmarshalBCS(d)
	m.TokenName = d.String()
	m.Decimals = d.U8()
	m.TotalSupply.UnmarshalBCS(d)
	m.Mints = decodeAddresses(d)
}

func (m TokenMetadata) MarshalJSON() ([]byte, error) {
	type plain TokenMetadata
	m.Mints = nonNil(m.Mints)
	return json.Marshal(plain(m))
}

// NonceRange selects up to Limit certificates starting at Start.
type NonceRange struct {
	Start Nonce  `json:"start"`
	Limit uint64 `json:"limit"`
}

func (NonceRange) TypeName() string { return "NonceRange" }

func (r NonceRange) MarshalBCS(e *bcs.Encoder) {
	r.Start.MarshalBCS(e)
	e.U64(r.Limit)
}

func (r *NonceRange) UnmarshalBCS(d *bcs.Decoder) {
	r.Start.UnmarshalBCS(d)
	r.Limit = d.U64()
}

// StateEntry is one (key, value) pair of account state.
type StateEntry struct {
	Key   StateKey
	Value State
}

func (s StateEntry) MarshalBCS(e *bcs.Encoder) {
	s.Key.MarshalBCS(e)
	s.Value.MarshalBCS(e)
}

func (s *StateEntry) UnmarshalBCS(d *bcs.Decoder) {
	s.Key.UnmarshalBCS(d)
	s.Value.UnmarshalBCS(d)
}

func (s StateEntry) MarshalJSON() ([]byte, error) { return marshalPair(s.Key, s.Value) }

func (s *StateEntry) UnmarshalJSON(data []byte) error {
	return unmarshalPair(data, &s.Key, &s.Value)
}

// TokenBalance is an account's balance of one token.
type TokenBalance struct {
	TokenID TokenID
	Balance numeric.Balance
}

func (b TokenBalance) MarshalBCS(e *bcs.Encoder) {
	b.TokenID.MarshalBCS(e)
	b.Balance.MarshalBCS(e)
}

func (b *TokenBalance) UnmarshalBCS(d *bcs.Decoder) {
	b.TokenID.UnmarshalBCS(d)
	b.Balance.UnmarshalBCS(d)
}

func (b TokenBalance) MarshalJSON() ([]byte, error) { return marshalPair(b.TokenID, b.Balance) }

func (b *TokenBalance) UnmarshalJSON(data []byte) error {
	return unmarshalPair(data, &b.TokenID, &b.Balance)
}

// AccountInfoResponse describes one account as seen by a validator. Optional
// parts are nil when they were not requested.
type AccountInfoResponse struct {
	Sender                        address.PublicKeyBytes    `json:"sender"`
	Balance                       numeric.Balance           `json:"balance"`
	NextNonce                     Nonce                     `json:"next_nonce"`
	PendingConfirmation           *ValidatedTransaction     `json:"pending_confirmation"`
	RequestedState                []StateEntry              `json:"requested_state"`
	RequestedCertificates         *[]TransactionCertificate `json:"requested_certificates"`
	RequestedValidatedTransaction *ValidatedTransaction     `json:"requested_validated_transaction"`
	TokenBalance                  []TokenBalance            `json:"token_balance"`
}

func (AccountInfoResponse) TypeName() string { return "AccountInfoResponse" }

func (r AccountInfoResponse) MarshalBCS(e *bcs.Encoder) {
	r.Sender.MarshalBCS(e)
	r.Balance.MarshalBCS(e)
	r.NextNonce.MarshalBCS(e)
	encodeOptionalValidated(e, r.PendingConfirmation)
	bcs.Seq(e, r.RequestedState, func(e *bcs.Encoder, s StateEntry) { s.MarshalBCS(e) })
	e.OptionTag(r.RequestedCertificates != nil)
	if r.RequestedCertificates != nil {
		bcs.Seq(e, *r.RequestedCertificates, func(e *bcs.Encoder, c TransactionCertificate) { c.MarshalBCS(e) })
	}
	encodeOptionalValidated(e, r.RequestedValidatedTransaction)
	bcs.Seq(e, r.TokenBalance, func(e *bcs.Encoder, b TokenBalance) { b.MarshalBCS(e) })
}

func (r *AccountInfoResponse) UnmarshalBCS(d *bcs.Decoder) {
	r.Sender.UnmarshalBCS(d)
	r.Balance.UnmarshalBCS(d)
	r.NextNonce.UnmarshalBCS(d)
	r.PendingConfirmation = decodeOptionalValidated(d)
	r.RequestedState = bcs.DecodeSeq(d, func(d *bcs.Decoder) StateEntry {
		var s StateEntry
		s.UnmarshalBCS(d)
		return s
	})
	r.RequestedCertificates = nil
	if d.OptionTag() {
		certs := bcs.DecodeSeq(d, func(d *bcs.Decoder) TransactionCertificate {
			var c TransactionCertificate
			c.UnmarshalBCS(d)
			return c
		})
		r.RequestedCertificates = &certs
	}
	r.RequestedValidatedTransaction = decodeOptionalValidated(d)
	r.TokenBalance = bcs.DecodeSeq(d, func(d *bcs.Decoder) TokenBalance {
		var b TokenBalance
		b.UnmarshalBCS(d)
		return b
	})
}

func (r AccountInfoResponse) MarshalJSON() ([]byte, error) {
	type plain AccountInfoResponse
	r.RequestedState = nonNil(r.RequestedState)
	r.TokenBalance = nonNil(r.TokenBalance)
	if r.RequestedCertificates != nil {
		certs := nonNil(*r.RequestedCertificates)
		r.RequestedCertificates = &certs
	}
	return json.Marshal(plain(r))
}

// BalanceOf returns the account's balance of token, looking up the native
// balance field for the native token.
func (r AccountInfoResponse) BalanceOf(token TokenID) (numeric.Balance, bool) {
	if token.IsNative() {
		return r.Balance, true
	}
	for _, b := range r.TokenBalance {
		if b.TokenID == token {
			return b.Balance, true
		}
	}
	return numeric.Balance{}, false
}

// TokenMetadataEntry is the metadata of one requested token; Metadata is nil for
// unknown tokens.
type TokenMetadataEntry struct {
	TokenID  TokenID
	Metadata *TokenMetadata
}

func (t TokenMetadataEntry) MarshalBCS(e *bcs.Encoder) {
	t.TokenID.MarshalBCS(e)
	e.OptionTag(t.Metadata != nil)
	if t.Metadata != nil {
		t.Metadata.MarshalBCS(e)
	}
}

func (t *TokenMetadataEntry) UnmarshalBCS(d *bcs.Decoder) {
	t.TokenID.UnmarshalBCS(d)
	t.Metadata = nil
	if d.OptionTag() {
		var m TokenMetadata
		m.UnmarshalBCS(d)
		t.Metadata = &m
	}
}

func (t TokenMetadataEntry) MarshalJSON() ([]byte, error) {
	return marshalPair(t.TokenID, t.Metadata)
}

func (t *TokenMetadataEntry) UnmarshalJSON(data []byte) error {
	return unmarshalPair(data, &t.TokenID, &t.Metadata)
}

// TokenInfoResponse answers a token metadata query.
type TokenInfoResponse struct {
	RequestedTokenMetadata []TokenMetadataEntry `json:"requested_token_metadata"`
}

func (TokenInfoResponse) TypeName() string { return "TokenInfoResponse" }

func (r TokenInfoResponse) MarshalBCS(e *bcs.Encoder) {
	bcs.Seq(e, r.RequestedTokenMetadata, func(e *bcs.Encoder, t TokenMetadataEntry) { t.MarshalBCS(e) })
}

func (r *TokenInfoResponse) UnmarshalBCS(d *bcs.Decoder) {
	r.RequestedTokenMetadata = bcs.DecodeSeq(d, func(d *bcs.Decoder) TokenMetadataEntry {
		var t TokenMetadataEntry
		t.UnmarshalBCS(d)
		return t
	})
}

func (r TokenInfoResponse) MarshalJSON() ([]byte, error) {
	type plain TokenInfoResponse
	r.RequestedTokenMetadata = nonNil(r.RequestedTokenMetadata)
	return json.Marshal(plain(r))
}

// CrossSignResponse carries a proxy signature over an ABI-encoded transaction
// for verification on an EVM chain.
type CrossSignResponse struct {
	// Format names the signature scheme, e.g. "eip191-abi".
	Format string `json:"format"`
	// Signature is hex encoded.
	Signature   string `json:"signature"`
	Transaction []byte `json:"transaction"`
}

func (CrossSignResponse) TypeName() string { return "CrossSignResponse" }

func (r CrossSignResponse) MarshalBCS(e *bcs.Encoder) {
	e.String(r.Format)
	e.String(r.Signature)
	e.ByteSeq(r.Transaction)
}

func (r *CrossSignResponse) UnmarshalBCS(d *bcs.Decoder) {
	r.Format = d.String()
	r.Signature = d.String()
	r.Transaction = d.ByteSeq()
}

func (r CrossSignResponse) MarshalJSON() ([]byte, error) {
	tx, err := jsonbytes.Marshal(r.Transaction)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Format      string          `json:"format"`
		Signature   string          `json:"signature"`
		Transaction json.RawMessage `json:"transaction"`
	}{r.Format, r.Signature, tx})
}

func (r *CrossSignResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		Format      string          `json:"format"`
		Signature   string          `json:"signature"`
		Transaction json.RawMessage `json:"transaction"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var tx []byte
	if len(raw.Transaction) > 0 && string(raw.Transaction) != "null" {
		var err error
		if tx, err = jsonbytes.UnmarshalSeq(raw.Transaction); err != nil {
			return errs.Wrap(errs.KindParse, "SET-TYPE-002", "invalid cross-sign transaction", err)
		}
	}
	*r = CrossSignResponse{Format: raw.Format, Signature: raw.Signature, Transaction: tx}
	return nil
}

func encodeAddresses(e *bcs.Encoder, addrs []address.PublicKeyBytes) {
	bcs.Seq(e, addrs, func(e *bcs.Encoder, a address.PublicKeyBytes) { a.MarshalBCS(e) })
}

func decodeAddresses(d *bcs.Decoder) []address.PublicKeyBytes {
	return bcs.DecodeSeq(d, func(d *bcs.Decoder) address.PublicKeyBytes {
		var a address.PublicKeyBytes
		a.UnmarshalBCS(d)
		return a
	})
}

func encodeOptionalValidated(e *bcs.Encoder, v *ValidatedTransaction) {
	e.OptionTag(v != nil)
	if v != nil {
		v.MarshalBCS(e)
	}
}

func decodeOptionalValidated(d *bcs.Decoder) *ValidatedTransaction {
	if !d.OptionTag() {
		return nil
	}
	var v ValidatedTransaction
	v.UnmarshalBCS(d)
	return &v
}
