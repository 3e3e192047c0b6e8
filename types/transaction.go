package types

import (
	"bytes"
	"encoding/json"

	"fastset.xyz/setcore/address"
	"fastset.xyz/setcore/bcs"
	"fastset.xyz/setcore/errs"
	"fastset.xyz/setcore/internal/jsonbytes"
	"fastset.xyz/setcore/numeric"
)

// UserData is optional extra data attached to a transfer.
type UserData struct {
	Present bool
	Data    [32]byte
}

// SomeUserData returns a present UserData holding data.
func SomeUserData(data [32]byte) UserData {
	return UserData{Present: true, Data: data}
}

func (u UserData) MarshalBCS(e *bcs.Encoder) {
	e.OptionTag(u.Present)
	if u.Present {
		e.Fixed(u.Data[:])
	}
}

func (u *UserData) UnmarshalBCS(d *bcs.Decoder) {
	*u = UserData{}
	if d.OptionTag() {
		u.Present = true
		d.FixedInto(u.Data[:])
	}
}

func (u UserData) MarshalJSON() ([]byte, error) {
	if !u.Present {
		return []byte("null"), nil
	}
	return jsonbytes.Marshal(u.Data[:])
}

func (u *UserData) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*u = UserData{}
		return nil
	}
	var v UserData
	if err := fixedJSON(data, v.Data[:], "user data"); err != nil {
		return err
	}
	v.Present = true
	*u = v
	return nil
}

// TokenTransfer moves Amount of TokenID to the transaction's recipient. A
// transfer to the burn address burns the tokens.
type TokenTransfer struct {
	TokenID  TokenID        `json:"token_id"`
	Amount   numeric.Amount `json:"amount"`
	UserData UserData       `json:"user_data"`
}

func (TokenTransfer) TypeName() string { return "TokenTransfer" }

func (t TokenTransfer) MarshalBCS(e *bcs.Encoder) {
	t.TokenID.MarshalBCS(e)
	t.Amount.MarshalBCS(e)
	t.UserData.MarshalBCS(e)
}

func (t *TokenTransfer) UnmarshalBCS(d *bcs.Decoder) {
	t.TokenID.UnmarshalBCS(d)
	t.Amount.UnmarshalBCS(d)
	t.UserData.UnmarshalBCS(d)
}

// ClaimType is the typed payload of a transaction. TokenTransfer is currently
// the only variant. Construct it with TransferClaim; the zero value is invalid.
type ClaimType struct {
	transfer *TokenTransfer
}

const variantTokenTransfer uint32 = 0

func TransferClaim(t TokenTransfer) ClaimType {
	return ClaimType{transfer: &t}
}

// TokenTransfer returns the transfer if c is the TokenTransfer variant.
func (c ClaimType) TokenTransfer() (TokenTransfer, bool) {
	if c.transfer == nil {
		return TokenTransfer{}, false
	}
	return *c.transfer, true
}

func (c ClaimType) IsZero() bool { return c.transfer == nil }

func (ClaimType) TypeName() string { return "ClaimType" }

func (c ClaimType) MarshalBCS(e *bcs.Encoder) {
	if c.transfer == nil {
		e.Fail(errs.New(errs.KindInternal, "SET-TYPE-005", "empty ClaimType"))
		return
	}
	e.Variant(variantTokenTransfer)
	c.transfer.MarshalBCS(e)
}

func (c *ClaimType) UnmarshalBCS(d *bcs.Decoder) {
	idx := d.Variant()
	if d.Err() != nil {
		return
	}
	if idx != variantTokenTransfer {
		d.UnknownVariant("ClaimType", idx)
		return
	}
	var t TokenTransfer
	t.UnmarshalBCS(d)
	*c = TransferClaim(t)
}

func (c ClaimType) MarshalJSON() ([]byte, error) {
	if c.transfer == nil {
		return nil, errs.New(errs.KindInternal, "SET-TYPE-005", "empty ClaimType")
	}
	return marshalTagged("TokenTransfer", c.transfer)
}

func (c *ClaimType) UnmarshalJSON(data []byte) error {
	tag, payload, err := unmarshalTagged(data, "ClaimType")
	if err != nil {
		return err
	}
	if tag != "TokenTransfer" {
		return unknownVariantJSON("ClaimType", tag)
	}
	var t TokenTransfer
	if err := json.Unmarshal(payload, &t); err != nil {
		return err
	}
	*c = TransferClaim(t)
	return nil
}

// Transaction is the message a sender signs. Its identity is its canonical
// encoding.
type Transaction struct {
	Sender         address.PublicKeyBytes `json:"sender"`
	Recipient      address.PublicKeyBytes `json:"recipient"`
	Nonce          Nonce                  `json:"nonce"`
	TimestampNanos numeric.U128           `json:"timestamp_nanos"`
	Claim          ClaimType              `json:"claim"`
	// Archival asks validators that confirm the transaction to keep answering
	// settlement queries for it.
	Archival bool `json:"archival"`
}

func (Transaction) TypeName() string { return "Transaction" }

func (t Transaction) MarshalBCS(e *bcs.Encoder) {
	t.Sender.MarshalBCS(e)
	t.Recipient.MarshalBCS(e)
	t.Nonce.MarshalBCS(e)
	t.TimestampNanos.MarshalBCS(e)
	t.Claim.MarshalBCS(e)
	e.Bool(t.Archival)
}

func (t *Transaction) UnmarshalBCS(d *bcs.Decoder) {
	t.Sender.UnmarshalBCS(d)
	t.Recipient.UnmarshalBCS(d)
	t.Nonce.UnmarshalBCS(d)
	t.TimestampNanos.UnmarshalBCS(d)
	t.Claim.UnmarshalBCS(d)
	t.Archival = d.Bool()
}

// Digest returns SHA3-256 of the transaction's signing bytes.
func (t Transaction) Digest() (Digest, error) {
	return digestOf(t)
}
