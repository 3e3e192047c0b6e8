package proxy

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"fastset.xyz/setcore/address"
	"fastset.xyz/setcore/errs"
	"fastset.xyz/setcore/numeric"
	"fastset.xyz/setcore/types"
)

// DefaultURL is the public proxy endpoint.
const DefaultURL = "https://proxy.fastset.xyz"

// Options configures a Client. Zero values select defaults.
type Options struct {
	Timeout    time.Duration
	RetryCount int
	Logger     *slog.Logger
	// HTTPClient replaces the transport, e.g. in tests.
	HTTPClient *http.Client
}

// Client calls the proxy's JSON-RPC methods. It is safe for concurrent use.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
	nextID atomic.Uint64
}

// NewClient returns a client for the proxy at url.
func NewClient(url string, opts Options) *Client {
	if url == "" {
		url = DefaultURL
	}
	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rc.SetBaseURL(url).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(250 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && r.StatusCode() >= http.StatusInternalServerError)
		})

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{http: rc, logger: logger}
}

// call performs one JSON-RPC request and returns the raw result.
func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	req := rpcRequest{JSONRPC: jsonRPCVersion, ID: c.nextID.Add(1), Method: method, Params: params}
	started := time.Now()

	resp, err := c.http.R().SetContext(ctx).SetBody(req).Post("")
	if err != nil {
		return nil, errors.WithMessage(err, method)
	}
	c.logger.Debug("proxy call", "method", method, "id", req.ID, "status", resp.StatusCode(), "duration", time.Since(started))
	if resp.IsError() {
		return nil, errs.New(errs.KindInternal, "SET-RPC-002",
			method+": unexpected HTTP status "+resp.Status())
	}

	var out rpcResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, errs.Wrap(errs.KindParse, "SET-RPC-004", method+": malformed response", err)
	}
	if out.Error != nil {
		return nil, errors.WithMessage(out.Error, method)
	}
	if out.JSONRPC != jsonRPCVersion {
		return nil, errs.New(errs.KindParse, "SET-RPC-004", method+": response is not JSON-RPC 2.0")
	}
	return out.Result, nil
}

func decodeResult(method string, raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.WithMessage(err, method+": decode result")
	}
	return nil
}

type submitParams struct {
	Transaction types.Transaction         `json:"transaction"`
	Signature   types.SignatureOrMultiSig `json:"signature"`
}

// SubmitTransaction sends a signed transaction for settlement. Resubmitting the
// same envelope is safe.
func (c *Client) SubmitTransaction(ctx context.Context, env types.TransactionEnvelope) (SubmitResult, error) {
	raw, err := c.call(ctx, MethodSubmitTransaction, submitParams{Transaction: env.Transaction, Signature: env.Signature})
	if err != nil {
		return nil, err
	}
	res, err := DecodeSubmitResult(raw)
	if err != nil {
		return nil, errors.WithMessage(err, MethodSubmitTransaction)
	}
	return res, nil
}

type faucetParams struct {
	Recipient address.FastSetAddress `json:"recipient"`
	Amount    numeric.Amount         `json:"amount"`
	TokenID   *types.TokenID         `json:"token_id"`
}

// FaucetDrip credits amount of token to recipient from the proxy's account. A
// nil token selects the native token.
func (c *Client) FaucetDrip(ctx context.Context, recipient address.FastSetAddress, amount numeric.Amount, token *types.TokenID) error {
	_, err := c.call(ctx, MethodFaucetDrip, faucetParams{Recipient: recipient, Amount: amount, TokenID: token})
	return err
}

// AccountQuery selects what GetAccountInfo returns. A nil filter omits that
// section; a non-nil empty filter asks for everything.
type AccountQuery struct {
	TokenBalances      *[]types.TokenID
	StateKeys          *[]types.StateKey
	CertificateByNonce *types.NonceRange
}

type accountInfoParams struct {
	Address            address.FastSetAddress `json:"address"`
	TokenBalances      *[]types.TokenID       `json:"token_balances_filter"`
	StateKeys          *[]types.StateKey      `json:"state_key_filter"`
	CertificateByNonce *types.NonceRange      `json:"certificate_by_nonce"`
}

// GetAccountInfo returns the account state one validator holds for addr.
func (c *Client) GetAccountInfo(ctx context.Context, addr address.FastSetAddress, q AccountQuery) (types.AccountInfoResponse, error) {
	var out types.AccountInfoResponse
	raw, err := c.call(ctx, MethodGetAccountInfo, accountInfoParams{
		Address:            addr,
		TokenBalances:      q.TokenBalances,
		StateKeys:          q.StateKeys,
		CertificateByNonce: q.CertificateByNonce,
	})
	if err != nil {
		return out, err
	}
	return out, decodeResult(MethodGetAccountInfo, raw, &out)
}

type tokenInfoParams struct {
	TokenIDs []types.TokenID `json:"token_ids"`
}

// GetTokenInfo returns metadata for the given tokens.
func (c *Client) GetTokenInfo(ctx context.Context, ids []types.TokenID) (types.TokenInfoResponse, error) {
	var out types.TokenInfoResponse
	if ids == nil {
		ids = []types.TokenID{}
	}
	raw, err := c.call(ctx, MethodGetTokenInfo, tokenInfoParams{TokenIDs: ids})
	if err != nil {
		return out, err
	}
	return out, decodeResult(MethodGetTokenInfo, raw, &out)
}

type evmSignParams struct {
	Certificate types.TransactionCertificate `json:"certificate"`
}

// EVMSignCertificate asks the proxy to ABI-encode and sign cert for EVM verification.
func (c *Client) EVMSignCertificate(ctx context.Context, cert types.TransactionCertificate) (types.CrossSignResponse, error) {
	var out types.CrossSignResponse
	raw, err := c.call(ctx, MethodEVMSignCertificate, evmSignParams{Certificate: cert})
	if err != nil {
		return out, err
	}
	return out, decodeResult(MethodEVMSignCertificate, raw, &out)
}
