package proxy

import (
	"encoding/json"
	"fmt"
)

const jsonRPCVersion = "2.0"

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// RPCError is an error object returned by the proxy.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("rpc error %d: %s (%s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Method names.
const (
	MethodSubmitTransaction  = "proxy_submitTransaction"
	MethodFaucetDrip         = "proxy_faucetDrip"
	MethodGetAccountInfo     = "proxy_getAccountInfo"
	MethodGetTokenInfo       = "proxy_getTokenInfo"
	MethodEVMSignCertificate = "proxy_evmSignCertificate"
)
