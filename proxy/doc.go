// Package proxy is a JSON-RPC 2.0 client for the FastSet proxy.
//
// The proxy relays signed transactions to validators, aggregates their
// attestations into certificates and answers account and token queries. All
// methods use named parameters in the "proxy" namespace.
package proxy
