package grpccas

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fastset.xyz/setcore/storage"
	"fastset.xyz/setcore/storage/casregistry"
)

// Configuration keys understood by the "grpc" backend.
const (
	TargetKey      = "target"
	TimeoutKey     = "timeout"
	MaxMsgBytesKey = "max-msg-bytes"
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "grpc",
		Description: "gRPC CAS client (talks to a set-archived daemon)",
		Usage:       casregistry.UsageCLI,
		Keys:        []string{TargetKey, TimeoutKey, MaxMsgBytesKey},
		Open:        openFromConfig,
	})
}

func openFromConfig(_ context.Context, cfg map[string]string) (storage.CAS, func() error, error) {
	target := strings.TrimSpace(cfg[TargetKey])
	if target == "" {
		return nil, nil, fmt.Errorf("grpccas: missing %q", TargetKey)
	}
	var opts DialOptions
	if v := cfg[MaxMsgBytesKey]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, nil, fmt.Errorf("grpccas: invalid %s %q", MaxMsgBytesKey, v)
		}
		opts.MaxMsgBytes = n
	}
	var timeout time.Duration
	if v := cfg[TimeoutKey]; v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, nil, fmt.Errorf("grpccas: invalid %s %q: %w", TimeoutKey, v, err)
		}
		timeout = d
	}
	client, err := Dial(target, opts)
	if err != nil {
		return nil, nil, err
	}
	client.Timeout = timeout
	return client, client.Close, nil
}
