package casregistry

import (
	"context"
	"testing"

	"fastset.xyz/setcore/storage"
)

func TestRegisterValidation(t *testing.T) {
	open := func(context.Context, map[string]string) (storage.CAS, func() error, error) { return nil, nil, nil }
	cases := map[string]Backend{
		"no name":  {Usage: UsageCLI, Open: open},
		"no open":  {Name: "t-no-open", Usage: UsageCLI},
		"no usage": {Name: "t-no-usage", Open: open},
	}
	for name, b := range cases {
		if err := Register(b); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	if err := Register(Backend{Name: "t-dup", Usage: UsageDaemon, Open: open}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := Register(Backend{Name: "t-dup", Usage: UsageDaemon, Open: open}); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestOpenRespectsUsageAndKeys(t *testing.T) {
	var got map[string]string
	MustRegister(Backend{
		Name:  "t-daemon-only",
		Usage: UsageDaemon,
		Keys:  []string{"path"},
		Open: func(_ context.Context, cfg map[string]string) (storage.CAS, func() error, error) {
			got = cfg
			return storage.MultiCAS{}, nil, nil
		},
	})

	if _, _, err := Open(context.Background(), "t-daemon-only", UsageCLI, nil); err == nil {
		t.Fatalf("expected usage error")
	}
	if _, _, err := Open(context.Background(), "t-daemon-only", UsageDaemon, map[string]string{"dir": "x"}); err == nil {
		t.Fatalf("expected unknown key error")
	}
	if _, _, err := Open(context.Background(), "t-daemon-only", UsageDaemon, map[string]string{"path": "x"}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got["path"] != "x" {
		t.Fatalf("config not passed through: %v", got)
	}
	if _, _, err := Open(context.Background(), "t-missing", UsageDaemon, nil); err == nil {
		t.Fatalf("expected unknown backend error")
	}

	for _, n := range Names(UsageCLI) {
		if n == "t-daemon-only" {
			t.Fatalf("daemon-only backend listed for CLI")
		}
	}
}
