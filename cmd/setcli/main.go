// Command setcli manages FastSet keys, builds and signs transfers, talks to the
// proxy and archives settled certificates.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fastset.xyz/setcore/config"
	_ "fastset.xyz/setcore/storage/boltcas"
	_ "fastset.xyz/setcore/storage/grpccas"
	_ "fastset.xyz/setcore/storage/ipfs"
	_ "fastset.xyz/setcore/storage/localfs"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// usageError marks errors caused by bad invocation; they exit with status 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(out, errOut)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "setcli: %v\n", err)
		var ue usageError
		if errors.As(err, &ue) {
			return 2
		}
		return 1
	}
	return 0
}

// app carries state shared by every subcommand.
type app struct {
	out        io.Writer
	errOut     io.Writer
	configPath string
	cfg        config.Config
	logger     *slog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut, logger: slog.Default()}
	root := &cobra.Command{
		Use:           "setcli",
		Short:         "FastSet client: keys, transfers, proxy queries and certificate archive",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = cfg.Log.NewLogger(a.errOut)
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default setcli.yaml in . or ~/.setcli)")
	pf.String("proxy.url", "", "proxy JSON-RPC endpoint")
	pf.Duration("proxy.timeout", 0, "proxy request timeout")
	pf.Int("proxy.retries", 0, "proxy retry count")
	pf.String("keystore.dir", "", "key store directory (default ~/.setcli/keys)")
	pf.String("archive.index", "", "settlement index database")
	pf.String("log.level", "", "log level: debug, info, warn, error")
	pf.String("log.format", "", "log format: text or json")

	root.AddCommand(
		newKeysCmd(a),
		newAddressCmd(a),
		newAmountCmd(a),
		newTransferCmd(a),
		newAccountCmd(a),
		newFaucetCmd(a),
		newTokenCmd(a),
		newCertCmd(a),
		newCASCmd(a),
	)
	return root
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("%s: expected %d argument(s), got %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}
