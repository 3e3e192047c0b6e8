// Command set-archived serves a certificate archive over the CAS gRPC service
// and exposes Prometheus metrics. Only verified certificates are accepted for
// storage; reads are served for any stored object.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"fastset.xyz/setcore/archive"
	"fastset.xyz/setcore/config"
	"fastset.xyz/setcore/storage"
	"fastset.xyz/setcore/storage/casregistry"
	"fastset.xyz/setcore/storage/grpccas"

	_ "fastset.xyz/setcore/storage/boltcas"
	_ "fastset.xyz/setcore/storage/ipfs"
	_ "fastset.xyz/setcore/storage/localfs"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(out, errOut)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "set-archived: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	var (
		configPath   string
		listBackends bool
	)
	cmd := &cobra.Command{
		Use:           "set-archived",
		Short:         "Serve a verified certificate archive over gRPC",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listBackends {
				for _, b := range casregistry.List(casregistry.UsageDaemon) {
					if b.Description == "" {
						fmt.Fprintf(out, "%s\n", b.Name)
						continue
					}
					fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
				}
				return nil
			}

			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			logger := cfg.Log.NewLogger(errOut)
			return runDaemon(cmd.Context(), cfg, logger)
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "config file (default setcli.yaml in . or ~/.setcli)")
	f.BoolVar(&listBackends, "list-backends", false, "list supported storage backends and exit")
	f.String("daemon.grpc_listen", "", "gRPC listen address")
	f.String("daemon.metrics_listen", "", "metrics listen address (empty string disables)")
	f.String("archive.index", "", "settlement index database")
	f.String("log.level", "", "log level: debug, info, warn, error")
	f.String("log.format", "", "log format: text or json")
	return cmd
}

func runDaemon(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	settings, err := cfg.Archive.ArchiveSettings()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	arc, closeArc, err := archive.Open(ctx, cfg.Archive.Storage, cfg.Archive.Index, casregistry.UsageDaemon, settings,
		archive.WithLogger(logger),
		archive.WithMetrics(archive.NewMetrics(reg)),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeArc(); err != nil {
			logger.Warn("close archive", "error", err)
		}
	}()

	grpcLis, err := net.Listen("tcp", cfg.Daemon.GRPCListen)
	if err != nil {
		return err
	}
	var metricsLis net.Listener
	if cfg.Daemon.MetricsListen != "" {
		if metricsLis, err = net.Listen("tcp", cfg.Daemon.MetricsListen); err != nil {
			_ = grpcLis.Close()
			return err
		}
	}
	return serve(ctx, grpcLis, metricsLis, arc.Guarded(), reg, logger)
}

// serve runs the gRPC CAS service on grpcLis and, when metricsLis is non-nil,
// the /metrics endpoint until ctx is done or either server fails.
func serve(ctx context.Context, grpcLis, metricsLis net.Listener, cas storage.CAS, reg *prometheus.Registry, logger *slog.Logger) error {
	gs := grpc.NewServer()
	grpccas.RegisterCASServer(gs, &grpccas.Server{CAS: cas, Logger: logger})

	var hs *http.Server
	if metricsLis != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		hs = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logger.Info("serving archive", "grpc", grpcLis.Addr().String())
		return gs.Serve(grpcLis)
	})
	if hs != nil {
		eg.Go(func() error {
			logger.Info("serving metrics", "addr", metricsLis.Addr().String())
			if err := hs.Serve(metricsLis); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	eg.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		gs.GracefulStop()
		if hs != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return hs.Shutdown(shutdownCtx)
		}
		return nil
	})

	err := eg.Wait()
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}
