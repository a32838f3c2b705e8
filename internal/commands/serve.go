package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/falcon/internal/server"
	"github.com/simonhull/firebird-suite/falcon/pkg/output"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve module specs and version checks over HTTP",
		Long: `Serve every module of the schema document over HTTP.

Routes:
  GET  /healthz
  GET  /v1/modules
  GET  /v1/modules/{module}/spec
  POST /v1/modules/{module}/validate   body: {target, params} as JSON or YAML
  GET  /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			s, err := a.loadSchema(cfg)
			if err != nil {
				return err
			}
			reg := s.registry(cfg, a.log)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			output.Info(fmt.Sprintf("Serving %d modules for %s on %s", len(reg.Names()), s.doc.Version, cfg.Serve.Addr))
			srv := server.New(server.Config{Addr: cfg.Serve.Addr, Registry: reg, Logger: a.log})
			return srv.Run(ctx)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default :8080)")
	a.bind(cmd, "serve.addr", "addr")

	return cmd
}
