package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ongbook-dev/ongbook/internal/audit"
	"github.com/ongbook-dev/ongbook/internal/auth"
	"github.com/ongbook-dev/ongbook/internal/bankrec"
	"github.com/ongbook-dev/ongbook/internal/budget"
	"github.com/ongbook-dev/ongbook/internal/csvio"
	"github.com/ongbook-dev/ongbook/internal/ledger"
	"github.com/ongbook-dev/ongbook/internal/report"
	"github.com/ongbook-dev/ongbook/internal/web"
)

func newServeCommand(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, st, err := setup(*cfgFile)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Migrate(); err != nil {
				return err
			}

			recorder := audit.NewRecorder(st)
			ledgerSvc := ledger.NewService(st, recorder, logger)

			srv := web.NewServer(web.Config{
				Addr:          cfg.Server.Addr(),
				SessionSecret: cfg.Session.Secret,
				SessionMaxAge: cfg.Session.MaxAge,
				Logger:        logger,
				Store:         st,
				Ledger:        ledgerSvc,
				Budget:        budget.NewService(st, logger),
				Reports:       report.NewService(st, logger),
				Auth:          auth.NewService(st, recorder, logger),
				Audit:         recorder,
				CSV:           csvio.NewService(st, ledgerSvc),
				BankRec:       bankrec.NewService(st, recorder, logger),
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Serve(ctx)
		},
	}
}
