package cli

import (
	"context"
	"errors"
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

	"github.com/ystepanoff/nrfs/driver/natslink"
	"github.com/ystepanoff/nrfs/metrics"
	"github.com/ystepanoff/nrfs/service"
	"github.com/ystepanoff/nrfs/sysctrl"
	"github.com/ystepanoff/nrfs/transport"
)

const shutdownTimeout = 5 * time.Second

func newSysctrlCmd(st *state) *cobra.Command {
	var (
		centiC     int32
		vbus       bool
		swextMaxUA uint32
	)
	cmd := &cobra.Command{
		Use:   "sysctrl",
		Short: "Run a simulated System Controller",
		Long: `Serve nrfs requests with a simulated System Controller until interrupted.
Prometheus metrics are exposed on metrics.addr when it is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			link, release, err := st.dial(st.cfg, natslink.RoleSysCtrl, st.log)
			if err != nil {
				return err
			}
			defer release()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())
			m := metrics.New(reg)

			log := st.log.WithName("sysctrl")
			opts := []sysctrl.Option{
				sysctrl.WithLogger(log),
				sysctrl.WithMetrics(m),
				sysctrl.WithScalingOnNoResponse(st.cfg.ScalingOnNoResponse),
				sysctrl.WithRejectedServices(st.cfg.RejectServices...),
				sysctrl.WithTemperature(service.TempToRaw(centiC)),
				sysctrl.WithVBUS(vbus),
			}
			if swextMaxUA > 0 {
				opts = append(opts, sysctrl.WithSWEXTCurrentLimit(service.SWEXTLoadCurrentToRaw(swextMaxUA)))
			}
			ctrl := sysctrl.New(transport.NewTransmitterWithLink(link, log, nil), opts...)
			rx := transport.NewReceiverWithLink(link, ctrl.Handle, log)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				rx.Listen(gctx)
				<-gctx.Done()
				rx.StopListening()
				return nil
			})
			if addr := st.cfg.MetricsAddr; addr != "" {
				srv := &http.Server{
					Addr:              addr,
					Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
					ReadHeaderTimeout: 5 * time.Second,
				}
				g.Go(func() error {
					log.Info("Serving metrics", "addr", addr)
					if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
						return err
					}
					return nil
				})
				g.Go(func() error {
					<-gctx.Done()
					sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
					defer cancel()
					return srv.Shutdown(sctx)
				})
			}

			log.Info("System Controller running", "domain", st.cfg.Domain, "rejecting", len(st.cfg.RejectServices))
			if err := g.Wait(); err != nil {
				return err
			}
			log.Info("System Controller stopped")
			return st.formatter.Write(cmd.OutOrStdout(), ctrl.State())
		},
	}
	cmd.Flags().Int32Var(&centiC, "temperature", 2500, "reported temperature in hundredths of a degree Celsius")
	cmd.Flags().BoolVar(&vbus, "vbus", true, "report VBUS as detected")
	cmd.Flags().Uint32Var(&swextMaxUA, "swext-limit", 0, "SWEXT overcurrent limit in µA (0 disables the check)")
	return cmd
}
