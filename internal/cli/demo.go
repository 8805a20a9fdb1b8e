package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ystepanoff/nrfs"
	"github.com/ystepanoff/nrfs/protocol"
	"github.com/ystepanoff/nrfs/service"
	"github.com/ystepanoff/nrfs/sysctrl"
)

type demoStep struct {
	name string
	run  func(sys *nrfs.System, ctx protocol.Context) error
}

var demoSteps = []demoStep{
	{"clock lfclk xo-pierce", func(s *nrfs.System, ctx protocol.Context) error {
		return s.Clock.LFClkSrcSet(service.ClockSourceXOPierce, ctx)
	}},
	{"dvfs oppoint low", func(s *nrfs.System, ctx protocol.Context) error {
		return s.DVFS.OppointRequest(service.DVFSFreqLow, ctx)
	}},
	{"temp measure", func(s *nrfs.System, ctx protocol.Context) error {
		return s.Temp.MeasureRequest(ctx)
	}},
	{"dvfs oppoint high", func(s *nrfs.System, ctx protocol.Context) error {
		return s.DVFS.OppointRequest(service.DVFSFreqHigh, ctx)
	}},
}

func newDemoCmd(st *state) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a clock change and a DVFS handshake against an in-process System Controller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lb := nrfs.NewLoopback(
				[]sysctrl.Option{
					sysctrl.WithScalingOnNoResponse(st.cfg.ScalingOnNoResponse),
					sysctrl.WithRejectedServices(st.cfg.RejectServices...),
				},
				nrfs.WithServices(st.cfg.Services...),
				nrfs.WithLogger(st.log),
				nrfs.WithNoResponsePolicy(st.cfg.NoResponsePolicy),
			)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			lb.Start(ctx)
			defer lb.Stop()

			results := make(chan Result, 16)
			if err := initAll(lb.System, results, st.log); err != nil {
				return err
			}

			var all []Result
			for i, step := range demoSteps {
				tok := protocol.Context(i + 1)
				if err := step.run(lb.System, tok); err != nil {
					return fmt.Errorf("%s: %w", step.name, err)
				}
				wctx, wcancel := context.WithTimeout(ctx, timeout)
				got, err := wait(wctx, results)
				wcancel()
				if err != nil {
					return fmt.Errorf("%s: no reply within %s", step.name, timeout)
				}
				all = append(all, got...)
			}
			return st.formatter.Write(cmd.OutOrStdout(), all)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", time.Second, "how long to wait for each reply")
	return cmd
}
