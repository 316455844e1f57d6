package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"smeltingmetal.dev/internal/sim/engine"
	"smeltingmetal.dev/internal/transport/ws"
)

func newServeCmd() *cobra.Command {
	var startPass bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept host lifecycle events over websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			rt, err := openRuntime(s)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			if startPass {
				res, err := rt.eng.Handle(ctx, engine.Event{Trigger: engine.TriggerServerStarted})
				if err != nil {
					return err
				}
				printResult(cmd, res)
			}

			srv := &http.Server{
				Addr:              s.Addr,
				Handler:           newMux(rt),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				<-ctx.Done()
				ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel2()
				_ = srv.Shutdown(ctx2)
			}()

			rt.log.Info("listening", zap.String("addr", s.Addr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}
	cmd.Flags().String("addr", ":8080", "http listen address")
	cmd.Flags().BoolVar(&startPass, "start-pass", false, "run a server_started pass before accepting connections")
	return cmd
}

func newMux(rt *runtime) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/ws", ws.NewServer(rt.eng, rt.log).Handler())
	return mux
}
