// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/message"

	"github.com/walteh/kousei/cmd/kousei/opts"
	"github.com/walteh/kousei/pkg/config"
	"github.com/walteh/kousei/pkg/host/bridge"
	"github.com/walteh/kousei/pkg/i18n"
	"github.com/walteh/kousei/pkg/log"
	"github.com/walteh/kousei/pkg/rules"
)

const shutdownTimeout = 5 * time.Second

type serveFlags struct {
	addr           string
	allowedOrigins []string
}

// NewServeCmd creates the serve command
func NewServeCmd(opts *opts.RootOpts) *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the editor bridge",
		Long: `Serve accepts editor plugin connections over websocket at /ws.
The config file is watched; rule and locale changes apply to the next request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			lis, err := net.Listen("tcp", flags.addr)
			if err != nil {
				return errors.Errorf("listening on %s: %w", flags.addr, err)
			}
			return serve(ctx, opts, lis, flags.allowedOrigins)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "127.0.0.1:7357", "address to listen on")
	cmd.Flags().StringSliceVar(&flags.allowedOrigins, "allow-origin", nil, "browser origins allowed to connect")

	return cmd
}

// liveSettings is what the config watcher swaps in while the bridge runs
type liveSettings struct {
	rules   atomic.Pointer[[]rules.Rule]
	printer atomic.Pointer[message.Printer]
}

func (s *liveSettings) update(ctx context.Context, cfg *config.Config, locale string) {
	rs, err := rules.Load(cfg)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("invalid rules in config, keeping previous")
	} else {
		s.rules.Store(&rs)
	}
	if locale == "" {
		locale = cfg.Locale
	}
	s.printer.Store(i18n.Printer(locale))
}

func serve(ctx context.Context, opts *opts.RootOpts, lis net.Listener, allowedOrigins []string) error {
	logger := zerolog.Ctx(ctx)
	console := log.FromContext(ctx)

	live := &liveSettings{}
	live.update(ctx, opts.Store.Config(), opts.Locale)
	if live.rules.Load() == nil {
		defaults := rules.Defaults()
		live.rules.Store(&defaults)
	}

	srv := bridge.NewServer(bridge.Options{
		Rules:          func() []rules.Rule { return *live.rules.Load() },
		Credentials:    opts.Store,
		NewCorrector:   opts.NewCorrector,
		Printer:        live.printer.Load,
		AllowedOrigins: allowedOrigins,
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", srv)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	httpServer := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		console.Infof("editor bridge listening on ws://%s/ws", lis.Addr())
		if err := httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Errorf("serving: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		return opts.Store.Watch(gctx, func(cfg *config.Config) {
			live.update(gctx, cfg, opts.Locale)
			logger.Info().Str("path", opts.Store.Path()).Msg("config reloaded")
		})
	})

	group.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down editor bridge")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("closing editor connections")
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return errors.Errorf("shutting down http server: %w", err)
		}
		return nil
	})

	return group.Wait()
}
