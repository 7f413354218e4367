package serve

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"imagefetch/pkg/config"
	"imagefetch/pkg/logging"
	"imagefetch/pkg/view"
	"imagefetch/pkg/view/wsview"

	"github.com/coreos/go-systemd/v22/activation"
	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func GetCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a browser image view over a websocket",
		Long: `Serve a browser image view over a websocket.

Open the printed address, paste an image URL and watch the progress. Each
websocket connection runs one download; closing the tab cancels it.

Under systemd the socket can be passed with socket activation, in which case
--addr is ignored, and readiness is reported through sd_notify.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := config.FromContext(ctx)
			if addr == "" {
				addr = cfg.Serve.Addr
			}
			ln, err := Listen(addr)
			if err != nil {
				return err
			}
			slog.Info("listening", "url", "http://"+ln.Addr().String())
			return Serve(ctx, ln, wsview.NewMux(NewHandler(ctx)))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from serve.addr)")
	return cmd
}

// NewHandler builds the websocket view from the config in ctx.
func NewHandler(ctx context.Context) *wsview.Handler {
	cfg := config.FromContext(ctx)
	return &wsview.Handler{
		Width:  cfg.View.Width,
		Height: cfg.View.Height,
		Fallback: func(w, h int) image.Image {
			return view.LoadFallback(ctx, cfg.View.Fallback, w, h)
		},
	}
}

// Listen returns the first socket passed by systemd socket activation, or a
// new TCP listener on addr.
func Listen(addr string) (net.Listener, error) {
	activated, err := activation.Listeners()
	if err != nil {
		return nil, fmt.Errorf("failed to read activated sockets: %w", err)
	}
	var ln net.Listener
	for _, l := range activated {
		if l == nil {
			continue
		}
		if ln == nil {
			ln = l
			continue
		}
		slog.Warn("ignoring extra activated socket", "addr", l.Addr())
		l.Close()
	}
	if ln != nil {
		return ln, nil
	}

	ln, err = net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return ln, nil
}

// Serve runs h on ln until ctx ends, then shuts the server down.
func Serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	logger := logging.GetLogger(ctx)
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	notify(logger, daemon.SdNotifyReady)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		notify(logger, daemon.SdNotifyStopping)
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// notify is a no-op outside systemd.
func notify(logger *slog.Logger, state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		logger.Debug("sd_notify failed", "state", state, "err", err)
	}
}
