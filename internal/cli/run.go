package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SplicePHP/cakephp/log"
	"github.com/SplicePHP/cakephp/log/conf"
	"github.com/SplicePHP/cakephp/log/metrics"
)

// maxLineBytes caps a single stdin line; anything longer is an input error.
const maxLineBytes = 1 << 20

func runCmd() *cobra.Command {
	var (
		configFile  string
		levelName   string
		scopes      []string
		metricsAddr string
		watch       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Dispatch stdin lines to the configured sinks",
		Long: `Read lines from standard input and dispatch each one as a log entry
through the configured sinks. Each line becomes one entry at the given
level and scopes; sinks whose filters match receive it.

Examples:
  tail -f app.log | cakelog run --config log.yaml
  cakelog run --config log.yaml --level error --scope payment < errors.txt
  cakelog run --config log.yaml --metrics 127.0.0.1:9402 --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level, err := log.ParseLevel(levelName)
			if err != nil {
				return err
			}

			f, err := conf.Load(configFile)
			if err != nil {
				return err
			}
			if err := f.Validate(log.EngineTypes()); err != nil {
				return err
			}

			m := log.New()
			if err := f.Apply(m); err != nil {
				return err
			}
			defer func() {
				if err := m.Reset(); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "cakelog: closing engines: %v\n", err)
				}
			}()

			ctx, cancel := signal.NotifyContext(
				context.Background(),
				syscall.SIGINT,
				syscall.SIGTERM,
			)
			defer cancel()

			if metricsAddr != "" {
				handler, err := metricsHandler(m)
				if err != nil {
					return err
				}
				srv := &http.Server{
					Addr:              metricsAddr,
					Handler:           handler,
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						fmt.Fprintf(cmd.ErrOrStderr(), "cakelog: metrics server: %v\n", err)
					}
				}()
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer shutdownCancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
				fmt.Fprintf(cmd.ErrOrStderr(), "cakelog: metrics at http://%s/metrics\n", metricsAddr)
			}

			if watch {
				r := conf.NewReloader(configFile)
				defer r.Close()
				go func() {
					if err := r.Watch(ctx, m); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "cakelog: config watcher: %v\n", err)
					}
				}()
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "cakelog v%s dispatching %d sinks at level %s\n",
				Version, len(f.Sinks), level)

			lines := make(chan string)
			scanErr := make(chan error, 1)
			go func() {
				defer close(lines)
				scanner := bufio.NewScanner(cmd.InOrStdin())
				scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
				for scanner.Scan() {
					select {
					case lines <- scanner.Text():
					case <-ctx.Done():
						return
					}
				}
				scanErr <- scanner.Err()
			}()

			var total, matched int64
		loop:
			for {
				select {
				case <-ctx.Done():
					break loop
				case line, ok := <-lines:
					if !ok {
						select {
						case err := <-scanErr:
							if err != nil {
								return fmt.Errorf("reading input: %w", err)
							}
						default:
						}
						break loop
					}
					if strings.TrimSpace(line) == "" {
						continue
					}
					total++
					handled, err := m.Write(level, line, scopes...)
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "cakelog: %v\n", err)
						continue
					}
					if handled {
						matched++
					}
				}
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "cakelog: dispatched %d entries (%d handled)\n", total, matched)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "sink configuration file")
	cmd.Flags().StringVarP(&levelName, "level", "l", "info", "severity level for each entry")
	cmd.Flags().StringArrayVarP(&scopes, "scope", "s", nil, "scope for each entry (repeatable)")
	cmd.Flags().StringVar(&metricsAddr, "metrics", "", "address to serve Prometheus metrics on")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload the configuration on file change or SIGHUP")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// metricsHandler returns the handler of the first configured metrics
// sink, building engines along the way.
func metricsHandler(m *log.Manager) (http.Handler, error) {
	for _, name := range m.Configured() {
		eng, err := m.Engine(name)
		if err != nil {
			return nil, err
		}
		if me, ok := eng.(*metrics.Engine); ok {
			return me.Handler(), nil
		}
	}
	return nil, errors.New(`run: --metrics requires a sink of type "metrics" in the configuration`)
}
