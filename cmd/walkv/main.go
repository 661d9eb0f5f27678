// Command walkv is an interactive key-value store whose every command is
// written to a write-ahead log before it takes effect.
//
// Lines read from stdin are either commands (SET <key> <value>, GET <key>)
// or one of the meta commands:
//
//	.replay   print every transaction in the log
//	.state    print the current state in key order
//	.metrics  print collected metrics
//	.quit     exit
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"walkv/pkg/config"
	"walkv/pkg/metrics"
	"walkv/pkg/query"
	"walkv/pkg/server"
	"walkv/pkg/types"
	"walkv/pkg/wal"
)

func main() {
	configPath := flag.String("config", "walkv.yaml", "path to YAML config")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath, os.Stdin, os.Stdout, os.Stderr); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "walkv: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, in io.Reader, out, logOut io.Writer) error {
	cfg, err := initConfig(configPath)
	if err != nil {
		return err
	}
	logger := initLogger(&cfg, logOut)

	return serve(ctx, cfg, logger, in, out)
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger, in io.Reader, out io.Writer) error {
	journal, err := wal.Open(cfg.WAL, logger)
	if err != nil {
		return fmt.Errorf("failed to init WAL: %w", err)
	}

	mc := metrics.NewPrometheus()
	srv := server.New(journal, server.WithLogger(logger), server.WithMetrics(mc))
	defer func() {
		if cerr := srv.Close(); cerr != nil {
			logger.Error("failed to close server", "error", cerr)
		}
	}()

	logger.Info("walkv started", "backend", cfg.WAL.Backend, "path", cfg.WAL.Path)

	if cfg.Server.RecoverOnStart {
		if _, err := srv.Recover(); err != nil {
			return fmt.Errorf("recovery failed: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := &repl{srv: srv, mc: mc, out: out}
	lines := readLines(ctx, in)
	for {
		select {
		case <-ctx.Done():
			logger.Info("walkv stopped")
			return nil
		case line, ok := <-lines:
			if !ok {
				logger.Info("walkv stopped")
				return nil
			}
			quit, err := r.handle(line)
			if err != nil {
				return err
			}
			if quit {
				logger.Info("walkv stopped")
				return nil
			}
		}
	}
}

// readLines feeds lines from in until EOF or ctx is done.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

type repl struct {
	srv *server.Server
	mc  *metrics.Prometheus
	out io.Writer
}

// handle runs one input line. A returned error is fatal for the session.
func (r *repl) handle(line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}

	switch line {
	case ".quit":
		return true, nil
	case ".replay":
		for tx, err := range r.srv.Log().Replay() {
			if err != nil {
				fmt.Fprintf(r.out, "REPLAY ERROR: %v\n", err)
				break
			}
			fmt.Fprintf(r.out, "REPLAY: %d %s\n", tx.ID, formatCommand(tx.Command))
		}
		return false, nil
	case ".state":
		it := r.srv.State().NewIterator()
		for it.First(); it.Valid(); it.Next() {
			fmt.Fprintf(r.out, "%s = %s\n", it.Key(), it.Value())
		}
		_ = it.Close()
		return false, nil
	case ".metrics":
		if err := r.mc.WriteText(r.out); err != nil {
			fmt.Fprintf(r.out, "ERROR: %v\n", err)
		}
		return false, nil
	}

	cmd := query.Parse(line)
	res, err := r.srv.ExecuteCommand(cmd)
	if err != nil {
		return false, fmt.Errorf("failed to execute %q: %w", line, err)
	}

	switch {
	case cmd.Kind == types.KindGet && res.Found:
		fmt.Fprintln(r.out, res.Value)
	case cmd.Kind == types.KindGet:
		fmt.Fprintln(r.out, "(nil)")
	case cmd.Kind == types.KindSet:
		fmt.Fprintln(r.out, "OK")
	default:
		fmt.Fprintln(r.out, "(nop)")
	}

	return false, nil
}

func formatCommand(cmd types.Command) string {
	switch cmd.Kind {
	case types.KindSet:
		return fmt.Sprintf("SET %s %s", cmd.Key, cmd.Value)
	case types.KindGet:
		return fmt.Sprintf("GET %s", cmd.Key)
	default:
		return "NOP"
	}
}
