package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/indigo-web/simplehttp"
	"github.com/indigo-web/simplehttp/config"
	"github.com/indigo-web/simplehttp/internal/logger"
	"github.com/indigo-web/simplehttp/metrics"
	metricsprom "github.com/indigo-web/simplehttp/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("simplehttp", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "Path to the config file (default: ./simplehttp.yaml, if exists)")
	addr := flags.String("addr", "", "Address to listen on, host:port")
	public := flags.String("public", "", "Directory to serve files from")
	handlerType := flags.String("handler", "", "Handler to serve with (static, inspect)")
	logLevel := flags.String("log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	printConfig := flags.Bool("print-config", false, "Print the resulting config and exit")

	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	override(&cfg.Server.Addr, *addr)
	override(&cfg.Handler.Public, *public)
	override(&cfg.Handler.Type, *handlerType)
	override(&cfg.Logging.Level, *logLevel)
	config.ApplyDefaults(cfg)

	if err = config.Validate(cfg); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if *printConfig {
		if err = config.Write(stdout, cfg); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}

		return 0
	}

	log, closer, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer closer.Close()

	// failures are logged where they happen
	if err = serve(ctx, cfg, log); err != nil {
		return 1
	}

	return 0
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	h, err := config.CreateHandler(cfg.Handler)
	if err != nil {
		log.Error().Err(err).Str("type", cfg.Handler.Type).Msg("failed to create handler")
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app := simplehttp.New(cfg.Server.Addr).
		Tune(cfg).
		Logger(log).
		Metrics(startMetrics(ctx, cfg.Metrics, log))

	go func() {
		<-ctx.Done()
		_ = app.Stop()
	}()

	err = app.Serve(h)
	if errors.Is(err, simplehttp.ErrShutdown) {
		log.Info().Msg("server stopped")
		return nil
	}

	return err
}

func startMetrics(ctx context.Context, cfg config.Metrics, log zerolog.Logger) metrics.ServerMetrics {
	if !cfg.Enabled {
		return metrics.NewNoop()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	server := metricsprom.NewServer(cfg.Addr, reg, log)
	go func() {
		if err := server.Start(ctx); err != nil {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	return metricsprom.New(reg)
}

func override(field *string, value string) {
	if value != "" {
		*field = value
	}
}
