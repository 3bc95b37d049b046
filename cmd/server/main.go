package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"linechat/internal/chat"
)

func main() {
	addr := flag.String("addr", ":55555", "chat listen address")
	metricsAddr := flag.String("metrics-addr", ":9090", "metrics listen address")
	maxLine := flag.Int("max-line", chat.DefaultMaxLineBytes, "maximum inbound line length in bytes")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	srv := chat.NewServer(chat.Config{Addr: *addr, MaxLineBytes: *maxLine}, logger)
	if err := srv.Start(); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
			logger.Error("metrics endpoint failed", "error", err)
		}
	}()

	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		chat.NewConsole(os.Stdin, srv, logger).Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-consoleDone:
	case <-sigCh:
	}

	srv.Stop()
}
