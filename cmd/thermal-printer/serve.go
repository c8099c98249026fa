package main

import (
	"context"
	"errors"
	"net"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	_ "thermal_printer/docs"
	"thermal_printer/internal/config"
	"thermal_printer/internal/emulator"
	"thermal_printer/internal/handlers"
	"thermal_printer/internal/logger"
	"thermal_printer/internal/mqtt"
	"thermal_printer/internal/repository"
	"thermal_printer/internal/repository/db"
	"thermal_printer/internal/server"
	"thermal_printer/internal/service"
	"thermal_printer/internal/templates"
	"thermal_printer/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the status poller",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, log)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	sqlDB, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	tpl, err := templates.NewRegistry(cfg.Templates)
	if err != nil {
		return err
	}

	var publisher service.StatusPublisher
	if cfg.MQTT.Enabled {
		p := mqtt.New(mqtt.Config{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			QoS:         byte(cfg.MQTT.QoS),
		}, log)
		if err := p.Start(); err != nil {
			return err
		}
		defer p.Stop()
		publisher = p
	}

	bootstrap := cfg.Printers
	if cfg.Emulator.Enabled {
		emu := emulator.New(cfg.Emulator.Address, log)
		if err := emu.Start(); err != nil {
			return err
		}
		defer func() { _ = emu.Stop() }()
		if ep, ok := endpointOf(emu.Addr()); ok {
			bootstrap = append(bootstrap, ep)
		}
	}

	services := service.NewService(repository.NewRepository(sqlDB), service.Deps{
		Factory:         transport.NetworkFactory,
		Templates:       tpl,
		Publisher:       publisher,
		Log:             log,
		Auth:            service.AuthConfig{SigningKey: cfg.Auth.SigningKey, TokenTTL: cfg.Auth.TokenTTL},
		DefaultPort:     cfg.Printer.DefaultPort,
		PrinterTimeout:  cfg.Printer.Timeout,
		PollConcurrency: cfg.Poll.Concurrency,
	})
	if cfg.Auth.SigningKey == "" {
		log.Warnw("auth.signing_key is not set; sign-in and the /api/v1 routes will reject every request")
	}

	if _, err := services.Restore(ctx); err != nil {
		return err
	}
	bootstrapPrinters(ctx, services, bootstrap, log)

	go services.Poller.Run(ctx, cfg.Poll.Interval)

	srv := server.New(server.Options{WriteTimeout: server.WriteTimeoutFor(cfg.Printer.Timeout)})
	apiHandler := handlers.NewHandler(services, log)
	errCh := make(chan error, 1)
	go func() {
		log.Infow("http_server_started", "port", cfg.Port)
		errCh <- srv.Run(cfg.Port, apiHandler.InitRoutes())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Infow("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// bootstrapPrinters configures the printers listed in the config file that
// are not stored yet. Unreachable printers are logged and skipped.
func bootstrapPrinters(ctx context.Context, services *service.Service, endpoints []config.PrinterEndpoint, log *logger.Logger) {
	for _, ep := range endpoints {
		entry, err := services.Setup.Create(ctx, service.EntryParams{IPAddress: ep.IPAddress, Port: ep.Port})
		switch {
		case err == nil:
			log.Infow("printer_bootstrapped", "entry_id", entry.ID, "printer", entry.Addr())
		case errors.Is(err, service.ErrAlreadyConfigured):
		default:
			log.Warnw("printer_bootstrap_failed", "ip_address", ep.IPAddress, "port", ep.Port, "err", err)
		}
	}
}

func endpointOf(addr string) (config.PrinterEndpoint, bool) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return config.PrinterEndpoint{}, false
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return config.PrinterEndpoint{}, false
	}
	return config.PrinterEndpoint{IPAddress: host, Port: port}, true
}
