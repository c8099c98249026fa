package main

import (
	"context"
	"fmt"
	"strings"

	"thermal_printer/internal/config"
	"thermal_printer/internal/device"
	"thermal_printer/internal/logger"
	"thermal_printer/internal/models"
	"thermal_printer/internal/transport"
)

// connectPrinter builds a controller for ip:port and refreshes its status
// once. The returned controller is not stored anywhere.
func connectPrinter(ctx context.Context, cfg *config.Config, log *logger.Logger, ip string, port int) (*device.Controller, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return nil, fmt.Errorf("--ip is required")
	}
	if port == 0 {
		port = cfg.Printer.DefaultPort
	}
	t, err := transport.NetworkFactory(ip, port)
	if err != nil {
		return nil, err
	}
	entry := models.PrinterEntry{
		ID:        "cli",
		Title:     models.EntryTitle(ip),
		IPAddress: ip,
		Port:      port,
	}
	c := device.NewController(entry, t, log, device.Options{Timeout: cfg.Printer.Timeout})
	c.UpdateStatus(ctx)
	return c, nil
}
