package models

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// DefaultPrinterPort is the raw ESC/POS port network printers listen on.
const DefaultPrinterPort = 9100

// Printer states as exposed to status consumers.
const (
	StateOnline  = "online"
	StateOffline = "offline"
)

// PrinterEntry is one configured printer endpoint.
type PrinterEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	IPAddress string    `json:"ip_address"`
	Port      int       `json:"port"`
	CreatedAt time.Time `json:"created_at"`
}

// Addr returns host:port for dialing.
func (e PrinterEntry) Addr() string {
	return net.JoinHostPort(e.IPAddress, strconv.Itoa(e.Port))
}

// EntryTitle is the display title given to a newly configured printer.
func EntryTitle(ip string) string {
	return fmt.Sprintf("Thermal Printer (%s)", ip)
}

// PrinterStatus is the read-only status of one printer.
type PrinterStatus struct {
	EntryID     string     `json:"entry_id"`
	UniqueID    string     `json:"unique_id"`
	Name        string     `json:"name"`
	State       string     `json:"state"` // online | offline
	IPAddress   string     `json:"ip_address"`
	Port        int        `json:"port"`
	LastUpdated *time.Time `json:"last_updated"`
}

// Online reports whether State is online.
func (s PrinterStatus) Online() bool { return s.State == StateOnline }

// UniqueID is the stable identifier of a printer's status sensor.
func UniqueID(ip string) string {
	return "thermal_printer_" + ip
}
