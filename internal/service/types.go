package service

import "time"

// EntryParams is the setup form for a printer.
type EntryParams struct {
	IPAddress string
	Port      int // 0 selects the default port
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "ONLINE", "OFFLINE", "CONFIGURED", "REMOVED"
}
