package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var (
		flagIP   string
		flagPort int
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Query a printer's status once",
		Long:  "Send a status query to the printer and print the result as JSON. Exits non-zero when the printer is offline.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connectPrinter(cmd.Context(), cfg, log, flagIP, flagPort)
			if err != nil {
				return err
			}
			st := c.Snapshot()
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(st); err != nil {
				return err
			}
			if !st.Online() {
				return fmt.Errorf("printer %s is offline", c.Entry().Addr())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagIP, "ip", "", "printer IP address or host name")
	cmd.Flags().IntVar(&flagPort, "port", 0, "printer port (default printer.default_port)")
	return cmd
}
