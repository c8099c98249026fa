package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"thermal_printer/internal/models"
	"thermal_printer/internal/service"
	"thermal_printer/internal/templates"
)

func newPrintCmd() *cobra.Command {
	var (
		flagIP       string
		flagPort     int
		flagContent  string
		flagTemplate string
		flagData     []string
	)

	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print content or a template on one printer",
		Long:  "Print markdown-like content (\"# \" header, \"## \" subheader, \"* \" bullet, \"QR:\" code) or a named template. Use --content - to read the content from stdin.",
		Example: `  thermal-printer print --ip 192.168.1.50 --content "# Hello"
  thermal-printer print --ip 192.168.1.50 --template kanban --data title="Ship it" --data priority=high`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildPrintRequest(cmd.InOrStdin(), flagContent, flagTemplate, flagData)
			if err != nil {
				return err
			}
			tpl, err := templates.NewRegistry(cfg.Templates)
			if err != nil {
				return err
			}

			c, err := connectPrinter(cmd.Context(), cfg, log, flagIP, flagPort)
			if err != nil {
				return err
			}
			reg := service.NewRegistry()
			reg.Add(c)

			entryID := c.Entry().ID
			if err := service.NewPrintingService(reg, tpl, log).Print(cmd.Context(), entryID, req); err != nil {
				return fmt.Errorf("%s: %w", c.Entry().Addr(), err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "printed on %s\n", c.Entry().Addr())
			return nil
		},
	}

	cmd.Flags().StringVar(&flagIP, "ip", "", "printer IP address or host name")
	cmd.Flags().IntVar(&flagPort, "port", 0, "printer port (default printer.default_port)")
	cmd.Flags().StringVar(&flagContent, "content", "", "content to print, - reads stdin")
	cmd.Flags().StringVar(&flagTemplate, "template", "", "template name")
	cmd.Flags().StringArrayVar(&flagData, "data", nil, "template value as key=value, repeatable")
	cmd.MarkFlagsMutuallyExclusive("content", "template")
	return cmd
}

func buildPrintRequest(stdin io.Reader, content, template string, data []string) (models.PrintRequest, error) {
	if content == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return models.PrintRequest{}, fmt.Errorf("read stdin: %w", err)
		}
		content = string(b)
	}
	values, err := parseData(data)
	if err != nil {
		return models.PrintRequest{}, err
	}
	if content == "" && template == "" {
		return models.PrintRequest{}, fmt.Errorf("--content or --template is required")
	}
	return models.PrintRequest{Content: content, Template: strings.TrimSpace(template), Data: values}, nil
}

// parseData turns key=value pairs into template data. Values keep any '='
// after the first one.
func parseData(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --data %q, want key=value", p)
		}
		out[k] = v
	}
	return out, nil
}
