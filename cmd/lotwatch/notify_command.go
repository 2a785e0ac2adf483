package main

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/spf13/cobra"

	"lotwatch/internal/device"
)

func newNotifyCommand(ctx *commandContext) *cobra.Command {
	var (
		message string
		fail    bool
		port    int
	)

	cmd := &cobra.Command{
		Use:   "notify <scanner-address>",
		Short: "Send a test alert to a scanner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			addr, err := netip.ParseAddr(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("parse scanner address: %w", err)
			}
			if port <= 0 {
				port = cfg.Device.Port
			}

			// Ignores device.enabled.
			notifier := &device.TCPNotifier{
				Port:         port,
				DialTimeout:  cfg.DialTimeout(),
				WriteTimeout: cfg.WriteTimeout(),
			}
			var commands []device.Command
			if fail {
				commands = append(commands, device.ValidationFailed())
			}
			commands = append(commands, device.Alert(cfg.AlertDuration(), message))

			if err := notifier.Send(cmd.Context(), addr, commands...); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range commands {
				fmt.Fprintf(out, "Sent %s to %s\n", c, netip.AddrPortFrom(addr, uint16(port)))
			}
			if !cfg.Device.Enabled {
				fmt.Fprintln(out, "Note: device.enabled is false; the daemon will not send alerts")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "lotwatch test alert", "Alert text")
	cmd.Flags().BoolVar(&fail, "fail", false, "Also send the validation failure signal")
	cmd.Flags().IntVar(&port, "port", 0, "Override device.port")
	return cmd
}
