package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"colorctl/pkg/serial"
)

// listPorts enumerates serial ports
var listPorts = serial.GetDetailedPortsList

// listOptions holds the list command flags
type listOptions struct {
	details bool
	format  string
}

// newListCmd represents the list command
func newListCmd() *cobra.Command {
	opts := &listOptions{}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available serial ports",
		Long: `List all available serial ports on the system.

With --details, USB ports show their vendor and product IDs, product name and
serial number, which helps to find the lighting controller among several ports.`,
		Aliases: []string{"ls", "ports"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.OutOrStdout(), opts)
		},
	}

	listCmd.Flags().BoolVarP(&opts.details, "details", "d", false, "show detailed port information")
	listCmd.Flags().StringVarP(&opts.format, "format", "f", "table", "output format (table, csv, json)")

	return listCmd
}

func runList(w io.Writer, opts *listOptions) error {
	switch opts.format {
	case "table", "csv", "json":
	default:
		return fmt.Errorf("unknown output format: %s", opts.format)
	}

	portInfos, err := listPorts()
	if err != nil {
		return fmt.Errorf("error listing ports: %w", err)
	}

	// Display based on format
	switch opts.format {
	case "csv":
		return printPortsCSV(w, portInfos, opts.details)
	case "json":
		return printPortsJSON(w, portInfos, opts.details)
	default:
		printPortsTable(w, portInfos, opts.details)
		return nil
	}
}

func printPortsTable(w io.Writer, portInfos []serial.PortInfo, details bool) {
	if len(portInfos) == 0 {
		fmt.Fprintln(w, "No serial ports found.")
		return
	}

	fmt.Fprintf(w, "Found %d serial port(s):\n", len(portInfos))

	for _, portInfo := range portInfos {
		fmt.Fprintf(w, "  %s", portInfo.Name)

		// Add USB details if available
		if details && portInfo.IsUSB {
			fmt.Fprintf(w, " [USB]")
			if portInfo.VID != "" || portInfo.PID != "" {
				fmt.Fprintf(w, " VID:%s PID:%s", portInfo.VID, portInfo.PID)
			}
			if portInfo.Product != "" {
				fmt.Fprintf(w, " - %s", portInfo.Product)
			}
			if portInfo.SerialNumber != "" {
				fmt.Fprintf(w, " (SN: %s)", portInfo.SerialNumber)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "\nUse 'colorctl run -p <port>' to open the color menu.")
}

func printPortsCSV(w io.Writer, portInfos []serial.PortInfo, details bool) error {
	cw := csv.NewWriter(w)

	if details {
		_ = cw.Write([]string{"port", "is_usb", "vid", "pid", "product", "serial_number"})
		for _, p := range portInfos {
			_ = cw.Write([]string{p.Name, strconv.FormatBool(p.IsUSB), p.VID, p.PID, p.Product, p.SerialNumber})
		}
	} else {
		_ = cw.Write([]string{"port"})
		for _, p := range portInfos {
			_ = cw.Write([]string{p.Name})
		}
	}

	cw.Flush()
	return cw.Error()
}

// portJSON is the detailed JSON form of a port
type portJSON struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"is_usb,omitempty"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	Product      string `json:"product,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
}

func printPortsJSON(w io.Writer, portInfos []serial.PortInfo, details bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if !details {
		names := make([]string, 0, len(portInfos))
		for _, p := range portInfos {
			names = append(names, p.Name)
		}
		return enc.Encode(names)
	}

	out := make([]portJSON, 0, len(portInfos))
	for _, p := range portInfos {
		out = append(out, portJSON{
			Name:         p.Name,
			IsUSB:        p.IsUSB,
			VID:          p.VID,
			PID:          p.PID,
			Product:      p.Product,
			SerialNumber: p.SerialNumber,
		})
	}
	return enc.Encode(out)
}
