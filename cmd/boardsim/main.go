// Command boardsim is a small demo CLI wiring a devices/console driver,
// a devices/led capture and a devices/uartline decoder onto one shared
// wire and running the board for a fixed number of cycles, purely to
// exercise the kernel end to end. It is not part of the simulation
// kernel itself.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"boardsim/board"
	"boardsim/component"
	"boardsim/devices/console"
	"boardsim/devices/led"
	"boardsim/devices/uartline"
	"boardsim/vcdcfg"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		freq      float64
		cycles    int
		vcdPath   string
		vcdCfgSrc string
	)

	cmd := &cobra.Command{
		Use:   "boardsim",
		Short: "Run a small demo board through the simulation kernel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := component.Enable()
			if vcdCfgSrc != "" {
				parsed, err := vcdcfg.Parse(vcdCfgSrc)
				if err != nil {
					return fmt.Errorf("parsing --vcdcfg: %w", err)
				}
				cfg = parsed
			}
			return runDemo(freq, cycles, vcdPath, cfg)
		},
	}

	cmd.Flags().Float64Var(&freq, "freq", 1e6, "clock frequency in Hz")
	cmd.Flags().IntVar(&cycles, "cycles", 100, "number of full clock cycles to simulate")
	cmd.Flags().StringVar(&vcdPath, "vcd", "boardsim.vcd", "output VCD file path")
	cmd.Flags().StringVar(&vcdCfgSrc, "vcdcfg", "", "vcdcfg DSL source overriding which signals are captured")

	return cmd
}

// runDemo wires a console that pokes a TX line to feed a UART decoder,
// with an LED mirroring TX, and simulates cycles full clock cycles.
func runDemo(freq float64, cycles int, vcdPath string, cfg component.VcdConfig) error {
	b, err := board.New(vcdPath, freq)
	if err != nil {
		return fmt.Errorf("board.New: %w", err)
	}
	b.SetLogger(log.Default())

	bitNS := 1e9 / 9600.0
	script := []string{
		"poke tx low",
		fmt.Sprintf("wait %f", bitNS),
		"poke tx high",
		fmt.Sprintf("wait %f", bitNS*9),
	}
	driver := console.New(console.Params{
		Pins:   []string{"tx"},
		Script: script,
		Logger: log.Default(),
	})
	lamp := led.New(led.Params{})
	decoder := uartline.New(uartline.Params{BaudHz: 9600})

	driverID := b.AddComponentThreaded(driver, "console", cfg.Child("console"))
	lampID := b.AddComponentClocked(lamp, "led", cfg.Child("led"))
	decoderID := b.AddComponentThreaded(decoder, "uart", cfg.Child("uart"))

	if _, err := b.AddWire(
		board.PinRef{Component: driverID, Pin: 0},
		board.PinRef{Component: lampID, Pin: 0},
		board.PinRef{Component: decoderID, Pin: 0},
	); err != nil {
		return fmt.Errorf("board.AddWire: %w", err)
	}

	if err := b.Simulate(cycles); err != nil {
		return fmt.Errorf("board.Simulate: %w", err)
	}

	fmt.Printf("wrote %s\n", vcdPath)
	return nil
}
