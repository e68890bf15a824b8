package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-xmboot/bootloader"
	"github.com/moffa90/go-xmboot/serialport"
	"github.com/moffa90/go-xmboot/sim"
)

var emulateProgrammed bool

func init() {
	emulateCmd.Flags().BoolVar(&emulateProgrammed, "programmed", false, "start with a valid application instead of an erased flag")
	rootCmd.AddCommand(emulateCmd)
}

var emulateCmd = &cobra.Command{
	Use:   "emulate",
	Short: "Emulate a device on a serial port",
	Long: "Runs a simulated device with the configured memory layout on the serial port,\n" +
		"so host tooling can be exercised through a null-modem cable or pty pair.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := cfg.Device.ProtocolMode()
		if err != nil {
			return err
		}

		port, err := serialport.Open(cfg.Serial.Port, cfg.Serial.BaudRate)
		if err != nil {
			return err
		}
		defer port.Close()

		link, err := serialport.NewTransport(port)
		if err != nil {
			return err
		}

		var flag byte = sim.ErasedByte
		if emulateProgrammed {
			flag = bootloader.FlagProgrammed
		}
		board := sim.NewBoard(
			sim.WithFlashSize(int(cfg.Device.FlashSize)),
			sim.WithPageSize(cfg.Device.PageSize),
			sim.WithFlag(flag),
		)

		notice("Emulating a %d byte device on %s (%s, application at 0x%04X)",
			cfg.Device.FlashSize, cfg.Serial.Port, mode, cfg.Device.BootloaderSize)

		logger := newFieldLogger("device")
		err = board.Emulate(cmd.Context(), link,
			bootloader.WithMode(mode),
			bootloader.WithAppStart(cfg.Device.BootloaderSize),
			bootloader.WithHandshakeTicks(uint32(time.Second/time.Millisecond)),
			bootloader.WithLogger(logger),
			bootloader.WithProgressCallback(func(p bootloader.Progress) {
				if p.Phase == bootloader.PhaseComplete {
					logger.Info("session complete", "blocks", p.BlocksWritten, "bytes", p.BytesWritten,
						"rejected", p.Rejected, "elapsed", p.ElapsedTime.Round(time.Millisecond))
				}
			}),
		)
		if errors.Is(err, context.Canceled) {
			success("Emulation stopped after %d resets", board.Resets())
			return nil
		}
		return err
	},
}
