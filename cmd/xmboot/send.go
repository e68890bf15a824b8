package main

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/moffa90/go-xmboot/image"
	"github.com/moffa90/go-xmboot/protocol"
	"github.com/moffa90/go-xmboot/sender"
	"github.com/moffa90/go-xmboot/serialport"
)

var triggerFirst bool

func init() {
	sendCmd.Flags().BoolVarP(&triggerFirst, "trigger", "t", false, "ask a running application to enter the updater first")
	rootCmd.AddCommand(sendCmd)
}

var sendCmd = &cobra.Command{
	Use:   "send IMAGE",
	Short: "Send an application image to the device",
	Long: "Sends a binary or Intel HEX application image to a device in update mode.\n" +
		"Reset the device with the button held (or use --trigger) and run this command.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := image.Parse(args[0])
		if err != nil {
			return err
		}
		if err := checkImage(img); err != nil {
			return err
		}
		if img.Size() == 0 {
			ok, err := confirm("The image is empty; mark the device application valid anyway")
			if err != nil || !ok {
				return err
			}
		}

		port, err := serialport.Open(cfg.Serial.Port, cfg.Serial.BaudRate)
		if err != nil {
			return err
		}
		defer port.Close()

		if triggerFirst {
			if err := sender.Trigger(port); err != nil {
				return err
			}
			log.WithField("port", cfg.Serial.Port).Debug("trigger byte sent")
		}

		mode, err := cfg.Device.ProtocolMode()
		if err != nil {
			return err
		}

		bar := progressbar.NewOptions(img.Size(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("Sending"),
			progressbar.OptionShowBytes(true),
		)

		s := sender.New(port,
			sender.WithMode(mode),
			sender.WithRetries(cfg.Transfer.Retries),
			sender.WithReplyTimeout(cfg.Transfer.ReplyTimeout),
			sender.WithHandshakeTimeout(cfg.Transfer.HandshakeTimeout),
			sender.WithLogger(newFieldLogger("sender")),
			sender.WithProgressCallback(func(p sender.Progress) {
				switch p.Phase {
				case sender.PhaseHandshake:
					notice("Waiting for the device on %s (%s)...", cfg.Serial.Port, mode)
				case sender.PhaseSending:
					_ = bar.Set(p.BytesSent)
				case sender.PhaseComplete:
					_ = bar.Finish()
					fmt.Println()
				}
			}),
		)

		result, err := s.Send(cmd.Context(), img.Data)
		if err != nil {
			fmt.Println()
			return err
		}

		success("%d bytes in %d blocks (%d retransmitted) in %s",
			img.Size(), result.Blocks, result.Retransmissions, result.Elapsed.Round(time.Millisecond))
		return nil
	},
}

// checkImage makes sure the image loads at the application start and fits
// in the application section.
func checkImage(img *image.Image) error {
	start := cfg.Device.BootloaderSize
	if img.Base != 0 && img.Base != start {
		return fmt.Errorf("image loads at 0x%04X, the application starts at 0x%04X", img.Base, start)
	}

	capacity := cfg.Device.FlashSize - start
	if uint32(img.BlockCount()*protocol.BlockSize) > capacity {
		return fmt.Errorf("image needs %d bytes, the application section holds %d",
			img.BlockCount()*protocol.BlockSize, capacity)
	}
	return nil
}
