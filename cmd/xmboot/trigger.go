package main

import (
	"github.com/spf13/cobra"

	"github.com/moffa90/go-xmboot/sender"
	"github.com/moffa90/go-xmboot/serialport"
)

func init() {
	rootCmd.AddCommand(triggerCmd)
}

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Ask the running application to enter the updater",
	Long: "Sends one byte to the running application, which erases its valid flag and resets.\n" +
		"The device then stays in update mode until a new image is sent.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := confirm("Invalidate the application on " + cfg.Serial.Port)
		if err != nil || !ok {
			return err
		}

		port, err := serialport.Open(cfg.Serial.Port, cfg.Serial.BaudRate)
		if err != nil {
			return err
		}
		defer port.Close()

		if err := sender.Trigger(port); err != nil {
			return err
		}
		success("Device on %s asked to enter update mode", cfg.Serial.Port)
		return nil
	},
}
