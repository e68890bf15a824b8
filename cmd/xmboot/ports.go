package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-xmboot/serialport"
)

func init() {
	rootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := serialport.Ports()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			warn("no serial ports found")
			return nil
		}
		for _, p := range ports {
			if p == cfg.Serial.Port {
				fmt.Println(p, cyan("(configured)"))
				continue
			}
			fmt.Println(p)
		}
		return nil
	},
}
