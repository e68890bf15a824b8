package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/moffa90/go-xmboot/config"
)

var (
	cfg *config.Config
	log = logrus.New()
)

// Persistent flags. Zero values leave the configuration untouched.
var (
	configPath string
	portName   string
	baudRate   int
	modeName   string
	verbose    bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "configuration file (default $"+config.EnvConfig+" or "+config.DefaultPath+")")
	flags.StringVarP(&portName, "port", "p", "", "serial port")
	flags.IntVarP(&baudRate, "baud", "b", 0, "baud rate")
	flags.StringVarP(&modeName, "mode", "m", "", "packet format: crc or checksum")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log every block")
}

var rootCmd = &cobra.Command{
	Use:           "xmboot",
	Short:         "Firmware updater host tool",
	Long:          "Sends application images to devices running the XMODEM firmware updater",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		failure(err)
		stop()
		os.Exit(1)
	}
}

func loadConfig() error {
	path := configPath
	if path == "" {
		path = os.Getenv(config.EnvConfig)
	}
	if path == "" {
		path = config.DefaultPath
	}

	c, err := config.Load(path)
	if err != nil {
		return err
	}

	if portName != "" {
		c.Serial.Port = portName
	}
	if baudRate != 0 {
		c.Serial.BaudRate = baudRate
	}
	if modeName != "" {
		c.Device.Mode = modeName
	}
	if err := config.Validate(c); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if verbose {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg = c
	return nil
}
