// Package config loads the xmboot configuration file.
//
// The file describes the serial line, the target device and the transfer
// behaviour of the host tools. Validate applies the same parameter checks
// the device firmware enforces when it is built, so a configuration that
// passes describes a device that could actually exist.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/moffa90/go-xmboot/protocol"
)

// Environment variables that override file values.
const (
	EnvPort = "XMBOOT_PORT"
	EnvBaud = "XMBOOT_BAUD"
	EnvMode = "XMBOOT_MODE"

	// EnvConfig names the configuration file when no path is given.
	EnvConfig = "XMBOOT_CONFIG"
)

// DefaultPath is the configuration file read when neither a flag nor
// EnvConfig names one.
const DefaultPath = "xmboot.yaml"

// Oscillator frequencies selected by clock_select. The CPU runs at half.
var oscillators = map[int]uint32{
	1: 16000000,
	2: 20000000,
}

// Config holds the complete tool configuration.
type Config struct {
	Serial   SerialConfig   `yaml:"serial"`
	Device   DeviceConfig   `yaml:"device"`
	Transfer TransferConfig `yaml:"transfer"`
	Log      LogConfig      `yaml:"log"`

	path string
}

type SerialConfig struct {
	Port     string `yaml:"port"`      // e.g. /dev/ttyUSB0
	BaudRate int    `yaml:"baud_rate"` // 8N1 is fixed
}

// DeviceConfig mirrors the build parameters of the device firmware.
type DeviceConfig struct {
	ClockSelect    int    `yaml:"clock_select"`    // 1 = 16 MHz, 2 = 20 MHz oscillator
	BootloaderSize uint32 `yaml:"bootloader_size"` // bytes, also the application offset
	FlashSize      uint32 `yaml:"flash_size"`
	PageSize       int    `yaml:"page_size"`
	Mode           string `yaml:"mode"` // "crc" or "checksum"
}

type TransferConfig struct {
	Retries          int           `yaml:"retries"`
	ReplyTimeout     time.Duration `yaml:"reply_timeout"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"` // logrus level name
}

// Default returns a configuration for a 20 MHz part with 32 KiB of flash
// and a 2 KiB updater.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyUSB0",
			BaudRate: 230400,
		},
		Device: DeviceConfig{
			ClockSelect:    2,
			BootloaderSize: 2048,
			FlashSize:      32 * 1024,
			PageSize:       64,
			Mode:           "crc",
		},
		Transfer: TransferConfig{
			Retries:          10,
			ReplyTimeout:     10 * time.Second,
			HandshakeTimeout: 60 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error; the defaults are used.
//
// Example:
//
//	cfg, err := config.Load("xmboot.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := config.Validate(cfg); err != nil {
//	    log.Fatal(err)
//	}
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides reads XMBOOT_PORT, XMBOOT_BAUD and XMBOOT_MODE.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvPort); v != "" {
		c.Serial.Port = v
	}
	if v := os.Getenv(EnvBaud); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBaud, err)
		}
		c.Serial.BaudRate = n
	}
	if v := os.Getenv(EnvMode); v != "" {
		c.Device.Mode = v
	}
	return nil
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration to path, or to the file it was loaded from
// when path is empty.
func (c *Config) Save(path string) error {
	if path == "" {
		path = c.path
	}
	if path == "" {
		return fmt.Errorf("save config: no path")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	c.path = path
	return nil
}

// Validate reports the first parameter that the device firmware would
// refuse to build with.
func Validate(c *Config) error {
	d := c.Device

	if _, ok := oscillators[d.ClockSelect]; !ok {
		return fmt.Errorf("device.clock_select: %d is not 1 (16 MHz) or 2 (20 MHz)", d.ClockSelect)
	}
	if d.BootloaderSize == 0 || d.BootloaderSize%256 != 0 {
		return fmt.Errorf("device.bootloader_size: %d is not a non-zero multiple of 256", d.BootloaderSize)
	}
	if d.PageSize <= 0 || d.PageSize&(d.PageSize-1) != 0 || protocol.BlockSize%d.PageSize != 0 {
		return fmt.Errorf("device.page_size: %d does not divide the %d-byte block", d.PageSize, protocol.BlockSize)
	}
	if d.FlashSize < d.BootloaderSize+protocol.BlockSize {
		return fmt.Errorf("device.flash_size: %d leaves no room for an application above %d",
			d.FlashSize, d.BootloaderSize)
	}
	if _, err := protocol.ParseMode(d.Mode); err != nil {
		return fmt.Errorf("device.mode: %w", err)
	}

	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("serial.baud_rate: %d is not positive", c.Serial.BaudRate)
	}
	if d.CPUHz()*4/uint32(c.Serial.BaudRate) < 64 {
		return fmt.Errorf("serial.baud_rate: %d is too high for a %d Hz CPU clock",
			c.Serial.BaudRate, d.CPUHz())
	}

	if c.Transfer.Retries < 0 {
		return fmt.Errorf("transfer.retries: %d is negative", c.Transfer.Retries)
	}
	if c.Transfer.ReplyTimeout <= 0 {
		return fmt.Errorf("transfer.reply_timeout: %s is not positive", c.Transfer.ReplyTimeout)
	}
	if c.Transfer.HandshakeTimeout <= 0 {
		return fmt.Errorf("transfer.handshake_timeout: %s is not positive", c.Transfer.HandshakeTimeout)
	}
	return nil
}

// CPUHz returns the CPU clock, half the selected oscillator, or 0 when
// ClockSelect is invalid.
func (d DeviceConfig) CPUHz() uint32 {
	return oscillators[d.ClockSelect] / 2
}

// HandshakeTicks returns the spin budget between two ready probes, about
// one second on the device.
func (d DeviceConfig) HandshakeTicks() uint32 {
	return d.CPUHz() / 10
}

// ProtocolMode returns the packet format named by Mode.
func (d DeviceConfig) ProtocolMode() (protocol.Mode, error) {
	return protocol.ParseMode(d.Mode)
}
