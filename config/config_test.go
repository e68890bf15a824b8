package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/moffa90/go-xmboot/protocol"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Validate(Default()) error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantKey string
	}{
		{"clock select zero", func(c *Config) { c.Device.ClockSelect = 0 }, "device.clock_select"},
		{"clock select three", func(c *Config) { c.Device.ClockSelect = 3 }, "device.clock_select"},
		{"bootloader size zero", func(c *Config) { c.Device.BootloaderSize = 0 }, "device.bootloader_size"},
		{"bootloader size unaligned", func(c *Config) { c.Device.BootloaderSize = 1000 }, "device.bootloader_size"},
		{"page size zero", func(c *Config) { c.Device.PageSize = 0 }, "device.page_size"},
		{"page size not power of two", func(c *Config) { c.Device.PageSize = 48 }, "device.page_size"},
		{"page size above block", func(c *Config) { c.Device.PageSize = 256 }, "device.page_size"},
		{"flash too small", func(c *Config) { c.Device.FlashSize = 2048 + 64 }, "device.flash_size"},
		{"unknown mode", func(c *Config) { c.Device.Mode = "ymodem" }, "device.mode"},
		{"baud zero", func(c *Config) { c.Serial.BaudRate = 0 }, "serial.baud_rate"},
		{"baud too high for 10 MHz", func(c *Config) { c.Serial.BaudRate = 1000000 }, "serial.baud_rate"},
		{"baud too high for 8 MHz", func(c *Config) {
			c.Device.ClockSelect = 1
			c.Serial.BaudRate = 600000
		}, "serial.baud_rate"},
		{"negative retries", func(c *Config) { c.Transfer.Retries = -1 }, "transfer.retries"},
		{"zero reply timeout", func(c *Config) { c.Transfer.ReplyTimeout = 0 }, "transfer.reply_timeout"},
		{"zero handshake timeout", func(c *Config) { c.Transfer.HandshakeTimeout = 0 }, "transfer.handshake_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Validate() succeeded, want error")
			}
			if !strings.HasPrefix(err.Error(), tt.wantKey) {
				t.Errorf("Validate() error = %q, want it to name %s", err, tt.wantKey)
			}
		})
	}
}

func TestValidateAcceptsLimits(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"16 MHz at 500000 baud", func(c *Config) {
			c.Device.ClockSelect = 1
			c.Serial.BaudRate = 500000
		}},
		{"page equals block", func(c *Config) { c.Device.PageSize = 128 }},
		{"one block of application", func(c *Config) { c.Device.FlashSize = 2048 + 128 }},
		{"checksum mode", func(c *Config) { c.Device.Mode = "checksum" }},
		{"no retries", func(c *Config) { c.Transfer.Retries = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := Validate(cfg); err != nil {
				t.Errorf("Validate() error: %v", err)
			}
		})
	}
}

func TestDeviceDerivedValues(t *testing.T) {
	tests := []struct {
		clockSelect int
		wantHz      uint32
		wantTicks   uint32
	}{
		{1, 8000000, 800000},
		{2, 10000000, 1000000},
		{5, 0, 0},
	}

	for _, tt := range tests {
		d := DeviceConfig{ClockSelect: tt.clockSelect}
		if got := d.CPUHz(); got != tt.wantHz {
			t.Errorf("clock_select %d: CPUHz() = %d, want %d", tt.clockSelect, got, tt.wantHz)
		}
		if got := d.HandshakeTicks(); got != tt.wantTicks {
			t.Errorf("clock_select %d: HandshakeTicks() = %d, want %d", tt.clockSelect, got, tt.wantTicks)
		}
	}

	mode, err := DeviceConfig{Mode: "checksum"}.ProtocolMode()
	if err != nil || mode != protocol.ModeChecksum {
		t.Errorf("ProtocolMode() = %v, %v; want checksum", mode, err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Serial.BaudRate != Default().Serial.BaudRate {
		t.Errorf("BaudRate = %d, want default", cfg.Serial.BaudRate)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xmboot.yaml")
	content := `
serial:
  port: /dev/ttyACM3
device:
  clock_select: 1
  page_size: 128
transfer:
  reply_timeout: 2s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Serial.Port != "/dev/ttyACM3" {
		t.Errorf("Port = %q", cfg.Serial.Port)
	}
	if cfg.Device.ClockSelect != 1 || cfg.Device.PageSize != 128 {
		t.Errorf("Device = %+v", cfg.Device)
	}
	if cfg.Transfer.ReplyTimeout != 2*time.Second {
		t.Errorf("ReplyTimeout = %s, want 2s", cfg.Transfer.ReplyTimeout)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Serial.BaudRate != 230400 || cfg.Device.BootloaderSize != 2048 {
		t.Errorf("defaults lost: baud %d, bootloader %d", cfg.Serial.BaudRate, cfg.Device.BootloaderSize)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("serial: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() succeeded on malformed YAML")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "/dev/ttyS9")
	t.Setenv(EnvBaud, "115200")
	t.Setenv(EnvMode, "checksum")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Serial.Port != "/dev/ttyS9" || cfg.Serial.BaudRate != 115200 || cfg.Device.Mode != "checksum" {
		t.Errorf("overrides not applied: %+v %+v", cfg.Serial, cfg.Device)
	}
}

func TestEnvOverrideBadBaud(t *testing.T) {
	t.Setenv(EnvBaud, "fast")

	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("Load() accepted a non-numeric baud override")
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")

	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB7"
	cfg.Device.Mode = "checksum"
	cfg.Transfer.Retries = 3
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Serial.Port != "/dev/ttyUSB7" || got.Device.Mode != "checksum" || got.Transfer.Retries != 3 {
		t.Errorf("reloaded config = %+v", got)
	}
	if err := Validate(got); err != nil {
		t.Errorf("Validate(reloaded) error: %v", err)
	}
}

func TestSaveWithoutPath(t *testing.T) {
	if err := Default().Save(""); err == nil {
		t.Error("Save(\"\") succeeded on a config with no path")
	}
}
