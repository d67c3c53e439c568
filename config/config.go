// Package config loads the TOML configuration of the Boneless tools.
//
// Example:
//
//	alu_lut = [0x0000, 0x0001, 0x8000, 0x000f, 0x00ff, 0xff00, 0x7fff, 0xffff]
//
//	[constants]
//	STACK = 0x0800
//	UART  = 0xff00
package config

import (
	"errors"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ezrec/boneless/cpu"
	"github.com/ezrec/boneless/translate"
)

var f = translate.From

var (
	ErrLUTSize    = errors.New(f("alu_lut must have exactly 8 entries"))
	ErrLUTValue   = errors.New(f("alu_lut entries must be 16-bit values"))
	ErrUnknownKey = errors.New(f("unknown configuration key"))
)

// ErrKeys lists configuration keys that are not understood.
type ErrKeys []string

func (err ErrKeys) Error() string {
	return f("unknown configuration keys: %v", strings.Join(err, ", "))
}

func (err ErrKeys) Is(target error) bool {
	return target == ErrUnknownKey
}

// Config is the tool configuration.
type Config struct {
	ALULUT    []int          `toml:"alu_lut"`   // ALU immediate table, if not the default.
	Constants map[string]int `toml:"constants"` // Constants predefined for all sources.
}

// Load reads a configuration file.
func Load(path string) (cfg *Config, err error) {
	cfg = &Config{}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		cfg = nil
		return
	}

	err = cfg.check(md)
	if err != nil {
		cfg = nil
	}
	return
}

// Read reads a configuration from a stream.
func Read(r io.Reader) (cfg *Config, err error) {
	cfg = &Config{}
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		cfg = nil
		return
	}

	err = cfg.check(md)
	if err != nil {
		cfg = nil
	}
	return
}

func (cfg *Config) check(md toml.MetaData) (err error) {
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		keys := make(ErrKeys, len(undecoded))
		for n, key := range undecoded {
			keys[n] = key.String()
		}
		err = keys
		return
	}

	if cfg.ALULUT != nil && len(cfg.ALULUT) != len(cpu.LUT{}) {
		err = ErrLUTSize
		return
	}

	for _, value := range cfg.ALULUT {
		if value < -1<<15 || value >= 1<<16 {
			err = ErrLUTValue
			return
		}
	}

	return
}

// Table builds the instruction table for this configuration.
func (cfg *Config) Table() (table *cpu.Table, err error) {
	if cfg == nil || cfg.ALULUT == nil {
		table = cpu.DefaultTable()
		return
	}

	var lut cpu.LUT
	for n, value := range cfg.ALULUT {
		lut[n] = uint16(value)
	}

	return cpu.NewTable(cpu.WithALULUT(lut))
}

// Apply predefines the configured constants in an assembler.
func (cfg *Config) Apply(asm *cpu.Assembler) {
	if cfg == nil {
		return
	}

	for name, value := range cfg.Constants {
		asm.Predefine(name, value)
	}
}
