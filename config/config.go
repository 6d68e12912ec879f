// Package config loads the optional persistent VM/assembler settings file:
// memory segment sizes, the maximum cycle budget a run executes before
// giving up, and whether to build a Huffman-weighted opcode table instead
// of using isa.DefaultOpcodes. One-shot overrides still travel as CLI
// flags (cmd/run68/main.go's own pattern); this file is for geometry a
// user wants to keep between runs rather than retype.
//
// Grounded on cmd/run68/main.go's flag-based per-run knobs (MemorySize,
// StartAddress), generalized to a file-backed settings struct using
// github.com/pelletier/go-toml/v2 — a dependency added here, not
// inherited from the teacher, whose go.mod declares only
// github.com/grimdork/climate.
package config

import (
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/Urethramancer/minimisa/memory"
)

// Config is the persisted knob set. Zero-value fields are not meaningful
// on their own — call Defaults or Load, never build a Config by hand for
// use against memory.New/cmd/run.
type Config struct {
	Segments  memory.Segments `toml:"segments"`
	MaxCycles int             `toml:"max_cycles"`
	Huffman   bool            `toml:"huffman"`
}

// Defaults returns the settings cmd/run68's own hard-coded constants
// would have produced: memory.DefaultSegments and an unbounded cycle
// count (represented as 0; callers treat <= 0 as "no limit", matching the
// teacher's own free-running loop).
func Defaults() Config {
	return Config{
		Segments:  memory.DefaultSegments(),
		MaxCycles: 0,
		Huffman:   false,
	}
}

// Load reads a TOML settings file at path, starting from Defaults so an
// omitted table or field keeps its default rather than zeroing out.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating or truncating the file.
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
