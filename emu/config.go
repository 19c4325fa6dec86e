package emu

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/BurntSushi/toml"

	"nescore/emu/log"
	"nescore/hw/input"
	"nescore/hw/shaders"
)

type Config struct {
	General   GeneralConfig   `toml:"general"`
	Video     VideoConfig     `toml:"video"`
	Input     input.Config    `toml:"input"`
	Emulation EmulationConfig `toml:"emulation"`
	Log       LogConfig       `toml:"log"`

	TraceOut io.WriteCloser `toml:"-"`
}

type GeneralConfig struct {
	// BasePath is the directory holding the snapshot files.
	BasePath string `toml:"base_path"`

	// Palette is the path of a 192 bytes palette file, the built-in palette
	// is used when empty.
	Palette string `toml:"palette"`

	// Restore the ROM snapshot when starting, save it on exit.
	AutoSnapshot bool `toml:"auto_snapshot"`
}

type VideoConfig struct {
	Scale        int    `toml:"scale"`
	DisableVSync bool   `toml:"disable_vsync"`
	Monitor      int32  `toml:"monitor"`
	Shader       string `toml:"shader"`
}

// Check fixes invalid video settings.
func (vcfg *VideoConfig) Check() {
	if vcfg.Scale < 1 {
		vcfg.Scale = 1
	}
	if vcfg.Shader == "" {
		vcfg.Shader = shaders.DefaultName
	}
	if !slices.Contains(shaders.Names(), vcfg.Shader) {
		log.ModEmu.Warnf("Invalid shader name %q, fallback to %q", vcfg.Shader, shaders.DefaultName)
		vcfg.Shader = shaders.DefaultName
	}
}

type EmulationConfig struct {
	RunAheadFrames int `toml:"run_ahead_frames"`
}

type LogConfig struct {
	// Modules lists the log modules with debug output enabled.
	Modules []string `toml:"modules"`
}

// Apply enables the debug output of the configured modules.
func (lcfg LogConfig) Apply() {
	mask, off, err := log.ParseModules(lcfg.Modules)
	if err != nil {
		log.ModEmu.WarnZ("invalid log modules in config").Error("err", err).End()
		return
	}
	if off {
		log.Disable()
		return
	}
	log.EnableDebugModules(mask)
}

const DefaultFileMode = os.FileMode(0755)

var ConfigDir = sync.OnceValue(func() string {
	cfgdir, err := os.UserConfigDir()
	if err != nil {
		log.ModEmu.Fatalf("failed to get user config directory: %v", err)
	}

	dir := filepath.Join(cfgdir, "nescore")
	if err := os.MkdirAll(dir, DefaultFileMode); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

// DefaultConfig returns the configuration used when there's no config file.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			BasePath: filepath.Join(ConfigDir(), "snapshots"),
		},
		Video: VideoConfig{
			Scale:  3,
			Shader: shaders.DefaultName,
		},
		Input: input.DefaultConfig(),
	}
}

const cfgFilename = "config.toml"

// ConfigPath is the path of the configuration file.
func ConfigPath() string { return filepath.Join(ConfigDir(), cfgFilename) }

// LoadConfig reads the configuration at path. Settings absent from the file
// keep their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return DefaultConfig(), err
	}
	cfg.Video.Check()
	return cfg, nil
}

// LoadConfigOrDefault loads the configuration from the nescore config directory,
// or provide a default one.
func LoadConfigOrDefault() Config {
	cfg, err := LoadConfig(ConfigPath())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.ModEmu.WarnZ("invalid config file, using defaults").Error("err", err).End()
	}
	return cfg
}

// EncodeConfig writes cfg in TOML format.
func EncodeConfig(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// SaveConfig into nescore config directory.
func SaveConfig(cfg Config) error {
	var buf bytes.Buffer
	if err := EncodeConfig(&buf, cfg); err != nil {
		return err
	}
	return os.WriteFile(ConfigPath(), buf.Bytes(), 0644)
}
