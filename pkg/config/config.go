package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"os/user"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

const (
	configDir  string = ".deet"
	configFile string = "config.yml"

	// configDirEnv overrides the configuration directory.
	configDirEnv = "DEET_CONFIG_DIR"
)

const (
	DefaultEntryFunction    = "main"
	DefaultMaxStackDepth    = 64
	DefaultSymbolCacheSize  = 1024
	DefaultDisassembleCount = 8
)

// Config defines all configuration options available to be set through the config file.
type Config struct {
	// Commands aliases.
	Aliases map[string][]string `yaml:"aliases"`

	// Source line-number color (3/4 bit color codes as defined
	// here: https://en.wikipedia.org/wiki/ANSI_escape_code#Colors)
	SourceListLineColor int `yaml:"source-list-line-color"`

	// EntryFunction is the outermost function of the target, backtraces
	// stop after reaching it.
	EntryFunction string `yaml:"entry-function,omitempty"`

	// MaxStackDepth limits how many frames a backtrace walks.
	MaxStackDepth int `yaml:"max-stack-depth,omitempty"`

	// SymbolCacheSize is the number of address lookups kept by the symbol
	// resolver.
	SymbolCacheSize int `yaml:"symbol-cache-size,omitempty"`

	// DisableASLR launches targets with address space randomization turned
	// off so that raw breakpoint addresses stay valid across runs.
	DisableASLR *bool `yaml:"disable-aslr,omitempty"`

	// DisassembleCount is the number of instructions printed by the
	// disassemble command.
	DisassembleCount int `yaml:"disassemble-count,omitempty"`
}

// Default returns a Config with every option set to its default value.
func Default() *Config {
	c := &Config{}
	c.fillDefaults()
	return c
}

func (c *Config) fillDefaults() {
	if c.EntryFunction == "" {
		c.EntryFunction = DefaultEntryFunction
	}
	if c.MaxStackDepth <= 0 {
		c.MaxStackDepth = DefaultMaxStackDepth
	}
	if c.SymbolCacheSize <= 0 {
		c.SymbolCacheSize = DefaultSymbolCacheSize
	}
	if c.DisassembleCount <= 0 {
		c.DisassembleCount = DefaultDisassembleCount
	}
	if c.DisableASLR == nil {
		v := true
		c.DisableASLR = &v
	}
}

// ASLRDisabled reports whether targets should be launched without address
// space randomization.
func (c *Config) ASLRDisabled() bool {
	return c.DisableASLR == nil || *c.DisableASLR
}

// LoadConfig attempts to populate a Config object from the config.yml file.
// Errors are reported on stdout and the defaults are used instead.
func LoadConfig() *Config {
	err := createConfigPath()
	if err != nil {
		fmt.Printf("Could not create config directory: %v.\n", err)
		return Default()
	}
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		fmt.Printf("Unable to get config file path: %v.\n", err)
		return Default()
	}
	c, err := loadConfigFile(fullConfigFile)
	if err != nil {
		fmt.Printf("%v.\n", err)
		return Default()
	}
	return c
}

func loadConfigFile(fullConfigFile string) (*Config, error) {
	f, err := os.Open(fullConfigFile)
	if err != nil {
		f, err = createDefaultConfig(fullConfigFile)
		if err != nil {
			return nil, fmt.Errorf("error creating default config file: %v", err)
		}
	}
	defer func() {
		err := f.Close()
		if err != nil {
			fmt.Printf("Closing config file failed: %v.\n", err)
		}
	}()

	data, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("unable to read config data: %v", err)
	}

	var c Config
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		return nil, fmt.Errorf("unable to decode config file: %v", err)
	}
	c.fillDefaults()
	return &c, nil
}

// SaveConfig will marshal and save the config struct
// to disk.
func SaveConfig(conf *Config) error {
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(*conf)
	if err != nil {
		return err
	}

	f, err := os.Create(fullConfigFile)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(out)
	return err
}

func createDefaultConfig(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to create config file: %v", err)
	}
	err = writeDefaultConfig(f)
	if err != nil {
		return nil, fmt.Errorf("unable to write default configuration: %v", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}
	return f, nil
}

func writeDefaultConfig(f *os.File) error {
	_, err := f.WriteString(
		`# Configuration file for the deet debugger.

# This is the default configuration file. Available options are provided, but disabled.
# Delete the leading hash mark to enable an item.

# Uncomment the following line and set your preferred ANSI foreground color
# for source line numbers (if unset, default is 34, dark blue).
# See https://en.wikipedia.org/wiki/ANSI_escape_code#3/4_bit
# source-list-line-color: 34

# Provided aliases will be added to the default aliases for a given command.
aliases:
  # command: ["alias1", "alias2"]

# Function at which backtraces stop.
# entry-function: main

# Maximum number of frames printed by backtrace.
# max-stack-depth: 64

# Number of address lookups cached by the symbol resolver.
# symbol-cache-size: 1024

# Launch targets with address space randomization turned off.
# disable-aslr: true

# Number of instructions printed by disassemble.
# disassemble-count: 8
`)
	return err
}

// createConfigPath creates the directory structure at which all config files are saved.
func createConfigPath() error {
	path, err := GetConfigFilePath("")
	if err != nil {
		return err
	}
	return os.MkdirAll(path, 0700)
}

// GetConfigFilePath gets the full path to the given config file name.
func GetConfigFilePath(file string) (string, error) {
	if dir := os.Getenv(configDirEnv); dir != "" {
		return filepath.Join(dir, file), nil
	}
	userHomeDir := "."
	usr, err := user.Current()
	if err == nil {
		userHomeDir = usr.HomeDir
	}
	return filepath.Join(userHomeDir, configDir, file), nil
}
