// Package config holds the persistent settings of the tftp command, stored
// as YAML under ~/.config/tftp.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Wa4h1h/go-tftp-client/pkg/transfer"
	"github.com/Wa4h1h/go-tftp-client/pkg/types"
	"github.com/Wa4h1h/go-tftp-client/pkg/utils"
	"github.com/fatih/structs"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	ConfigsDirName = ".config"
	AppDirName     = "tftp"
	FileName       = "config"
	FileExt        = "yml"
)

type Config struct {
	LocalHost string        `mapstructure:"local-host"`
	LocalPort int           `mapstructure:"local-port"`
	Port      int           `mapstructure:"port"`
	Mode      string        `mapstructure:"mode"`
	BlockSize int           `mapstructure:"blksize"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Retries   int           `mapstructure:"retries"`
	Trace     bool          `mapstructure:"trace"`
	LogLevel  string        `mapstructure:"log-level"`
}

func GetDefault() Config {
	return Config{
		LocalHost: transfer.DefaultLocalHost,
		Port:      types.DefaultPort,
		Mode:      types.ModeOctet,
		BlockSize: types.DefaultBlockSize,
		Timeout:   types.DefaultClientTimeout * time.Second,
		Retries:   types.DefaultNumTries,
		LogLevel:  "info",
	}
}

func ToMap(config Config) map[string]any {
	m := map[string]any{}

	for _, field := range structs.Fields(config) {
		m[field.Tag("mapstructure")] = field.Value()
	}

	return m
}

// ToYaml renders config with keys in a stable order.
func ToYaml(config Config) []byte {
	m := ToMap(config)

	keys := maps.Keys(m)
	slices.Sort(keys)

	var builder strings.Builder

	for _, k := range keys {
		builder.WriteString(fmt.Sprintf("%s: %v\n", k, m[k]))
	}

	return []byte(builder.String())
}

// Dir is the directory holding the config file.
func Dir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, ConfigsDirName, AppDirName), nil
}

// Init points v at the config file, writing one with the defaults if it does
// not exist yet. Precedence is flags, then the file, then the defaults.
func Init(v *viper.Viper) error {
	dir, err := Dir()
	if err != nil {
		return err
	}

	for k, val := range ToMap(GetDefault()) {
		v.SetDefault(k, val)
	}

	v.AddConfigPath(dir)
	v.SetConfigName(FileName)
	v.SetConfigType(FileExt)

	err = v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) {
		return fmt.Errorf("config file could not be read: %w", err)
	}

	if err := utils.EnsureDir(dir); err != nil {
		return fmt.Errorf("config directory could not be created: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.%s", FileName, FileExt))

	if err := os.WriteFile(path, ToYaml(GetDefault()), 0o600); err != nil {
		return fmt.Errorf("could not write defaults to config file: %w", err)
	}

	return v.ReadInConfig()
}

func Load(v *viper.Viper) (Config, error) {
	var c Config

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("config could not be decoded: %w", err)
	}

	return c, nil
}

// Transfer turns the settings into the defaults of a transfer.
func (c Config) Transfer() transfer.Config {
	return transfer.Config{
		LocalHost: c.LocalHost,
		LocalPort: c.LocalPort,
		PeerPort:  c.Port,
		Mode:      c.Mode,
		BlockSize: c.BlockSize,
		Timeout:   c.Timeout,
		Retries:   c.Retries,
		Trace:     c.Trace,
	}
}
