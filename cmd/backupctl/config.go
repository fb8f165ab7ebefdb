package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/marinxz/n-playwright-3.9/history"
	"github.com/marinxz/n-playwright-3.9/location"
	"github.com/marinxz/n-playwright-3.9/logger"
	"github.com/marinxz/n-playwright-3.9/workflow"
)

// generalSection holds process-wide settings inside the location settings file.
const generalSection = "general"

type flags struct {
	configFile string
	envFile    string
	logLevel   string
	logFormat  string
	output     string
	dryRun     bool
	workers    int
}

func (f *flags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&f.configFile, "config", "c", location.DefaultFile, "Settings file (env: BACKUP_CONFIG)")
	cmd.PersistentFlags().StringVar(&f.envFile, "env-file", ".env", "Environment file loaded before the settings file")
	cmd.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&f.logFormat, "log-format", "", "Log format: json or text")
	cmd.PersistentFlags().StringVarP(&f.output, "output", "o", "text", "Output format: text, json or yaml")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Resolve and print the location settings without starting a browser")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Locations retrieved at the same time")
}

// settings are the resolved process-wide options.
type settings struct {
	ConfigFile    string
	LogLevel      string
	LogFormat     string
	Output        string
	Workers       int
	History       history.Config
	ArchiveBucket string
	ArchiveRegion string
}

// init loads the env file, resolves settings and builds the logger.
func (a *app) init() error {
	if err := godotenv.Load(a.flags.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", a.flags.envFile, err)
	}

	s, err := loadSettings(a.flags)
	if err != nil {
		return err
	}
	a.settings = s
	a.logger = logger.NewLogrusLogger(s.LogLevel, s.LogFormat, a.errOut)
	return nil
}

// loadSettings reads the [general] section of the settings file. Flags win
// over BACKUP_GENERAL_* variables, which win over the file.
func loadSettings(f flags) (settings, error) {
	v := viper.New()
	v.SetDefault(key("log_level"), "info")
	v.SetDefault(key("log_format"), "text")
	v.SetDefault(key("workers"), workflow.DefaultWorkers)
	v.SetDefault(key("history_driver"), "")
	v.SetDefault(key("history_dsn"), "")
	v.SetDefault(key("archive_bucket"), "")
	v.SetDefault(key("archive_region"), "")

	v.SetEnvPrefix(location.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configFile := f.configFile
	if env := os.Getenv(location.EnvPrefix + "_CONFIG"); env != "" && configFile == location.DefaultFile {
		configFile = env
	}

	// A missing file is reported per location by the loader.
	if _, err := os.Stat(configFile); err == nil {
		v.SetConfigFile(configFile)
		v.SetConfigType("ini")
		if err := v.ReadInConfig(); err != nil {
			return settings{}, fmt.Errorf("failed to read %s: %w", configFile, err)
		}
	}

	if f.logLevel != "" {
		v.Set(key("log_level"), f.logLevel)
	}
	if f.logFormat != "" {
		v.Set(key("log_format"), f.logFormat)
	}
	if f.workers > 0 {
		v.Set(key("workers"), f.workers)
	}

	s := settings{
		ConfigFile: configFile,
		LogLevel:   v.GetString(key("log_level")),
		LogFormat:  v.GetString(key("log_format")),
		Output:     strings.ToLower(f.output),
		Workers:    v.GetInt(key("workers")),
		History: history.Config{
			Driver: v.GetString(key("history_driver")),
			DSN:    v.GetString(key("history_dsn")),
		},
		ArchiveBucket: v.GetString(key("archive_bucket")),
		ArchiveRegion: v.GetString(key("archive_region")),
	}

	switch s.Output {
	case "text", "json", "yaml":
	default:
		return settings{}, fmt.Errorf("unsupported output format: %s", f.output)
	}
	switch strings.ToLower(s.LogFormat) {
	case "text", "json":
	default:
		return settings{}, fmt.Errorf("unsupported log format: %s", s.LogFormat)
	}
	return s, nil
}

func key(name string) string {
	return generalSection + "." + name
}
