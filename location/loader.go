package location

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings keys inside a location section.
const (
	KeyTimeout            = "timeout"
	KeyDownloadTimeout    = "download_timeout"
	KeyActionTimeout      = "action_timeout"
	KeyHeadless           = "headless"
	KeyUser               = "user"
	KeyPassword           = "password"
	KeyURL                = "url"
	KeyDestinationLinux   = "file_destination_linux"
	KeyDestinationWindows = "file_destination_win"
	KeyFileName           = "file_name"
	KeyIndexCheckpoint    = "index_checkpoint"
	KeyAdminCheckpoint    = "admin_checkpoint"
	KeyDataCheckpoint     = "data_checkpoint"
	KeyUserDisplayString  = "user_display_string"
	KeyArchivePrefix      = "archive_prefix"
)

// EnvPrefix prefixes environment overrides, e.g. BACKUP_FERNDALE_PASSWORD.
const EnvPrefix = "BACKUP"

// DefaultFile is the settings file looked up when none is given.
const DefaultFile = "download_backup_file.ini"

// Loader resolves location configs from an INI settings file, environment
// overrides and, for passwords, a SecretStore.
type Loader struct {
	Path    string
	GOOS    string
	Secrets SecretStore
}

// NewLoader creates a loader for the running platform. secrets may be nil.
func NewLoader(path string, secrets SecretStore) *Loader {
	if path == "" {
		path = DefaultFile
	}
	return &Loader{
		Path:    path,
		GOOS:    runtime.GOOS,
		Secrets: secrets,
	}
}

// Load returns the validated config for the named location.
func (l *Loader) Load(name string) (*Config, error) {
	if err := CheckKnown(name); err != nil {
		return nil, err
	}

	v, err := l.read()
	if err != nil {
		return nil, err
	}

	section := strings.ToLower(name)
	if len(v.GetStringMap(section)) == 0 {
		return nil, &ConfigurationError{
			Location: name,
			Err:      fmt.Errorf("%w: no [%s] section in %s", ErrUnknownLocation, name, l.Path),
		}
	}

	get := func(key string) string {
		return strings.TrimSpace(v.GetString(section + "." + key))
	}

	cfg := &Config{
		Name:     name,
		User:     get(KeyUser),
		Password: get(KeyPassword),
		LoginURL: get(KeyURL),
		FileName: get(KeyFileName),
		Checkpoints: Checkpoints{
			Index: get(KeyIndexCheckpoint),
			Admin: get(KeyAdminCheckpoint),
			Data:  get(KeyDataCheckpoint),
		},
		UserDisplayString: get(KeyUserDisplayString),
		ArchivePrefix:     get(KeyArchivePrefix),
	}

	if cfg.Timeout, err = parseMillis(name, KeyTimeout, get(KeyTimeout), true); err != nil {
		return nil, err
	}
	if cfg.DownloadTimeout, err = parseMillis(name, KeyDownloadTimeout, get(KeyDownloadTimeout), true); err != nil {
		return nil, err
	}
	if cfg.ActionTimeout, err = parseMillis(name, KeyActionTimeout, get(KeyActionTimeout), false); err != nil {
		return nil, err
	}
	if cfg.Headless, err = parseBool(name, KeyHeadless, get(KeyHeadless)); err != nil {
		return nil, err
	}

	destKey, err := DestinationKey(l.GOOS)
	if err != nil {
		return nil, &ConfigurationError{Location: name, Err: err}
	}
	cfg.FileDestinationPath = get(destKey)

	if cfg.Password == "" && l.Secrets != nil {
		secret, err := l.Secrets.Password(name)
		if err != nil && !errors.Is(err, ErrSecretNotFound) {
			return nil, &ConfigurationError{Location: name, Key: KeyPassword, Err: err}
		}
		cfg.Password = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) read() (*viper.Viper, error) {
	if _, err := os.Stat(l.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ConfigurationError{Key: l.Path, Err: ErrConfigNotFound}
		}
		return nil, &ConfigurationError{Key: l.Path, Err: err}
	}

	v := viper.New()
	v.SetConfigFile(l.Path)
	v.SetConfigType("ini")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, &ConfigurationError{Key: l.Path, Err: fmt.Errorf("failed to read config file: %w", err)}
	}
	return v, nil
}

func parseMillis(location, key, raw string, required bool) (time.Duration, error) {
	if raw == "" {
		if required {
			return 0, &ConfigurationError{Location: location, Key: key, Err: ErrMissingField}
		}
		return 0, nil
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return 0, &ConfigurationError{
			Location: location,
			Key:      key,
			Err:      fmt.Errorf("%w: %q is not a positive number of milliseconds", ErrInvalidField, raw),
		}
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func parseBool(location, key, raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "1", "yes", "true", "on":
		return true, nil
	case "0", "no", "false", "off":
		return false, nil
	case "":
		return false, &ConfigurationError{Location: location, Key: key, Err: ErrMissingField}
	}
	return false, &ConfigurationError{
		Location: location,
		Key:      key,
		Err:      fmt.Errorf("%w: %q is not a boolean", ErrInvalidField, raw),
	}
}
