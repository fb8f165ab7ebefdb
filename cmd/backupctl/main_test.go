package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marinxz/n-playwright-3.9/browser"
	"github.com/marinxz/n-playwright-3.9/history"
	"github.com/marinxz/n-playwright-3.9/location"
	"github.com/marinxz/n-playwright-3.9/logger"
	"github.com/marinxz/n-playwright-3.9/testutil"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

type mapSecrets map[string]string

func (m mapSecrets) Password(name string) (string, error) {
	if p, ok := m[name]; ok {
		return p, nil
	}
	return "", location.ErrSecretNotFound
}

func (m mapSecrets) SetPassword(name, password string) error {
	m[name] = password
	return nil
}

type testEnv struct {
	app     *app
	fb      *browser.FakeBrowser
	secrets mapSecrets
	out     *bytes.Buffer
	errOut  *bytes.Buffer
	dir     string
	dest    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		fb:      &browser.FakeBrowser{DownloadContent: []byte("-- dump\n")},
		secrets: mapSecrets{},
		out:     &bytes.Buffer{},
		errOut:  &bytes.Buffer{},
		dir:     dir,
		dest:    filepath.Join(dir, "backups"),
	}
	env.app = &app{
		in:     strings.NewReader(""),
		out:    env.out,
		errOut: env.errOut,
		newLauncher: func(logger.Logger) browser.Launcher {
			return env.fb
		},
		install: func() error { return nil },
		secrets: env.secrets,
	}
	return env
}

// writeSettings writes a settings file with one Ferndale section and the
// given [general] lines.
func (e *testEnv) writeSettings(t *testing.T, general ...string) string {
	t.Helper()
	content := fmt.Sprintf(`[general]
%s

[Ferndale]
timeout = 200
download_timeout = 200
headless = yes
user = ops@example.com
password = hunter2
url = https://ferndale.example.com/auth/login
file_destination_linux = %s
file_destination_win = %s
file_name = ferndale.sql
index_checkpoint = https://ferndale.example.com/index
admin_checkpoint = https://ferndale.example.com/admin
data_checkpoint = https://ferndale.example.com/admin/data
user_display_string = Ops User
`, strings.Join(general, "\n"), e.dest, e.dest)

	path := filepath.Join(e.dir, "settings.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (e *testEnv) execute(args ...string) error {
	cmd := newRootCmd(e.app)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(e.dir, ".env")}, args...))
	return cmd.Execute()
}

func TestRoot_RequiresLocation(t *testing.T) {
	env := newTestEnv(t)
	assert.Error(t, env.execute())
	assert.Equal(t, 0, env.fb.Launches())
}

func TestRoot_UnknownLocation(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeSettings(t)

	err := env.execute("-c", path, "Ferndale", "Springfield")
	require.Error(t, err)
	assert.ErrorIs(t, err, location.ErrUnknownLocation)
	assert.Equal(t, 0, env.fb.Launches())
}

func TestRoot_MissingSettingsFile(t *testing.T) {
	env := newTestEnv(t)

	err := env.execute("-c", filepath.Join(env.dir, "missing.ini"), "Ferndale")
	require.Error(t, err)
	assert.ErrorIs(t, err, location.ErrConfigNotFound)
	assert.Equal(t, 0, env.fb.Launches())
}

func TestRoot_Success(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeSettings(t)

	require.NoError(t, env.execute("-c", path, "Ferndale"))

	assert.Contains(t, env.out.String(), "Ferndale: backup saved to "+filepath.Join(env.dest, "ferndale.sql"))
	got, err := os.ReadFile(filepath.Join(env.dest, "ferndale.sql"))
	require.NoError(t, err)
	assert.Equal(t, "-- dump\n", string(got))
	assert.Equal(t, 1, env.fb.Launches())
	assert.Equal(t, 0, env.fb.Running())
	assert.NotContains(t, env.errOut.String(), "hunter2")
}

func TestRoot_FailedRun(t *testing.T) {
	env := newTestEnv(t)
	env.fb.NoDownload = true
	path := env.writeSettings(t)

	err := env.execute("-c", path, "Ferndale")
	assert.ErrorIs(t, err, errRunsFailed)
	assert.Contains(t, env.out.String(), "Ferndale: failed in Downloading (download_timeout)")
	assert.NoFileExists(t, filepath.Join(env.dest, "ferndale.sql"))
}

func TestRoot_JSONOutput(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeSettings(t)

	require.NoError(t, env.execute("-c", path, "-o", "json", "Ferndale"))

	var views []resultView
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &views))
	require.Len(t, views, 1)
	assert.True(t, views[0].Success)
	assert.Equal(t, "Ferndale", views[0].Location)
	assert.NotEmpty(t, views[0].RunID)
}

func TestRoot_DryRun(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeSettings(t)

	require.NoError(t, env.execute("-c", path, "--dry-run", "-o", "yaml", "Ferndale"))

	assert.Equal(t, 0, env.fb.Launches())
	assert.Contains(t, env.out.String(), "location: Ferndale")
	assert.Contains(t, env.out.String(), "file_name: ferndale.sql")
	assert.NotContains(t, env.out.String(), "hunter2")
}

func TestRoot_PasswordFromKeyring(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeSettings(t)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, bytes.Replace(content, []byte("password = hunter2\n"), nil, 1), 0o600))
	env.secrets["Ferndale"] = "from-keyring"

	require.NoError(t, env.execute("-c", path, "Ferndale"))

	sessions := env.fb.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, "from-keyring", sessions[0].Filled(`[placeholder="Password"]`))
}

func TestRoot_InvalidOutput(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeSettings(t)

	assert.Error(t, env.execute("-c", path, "-o", "xml", "Ferndale"))
	assert.Equal(t, 0, env.fb.Launches())
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)
	dsn := filepath.Join(env.dir, "history.db")
	path := env.writeSettings(t, "history_driver = sqlite", "history_dsn = "+dsn)

	require.NoError(t, env.execute("-c", path, "Ferndale"))
	env.out.Reset()

	require.NoError(t, env.execute("-c", path, "history", "--location", "Ferndale"))
	out := env.out.String()
	assert.Contains(t, out, "RUN ID")
	assert.Contains(t, out, "Ferndale")
	assert.Contains(t, out, "success")
	assert.Contains(t, out, filepath.Join(env.dest, "ferndale.sql"))
}

func TestHistory_JSON(t *testing.T) {
	env := newTestEnv(t)
	hcfg := testutil.HistoryConfig(t)
	store := testutil.SetupHistory(t, hcfg)

	testutil.CreateRun(t, store, &history.Run{Location: "Detroit"},
		history.SetFailure("AwaitAdmin", "checkpoint_timeout", "AwaitAdmin: checkpoint not reached"))
	testutil.CreateRun(t, store, &history.Run{Location: "Ferndale"},
		history.SetStatus(history.StatusSuccess), history.SetArtifact("/srv/backups/ferndale.sql", 42))

	path := env.writeSettings(t, "history_driver = sqlite", "history_dsn = "+hcfg.DSN)
	require.NoError(t, env.execute("-c", path, "-o", "json", "history", "--location", "Detroit"))

	var runs []history.Run
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "Detroit", runs[0].Location)
	assert.Equal(t, history.StatusFailed, runs[0].Status)
	assert.Equal(t, "checkpoint_timeout", runs[0].Reason)
}

func TestHistory_Disabled(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeSettings(t)

	err := env.execute("-c", path, "history")
	assert.ErrorIs(t, err, errHistoryDisabled)
}

func TestCredentialsSet(t *testing.T) {
	env := newTestEnv(t)
	env.app.in = strings.NewReader("n3w-secret\n")

	require.NoError(t, env.execute("credentials", "set", "Detroit"))
	assert.Equal(t, "n3w-secret", env.secrets["Detroit"])
	assert.NotContains(t, env.out.String(), "n3w-secret")

	env.app.in = strings.NewReader("x\n")
	assert.ErrorIs(t, env.execute("credentials", "set", "Springfield"), location.ErrUnknownLocation)
	assert.NotContains(t, env.secrets, "Springfield")
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.execute("version"))
	assert.Contains(t, env.out.String(), "backupctl dev")
}

func TestLoadSettings(t *testing.T) {
	env := newTestEnv(t)
	path := env.writeSettings(t, "log_level = debug", "workers = 3", "archive_bucket = backups")

	t.Setenv("BACKUP_GENERAL_WORKERS", "5")
	t.Setenv("BACKUP_GENERAL_ARCHIVE_REGION", "eu-west-1")

	s, err := loadSettings(flags{configFile: path, output: "text", logFormat: "json"})
	require.NoError(t, err)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "json", s.LogFormat)
	assert.Equal(t, 5, s.Workers)
	assert.Equal(t, "backups", s.ArchiveBucket)
	assert.Equal(t, "eu-west-1", s.ArchiveRegion)
	assert.False(t, s.History.Enabled())

	s, err = loadSettings(flags{configFile: path, output: "text", workers: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Workers)
}
