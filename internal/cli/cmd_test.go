package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	summaryPayload = `{"data":{"summaries":{"workHours":18000,"focusTime":9000,"breakTime":600,
		"meetingTime":1800,"trackedTime":19800,
		"categories":[{"type":{"name":"Coding"},"trackedTime":7200}]}}}`
	projectsPayload = `{"data":{"projectTimeEntries":[{"duration":3600,"project":{"name":"rizesync"}}]}}`
)

// fakeRize answers both GraphQL queries of a sync pass.
func fakeRize(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		if strings.Contains(req.Query, "projectTimeEntries") {
			_, _ = io.WriteString(w, projectsPayload)
			return
		}
		_, _ = io.WriteString(w, summaryPayload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type testEnv struct {
	dir        string
	vault      string
	configPath string
}

func newTestEnv(t *testing.T, rizeURL string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		vault:      filepath.Join(dir, "vault"),
		configPath: filepath.Join(dir, "config.yaml"),
	}
	cfg := strings.Join([]string{
		"vault_path: " + env.vault,
		"daily_logs_path: Daily",
		"weekly_logs_path: Weekly",
		"rize_api_key: super-secret",
		"rize_api_url: " + rizeURL,
		"ledger_path: " + filepath.Join(dir, "ledger.db"),
		`amqp_url: ""`,
		`google_spreadsheet_id: ""`,
		"log_level: warn",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0644))
	return env
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSyncCmd_WritesNoteAndRecordsRun(t *testing.T) {
	srv := fakeRize(t)
	env := newTestEnv(t, srv.URL)

	out, err := execute(t, "sync", "--config", env.configPath, "--date", "2024-01-01")
	require.NoError(t, err)

	notePath := filepath.Join(env.vault, "Daily", "2024-01-01.md")
	assert.Contains(t, out, "written   daily  2024-01-01 "+notePath)
	assert.Contains(t, out, "1 written, 0 skipped, 0 failed")

	content, err := os.ReadFile(notePath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "rize_work_hours: 5.0\n")
	assert.Contains(t, string(content), "| Coding | 2h 0m |")
	assert.Contains(t, string(content), "| rizesync | 1h 0m |")

	out, err = execute(t, "status", "--config", env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "RUN")
	assert.Contains(t, out, "Notes of run")
	assert.Contains(t, out, "written")
	assert.Contains(t, out, "2024-01-01")
	assert.Contains(t, out, "18000s")

	out, err = execute(t, "status", "--config", env.configPath, "--note", "2024-01-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Last synced")
	assert.Contains(t, out, "written")

	out, err = execute(t, "status", "--config", env.configPath, "--note", "2024-W01", "--kind", "weekly")
	require.NoError(t, err)
	assert.Contains(t, out, "Note weekly 2024-W01 was never synced.")
}

func TestSyncCmd_ModeBothWritesWeeklyNote(t *testing.T) {
	srv := fakeRize(t)
	env := newTestEnv(t, srv.URL)

	out, err := execute(t, "sync", "--config", env.configPath, "--date", "2024-01-03", "--mode", "both")
	require.NoError(t, err)

	assert.Contains(t, out, "2 written")
	assert.FileExists(t, filepath.Join(env.vault, "Daily", "2024-01-03.md"))
	assert.FileExists(t, filepath.Join(env.vault, "Weekly", "2024-W01.md"))
}

func TestSyncCmd_FailedNoteReturnsError(t *testing.T) {
	srv := fakeRize(t)
	env := newTestEnv(t, srv.URL)
	require.NoError(t, os.MkdirAll(filepath.Join(env.vault, "Daily", "2024-01-01.md"), 0755))

	out, err := execute(t, "sync", "--config", env.configPath, "--date", "2024-01-01")

	assert.ErrorIs(t, err, ErrNotesFailed)
	assert.Contains(t, out, "0 written, 0 skipped, 1 failed")
}

func TestSyncCmd_InvalidDate(t *testing.T) {
	_, err := execute(t, "sync", "--date", "18/10/2026")
	assert.Error(t, err)
}

func TestSyncCmd_MissingRequiredConfig(t *testing.T) {
	t.Setenv("OBSIDIAN_VAULT_PATH", "")
	t.Setenv("RIZE_API_KEY", "")
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, err := execute(t, "sync", "--config", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
	assert.Contains(t, err.Error(), "vault_path is required")
	assert.Contains(t, err.Error(), "rize_api_key is required")
}

func TestConfigCmd_RedactsSecrets(t *testing.T) {
	env := newTestEnv(t, "https://api.rize.io/api/v1/graphql")

	out, err := execute(t, "config", "--config", env.configPath, "--vault", "/elsewhere", "--weekly")
	require.NoError(t, err)

	assert.NotContains(t, out, "super-secret")
	assert.Contains(t, out, "vault_path: /elsewhere\n")
	assert.Contains(t, out, "mode: weekly\n")
	assert.Contains(t, out, "http_timeout: 30s\n")
	assert.Contains(t, out, "watch_interval: 1h0m0s\n")
}

func TestStatusCmd_EmptyLedger(t *testing.T) {
	env := newTestEnv(t, "https://api.rize.io/api/v1/graphql")

	out, err := execute(t, "status", "--config", env.configPath)
	require.NoError(t, err)

	assert.Contains(t, out, "No sync runs recorded yet.")
}

func TestEventsCmd_RequiresAMQP(t *testing.T) {
	env := newTestEnv(t, "https://api.rize.io/api/v1/graphql")

	_, err := execute(t, "events", "--config", env.configPath)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "AMQP is not configured")
}
