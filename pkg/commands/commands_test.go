package commands

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TopAnalyzer/pkg/config"
	"TopAnalyzer/pkg/ingesting"
)

const topLog = `top - 10:00:00 up 1 day,  1 user,  load average: 0.00, 0.01, 0.05
Tasks: 2 total,   1 running,   1 sleeping,   0 stopped,   0 zombie

PID USER PR NI VIRT RES SHR S %CPU %MEM TIME+ COMMAND
100 root 20 0 1000 100 10 R 1,0 0,1 0:01.00 server
200 user 20 0 2000 200 20 S 0,0 0,2 0:00.50 client
100 root 20 0 1100 110 10 R 2,0 0,1 0:02.00 server
200 user 20 0 2000 200 20 R 5,5 0,2 0:00.60 client
`

func resetConfig() {
	Cfg = config.New()
	configPath = ""
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetConfig()
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeTopLog(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "exp", "host")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "top.log"), []byte(topLog), 0644))
	return root
}

func TestIngestAndExport(t *testing.T) {
	root := writeTopLog(t)
	out := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(out, 0755))

	stdout, err := runCLI(t, "ingest", "--export", "-f", "jsonl", "-o", out, root)
	require.NoError(t, err)
	assert.Contains(t, stdout, "4 records")

	_, err = os.Stat(filepath.Join(out, "exp-host.jsonl"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "exp-host_summary.json"))
	assert.NoError(t, err)

	// The export charts like the raw log.
	_, err = runCLI(t, "graph", "-o", out, filepath.Join(out, "exp-host.jsonl"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "exp-host.html"))
	assert.NoError(t, err)
}

func TestGraphPNG(t *testing.T) {
	root := writeTopLog(t)
	out := t.TempDir()

	_, err := runCLI(t, "graph", "--graph-format", "png", "--metrics", "virt", "-o", out, root)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "exp-host_graphs", "exp-host-virtual-mem.png"))
	assert.NoError(t, err)
}

func TestIngestRejectsBadConfig(t *testing.T) {
	root := writeTopLog(t)
	_, err := runCLI(t, "ingest", "--policy", "sloppy", root)
	assert.Error(t, err)
}

func TestIngestStrictFailure(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "top.log")
	require.NoError(t, os.WriteFile(path, []byte("100 root 20 0 1 1 1 Q 0 0 0:00.00 x\n"), 0644))

	_, err := runCLI(t, "ingest", "--policy", "strict", path)
	assert.Error(t, err)

	_, err = runCLI(t, "ingest", path)
	assert.NoError(t, err)
}

func TestOffsetsCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exp", "client")
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, "ptp.log")
	require.NoError(t, os.WriteFile(path, []byte("ptp4l[1.0]: master offset 10 s2 freq 5 path delay 1\n"), 0644))
	out := t.TempDir()

	_, err := runCLI(t, "offsets", "--max-offset", "100", "-o", out, path)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "exp-client-ptp.html"))
	assert.NoError(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	resetConfig()
	defer resetConfig()

	path := filepath.Join(t.TempDir(), "topan.toml")
	require.NoError(t, os.WriteFile(path, []byte("policy = \"strict\"\nworkers = 3\n"), 0644))

	require.NoError(t, loadConfig([]string{"ingest", "--config", path, "--unknown", "x"}))
	assert.Equal(t, "strict", Cfg.Policy)
	assert.Equal(t, 3, Cfg.Workers)

	assert.Error(t, loadConfig([]string{"--config", filepath.Join(t.TempDir(), "missing.toml")}))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	resetConfig()
	l := logrus.New()
	l.SetOutput(io.Discard)
	st, sum, err := ingesting.Ingest(strings.NewReader(topLog), ingesting.WithLogger(l))
	require.NoError(t, err)

	srv := newSeriesServer([]loaded{{
		source:  ingesting.Source{Path: "data/exp/host/top.log", Experiment: "exp", Host: "host"},
		store:   st,
		summary: sum,
	}})
	ts := httptest.NewServer(srv.router())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestServeRoutes(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts.URL+"/hosts")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hosts []hostInfo
	require.NoError(t, json.Unmarshal(body, &hosts))
	require.Len(t, hosts, 1)
	assert.Equal(t, "exp-host", hosts[0].Name)
	assert.Equal(t, 2, hosts[0].Processes)
	assert.Equal(t, 4, hosts[0].Samples)

	resp, body = get(t, ts.URL+"/hosts/exp-host/pids")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pids []pidInfo
	require.NoError(t, json.Unmarshal(body, &pids))
	require.Len(t, pids, 2)
	assert.Equal(t, pidInfo{PID: 100, User: "root", Command: "server", Samples: 2}, pids[0])

	resp, body = get(t, ts.URL+"/hosts/exp-host/pids/200")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "5.5", rows[1]["cpuPercent"])

	resp, _ = get(t, ts.URL+"/hosts/exp-host/charts")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "/hosts/exp-host/charts")

	resp, _ = get(t, ts.URL+"/hosts/nope/pids")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = get(t, ts.URL+"/hosts/exp-host/pids/999")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = get(t, ts.URL+"/hosts/exp-host/pids/abc")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSnapshotIsIngestible(t *testing.T) {
	if _, err := os.Stat("/proc/self/stat"); err != nil {
		t.Skip("no /proc on this system")
	}
	path := filepath.Join(t.TempDir(), "top.log")

	_, err := runCLI(t, "snapshot", "-n", "1", "-o", path)
	require.NoError(t, err)

	stdout, err := runCLI(t, "ingest", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, path)
	assert.NotContains(t, stdout, " 0 records")
}

func TestIngestWarnsOncePerMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "top.log")
	input := "100 root 20 0 1 1 1 S 0.0 0.0 0:00.00 server\n" +
		"100 root 20 0 1 1 1 S 0.0 0.0 0:00.00 other\n"
	require.NoError(t, os.WriteFile(path, []byte(input), 0644))

	hook := logtest.NewGlobal()
	t.Cleanup(func() { logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks)) })

	_, err := runCLI(t, "ingest", "--log-level", "warn", path)
	require.NoError(t, err)

	warnings := 0
	for _, e := range hook.AllEntries() {
		if strings.Contains(e.Message, "possible pid reuse") {
			warnings++
		}
	}
	assert.Equal(t, 1, warnings)
}
