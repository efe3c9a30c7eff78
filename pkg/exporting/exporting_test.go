package exporting

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TopAnalyzer/pkg/ingesting"
	"TopAnalyzer/pkg/parsing"
	"TopAnalyzer/pkg/series"
)

var formats = []string{"jsonl", "csv", "tsv", "parquet"}

const snapshot = `100 root 20 0 1000 100 10 R 1,25 0,1 0:01.00 python3 app.py
200 user rt -5 2000 200 20 S 0,0 0,2 1:02.50 client
100 root 20 0 1100 110 10 R 2,0 0,1 0:02.00 python3 app.py
300 user 20 19 1.5g 200 20 Z 0,0 0,0 0:00.00 zombie
200 user rt -5 2000 200 20 D 5,5 0,2 1:03.75 client
`

// Users and commands that look like numbers, booleans or need quoting.
const textLike = `10 0123 20 0 1 1 1 S 1,50 0,0 0:00.00 nan
11 root 20 0 1 1 1 S 0,0 0,0 0:00.00 True
12 1e3 20 0 1 1 1 S 0,0 0,0 0:00.00 1.50
13 user 20 0 1 1 1 S 0,0 0,0 0:00.00 say "hi", bye
14 user 20 0 1 1 1 S 0,0 0,0 0:00.00 false
`

func ingest(t *testing.T, input string) (*series.Store, *ingesting.Summary) {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	st, sum, err := ingesting.Ingest(strings.NewReader(input), ingesting.WithLogger(l))
	require.NoError(t, err)
	require.Zero(t, sum.Skipped)
	return st, sum
}

func requireSameStore(t *testing.T, want, got *series.Store) {
	t.Helper()
	require.Equal(t, want.PIDs(), got.PIDs())
	for _, w := range want.Series() {
		g, ok := got.Get(w.PID)
		require.True(t, ok)
		require.Equal(t, w.Len(), g.Len(), "pid %d", w.PID)
		for i := 0; i < w.Len(); i++ {
			assert.True(t, w.Record(i).Equal(g.Record(i)), "pid %d sample %d: %s != %s", w.PID, i, w.Record(i), g.Record(i))
		}
	}
}

func TestFlattenStore(t *testing.T) {
	st, _ := ingest(t, snapshot)
	rows := FlattenStore(st)
	require.Len(t, rows, 5)

	// pids in first-sighting order, samples ascending within a pid
	assert.Equal(t, int64(100), rows[0].PID)
	assert.Equal(t, int64(0), rows[0].Sample)
	assert.Equal(t, int64(100), rows[1].PID)
	assert.Equal(t, int64(1), rows[1].Sample)
	assert.Equal(t, int64(200), rows[2].PID)
	assert.Equal(t, int64(300), rows[4].PID)

	assert.Equal(t, "1.25", rows[0].CPUPercent)
	assert.Equal(t, "python3 app.py", rows[0].Command)
	assert.Equal(t, int64(parsing.PriorityRealtime), rows[2].Priority)
	assert.Equal(t, 62.5, rows[2].CPUTimeSec)
	assert.Equal(t, int64(1536*1024), rows[4].VirtKiB)
	assert.Equal(t, "Z", rows[4].Status)
}

func TestRowStringsFollowColumns(t *testing.T) {
	row := Row{PID: 7, User: "0123", Command: "a b", Sample: 2, Priority: -100, Status: "S",
		CPUPercent: "1.50", MemPercent: "0", CPUTimeSec: 1.000001}

	cells := row.Strings()
	require.Len(t, cells, len(Columns))
	assert.Equal(t, ColPID, Columns[0])
	assert.Equal(t, []string{"7", "0123", "a b", "2", "-100", "0", "0", "0", "0", "S", "1.50", "0", "1.000001"}, cells)
}

func TestRowRecord(t *testing.T) {
	row := Row{PID: 7, User: "u", Command: "c", Sample: 3, Priority: 20, VirtKiB: 10,
		Status: "S", CPUPercent: "0.5", MemPercent: "0.10", CPUTimeSec: 1.000001}

	r, sample, err := row.Record()
	require.NoError(t, err)
	assert.Equal(t, 3, sample)
	assert.Equal(t, int64(7), r.PID)
	assert.Equal(t, int64(10), r.VirtualMemKiB)
	assert.Equal(t, parsing.StatusSleeping, r.Status)
	assert.True(t, r.CPUPercent.Equal(decimal.RequireFromString("0.5")))
	assert.Equal(t, "0.1", r.MemPercent.String())
	assert.Equal(t, time.Second+time.Microsecond, r.CPUTime)
}

func TestRowRecordRejectsBadRows(t *testing.T) {
	good := FlattenRecord(parsing.Record{PID: 1, User: "u", Status: parsing.StatusRunning, Command: "c"}, 0)

	tests := []struct {
		name   string
		modify func(*Row)
	}{
		{"unknown status", func(r *Row) { r.Status = "Q" }},
		{"empty status", func(r *Row) { r.Status = "" }},
		{"bad cpu percent", func(r *Row) { r.CPUPercent = "abc" }},
		{"bad mem percent", func(r *Row) { r.MemPercent = "" }},
		{"negative sample", func(r *Row) { r.Sample = -1 }},
		{"negative cpu time", func(r *Row) { r.CPUTimeSec = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := good
			tt.modify(&row)
			_, _, err := row.Record()
			assert.ErrorIs(t, err, ErrMalformedRow)
		})
	}
}

func TestRebuildStoreOrdersBySample(t *testing.T) {
	st, _ := ingest(t, snapshot)
	rows := FlattenStore(st)

	// Rows grouped by pid replay back into the interleaved order.
	got, err := RebuildStore(rows)
	require.NoError(t, err)
	requireSameStore(t, st, got)
}

func TestExportAndLoadStore(t *testing.T) {
	for _, format := range formats {
		t.Run(format, func(t *testing.T) {
			st, sum := ingest(t, snapshot)
			path := filepath.Join(t.TempDir(), "out", "top"+GetExtension(format))

			require.NoError(t, ExportStore(path, format, st, sum))

			got, err := LoadStore(path)
			require.NoError(t, err)
			requireSameStore(t, st, got)

			data, err := os.ReadFile(filepath.Join(filepath.Dir(path), "top_summary.json"))
			require.NoError(t, err)
			var decoded ingesting.Summary
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, sum.Records, decoded.Records)
			assert.Equal(t, sum.RunID, decoded.RunID)
		})
	}
}

func TestExportKeepsTextColumnsVerbatim(t *testing.T) {
	for _, format := range formats {
		t.Run(format, func(t *testing.T) {
			st, _ := ingest(t, textLike)
			path := filepath.Join(t.TempDir(), "text"+GetExtension(format))
			require.NoError(t, ExportStore(path, format, st, nil))

			rows, err := LoadRows(path)
			require.NoError(t, err)
			require.Len(t, rows, 5)
			assert.Equal(t, "0123", rows[0].User)
			assert.Equal(t, "nan", rows[0].Command)
			assert.Equal(t, "1.5", rows[0].CPUPercent)
			assert.Equal(t, "True", rows[1].Command)
			assert.Equal(t, "1e3", rows[2].User)
			assert.Equal(t, "1.50", rows[2].Command)
			assert.Equal(t, `say "hi", bye`, rows[3].Command)
			assert.Equal(t, "false", rows[4].Command)

			got, err := RebuildStore(rows)
			require.NoError(t, err)
			requireSameStore(t, st, got)
		})
	}
}

func TestDelimitedReaderMatchesColumnsByName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shuffled.csv")
	content := "extra,command,pid,user,sample,priority,nice,virtKiB,resKiB,shrKiB,status,cpuPercent,memPercent,cpuTimeSec\n" +
		"x,007,5,0042,0,20,0,1,2,3,S,0.10,2.5,1.000001\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	rows, err := LoadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{PID: 5, User: "0042", Command: "007", Priority: 20, VirtKiB: 1, ResKiB: 2, ShrKiB: 3,
		Status: "S", CPUPercent: "0.10", MemPercent: "2.5", CPUTimeSec: 1.000001}, rows[0])

	st, err := RebuildStore(rows)
	require.NoError(t, err)
	s, ok := st.Get(5)
	require.True(t, ok)
	assert.Equal(t, time.Second+time.Microsecond, s.CPUTime[0])
}

func TestDelimitedReaderRejectsBadFiles(t *testing.T) {
	header := strings.Join(Columns, ",")
	tests := []struct {
		name    string
		content string
	}{
		{"missing column", "pid,user\n1,u\n"},
		{"text in integer column", header + "\nabc,u,c,0,20,0,1,1,1,S,0,0,0\n"},
		{"empty integer cell", header + "\n1,u,c,,20,0,1,1,1,S,0,0,0\n"},
		{"bad cpu time", header + "\n1,u,c,0,20,0,1,1,1,S,0,0,soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			_, err := LoadRows(path)
			assert.ErrorIs(t, err, ErrMalformedRow)
		})
	}
}

func TestJSONLReaderRejectsBadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"pid\": 1}\n{\"pid\": \"one\"}\n"), 0644))
	_, err := LoadRows(path)
	assert.ErrorIs(t, err, ErrMalformedRow)
}

func TestSaveRowsAndLoadRows(t *testing.T) {
	rows := []Row{
		{PID: 1, User: "u", Command: "c", Status: "R", CPUPercent: "0", MemPercent: "0"},
		{PID: 1, User: "u", Command: "c", Sample: 1, Status: "S", CPUPercent: "12.3", MemPercent: "0.1", CPUTimeSec: 4500},
	}
	for _, format := range formats {
		path := filepath.Join(t.TempDir(), "rows"+GetExtension(format))
		require.NoError(t, SaveRows(path, rows), format)
		got, err := LoadRows(path)
		require.NoError(t, err, format)
		assert.Equal(t, rows, got, format)
	}
}

func TestExportEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jsonl")
	err := ExportStore(path, "jsonl", series.NewStore(), nil)
	assert.ErrorIs(t, err, ErrEmptyStore)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFormatRegistry(t *testing.T) {
	for _, name := range formats {
		f, ok := Get(name)
		require.True(t, ok, name)
		assert.Equal(t, name, f.Name())

		byPath, ok := GetByPath("x" + GetExtension(name))
		require.True(t, ok)
		assert.Equal(t, name, byPath.Name())
	}
	_, ok := Get("xml")
	assert.False(t, ok)

	_, err := LoadStore("data.xml")
	assert.Error(t, err)
}
