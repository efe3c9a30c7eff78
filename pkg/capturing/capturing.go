// Package capturing samples the running processes and writes them as top snapshot
// blocks that the ingestion pipeline reads back.
package capturing

import (
	"bufio"
	"context"
	"io"
	"math"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/shirou/gopsutil/process"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"TopAnalyzer/pkg/parsing"
)

// Header is the column header line written before every block.
const Header = "PID USER PR NI VIRT RES SHR S %CPU %MEM TIME+ COMMAND"

type cpuSample struct {
	total float64
	at    time.Time
}

// Capturer takes process snapshots. CPU usage is measured between consecutive
// snapshots of the same Capturer, like top does between refreshes.
type Capturer struct {
	procDir string
	workers int
	logger  logrus.FieldLogger
	now     func() time.Time

	mu   sync.Mutex
	prev map[int32]cpuSample
}

// Option configures a Capturer.
type Option func(*Capturer)

// WithProcDir overrides the proc filesystem root.
func WithProcDir(dir string) Option {
	return func(c *Capturer) { c.procDir = dir }
}

// WithWorkers sets the number of processes inspected in parallel.
func WithWorkers(n int) Option {
	return func(c *Capturer) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Capturer) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Capturer.
func New(opts ...Option) *Capturer {
	c := &Capturer{
		procDir: defaultProcDir,
		workers: runtime.NumCPU(),
		logger:  logrus.StandardLogger(),
		now:     time.Now,
		prev:    make(map[int32]cpuSample),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns one record per live process, ordered by pid. Processes that exit
// while being inspected are left out.
func (c *Capturer) Snapshot(ctx context.Context) ([]parsing.Record, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list processes")
	}

	now := c.now()
	procChan := make(chan *process.Process, len(procs))
	resultChan := make(chan parsing.Record, len(procs))

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range procChan {
				if rec, ok := c.collect(ctx, p, now); ok {
					resultChan <- rec
				}
			}
		}()
	}

	for _, p := range procs {
		procChan <- p
	}
	close(procChan)
	wg.Wait()
	close(resultChan)

	records := make([]parsing.Record, 0, len(procs))
	for rec := range resultChan {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].PID < records[j].PID })

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.forgetExited(records)
	return records, nil
}

func (c *Capturer) collect(ctx context.Context, p *process.Process, now time.Time) (parsing.Record, bool) {
	log := c.logger.WithField("pid", p.Pid)

	stat, ok := c.readStat(p.Pid)
	if !ok {
		log.Debug("process vanished")
		return parsing.Record{}, false
	}
	status, err := parsing.ParseStatus(string(stat.State))
	if err != nil {
		log.WithField("state", string(stat.State)).Debug("skipping process with unsupported state")
		return parsing.Record{}, false
	}

	mem, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		log.WithError(err).Debug("memory info unavailable")
		return parsing.Record{}, false
	}
	times, err := p.TimesWithContext(ctx)
	if err != nil {
		log.WithError(err).Debug("cpu times unavailable")
		return parsing.Record{}, false
	}

	user, err := p.UsernameWithContext(ctx)
	if err != nil || user == "" {
		user = "?"
	}
	nice, _ := p.NiceWithContext(ctx)
	memPercent, _ := p.MemoryPercentWithContext(ctx)

	name, err := p.NameWithContext(ctx)
	if err != nil || strings.TrimSpace(name) == "" {
		name = "?"
	}

	total := times.User + times.System
	return parsing.Record{
		PID:            int64(p.Pid),
		User:           strings.Join(strings.Fields(user), "_"),
		Priority:       stat.Priority,
		Nice:           int64(nice),
		VirtualMemKiB:  int64(mem.VMS / 1024),
		ResidentMemKiB: int64(mem.RSS / 1024),
		SharedMemKiB:   int64(sharedBytes(ctx, p) / 1024),
		Status:         status,
		CPUPercent:     decimal.NewFromFloat(c.cpuPercent(ctx, p, total, now)).Round(1),
		MemPercent:     decimal.NewFromFloat32(memPercent).Round(1),
		CPUTime:        time.Duration(math.Round(total*100)) * 10 * time.Millisecond,
		Command:        name,
	}, true
}

// cpuPercent measures usage since the previous snapshot, falling back to the lifetime
// average for processes seen for the first time.
func (c *Capturer) cpuPercent(ctx context.Context, p *process.Process, total float64, now time.Time) float64 {
	c.mu.Lock()
	prev, seen := c.prev[p.Pid]
	c.prev[p.Pid] = cpuSample{total: total, at: now}
	c.mu.Unlock()

	if seen {
		if wall := now.Sub(prev.at).Seconds(); wall > 0 {
			return math.Max(0, (total-prev.total)/wall*100)
		}
	}
	pct, err := p.CPUPercentWithContext(ctx)
	if err != nil {
		return 0
	}
	return pct
}

func (c *Capturer) forgetExited(records []parsing.Record) {
	live := make(map[int32]struct{}, len(records))
	for _, r := range records {
		live[int32(r.PID)] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for pid := range c.prev {
		if _, ok := live[pid]; !ok {
			delete(c.prev, pid)
		}
	}
}

// WriteBlock writes the header, one line per record and a separating blank line.
func WriteBlock(w io.Writer, records []parsing.Record) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(Header)
	bw.WriteByte('\n')
	for _, r := range records {
		bw.WriteString(r.String())
		bw.WriteByte('\n')
	}
	bw.WriteByte('\n')
	return errors.Wrap(bw.Flush(), "write block")
}

// Run writes count snapshot blocks to w, interval apart. A count of zero or less runs
// until ctx is cancelled.
func (c *Capturer) Run(ctx context.Context, w io.Writer, count int, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; count <= 0 || i < count; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				if count <= 0 {
					return nil
				}
				return ctx.Err()
			case <-ticker.C:
			}
		}

		records, err := c.Snapshot(ctx)
		if err != nil {
			return err
		}
		if err := WriteBlock(w, records); err != nil {
			return err
		}
		c.logger.WithFields(logrus.Fields{"block": i + 1, "processes": len(records)}).Debug("captured snapshot")
	}
	return nil
}
