package capturing

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

const defaultProcDir = "/proc"

// Buffer pool to avoid allocations on every file read
var procBufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, 4096)
		return &buf
	},
}

// readProcFile reads a small proc file using a pooled buffer.
func readProcFile(path string) ([]byte, bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	bufPtr := procBufPool.Get().(*[]byte)
	defer procBufPool.Put(bufPtr)

	n, err := f.Read(*bufPtr)
	if err != nil || n == 0 {
		return nil, false
	}
	result := make([]byte, n)
	copy(result, (*bufPtr)[:n])
	return result, true
}

// statFields holds the /proc/[pid]/stat values gopsutil does not expose.
type statFields struct {
	State    byte
	Priority int64
}

// parseStat extracts state and priority from /proc/[pid]/stat. The command name may
// contain spaces and parentheses, so fields are counted from the last ')'.
func parseStat(data []byte) (statFields, bool) {
	var st statFields
	end := bytes.LastIndexByte(data, ')')
	if end == -1 || end+2 > len(data) {
		return st, false
	}
	fields := bytes.Fields(data[end+2:])
	if len(fields) < 16 || len(fields[0]) != 1 {
		return st, false
	}

	prio, err := strconv.ParseInt(string(fields[15]), 10, 64)
	if err != nil {
		return st, false
	}
	st.State = fields[0][0]
	st.Priority = prio
	return st, true
}

func (c *Capturer) readStat(pid int32) (statFields, bool) {
	data, ok := readProcFile(filepath.Join(c.procDir, strconv.Itoa(int(pid)), "stat"))
	if !ok {
		return statFields{}, false
	}
	return parseStat(data)
}
