package capturing

import (
	"context"

	"github.com/shirou/gopsutil/process"
)

func sharedBytes(ctx context.Context, p *process.Process) uint64 {
	ex, err := p.MemoryInfoExWithContext(ctx)
	if err != nil {
		return 0
	}
	return ex.Shared
}
