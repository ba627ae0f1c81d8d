// Package performance samples process resource usage while rows are read.
package performance

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// ResourceUsage contains resource usage information
type ResourceUsage struct {
	CPUPercent            float64
	MemoryRSS             uint64
	MemoryVMS             uint64
	SystemMemoryPercent   float64
	SystemMemoryAvailable uint64
	GoroutineCount        int
	ThreadCount           int32
}

// Fields renders the usage as log fields.
func (u ResourceUsage) Fields() []zap.Field {
	return []zap.Field{
		zap.Float64("cpu_percent", u.CPUPercent),
		zap.Uint64("rss_bytes", u.MemoryRSS),
		zap.Float64("system_memory_percent", u.SystemMemoryPercent),
		zap.Int("goroutines", u.GoroutineCount),
		zap.Int32("threads", u.ThreadCount),
	}
}

// ResourceMonitor samples the current process. It also remembers the peak
// RSS seen, which bounds the memory spent on domain accumulation.
type ResourceMonitor struct {
	process      *process.Process
	startCPUTime float64
	startTime    time.Time

	mu      sync.Mutex
	peakRSS uint64
}

// NewResourceMonitor creates a monitor for the running process.
func NewResourceMonitor() (*ResourceMonitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect process: %w", err)
	}
	rm := &ResourceMonitor{process: proc, startTime: time.Now()}
	if cpuTime, err := proc.Times(); err == nil {
		rm.startCPUTime = cpuTime.Total()
	}
	return rm, nil
}

// Usage returns current resource usage. Unavailable readings stay zero.
func (rm *ResourceMonitor) Usage() ResourceUsage {
	usage := ResourceUsage{GoroutineCount: runtime.NumGoroutine()}

	if cpuTime, err := rm.process.Times(); err == nil {
		if elapsed := time.Since(rm.startTime).Seconds(); elapsed > 0 {
			usage.CPUPercent = ((cpuTime.Total() - rm.startCPUTime) / elapsed) * 100
		}
	}
	if memInfo, err := rm.process.MemoryInfo(); err == nil {
		usage.MemoryRSS = memInfo.RSS
		usage.MemoryVMS = memInfo.VMS
	}
	if vmStat, err := mem.VirtualMemory(); err == nil {
		usage.SystemMemoryPercent = vmStat.UsedPercent
		usage.SystemMemoryAvailable = vmStat.Available
	}
	usage.ThreadCount, _ = rm.process.NumThreads()

	rm.mu.Lock()
	if usage.MemoryRSS > rm.peakRSS {
		rm.peakRSS = usage.MemoryRSS
	}
	rm.mu.Unlock()
	return usage
}

// PeakRSS is the largest RSS observed by Usage.
func (rm *ResourceMonitor) PeakRSS() uint64 {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.peakRSS
}

// Watch samples every interval until ctx is done, logging each sample at
// debug level.
func (rm *ResourceMonitor) Watch(ctx context.Context, interval time.Duration, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Debug("resource usage", rm.Usage().Fields()...)
		}
	}
}

// Throughput returns rows per second.
func Throughput(rows int64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(rows) / d.Seconds()
}
