package status

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	log "github.com/sirupsen/logrus"
)

// HostStatus is a point-in-time view of the machine running the route server
type HostStatus struct {
	Hostname       string
	UptimeSeconds  uint64
	CPUPercent     float64
	MemUsedPercent float64
	Load1          float64
	Goroutines     int
}

func GetCPUPercent(ctx context.Context) (float64, error) {
	usage, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, fmt.Errorf("failed to get CPU usage: %w", err)
	}
	if len(usage) == 0 {
		return 0, errors.New("failed to get CPU usage: empty sample")
	}
	return round2(usage[0]), nil
}

func GetMemUsedPercent(ctx context.Context) (float64, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get memory info: %w", err)
	}
	return round2(v.UsedPercent), nil
}

func GetLoad1(ctx context.Context) (float64, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get system load: %w", err)
	}
	return round2(avg.Load1), nil
}

// Collect gathers what it can. Fields whose host query failed stay zero and the
// failures are joined into the returned error.
func Collect(ctx context.Context) (HostStatus, error) {
	s := HostStatus{Goroutines: runtime.NumGoroutine()}
	var errs []error

	if info, err := host.InfoWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to get host info: %w", err))
	} else {
		s.Hostname = info.Hostname
		s.UptimeSeconds = info.Uptime
	}

	var err error
	if s.CPUPercent, err = GetCPUPercent(ctx); err != nil {
		errs = append(errs, err)
	}
	if s.MemUsedPercent, err = GetMemUsedPercent(ctx); err != nil {
		errs = append(errs, err)
	}
	if s.Load1, err = GetLoad1(ctx); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		log.Warnf("Collect: %d host queries failed", len(errs))
	}
	return s, errors.Join(errs...)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
