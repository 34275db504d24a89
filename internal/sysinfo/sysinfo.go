// Package sysinfo collects process and system resource metrics for the
// dashboard and the health alerting thresholds.
package sysinfo

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Metrics is a point-in-time view of resource usage.
type Metrics struct {
	CPUPercent      float64
	MemoryPercent   float64
	DiskPercent     float64
	ProcessMemoryMB float64
	// TemperatureC is the SoC temperature, 0 when unavailable (non-Pi
	// hosts have no thermal zone).
	TemperatureC float64
}

const thermalZone = "/sys/class/thermal/thermal_zone0/temp"

// Collect gathers current metrics. Partial failures surface as an error;
// no individual field is silently zeroed on a read that should work.
func Collect() (Metrics, error) {
	var m Metrics

	// Interval 0 reports usage since the previous call, non-blocking.
	cpuPct, err := cpu.Percent(0, false)
	if err != nil {
		return m, fmt.Errorf("cpu: %w", err)
	}
	if len(cpuPct) > 0 {
		m.CPUPercent = cpuPct[0]
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return m, fmt.Errorf("memory: %w", err)
	}
	m.MemoryPercent = vm.UsedPercent

	du, err := disk.Usage("/")
	if err != nil {
		return m, fmt.Errorf("disk: %w", err)
	}
	m.DiskPercent = du.UsedPercent

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return m, fmt.Errorf("process: %w", err)
	}
	if mi, err := proc.MemoryInfo(); err == nil {
		m.ProcessMemoryMB = float64(mi.RSS) / 1024 / 1024
	}

	m.TemperatureC = readTemperature()
	return m, nil
}

func readTemperature() float64 {
	data, err := os.ReadFile(thermalZone)
	if err != nil {
		return 0
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return float64(milli) / 1000
}
