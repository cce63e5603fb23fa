// SPDX-License-Identifier: Apache-2.0

package hostinfo

import (
	"context"
	"errors"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// Info describes the machine a benchmark ran on. Benchmarks are only
// comparable between runs on similar hosts, so it is recorded with every
// report.
type Info struct {
	Hostname      string  `json:"hostname,omitempty"`
	OS            string  `json:"os"`
	Platform      string  `json:"platform,omitempty"`
	KernelVersion string  `json:"kernel_version,omitempty"`
	Arch          string  `json:"arch"`
	CPUModel      string  `json:"cpu_model,omitempty"`
	CPUCount      int     `json:"cpu_count"`
	CPUMhz        float64 `json:"cpu_mhz,omitempty"`
	MemoryTotal   uint64  `json:"memory_total,omitempty"`
	GoVersion     string  `json:"go_version"`
}

// Collect gathers host metadata. Fields that cannot be read are left empty
// and the errors are returned joined alongside the partial Info.
func Collect(ctx context.Context) (*Info, error) {
	info := &Info{
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		CPUCount:  runtime.NumCPU(),
		GoVersion: runtime.Version(),
	}

	var errs []error

	if h, err := host.InfoWithContext(ctx); err != nil {
		errs = append(errs, err)
	} else {
		info.Hostname = h.Hostname
		info.Platform = h.Platform
		info.KernelVersion = h.KernelVersion
		if h.KernelArch != "" {
			info.Arch = h.KernelArch
		}
	}

	if n, err := cpu.CountsWithContext(ctx, true); err != nil {
		errs = append(errs, err)
	} else if n > 0 {
		info.CPUCount = n
	}

	if cpus, err := cpu.InfoWithContext(ctx); err != nil {
		errs = append(errs, err)
	} else if len(cpus) > 0 {
		info.CPUModel = cpus[0].ModelName

		var total float64
		for _, c := range cpus {
			total += c.Mhz
		}
		info.CPUMhz = total / float64(len(cpus))
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		errs = append(errs, err)
	} else {
		info.MemoryTotal = vm.Total
	}

	return info, errors.Join(errs...)
}
