package task

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/rs/zerolog/log"

	"mediabatch/config"
)

// checkResources verifies the system has headroom for a concurrent batch.
// Probe failures are logged and tolerated; only a confirmed shortage is
// reported as an error.
func checkResources(cfg *config.Config, outputDir string) error {
	p, err := cpu.Percent(time.Second, false)
	if err != nil {
		log.Warn().Err(err).Msg("could not get CPU usage")
	} else if len(p) > 0 && p[0] > (100.0-cfg.ThrottleCPU) {
		return fmt.Errorf("not enough idle CPU: current usage %.2f%%, idle threshold %.2f%%", p[0], cfg.ThrottleCPU)
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Warn().Err(err).Msg("could not get memory usage")
	} else if vm.Available < uint64(cfg.ThrottleFreeMem) {
		return fmt.Errorf("not enough free memory: available %d, required %d", vm.Available, cfg.ThrottleFreeMem)
	}

	d, err := disk.Usage(outputDir)
	if err != nil {
		log.Warn().Err(err).Str("dir", outputDir).Msg("could not get disk usage")
	} else if d.Free < uint64(cfg.ThrottleFreeDisk) {
		return fmt.Errorf("not enough free disk space: available %d, required %d", d.Free, cfg.ThrottleFreeDisk)
	}
	return nil
}
