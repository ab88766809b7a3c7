package treestats

import (
	"os"

	"github.com/prometheus/procfs"
)

// Stat files count CPU time in clock ticks. Reading the real rate needs sysconf through cgo and
// 100hz holds on practically every linux system.
const userHz = 100

// ProcessUsage is the resource usage of the current process, used to judge the cost of an index
// when benchmarking it.
type ProcessUsage struct {
	UserCPUSecs   float64
	SystemCPUSecs float64
	VssMB         float64
	RssMB         float64
}

// SelfUsage reads the usage of the current process from procfs. It fails where there is no /proc.
func SelfUsage() (ProcessUsage, error) {
	proc, err := procfs.Self()
	if err != nil {
		return ProcessUsage{}, err
	}
	stat, err := proc.Stat()
	if err != nil {
		return ProcessUsage{}, err
	}
	return ProcessUsage{
		UserCPUSecs:   float64(stat.UTime) / userHz,
		SystemCPUSecs: float64(stat.STime) / userHz,
		VssMB:         float64(stat.VSize) / 1_000_000.0,
		RssMB:         float64(stat.RSS*os.Getpagesize()) / 1_000_000.0,
	}, nil
}

// Sub returns the usage accumulated between earlier and u. Memory figures are taken from u.
func (u ProcessUsage) Sub(earlier ProcessUsage) ProcessUsage {
	u.UserCPUSecs -= earlier.UserCPUSecs
	u.SystemCPUSecs -= earlier.SystemCPUSecs
	return u
}
