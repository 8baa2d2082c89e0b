package runtime

import (
	"github.com/shirou/gopsutil/v3/mem"
)

// AutoMemBudgetFraction is the share of total system RAM used when a
// caller asks for an "auto" resident memory budget instead of a fixed
// byte size.
const AutoMemBudgetFraction = 0.5

// AutoMemBudgetBytes returns a resident memory budget sized as a
// fraction of total system RAM, for callers that pass "auto" instead
// of a fixed byte size on the command line or in a preset. It falls
// back to 0 (unbounded) if the host's memory stats can't be read,
// rather than failing the whole command over a budget convenience.
func AutoMemBudgetBytes() int64 {
	vm, err := mem.VirtualMemory()
	if err != nil || vm == nil {
		return 0
	}
	return int64(float64(vm.Total) * AutoMemBudgetFraction)
}
