package utils

import (
	"log"
	"strconv"

	"github.com/shirou/gopsutil/v3/cpu"
)

// GetOptimalWorkerCount resolves the configured worker setting to a concrete
// number. A positive integer is taken as a manual override; "auto" (or any
// invalid value) sizes the pool from the machine instead.
func GetOptimalWorkerCount(configValue string) int {
	if manual, err := strconv.Atoi(configValue); err == nil && manual > 0 {
		log.Printf("Using manually configured number of workers: %d", manual)
		return manual
	}

	if configValue != "auto" {
		log.Printf("WARN: Invalid workers value '%s'. Defaulting to 'auto' mode.", configValue)
	}

	// Logical cores: each worker owns a full browser, which is I/O bound
	// far more than CPU bound.
	cores, err := cpu.Counts(true)
	if err != nil {
		log.Printf("WARN: Could not detect CPU cores. Falling back to default: %d workers.", 2)
		return 2
	}

	// Half the cores keeps headroom for the browsers themselves.
	count := cores / 2
	if count < 1 {
		count = 1
	}
	if count > 16 {
		count = 16
	}

	log.Printf("System has %d logical cores. Automatically setting number of workers to: %d", cores, count)
	return count
}
