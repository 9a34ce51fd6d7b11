package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

// CapacityCollector сравнивает параллелизм движка с ресурсами процесса.
// Значения читаются при каждом scrape, поэтому изменения GOMAXPROCS видны сразу
type CapacityCollector struct {
	workers int

	engineWorkers    *prometheus.Desc
	gomaxprocs       *prometheus.Desc
	cpus             *prometheus.Desc
	oversubscription *prometheus.Desc
	goroutines       *prometheus.Desc
	heapInUse        *prometheus.Desc
	heapSys          *prometheus.Desc
	gcRuns           *prometheus.Desc
	gcPause          *prometheus.Desc
}

// NewCapacityCollector создаёт коллектор для заданного числа воркеров.
// workers <= 0 означает runtime.NumCPU(), как у движка
func NewCapacityCollector(namespace, subsystem string, workers int) *CapacityCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, nil, nil)
	}
	return &CapacityCollector{
		workers:          workers,
		engineWorkers:    desc("capacity_engine_workers", "Relaxation workers the engine is configured for"),
		gomaxprocs:       desc("capacity_gomaxprocs", "Goroutines that can run Go code simultaneously"),
		cpus:             desc("capacity_cpus", "Logical CPUs visible to the process"),
		oversubscription: desc("capacity_worker_oversubscription_ratio", "Engine workers per GOMAXPROCS slot; above 1 workers queue for CPU"),
		goroutines:       desc("capacity_goroutines", "Number of goroutines"),
		heapInUse:        desc("capacity_heap_inuse_bytes", "Heap bytes in use, dominated by the adjacency matrix"),
		heapSys:          desc("capacity_heap_sys_bytes", "Heap bytes obtained from the system"),
		gcRuns:           desc("capacity_gc_runs_total", "Completed GC cycles"),
		gcPause:          desc("capacity_gc_last_pause_seconds", "Duration of the most recent GC pause"),
	}
}

// Workers возвращает число воркеров с учётом значения по умолчанию
func (c *CapacityCollector) Workers() int {
	if c.workers <= 0 {
		return runtime.NumCPU()
	}
	return c.workers
}

// Describe implements prometheus.Collector
func (c *CapacityCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.engineWorkers
	ch <- c.gomaxprocs
	ch <- c.cpus
	ch <- c.oversubscription
	ch <- c.goroutines
	ch <- c.heapInUse
	ch <- c.heapSys
	ch <- c.gcRuns
	ch <- c.gcPause
}

// Collect implements prometheus.Collector
func (c *CapacityCollector) Collect(ch chan<- prometheus.Metric) {
	workers := c.Workers()
	procs := runtime.GOMAXPROCS(0)

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}
	gauge(c.engineWorkers, float64(workers))
	gauge(c.gomaxprocs, float64(procs))
	gauge(c.cpus, float64(runtime.NumCPU()))
	gauge(c.oversubscription, float64(workers)/float64(procs))
	gauge(c.goroutines, float64(runtime.NumGoroutine()))
	gauge(c.heapInUse, float64(stats.HeapInuse))
	gauge(c.heapSys, float64(stats.HeapSys))
	ch <- prometheus.MustNewConstMetric(c.gcRuns, prometheus.CounterValue, float64(stats.NumGC))

	// Последняя пауза GC
	if stats.NumGC > 0 {
		gauge(c.gcPause, float64(stats.PauseNs[(stats.NumGC+255)%256])/1e9)
	}
}
