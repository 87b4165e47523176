package health

import (
	"runtime"
	"time"
)

// DBPinger is optional for the health check. Nil reports the database as
// disconnected.
type DBPinger interface {
	Ping() error
}

// QueueDepther reports how many dispatched email jobs await a worker. Nil
// means no dispatcher runs in this process.
type QueueDepther interface {
	QueueDepth() int
}

var startTime = time.Now()

// CollectResult is the /health/json payload.
type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Queue        QueueInfo            `json:"queue"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64  `json:"uptimeSeconds"`
	HeapUsed      uint64 `json:"heapUsed"`
	Goroutines    int    `json:"goroutines"`
	GoVersion     string `json:"goVersion"`
}

type QueueInfo struct {
	DispatcherRunning bool `json:"dispatcherRunning"`
	Depth             int  `json:"depth"`
}

type DepStatus struct {
	Status string      `json:"status"`
	PingMs interface{} `json:"pingMs"`
}

// CollectHealth gathers health data from the database and the dispatch queue.
func CollectHealth(db DBPinger, queue QueueDepther) *CollectResult {
	deps := map[string]DepStatus{}
	status := "ok"

	if db == nil {
		deps["database"] = DepStatus{Status: "disconnected", PingMs: nil}
		status = "issue"
	} else {
		start := time.Now()
		if err := db.Ping(); err != nil {
			deps["database"] = DepStatus{Status: "disconnected", PingMs: nil}
			status = "issue"
		} else {
			deps["database"] = DepStatus{Status: "connected", PingMs: time.Since(start).Milliseconds()}
		}
	}

	queueInfo := QueueInfo{}
	if queue != nil {
		queueInfo.DispatcherRunning = true
		queueInfo.Depth = queue.QueueDepth()
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return &CollectResult{
		Status: status,
		Runtime: RuntimeInfo{
			UptimeSeconds: int64(time.Since(startTime).Seconds()),
			HeapUsed:      mem.HeapAlloc,
			Goroutines:    runtime.NumGoroutine(),
			GoVersion:     runtime.Version(),
		},
		Queue:        queueInfo,
		Dependencies: deps,
	}
}
