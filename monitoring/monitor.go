// Package monitoring exposes the statistics of running caches over HTTP.
package monitoring

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sarchlab/cachesim/cache"
)

// A Monitor turns a simulation into a server so that cache statistics can be
// inspected while it runs and after it finishes.
type Monitor struct {
	portNumber int
	actualPort int

	mu     sync.Mutex
	caches map[string]*cache.Cache
}

// A cacheStats entry is the JSON shape of one cache in the stats response.
type cacheStats struct {
	Name          string  `json:"name"`
	ByteSize      uint64  `json:"byte_size"`
	BlockSize     uint64  `json:"block_size"`
	Associativity int     `json:"associativity"`
	NumSets       int     `json:"num_sets"`
	Policy        string  `json:"policy"`
	AccessCount   uint64  `json:"access_count"`
	MissCount     uint64  `json:"miss_count"`
	WriteCount    uint64  `json:"write_count"`
	HitRate       float64 `json:"hit_rate"`
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{caches: make(map[string]*cache.Cache)}
}

// WithPortNumber sets the port the monitor serves on. Ports below 1000 are
// rejected and a random port is used instead.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterCache registers a cache to be monitored under the given name.
func (m *Monitor) RegisterCache(name string, c *cache.Cache) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.caches[name] = c
}

// Port returns the port the monitor is serving on. It is only meaningful
// after StartServer.
func (m *Monitor) Port() int {
	return m.actualPort
}

// StartServer starts the monitoring server in the background.
func (m *Monitor) StartServer() error {
	r := mux.NewRouter()
	r.HandleFunc("/api/stats", m.listStats)
	r.Handle("/metrics", promhttp.Handler())

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return err
	}

	m.actualPort = listener.Addr().(*net.TCPAddr).Port

	fmt.Fprintf(os.Stderr,
		"Monitoring caches with http://localhost:%d/api/stats\n",
		m.actualPort)

	go func() {
		if err := http.Serve(listener, r); err != nil {
			fmt.Fprintf(os.Stderr, "Monitoring server stopped: %v\n", err)
		}
	}()

	return nil
}

func (m *Monitor) listStats(w http.ResponseWriter, _ *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := make([]cacheStats, 0, len(m.caches))
	for name, c := range m.caches {
		g := c.Geometry()

		stats = append(stats, cacheStats{
			Name:          name,
			ByteSize:      g.ByteSize,
			BlockSize:     g.BlockSize,
			Associativity: g.Associativity,
			NumSets:       g.NumSets,
			Policy:        c.Policy().String(),
			AccessCount:   c.AccessCount(),
			MissCount:     c.MissCount(),
			WriteCount:    c.WriteCount(),
			HitRate:       c.HitRate(),
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Name < stats[j].Name
	})

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(stats); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
