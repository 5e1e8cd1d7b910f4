package cmd

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem"
	"github.com/sarchlab/cachesim/metrics/prom"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/trace"
)

var runFlags = struct {
	traceFile     string
	byteSize      uint64
	blockSize     uint64
	associativity int
	policy        string
	writeAllocate bool
	seed          int64
	verbose       bool
	dbPath        string
	monitorPort   int
}{}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a trace file through one cache and report statistics.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrace()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.traceFile,
		"trace", "t", os.Getenv("CACHESIM_TRACE"),
		"trace file to replay")
	runCmd.Flags().Uint64Var(&runFlags.byteSize,
		"size", 16*1024, "total cache size in bytes")
	runCmd.Flags().Uint64Var(&runFlags.blockSize,
		"block-size", 64, "cache line size in bytes")
	runCmd.Flags().IntVar(&runFlags.associativity,
		"associativity", 4, "number of ways per set")
	runCmd.Flags().StringVar(&runFlags.policy,
		"policy", "lru", "replacement policy (lru, mru, random)")
	runCmd.Flags().BoolVar(&runFlags.writeAllocate,
		"write-allocate", false, "install blocks on write misses")
	runCmd.Flags().Int64Var(&runFlags.seed,
		"seed", 1, "seed for the random replacement policy")
	runCmd.Flags().BoolVarP(&runFlags.verbose,
		"verbose", "v", false, "log every access to stderr")
	runCmd.Flags().StringVar(&runFlags.dbPath,
		"db", os.Getenv("CACHESIM_DB"),
		"record per-access results into this SQLite database")
	runCmd.Flags().IntVar(&runFlags.monitorPort,
		"monitor-port", 0,
		"serve statistics over HTTP on this port and wait after the replay")
}

func runTrace() error {
	accesses, err := loadTrace(runFlags.traceFile)
	if err != nil {
		return err
	}

	var metrics cache.Metrics
	if runFlags.monitorPort != 0 {
		metrics = prom.New(nil, "cachesim", "cache", nil)
	}

	c, err := buildCache(runFlags.policy, metrics)
	if err != nil {
		return err
	}

	driver := trace.NewDriver(c)

	if runFlags.verbose {
		driver.AttachTracer(trace.NewLogTracer(
			log.New(os.Stderr, "", 0)))
	}

	if runFlags.dbPath != "" {
		recorder := datarecording.New(runFlags.dbPath)
		driver.AttachTracer(trace.NewDBTracer(recorder))
		defer recorder.Flush()
	}

	var monitor *monitoring.Monitor
	if runFlags.monitorPort != 0 {
		monitor = monitoring.NewMonitor().
			WithPortNumber(runFlags.monitorPort)
		monitor.RegisterCache("cache", c)

		if err := monitor.StartServer(); err != nil {
			return err
		}
	}

	summary, err := driver.Run(accesses)
	if err != nil {
		return err
	}

	printSummary(runFlags.policy, summary)

	if monitor != nil {
		fmt.Fprintln(os.Stderr, "Replay finished. Press Ctrl-C to exit.")
		waitForInterrupt()
	}

	return nil
}

func loadTrace(path string) ([]trace.Access, error) {
	if path == "" {
		return nil, fmt.Errorf("no trace file given, use --trace")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return trace.ReadAll(f)
}

func buildCache(policyName string, metrics cache.Metrics) (*cache.Cache, error) {
	policy, err := cache.ParseReplacementPolicy(policyName)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(runFlags.seed))

	b := cache.MakeBuilder().
		WithByteSize(runFlags.byteSize).
		WithBlockSize(runFlags.blockSize).
		WithAssociativity(runFlags.associativity).
		WithReplacementPolicy(policy).
		WithWriteAllocate(runFlags.writeAllocate).
		WithStorage(mem.NewStorage(1 << 40)).
		WithRandSource(rng.Int)

	if metrics != nil {
		b = b.WithMetrics(metrics)
	}

	return b.Build()
}

func printSummary(policy string, summary trace.Summary) {
	fmt.Printf("policy:    %s\n", policy)
	fmt.Printf("accesses:  %d\n", summary.Accesses)
	fmt.Printf("reads:     %d\n", summary.Reads)
	fmt.Printf("writes:    %d\n", summary.Writes)
	fmt.Printf("misses:    %d\n", summary.Misses)
	fmt.Printf("hit rate:  %.4f\n", summary.HitRate)
}

func waitForInterrupt() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
}
