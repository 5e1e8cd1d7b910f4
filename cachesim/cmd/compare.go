package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/cachesim/trace"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Replay a trace against all replacement policies and compare.",
	Long: `Compare replays the same trace against LRU, MRU, and random ` +
		`replacement caches of identical geometry. Each cache is owned by ` +
		`its own goroutine; the caches themselves stay single-threaded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return comparePolicies()
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVarP(&runFlags.traceFile,
		"trace", "t", os.Getenv("CACHESIM_TRACE"),
		"trace file to replay")
	compareCmd.Flags().Uint64Var(&runFlags.byteSize,
		"size", 16*1024, "total cache size in bytes")
	compareCmd.Flags().Uint64Var(&runFlags.blockSize,
		"block-size", 64, "cache line size in bytes")
	compareCmd.Flags().IntVar(&runFlags.associativity,
		"associativity", 4, "number of ways per set")
	compareCmd.Flags().BoolVar(&runFlags.writeAllocate,
		"write-allocate", false, "install blocks on write misses")
	compareCmd.Flags().Int64Var(&runFlags.seed,
		"seed", 1, "seed for the random replacement policy")
}

func comparePolicies() error {
	accesses, err := loadTrace(runFlags.traceFile)
	if err != nil {
		return err
	}

	policies := []string{"lru", "mru", "random"}
	summaries := make([]trace.Summary, len(policies))

	var g errgroup.Group

	for i, policyName := range policies {
		i, policyName := i, policyName

		c, err := buildCache(policyName, nil)
		if err != nil {
			return err
		}

		g.Go(func() error {
			summary, err := trace.NewDriver(c).Run(accesses)
			if err != nil {
				return fmt.Errorf("%s: %w", policyName, err)
			}

			summaries[i] = summary

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POLICY\tACCESSES\tMISSES\tHIT RATE")

	for i, policyName := range policies {
		s := summaries[i]
		fmt.Fprintf(w, "%s\t%d\t%d\t%.4f\n",
			policyName, s.Accesses, s.Misses, s.HitRate)
	}

	return w.Flush()
}
