package matrix

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/dRel/cmd/util"
	"github.com/ValentinKolb/dRel/lib/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for dRel servers",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
)

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. add,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the add-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different rows and cols to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(1, viper.GetInt("keys"))
	perfNumThreads = viper.GetInt("threads")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

// perfCase is a single benchmark. setup fills the matrix before the timer starts,
// op is called with an increasing counter from all threads.
type perfCase struct {
	name  string
	setup func(k perfKeys)
	op    func(k perfKeys, i int) error
}

func perfCases() []perfCase {
	largeValue := make([]byte, perfLargeValueSizeKB*1024)
	fill := func(k perfKeys) {
		for i := 0; i < perfKeySpread; i++ {
			if err := rpcStore.Add(k.row(i), k.col(i), []byte("test")); err != nil {
				log.Printf("(%s) - error adding cell: %v\n", k.prefix, err)
			}
		}
	}

	return []perfCase{
		{name: "add", op: func(k perfKeys, i int) error {
			return rpcStore.Add(k.row(i), k.col(i), []byte("test"))
		}},
		{name: "add-large", op: func(k perfKeys, i int) error {
			return rpcStore.Add(k.row(i), k.col(i), largeValue)
		}},
		{name: "add-evict", op: func(k perfKeys, i int) error {
			// every col moves between two rows, each add evicts the previous owner
			return rpcStore.Add(k.row(i%2), k.col(i), []byte("test"))
		}},
		{name: "batch", op: func(k perfKeys, i int) error {
			return rpcStore.Batch([]store.Op{
				{Type: store.OpTErase, Row: k.row(i), Col: k.col(i)},
				{Type: store.OpTAdd, Row: k.row(i + 1), Col: k.col(i), Value: []byte("test")},
			})
		}},
		{name: "get", setup: fill, op: func(k perfKeys, i int) error {
			_, _, err := rpcStore.Get(k.row(i), k.col(i))
			return err
		}},
		{name: "get-by-col", setup: fill, op: func(k perfKeys, i int) error {
			_, _, err := rpcStore.GetByCol(k.col(i))
			return err
		}},
		{name: "row", setup: fill, op: func(k perfKeys, i int) error {
			_, err := rpcStore.Row(k.row(i))
			return err
		}},
		{name: "erase", setup: fill, op: func(k perfKeys, i int) error {
			return rpcStore.Erase(k.row(i), k.col(i))
		}},
		{name: "mixed", setup: fill, op: func(k perfKeys, i int) error {
			switch i % 4 {
			case 0:
				return rpcStore.Add(k.row(i), k.col(i), []byte("test"))
			case 1:
				_, _, err := rpcStore.Get(k.row(i), k.col(i))
				return err
			case 2:
				return rpcStore.Erase(k.row(i), k.col(i))
			default:
				_, err := rpcStore.DoesNotConflict(k.row(i), k.col(i))
				return err
			}
		}},
	}
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for dRel servers")

	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("starting tests...")

	results := make(map[string]testing.BenchmarkResult)
	for _, pc := range perfCases() {
		result := testing.Benchmark(func(b *testing.B) {
			if slices.Contains(perfSkip, pc.name) {
				return
			}

			k := perfKeys{prefix: pc.name}
			if pc.setup != nil {
				pc.setup(k)
			}
			b.Cleanup(func() { k.cleanup() })

			b.SetParallelism(perfNumThreads)
			b.ResetTimer()

			var counter atomic.Int64
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					if err := pc.op(k, int(counter.Add(1))); err != nil {
						log.Printf("(%s) - error: %v\n", pc.name, err)
					}
				}
			})
		})

		results[pc.name] = result
		printResult(pc.name, result)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// perfKeys names the rows and cols of a benchmark, all indices wrap around perfKeySpread.
type perfKeys struct {
	prefix string
}

func (k perfKeys) row(i int) string {
	return fmt.Sprintf("%s-%s-row-%d", perfKeyPrefix, k.prefix, i%perfKeySpread)
}

func (k perfKeys) col(i int) string {
	return fmt.Sprintf("%s-%s-col-%d", perfKeyPrefix, k.prefix, i%perfKeySpread)
}

// cleanup erases every col the benchmark may have written.
func (k perfKeys) cleanup() {
	for i := 0; i < perfKeySpread; i++ {
		if err := rpcStore.EraseCol(k.col(i)); err != nil {
			log.Printf("(%s) - error erasing col: %v\n", k.prefix, err)
		}
	}
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1)
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult) error {
	config := util.GetClientConfig()

	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ShardID", "Serializer",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for test, result := range results {
		nsPerOp, opsPerSec, skipped := 0.0, 0.0, "true"
		if result.NsPerOp() != 0 {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			strings.Join(config.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.RetryCount),
			strconv.FormatUint(util.GetShardID(), 10),
			viper.GetString("serializer"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
