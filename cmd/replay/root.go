package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	cmdUtil "github.com/ValentinKolb/dRel/cmd/util"
	"github.com/ValentinKolb/dRel/lib/journal"
	"github.com/ValentinKolb/dRel/lib/journal/wal"
	"github.com/ValentinKolb/dRel/lib/store"
	"github.com/ValentinKolb/dRel/lib/store/lstore"
	"github.com/ValentinKolb/dRel/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	ReplayCmd = &cobra.Command{
		Use:   "replay",
		Short: "Rebuild a matrix from a write-ahead log and print it",
		Long: `Rebuild a matrix from the write-ahead log of an lstore shard and print its cells.
The log is opened read-only in the sense that nothing is appended to it. The topology
must match the one the shard was served with.`,
		Args: cobra.NoArgs,
		RunE: run,
	}
)

func init() {
	key := "wal"
	ReplayCmd.Flags().String(key, "", cmdUtil.WrapString("Directory of the write-ahead log (e.g. <wal-dir>/shard-100)"))
	_ = ReplayCmd.MarkFlagRequired(key)

	key = "topology"
	ReplayCmd.Flags().String(key, string(store.TopologyOneToMany), cmdUtil.WrapString("Topology of the shard (one-to-one, one-to-many, many-to-many)"))

	key = "strategy"
	ReplayCmd.Flags().String(key, "ordered", cmdUtil.WrapString("Map strategy used to rebuild the matrix (unordered, ordered)"))

	key = "transactions"
	ReplayCmd.Flags().Bool(key, false, cmdUtil.WrapString("Print every replayed transaction"))
}

func run(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := common.InitLoggers("warn"); err != nil {
		return err
	}

	topology, err := store.ParseTopology(viper.GetString("topology"))
	if err != nil {
		return err
	}
	strategy, err := store.ParseStrategy(viper.GetString("strategy"))
	if err != nil {
		return err
	}

	w, err := wal.Open(wal.Config{Path: viper.GetString("wal")})
	if err != nil {
		return err
	}
	defer w.Close()

	return Replay(cmd.OutOrStdout(), w, store.MatrixFactory{Name: "replay", Topology: topology, Strategy: strategy}, viper.GetBool("transactions"))
}

// Replay rebuilds the matrix described by f from w and prints its cells and info to out.
func Replay(out io.Writer, w *wal.WAL, f store.MatrixFactory, printTransactions bool) error {
	s, err := lstore.Recover(f, func(fn func(seq uint64, tx journal.Transaction) error) error {
		return w.Replay(context.Background(), func(seq uint64, tx journal.Transaction) error {
			if printTransactions {
				fmt.Fprintf(out, "#%d tx %s (%d events)\n", seq, tx.ID, len(tx.Events))
				for _, e := range tx.Events {
					fmt.Fprintf(out, "    %v\n", e)
				}
			}
			return fn(seq, tx)
		})
	})
	if err != nil {
		return err
	}

	rows, err := s.Rows()
	if err != nil {
		return err
	}
	for _, row := range rows {
		cells, err := s.Row(row)
		if err != nil {
			return err
		}
		for _, cell := range cells {
			fmt.Fprintln(out, cell)
		}
	}

	info, err := s.GetInfo()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

