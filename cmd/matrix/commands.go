package matrix

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ValentinKolb/dRel/lib/store"
	"github.com/spf13/cobra"
)

var (
	addCmd = &cobra.Command{
		Use:   "add [row] [col] [value]",
		Short: "Adds a cell, evicting the cells it conflicts with",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value []byte
			if len(args) == 3 {
				value = []byte(args[2])
			}
			if cmd.Flags().Changed("if-no-conflict") {
				if err := rpcStore.Batch([]store.Op{{Type: store.OpTAddIfNoConflict, Row: args[0], Col: args[1], Value: value}}); err != nil {
					return err
				}
			} else if err := rpcStore.Add(args[0], args[1], value); err != nil {
				return err
			}
			fmt.Println("added successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [row] [col]",
		Short: "Reads the value of a cell",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, ok, err := rpcStore.Get(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("row=%s, col=%s, found=%v, value=%s\n", args[0], args[1], ok, value)
			return nil
		},
	}
	getByColCmd = &cobra.Command{
		Use:   "owner [col]",
		Short: "Reads the cell owning a col (not available for many-to-many shards)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cell, ok, err := rpcStore.GetByCol(args[0])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Printf("col=%s, found=false\n", args[0])
				return nil
			}
			fmt.Printf("col=%s, found=true, cell=%s\n", args[0], cell)
			return nil
		},
	}
	conflictsCmd = &cobra.Command{
		Use:   "conflicts [row] [col]",
		Short: "Checks whether adding a cell would overwrite or evict another cell",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := rpcStore.DoesNotConflict(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("row=%s, col=%s, conflicts=%t\n", args[0], args[1], !ok)
			return nil
		},
	}
	eraseCmd = &cobra.Command{
		Use:   "erase [row] [col]",
		Short: "Erases a cell",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcStore.Erase(args[0], args[1]); err != nil {
				return err
			}
			fmt.Println("erased successfully")
			return nil
		},
	}
	eraseColCmd = &cobra.Command{
		Use:   "erase-col [col]",
		Short: "Erases all cells of a col",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcStore.EraseCol(args[0]); err != nil {
				return err
			}
			fmt.Println("erased successfully")
			return nil
		},
	}
	rowCmd = &cobra.Command{
		Use:   "row [row]",
		Short: "Lists the cells of a row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cells, err := rpcStore.Row(args[0])
			return printCells(cells, err)
		},
	}
	colCmd = &cobra.Command{
		Use:   "col [col]",
		Short: "Lists the cells of a col",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cells, err := rpcStore.Col(args[0])
			return printCells(cells, err)
		},
	}
	rowsCmd = &cobra.Command{
		Use:   "rows",
		Short: "Lists all rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := rpcStore.Rows()
			return printKeys(rows, err)
		},
	}
	colsCmd = &cobra.Command{
		Use:   "cols",
		Short: "Lists all cols",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cols, err := rpcStore.Cols()
			return printKeys(cols, err)
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints metadata about the matrix of the shard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := rpcStore.GetInfo()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
	batchCmd = &cobra.Command{
		Use:   "batch [file]",
		Short: "Applies a JSON list of ops as one transaction (reads stdin if no file is given)",
		Long: `Applies a JSON list of ops as one transaction. Either all ops take effect or none.
Example:

  [
    {"type": 2, "row": "alice", "col": "book-1"},
    {"type": 1, "row": "bob", "col": "book-1", "value": "MjAyNC0wNS0wMQ=="}
  ]

Types: 0 = add, 1 = add if no conflict, 2 = erase, 3 = erase col. Values are base64 encoded.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := readOps(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			if err := rpcStore.Batch(ops); err != nil {
				return err
			}
			fmt.Printf("batch of %d ops applied successfully\n", len(ops))
			return nil
		},
	}
)

func init() {
	addCmd.Flags().Bool("if-no-conflict", false, "Abort instead of evicting conflicting cells")
}

func readOps(stdin io.Reader, args []string) ([]store.Op, error) {
	r := stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var ops []store.Op
	if err := json.NewDecoder(r).Decode(&ops); err != nil {
		return nil, fmt.Errorf("invalid batch: %w", err)
	}
	return ops, nil
}

func printCells(cells []store.Cell, err error) error {
	if err != nil {
		return err
	}
	for _, cell := range cells {
		fmt.Println(cell)
	}
	fmt.Printf("(%d cells)\n", len(cells))
	return nil
}

func printKeys(keys []string, err error) error {
	if err != nil {
		return err
	}
	for _, key := range keys {
		fmt.Println(key)
	}
	fmt.Printf("(%d keys)\n", len(keys))
	return nil
}
