package matrix

import (
	"github.com/ValentinKolb/dRel/cmd/util"
	"github.com/ValentinKolb/dRel/lib/store"
	"github.com/ValentinKolb/dRel/rpc/client"
	"github.com/ValentinKolb/dRel/rpc/transport/http"
	"github.com/spf13/cobra"
)

var (
	rpcStore store.IStore

	// MatrixCommands represents the matrix command group
	MatrixCommands = &cobra.Command{
		Use:               "matrix",
		Short:             "Perform operations on a matrix shard",
		PersistentPreRunE: setupClient,
	}
)

func init() {
	util.SetupRPCClientFlags(MatrixCommands)

	MatrixCommands.AddCommand(addCmd)
	MatrixCommands.AddCommand(getCmd)
	MatrixCommands.AddCommand(getByColCmd)
	MatrixCommands.AddCommand(conflictsCmd)
	MatrixCommands.AddCommand(eraseCmd)
	MatrixCommands.AddCommand(eraseColCmd)
	MatrixCommands.AddCommand(rowCmd)
	MatrixCommands.AddCommand(colCmd)
	MatrixCommands.AddCommand(rowsCmd)
	MatrixCommands.AddCommand(colsCmd)
	MatrixCommands.AddCommand(infoCmd)
	MatrixCommands.AddCommand(batchCmd)
	MatrixCommands.AddCommand(perfTestCmd)
}

// setupClient initializes the RPC store client
func setupClient(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	rpcStore, err = client.NewRPCStore(
		util.GetShardID(),
		*util.GetClientConfig(),
		http.NewHttpClientTransport(),
		s,
	)
	return err
}
