package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dRel/cmd/matrix"
	"github.com/ValentinKolb/dRel/cmd/replay"
	"github.com/ValentinKolb/dRel/cmd/serve"
	"github.com/ValentinKolb/dRel/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "drel",
		Short: "transactional relational matrix store",
		Long: fmt.Sprintf(`dRel (v%s)

Indexed relational containers (one-to-one, one-to-many, many-to-many)
with atomic transactions, a durable write-ahead log and optional RAFT
replication.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dRel",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dRel v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(matrix.MatrixCommands)
	RootCmd.AddCommand(replay.ReplayCmd)
	RootCmd.AddCommand(versionCmd)

	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
