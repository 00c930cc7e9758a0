package commands

import (
	"github.com/spf13/cobra"

	"github.com/vertexchain/vertex/src/config"
)

var _config = config.NewDefaultConfig()

// RootCmd is the root command for vertex
var RootCmd = &cobra.Command{
	Use:              "vertex",
	Short:            "vertex node",
	TraverseChildren: true,
}
