package cmd

import (
	"fmt"
	"strconv"

	"eps-prepro/feature/merge"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// missingCmd represents the missing command
var missingCmd = &cobra.Command{
	Use:   "missing <parameter-file> <datafile> <variable> <value>",
	Short: "Create the missing-hour template of a variable",
	Long: `Copies one per-hour file of a variable with every value replaced by the
given fill value. The result is written to Input_Directory/missing/<variable>.missing
and is substituted for absent forecast hours during merging.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return fmt.Errorf("invalid fill value %q: %w", args[3], err)
		}
		cfg, params, err := loadJob(args[0])
		if err != nil {
			return err
		}
		l, err := consoleLogger(cfg)
		if err != nil {
			return err
		}
		defer l.Sync()

		dest, err := merge.WriteMissingTemplate(cmd.Context(), newAdapter(cfg, l), params, args[1], args[2], value)
		if err != nil {
			return err
		}
		l.Info("Missing-hour template written",
			zap.String("variable", args[2]),
			zap.String("source", args[1]),
			zap.Float64("value", value),
			zap.String("path", dest),
		)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(missingCmd)
}
