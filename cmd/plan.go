package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"eps-prepro/feature/inventory"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var planJSON bool

// planCmd represents the plan command
var planCmd = &cobra.Command{
	Use:   "plan <parameter-file>",
	Short: "Show how a job would distribute its units without processing them",
	Long: `Scans the source directory of a parameter file and prints the unit
assignment per worker rank. Nothing is written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, params, err := loadJob(args[0])
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("workers") {
			cfg.Job.Workers = workersFlag
		}

		inv, err := inventory.Scan(params.SourceDir, params.Granularity)
		if err != nil {
			return err
		}
		assignment, err := inventory.Distribute(inv, cfg.Job.Workers)
		if err != nil {
			return err
		}

		if planJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Inventory  *inventory.Inventory  `json:"inventory"`
				Assignment *inventory.Assignment `json:"assignment"`
			}{inv, assignment})
		}

		l, err := consoleLogger(cfg)
		if err != nil {
			return err
		}
		defer l.Sync()

		l.Info("Source scanned",
			zap.String("root", inv.Root),
			zap.Stringer("granularity", inv.Granularity),
			zap.Int("units", len(inv.Units)),
			zap.Int64("total_size", inv.TotalSize),
			zap.Int("total_files", inv.TotalFiles),
		)
		for _, load := range assignment.Loads {
			if load.Idle() {
				l.Info(fmt.Sprintf("Processor : %d is idle", load.Rank))
				continue
			}
			l.Info("Assignment",
				zap.Int("rank", load.Rank),
				zap.Int("units", len(load.Units)),
				zap.Int64("size", load.Size),
				zap.Strings("unit_ids", load.Units),
			)
		}
		return nil
	},
}

func init() {
	planCmd.Flags().IntVar(&workersFlag, "workers", 0, "number of workers (overrides JOB_WORKERS)")
	planCmd.Flags().BoolVar(&planJSON, "json", false, "print the inventory and assignment as JSON")
	RootCmd.AddCommand(planCmd)
}
