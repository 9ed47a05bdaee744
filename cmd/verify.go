package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"eps-prepro/core/config"
	"eps-prepro/core/reconcile"
	"eps-prepro/feature/catalog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	purgeOutputs  bool
	repairOutputs bool
	dryRunVerify  bool
	yesConfirm    bool
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <parameter-file>",
	Short: "Compare merged outputs with the catalog and the bucket",
	Long: `Compares the merged outputs in the destination directory with the rows of the
catalog database and the objects of the storage bucket. With --purge, catalog
rows and objects without a local file are deleted. With --repair, local files
missing elsewhere or with a different size are uploaded and recorded again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, params, err := loadJob(args[0])
		if err != nil {
			return err
		}
		return runVerify(cmd.Context(), cfg, params)
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&purgeOutputs, "purge", false, "delete catalog rows and objects without a local output")
	verifyCmd.Flags().BoolVar(&repairOutputs, "repair", false, "upload and record local outputs that are missing or differ")
	verifyCmd.Flags().BoolVar(&dryRunVerify, "dry-run", false, "show planned actions without executing them")
	verifyCmd.Flags().BoolVarP(&yesConfirm, "yes", "y", false, "skip the confirmation prompt")
	RootCmd.AddCommand(verifyCmd)
}

func runVerify(ctx context.Context, cfg *config.Config, params *config.Parameters) error {
	l, err := consoleLogger(cfg)
	if err != nil {
		return err
	}
	defer l.Sync()

	store, err := openCatalog(cfg, false, l)
	if err != nil {
		return err
	}
	client, err := openStorage(ctx, cfg, l)
	if err != nil {
		return err
	}

	vo := catalog.VerifyOptions{
		DestDir:   params.DestinationDir,
		SkipLocal: cfg.Storage.RemoveAfterUpload,
		Store:     store,
		Client:    client,
		Storage:   cfg.Storage,
	}
	sources := vo.Sources()
	if sources.Checked().Count() < 2 {
		return fmt.Errorf("verify needs at least two of destination, catalog and storage; enable DATABASE_ENABLED or STORAGE_ENABLED")
	}

	opts := reconcile.Options{
		DoPurge:  purgeOutputs,
		DoRepair: repairOutputs,
		DryRun:   dryRunVerify,
	}

	l.Info("Planning verification...")
	plan, err := reconcile.ReconcileWithPlan(ctx, sources, opts)
	if err != nil {
		return fmt.Errorf("failed to plan verification: %w", err)
	}

	printVerifyReport(l, plan)
	checkMembers(l, plan, cfg.Job.Members)

	if !purgeOutputs && !repairOutputs {
		l.Info("No actions requested. Use --purge to delete orphaned entries or --repair to upload and record outputs.")
		return nil
	}
	if dryRunVerify {
		l.Info("Dry-run mode: No changes were made.")
		return nil
	}
	if len(plan.Actions) == 0 {
		l.Info("No actions required based on current flags.")
		return nil
	}
	if !confirmDestructiveAction() {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}
	opts.Confirmed = true

	repairer := &catalog.Repairer{
		DestDir:     params.DestinationDir,
		JobID:       params.JobID,
		ExecutionID: uuid.NewString(),
		Params:      params,
		Store:       store,
		Client:      client,
		Storage:     cfg.Storage,
	}

	l.Info("Applying actions...")
	executed, err := reconcile.ApplyPlan(ctx, repairer, plan, opts)
	if err != nil {
		return fmt.Errorf("failed to apply plan after %d actions: %w", executed, err)
	}
	l.Info("Successfully executed actions", zap.Int("count", executed))
	return nil
}

// printVerifyReport logs the summary and a sample of the planned actions.
func printVerifyReport(l *zap.Logger, plan *reconcile.Plan) {
	s := plan.Summary

	l.Info("Verification report",
		zap.Int("total_items", s.TotalItems),
		zap.Int("missing_local", s.MissingLocal),
		zap.Int("missing_catalog", s.MissingCatalog),
		zap.Int("missing_storage", s.MissingStorage),
		zap.Int("mismatches", s.Mismatches),
		zap.Bool("consistent", s.Consistent()),
	)

	if len(plan.Actions) == 0 {
		return
	}
	l.Info("Planned actions",
		zap.Int("purge_actions", s.PurgeActions),
		zap.Int("repair_actions", s.RepairActions),
		zap.Int("total_actions", len(plan.Actions)),
	)

	shown := min(len(plan.Actions), 5)
	for _, action := range plan.Actions[:shown] {
		l.Info("Sample action",
			zap.String("type", string(action.Type)),
			zap.String("key", action.Key),
			zap.String("reason", action.Reason),
		)
	}
	if len(plan.Actions) > shown {
		l.Info("Additional actions not shown", zap.Int("count", len(plan.Actions)-shown))
	}
}

// checkMembers warns about model runs that do not have one output per member.
func checkMembers(l *zap.Logger, plan *reconcile.Plan, members int) {
	keys := make([]string, 0, len(plan.Results))
	for _, r := range plan.Results {
		keys = append(keys, r.Key)
	}
	for _, rc := range catalog.IncompleteRuns(keys, members) {
		l.Warn("Model run with unexpected member count",
			zap.String("dir", rc.Dir),
			zap.Time("run_start", rc.RunStart),
			zap.Int("members", rc.Members),
			zap.Int("expected", members),
		)
	}
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\nAuto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\nType 'yes' to confirm destructive actions: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}
