package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"eps-prepro/core/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	paramsRoots  config.MonthRoots
	paramsOutput string
	paramsForce  bool
)

// paramsCmd represents the params command
var paramsCmd = &cobra.Command{
	Use:   "params <year> <month>",
	Short: "Write the parameter file of a monthly precipitation job",
	Long: `Writes a KEY = VALUE parameter file for one month of forecasts. Source and
destination are <root>/<YYYY>/<MM>. The file is named parameters_<YYYYMM>.dat
unless --output is given, and an existing file is kept unless --force is set.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid year %q: %w", args[0], err)
		}
		month, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid month %q: %w", args[1], err)
		}
		params, err := config.MonthlyPrecipitation(year, month, paramsRoots)
		if err != nil {
			return err
		}

		cfg, err := config.LoadConfig(configDir)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		l, err := consoleLogger(cfg)
		if err != nil {
			return err
		}
		defer l.Sync()

		path := paramsOutput
		if path == "" {
			path = fmt.Sprintf("parameters_%d.dat", params.JobID)
		}
		flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
		if paramsForce {
			flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		}
		f, err := os.OpenFile(path, flags, 0o644)
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s exists, use --force to overwrite", path)
		}
		if err != nil {
			return err
		}
		if _, err := params.WriteTo(f); err != nil {
			f.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return err
		}

		l.Info("Parameters file is created",
			zap.String("path", path),
			zap.Int("job_id", params.JobID),
			zap.String("source", params.SourceDir),
			zap.String("destination", params.DestinationDir),
		)
		return nil
	},
}

func init() {
	paramsCmd.Flags().StringVar(&paramsRoots.Source, "source-root", "", "directory holding <YYYY>/<MM> source trees")
	paramsCmd.Flags().StringVar(&paramsRoots.Destination, "destination-root", "", "directory receiving <YYYY>/<MM> outputs")
	paramsCmd.Flags().StringVar(&paramsRoots.Input, "input-dir", "", "directory with grid_des/ and missing/")
	paramsCmd.Flags().StringVarP(&paramsOutput, "output", "o", "", "parameter file to write")
	paramsCmd.Flags().BoolVar(&paramsForce, "force", false, "overwrite an existing parameter file")
	for _, name := range []string{"source-root", "destination-root", "input-dir"} {
		_ = paramsCmd.MarkFlagRequired(name)
	}
	RootCmd.AddCommand(paramsCmd)
}
