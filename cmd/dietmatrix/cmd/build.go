package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pelagiclab/dietmatrix"
	"github.com/pelagiclab/dietmatrix/internal/config"
	"github.com/pelagiclab/dietmatrix/internal/csvio"
	"github.com/pelagiclab/dietmatrix/pkg/logging"
	"github.com/pelagiclab/dietmatrix/pkg/mask"
	"github.com/pelagiclab/dietmatrix/pkg/tables"
)

// identityColumns are the identity/metadata columns a source file may
// carry. Columns outside this set are treated as measurements.
var identityColumns = []string{
	tables.ColStudy, tables.ColLogNumber,
	"sample_date", "station",
	"fork_length_mm", "weight_g",
	"gut_contents", "gut_fullness",
	"total_prey_n", "total_prey_wt_g",
}

// buildCmd runs a full matrix build from a job file.
var buildCmd = &cobra.Command{
	Use:   "build <job.yaml>",
	Short: "Build the reconciled matrix from a job file",
	Long: `Build reads the job file, loads every source table, reconciles
them into the final matrix, and writes the output CSV. Warnings that
need review are printed after the build; integrity violations abort it.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	job, err := config.LoadJob(args[0])
	if err != nil {
		return err
	}

	opts := make([]dietmatrix.Option, 0, len(job.Sources)+1)
	for _, files := range job.Sources {
		src, err := loadSource(files)
		if err != nil {
			return err
		}
		opts = append(opts, dietmatrix.WithSource(src))
	}

	if job.Windows != "" {
		windows, err := mask.Load(job.Windows)
		if err != nil {
			return err
		}
		opts = append(opts, dietmatrix.WithWindows(windows))
	}

	pipeline, err := dietmatrix.New(opts...)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	if err := csvio.WriteMatrix(job.Output, result.Matrix); err != nil {
		return err
	}

	if job.PreyLengths != nil {
		keep := make(map[string]bool, result.Matrix.Len())
		for _, r := range result.Matrix.Records {
			keep[tables.Str(r.Get(tables.ColUniqueID))] = true
		}
		if _, err := csvio.FilterByUniqueID(job.PreyLengths.Input, job.PreyLengths.Output, tables.ColUniqueID, keep); err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
	for _, w := range result.JoinWarnings {
		fmt.Fprintln(cmd.OutOrStdout(), "  join: "+w.String())
	}
	for _, m := range result.Audit.SumMismatches {
		fmt.Fprintln(cmd.OutOrStdout(), "  sum: "+m.String())
	}
	for _, v := range result.Audit.EmptyGuts {
		fmt.Fprintln(cmd.OutOrStdout(), "  gut: "+v.String())
	}

	log.Info().Str("output", job.Output).Msg("Build complete")
	return nil
}

// loadSource reads one program's files into a pipeline Source.
func loadSource(files config.SourceFiles) (dietmatrix.Source, error) {
	src := dietmatrix.Source{Study: files.Study}

	diet, err := csvio.ReadTable(files.Diet, csvio.ReadOptions{
		Name:      files.Study + "_diet",
		LogColumn: files.LogColumn,
		Required:  []string{tables.ColLogNumber},
		Identity:  identityColumns,
	})
	if err != nil {
		return src, err
	}
	src.Diet = diet

	if files.Empties != "" {
		empties, err := csvio.ReadTable(files.Empties, csvio.ReadOptions{
			Name:      files.Study + "_empties",
			LogColumn: files.LogColumn,
			Required:  []string{tables.ColLogNumber},
			Identity:  identityColumns,
		})
		if err != nil {
			return src, err
		}
		src.Empties = empties
	}

	if files.Presence != "" {
		presence, err := csvio.ReadTable(files.Presence, csvio.ReadOptions{
			Name:      files.Study + "_presence",
			LogColumn: files.LogColumn,
			Required:  []string{tables.ColLogNumber},
			Identity:  identityColumns,
		})
		if err != nil {
			return src, err
		}
		src.Presence = presence
	}

	return src, nil
}
