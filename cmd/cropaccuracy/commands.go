package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/cropaccuracy/internal/evaluation"
	"github.com/banshee-data/cropaccuracy/internal/store"
	"github.com/banshee-data/cropaccuracy/internal/version"
)

func newBootstrapCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Bootstrap accuracy per crop and week and write the result table and plots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			r := evaluation.NewRunner(cfg)
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close()
				r.Store = st
			}

			res, err := r.Bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d observations (%d dropped), %d strata in %v\n",
				res.Total-res.Dropped, res.Dropped, res.Table.Len(), res.Elapsed.Round(time.Millisecond))
			for _, p := range res.Outputs {
				fmt.Fprintf(out, "wrote %s\n", p)
			}
			if res.RunID != "" {
				fmt.Fprintf(out, "run %s\n", res.RunID)
			}
			return nil
		},
	}
}

func newWeekMetricsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "week-metrics",
		Short: "Compute MAE, MSE, R² and accuracy per week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			rows, path, err := evaluation.NewRunner(cfg).WeekMetrics(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WEEK\tN\tMAE\tMSE\tR2\tACCURACY")
			for _, m := range rows {
				fmt.Fprintf(tw, "%d\t%d\t%.4f\t%.4f\t%.4f\t%.4f\n", m.Week, m.N, m.MAE, m.MSE, m.R2, m.Accuracy)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
}

func newExportInputCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export-input",
		Short: "Export identifier, week, feature and label columns for simulation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			path, n, err := evaluation.NewRunner(cfg).ExportInput(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", n, path)
			return nil
		},
	}
}

func newRunsCmd(o *options) *cobra.Command {
	runs := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the recorded run history",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := o.requireStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			rs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tDATASET\tSTARTED\tDURATION\tRESAMPLES\tSEED\tOBS\tPREDICTOR")
			for _, r := range rs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%d\t%s\t%d\t%s\n",
					r.ID, r.Dataset, r.StartedAt.Format(time.RFC3339), r.Duration.Round(time.Millisecond),
					r.NResamples, strconv.FormatUint(r.Seed, 10), r.NObservations, r.Predictor)
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")

	show := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Print a run and its result rows as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := o.requireStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			run, err := st.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		},
	}

	del := &cobra.Command{
		Use:   "delete RUN_ID",
		Short: "Delete a run and its result rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := o.requireStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.DeleteRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	runs.AddCommand(list, show, del)
	return runs
}

var errNoDatabase = errors.New("no run database configured (use --db or db_path)")

func (o *options) requireStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errNoDatabase
	}
	return st, nil
}

func newMigrateCmd(o *options) *cobra.Command {
	mig := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the run history schema",
	}

	// openRaw opens the database without applying migrations.
	openRaw := func(cmd *cobra.Command) (*store.Store, error) {
		cfg, err := o.loadConfig(cmd)
		if err != nil {
			return nil, err
		}
		if cfg.GetDBPath() == "" {
			return nil, errNoDatabase
		}
		return store.Open(cfg.GetDBPath())
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openRaw(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.MigrateUp(); err != nil {
				return err
			}
			return printVersion(cmd, st)
		},
	}
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openRaw(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.MigrateDown(); err != nil {
				return err
			}
			return printVersion(cmd, st)
		},
	}
	status := &cobra.Command{
		Use:   "status",
		Short: "Show the current and latest schema versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openRaw(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			return printVersion(cmd, st)
		},
	}
	mig.AddCommand(up, down, status)
	return mig
}

func printVersion(cmd *cobra.Command, st *store.Store) error {
	v, dirty, err := st.MigrateVersion()
	if err != nil {
		return err
	}
	latest, err := store.LatestMigrationVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d of %d (dirty=%t)\n", v, latest, dirty)
	return nil
}

func newConfigCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cfg.Resolved())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cropaccuracy %s\n", version.String())
		},
	}
}
