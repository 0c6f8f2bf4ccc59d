package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/spboyer/tabcheck/internal/checks"
	"github.com/spboyer/tabcheck/internal/dataset"
	"github.com/spboyer/tabcheck/internal/datasource"
	"github.com/spboyer/tabcheck/internal/model"
	"github.com/spboyer/tabcheck/internal/projectconfig"
	"github.com/spboyer/tabcheck/internal/reporting"
	"github.com/spboyer/tabcheck/internal/spinner"
	"github.com/spboyer/tabcheck/internal/suiteconfig"
)

type runOptions struct {
	project string

	data   string
	driver string
	dsn    string
	query  string

	label    string
	index    string
	date     string
	cat      []string
	features []string

	modelPath string
	fitLinear bool

	suitePath  string
	checkKinds []string

	format    string
	output    string
	save      bool
	workers   int
	verbose   bool
	noColor   bool
	interpret bool
}

func newRunCommand() *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a check suite against a dataset",
		Long: `Run a check suite against a dataset and an optional model.

Data comes from a CSV file (--data, optionally .gz or .zst compressed) or from a
SQL query (--query) against sqlite3, postgres or snowflake. Unset flags fall back
to .tabcheck.yaml and TABCHECK_* environment variables.

The suite is --suite, else the configured suite file when it exists, else every
check with its default conditions. --check runs only the named checks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSuite(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.project, "project", ".", "Directory to search (upwards) for "+projectconfig.FileName)
	f.StringVar(&o.data, "data", "", "CSV file to check")
	f.StringVar(&o.driver, "driver", "", "SQL driver: sqlite3, postgres or snowflake")
	f.StringVar(&o.dsn, "dsn", "", "SQL data source name (postgres and snowflake fall back to POSTGRES_*/SNOWFLAKE_* variables)")
	f.StringVar(&o.query, "query", "", "SQL query returning the dataset")
	f.StringVar(&o.label, "label", "", "Label column")
	f.StringVar(&o.index, "index", "", "Index column")
	f.StringVar(&o.date, "date", "", "Date column")
	f.StringSliceVar(&o.cat, "cat", nil, "Categorical feature columns (disables inference)")
	f.StringSliceVar(&o.features, "features", nil, "Feature columns (default: every column without a role)")
	f.StringVar(&o.modelPath, "model", "", "Linear model YAML file")
	f.BoolVar(&o.fitLinear, "fit-linear", false, "Fit a linear regression on the dataset and check it")
	f.StringVar(&o.suitePath, "suite", "", "Suite YAML file")
	f.StringArrayVar(&o.checkKinds, "check", nil, "Run only this check kind with its default conditions (can be repeated)")
	f.StringVar(&o.format, "format", projectconfig.DefaultFormat, "Output format: text, json, junit, markdown or html")
	f.StringVarP(&o.output, "output", "o", "", "Write the report to this file instead of stdout")
	f.BoolVar(&o.save, "save", false, "Also save a JSON report to the results directory")
	f.IntVar(&o.workers, "workers", 0, "Number of checks run at once")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Show progress, timings and the run ID")
	f.BoolVar(&o.noColor, "no-color", false, "Disable colored output")
	f.BoolVar(&o.interpret, "interpret", false, "Print a plain-language interpretation after a text report")
	cmd.MarkFlagsMutuallyExclusive("model", "fit-linear")

	return cmd
}

func runSuite(cmd *cobra.Command, o *runOptions) error {
	cfg, err := projectconfig.Load(o.project)
	if err != nil {
		return fmt.Errorf("loading project config: %w", err)
	}
	o.applyConfig(cmd, cfg)

	format, err := reporting.ParseFormat(o.format)
	if err != nil {
		return err
	}

	sf, err := o.loadSuite(cfg)
	if err != nil {
		return err
	}
	suite, err := sf.Build()
	if err != nil {
		return fmt.Errorf("building suite %q: %w", sf.Name, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	table, err := datasource.Load(ctx, datasource.Source{Path: o.data, Driver: o.driver, DSN: o.dsn, Query: o.query}, cfg.LookupEnv)
	if err != nil {
		return fmt.Errorf("loading data: %w", err)
	}
	ds, err := dataset.New(table, o.datasetOptions()...)
	if err != nil {
		return err
	}
	m, err := o.loadModel(ds)
	if err != nil {
		return err
	}

	workers := o.workers
	if !cmd.Flags().Changed("workers") {
		workers = cfg.Defaults.Workers
		if sf.Workers > 0 {
			workers = sf.Workers
		}
	}

	runOpts := checks.RunOptions{Workers: workers}
	progress := cmd.ErrOrStderr()
	var spin *spinner.Spinner
	switch {
	case o.verbose:
		runOpts.Progress = func(ev checks.ProgressEvent) { printProgress(progress, ev) }
	case isTerminal(progress):
		spin = spinner.Start(progress, fmt.Sprintf("Running suite %s", suite.Name))
		runOpts.Progress = func(ev checks.ProgressEvent) {
			if ev.EventType == checks.EventCheckStart {
				spin.Update(fmt.Sprintf("[%d/%d] %s", ev.CheckNum, ev.TotalChecks, ev.CheckName))
			}
		}
	}

	slog.Debug("Starting run", "suite", suite.Name, "rows", ds.Len(), "workers", workers)
	res, err := suite.Run(ctx, ds, m, runOpts)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}

	if err := o.writeReport(cmd, format, res); err != nil {
		return err
	}
	if o.save {
		path, err := saveResult(cfg.Resolve(cfg.Paths.Results), res)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Results saved to: %s\n", path) //nolint:errcheck
	}

	if !res.Passed() {
		return &ConditionFailureError{Message: fmt.Sprintf("suite %s: %d failed, %d errors out of %d checks",
			res.Suite, res.Count(checks.StatusFailed), res.Count(checks.StatusError), len(res.Outcomes))}
	}
	return nil
}

// applyConfig fills every option whose flag was not given from cfg. Paths
// from the config file resolve against its directory.
func (o *runOptions) applyConfig(cmd *cobra.Command, cfg *projectconfig.ProjectConfig) {
	changed := cmd.Flags().Changed
	str := func(flag string, dst *string, v string) {
		if !changed(flag) && v != "" {
			*dst = v
		}
	}
	if !changed("query") {
		str("data", &o.data, cfg.Resolve(cfg.Data.Path))
	}
	str("driver", &o.driver, cfg.Data.Driver)
	str("dsn", &o.dsn, cfg.Data.DSN)
	str("query", &o.query, cfg.Data.Query)
	str("label", &o.label, cfg.Data.Label)
	str("index", &o.index, cfg.Data.Index)
	str("date", &o.date, cfg.Data.Date)
	str("format", &o.format, cfg.Defaults.Format)
	if !changed("model") && !o.fitLinear {
		o.modelPath = cfg.Resolve(cfg.Data.Model)
	}
	if !changed("cat") && len(cfg.Data.Cat) > 0 {
		o.cat = cfg.Data.Cat
	}
	if !changed("verbose") && cfg.Defaults.Verbose != nil {
		o.verbose = *cfg.Defaults.Verbose
	}
	if !changed("no-color") && cfg.Defaults.Color != nil {
		o.noColor = !*cfg.Defaults.Color
	}
}

func (o *runOptions) loadSuite(cfg *projectconfig.ProjectConfig) (*suiteconfig.SuiteFile, error) {
	if len(o.checkKinds) > 0 {
		kinds := make([]checks.Kind, 0, len(o.checkKinds))
		for _, k := range o.checkKinds {
			if checks.Describe(checks.Kind(k)) == "" {
				return nil, fmt.Errorf("'%s' is not a valid check kind (see tabcheck list)", k)
			}
			kinds = append(kinds, checks.Kind(k))
		}
		return suiteconfig.ForKinds(kinds...), nil
	}

	path := o.suitePath
	if path == "" {
		candidate := cfg.Resolve(cfg.Paths.Suite)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		} else {
			slog.Debug("No suite file, using default suite", "looked_for", candidate)
		}
	}
	if path == "" {
		return suiteconfig.Default(), nil
	}
	sf, err := suiteconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading suite: %w", err)
	}
	return sf, nil
}

func (o *runOptions) datasetOptions() []dataset.Option {
	var opts []dataset.Option
	if o.label != "" {
		opts = append(opts, dataset.WithLabel(o.label))
	}
	if o.index != "" {
		opts = append(opts, dataset.WithIndex(o.index))
	}
	if o.date != "" {
		opts = append(opts, dataset.WithDate(o.date))
	}
	if len(o.features) > 0 {
		opts = append(opts, dataset.WithFeatures(o.features...))
	}
	if len(o.cat) > 0 {
		opts = append(opts, dataset.WithCatFeatures(o.cat...))
	}
	return opts
}

func (o *runOptions) loadModel(ds *dataset.Dataset) (model.Model, error) {
	switch {
	case o.modelPath != "":
		m, err := model.LoadLinear(o.modelPath)
		if err != nil {
			return nil, err
		}
		return m, nil
	case o.fitLinear:
		labels, err := ds.LabelValues()
		if err != nil {
			return nil, fmt.Errorf("--fit-linear: %w", err)
		}
		m := model.NewLinearRegression()
		if err := m.Fit(ds.FeatureTable(), labels); err != nil {
			return nil, fmt.Errorf("--fit-linear: %w", err)
		}
		return m, nil
	default:
		return nil, nil
	}
}

func (o *runOptions) writeReport(cmd *cobra.Command, format reporting.Format, res *checks.SuiteResult) error {
	w := cmd.OutOrStdout()
	if o.output != "" {
		if err := os.MkdirAll(filepath.Dir(o.output), 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		f, err := os.Create(o.output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close() //nolint:errcheck
		w = f
	}

	opts := reporting.Options{
		Color:   !o.noColor && isTerminal(w),
		Verbose: o.verbose,
	}
	if err := reporting.Write(w, format, res, opts); err != nil {
		return fmt.Errorf("writing %s report: %w", format, err)
	}
	if o.interpret && format == reporting.FormatText {
		if _, err := io.WriteString(w, "\n"+reporting.FormatSummaryReport(res)); err != nil {
			return err
		}
	}
	return nil
}

func saveResult(dir string, res *checks.SuiteResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating results directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.json", res.Suite, res.RunID))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("saving results: %w", err)
	}
	if err := reporting.WriteJSON(f, res); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}

func printProgress(w io.Writer, ev checks.ProgressEvent) {
	switch ev.EventType {
	case checks.EventCheckStart:
		fmt.Fprintf(w, "[%d/%d] %s started\n", ev.CheckNum, ev.TotalChecks, ev.CheckName) //nolint:errcheck
	case checks.EventCheckComplete:
		fmt.Fprintf(w, "[%d/%d] %s %s (%s)\n", ev.CheckNum, ev.TotalChecks, ev.CheckName, ev.Status, ev.Duration.Round(time.Millisecond)) //nolint:errcheck
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
