package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gungorbudak/seten-cli/internal/compress"
	"github.com/gungorbudak/seten-cli/internal/duckdb"
	"github.com/gungorbudak/seten-cli/internal/enrich"
	"github.com/gungorbudak/seten-cli/internal/geneset"
	"github.com/gungorbudak/seten-cli/internal/pipeline"
	"github.com/gungorbudak/seten-cli/internal/signal"
	"github.com/gungorbudak/seten-cli/internal/stats"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <data>",
		Short: "Run gene set enrichment on a dataset or a directory of datasets",
		Long: `Run gene set enrichment on BED-like peak files or two-column gene score
files. Results of each dataset and collection are written to
<out>/<dataset>/<collection>_<method>.tsv.`,
		Example: `  seten run peaks.bed
  seten run --colls kegg,reactome --enr-mtd both --proc 8 data/
  seten run --mapping-file custom.tsv --coll-file sets.gmt --colls "" peaks.bed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnrichment(cmd, args[0])
		},
	}

	d := enrich.DefaultParams()
	f := cmd.Flags()
	f.String("organism", "hsa_hg19", "organism and assembly: "+strings.Join(organisms(), ", "))
	f.String("mapping-file", "", "coordinate mapping file (JSON or TSV), replaces the organism mapping")
	f.StringSlice("colls", []string{"kegg", "gobp"}, "gene set collections: "+strings.Join(geneset.Names, ", "))
	f.String("coll-file", "", "extra gene set collection in GMT or JSON format")
	f.String("enr-mtd", d.Method.String(), "enrichment method: gse, fe or both")
	f.String("scr-mtd", signal.Max.String(), "gene level score method: "+strings.Join(signal.MethodNames(), ", "))
	f.String("corr-mtd", "fdr", "functional enrichment correction: fdr or bh, by, bon")
	f.String("operator", d.Operator.String(), "direction of the median comparison: greater or less")
	f.Float64("pc", 0.05, "p-value cutoff for reported results")
	f.Int("gsc", d.GeneSetCutoff, "gene set cutoff, maximum gene set size")
	f.Int("oc", d.OverlapCutoff, "overlap cutoff, minimum overlap with the dataset")
	f.Float64("sc", d.SignificanceCutoff, "Mann-Whitney U cutoff of a gene set enrichment iteration")
	f.Int("iter", d.Iterations, "gene set enrichment iterations")
	f.Int("proc", 4, "parallel workers, capped at the CPU count")
	f.Int64("seed", 0, "random seed (taken from the clock when unset)")
	f.Int("score-column", signal.DefaultScoreColumn, "0-based score column of BED-like rows")
	f.String("out", "output", "output directory")
	f.String("compress", "none", "output compression: none, gz or lz4")
	f.String("db", "", "DuckDB file recording every tested gene set")

	for _, name := range runKeys {
		viper.BindPFlag(name, f.Lookup(name))
	}
	return cmd
}

// runKeys are the configuration keys of the run command.
var runKeys = []string{
	"organism", "mapping-file", "colls", "coll-file", "enr-mtd", "scr-mtd",
	"corr-mtd", "operator", "pc", "gsc", "oc", "sc", "iter", "proc", "seed",
	"score-column", "out", "compress", "db",
}

// seedIsSet reports whether a seed was given by flag, config file or
// environment. Without one the run seeds from the clock.
func seedIsSet(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("seed") || viper.InConfig("seed") {
		return true
	}
	_, ok := os.LookupEnv("SETEN_SEED")
	return ok
}

// runSettings resolves configuration values into pipeline inputs. Invalid
// names fail before any file is read.
func runSettings(cmd *cobra.Command) (pipeline.Config, pipeline.Resources, error) {
	var cfg pipeline.Config

	scr, err := signal.ParseMethod(viper.GetString("scr-mtd"))
	if err != nil {
		return cfg, pipeline.Resources{}, usageError{err}
	}
	corr, err := stats.ParseCorrection(viper.GetString("corr-mtd"))
	if err != nil {
		return cfg, pipeline.Resources{}, usageError{err}
	}
	method, err := enrich.ParseMethod(viper.GetString("enr-mtd"))
	if err != nil {
		return cfg, pipeline.Resources{}, usageError{err}
	}
	op, err := enrich.ParseOperator(viper.GetString("operator"))
	if err != nil {
		return cfg, pipeline.Resources{}, usageError{err}
	}
	kind, err := compress.ParseKind(viper.GetString("compress"))
	if err != nil {
		return cfg, pipeline.Resources{}, usageError{err}
	}

	params := enrich.Params{
		Method:             method,
		Operator:           op,
		SignificanceCutoff: viper.GetFloat64("sc"),
		Iterations:         viper.GetInt("iter"),
		GeneSetCutoff:      viper.GetInt("gsc"),
		OverlapCutoff:      viper.GetInt("oc"),
		Seed:               viper.GetInt64("seed"),
	}
	if err := params.Validate(); err != nil {
		return cfg, pipeline.Resources{}, usageError{err}
	}
	pc := viper.GetFloat64("pc")
	if pc <= 0 || pc > 1 {
		return cfg, pipeline.Resources{}, usagef("p-value cutoff %g outside (0, 1]", pc)
	}

	cfg = pipeline.Config{
		ScoreMethod:  scr,
		ScoreColumn:  viper.GetInt("score-column"),
		Correction:   corr,
		Params:       params,
		PValueCutoff: pc,
		Workers:      viper.GetInt("proc"),
		OutDir:       viper.GetString("out"),
		Compression:  kind,
		Organism:     viper.GetString("organism"),
		ClockSeed:    !seedIsSet(cmd),
	}

	var colls []string
	for _, c := range viper.GetStringSlice("colls") {
		if c = strings.TrimSpace(c); c != "" {
			if !geneset.IsName(c) {
				return cfg, pipeline.Resources{}, usagef("unknown collection %q (want one of %s)", c, strings.Join(geneset.Names, ", "))
			}
			colls = append(colls, c)
		}
	}
	res := pipeline.Resources{
		Dir:            viper.GetString("resources"),
		Organism:       viper.GetString("organism"),
		MappingFile:    viper.GetString("mapping-file"),
		Collections:    colls,
		CollectionFile: viper.GetString("coll-file"),
	}
	if len(colls) == 0 && res.CollectionFile == "" {
		return cfg, res, usagef("no gene set collection selected, set --colls or --coll-file")
	}
	return cfg, res, nil
}

func runEnrichment(cmd *cobra.Command, data string) error {
	cfg, res, err := runSettings(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(viper.GetBool("verbose"))
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	paths, err := pipeline.DatasetPaths(data)
	if err != nil {
		return err
	}

	idx, colls, err := res.Load(logger)
	if err != nil {
		if pipeline.IsNotFound(err) {
			logger.Error("missing resource", zap.Error(err))
			return fmt.Errorf("%w (hint: seten download --organism %s)", err, res.Organism)
		}
		return err
	}

	runner, err := pipeline.New(cfg, idx, colls)
	if err != nil {
		return usageError{err}
	}
	runner.SetLogger(logger)

	if dbPath := viper.GetString("db"); dbPath != "" {
		store, err := duckdb.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		runner.SetStore(store)
	}

	reports, err := runner.Run(cmd.Context(), paths)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, rep := range reports {
		path := rep.Path
		if path == "" {
			path = "-"
		}
		fmt.Fprintf(out, "%s\t%s\t%d/%d significant\t%s\n", rep.Dataset, rep.Collection, rep.Significant, rep.Tested, path)
	}
	return nil
}
