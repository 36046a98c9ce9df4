package cli

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/finkit/internal/analysis/factor"
	"github.com/custodia-labs/finkit/internal/core/domain"
)

var factorCmd = &cobra.Command{
	Use:   "factor",
	Short: "Factor analysis on CSV exposures",
	Long: `Normalise, orthogonalise, decompose and validate factor exposures.

Input is CSV with a header row: the first column names the asset and each
further column holds one factor. Empty cells and NA are missing values.
Use "-" to read from stdin.`,
}

var factorNormalizeCmd = &cobra.Command{
	Use:   "normalize [file]",
	Short: "Normalise every factor column",
	Long: `Normalise every factor column and write the result as CSV.

Methods:
  zscore     zero mean, unit standard deviation
  minmax     rescale onto [0, 1]
  rank       average-tie ranks scaled onto [0, 1]
  winsorize  clip to the --pct and 1-pct quantiles`,
	Args: cobra.ExactArgs(1),
	RunE: runFactorNormalize,
}

var factorOrthogonalizeCmd = &cobra.Command{
	Use:   "orthogonalize [file]",
	Short: "Sequentially orthogonalise factors by OLS",
	Args:  cobra.ExactArgs(1),
	RunE:  runFactorOrthogonalize,
}

var factorPCACmd = &cobra.Command{
	Use:   "pca [file]",
	Short: "Principal components of standardised factors",
	Args:  cobra.ExactArgs(1),
	RunE:  runFactorPCA,
}

var factorQuantileCmd = &cobra.Command{
	Use:   "quantile [file]",
	Short: "Bucket a factor and compare forward returns",
	Args:  cobra.ExactArgs(1),
	RunE:  runFactorQuantile,
}

var (
	factorMethod     string
	factorPct        float64
	factorOrder      []string
	factorComponents int
	factorName       string
	factorReturns    string
	factorQuantiles  int
	factorOutput     string
)

func init() {
	factorNormalizeCmd.Flags().StringVarP(&factorMethod, "method", "m", "zscore", "zscore, minmax, rank or winsorize")
	factorNormalizeCmd.Flags().Float64Var(&factorPct, "pct", 0.01, "Tail fraction clipped by winsorize")
	factorNormalizeCmd.Flags().StringVarP(&factorOutput, "output", "o", "", "Write CSV to file instead of stdout")
	factorOrthogonalizeCmd.Flags().StringSliceVar(&factorOrder, "order", nil, "Factor order (default: column order)")
	factorOrthogonalizeCmd.Flags().StringVarP(&factorOutput, "output", "o", "", "Write CSV to file instead of stdout")
	factorPCACmd.Flags().IntVarP(&factorComponents, "components", "k", 0, "Components to keep (0 = all)")
	factorQuantileCmd.Flags().StringVar(&factorName, "factor", "", "Factor column to sort on")
	factorQuantileCmd.Flags().StringVar(&factorReturns, "returns", "fwd_return", "Forward return column")
	factorQuantileCmd.Flags().IntVarP(&factorQuantiles, "quantiles", "q", 5, "Number of buckets")
	_ = factorQuantileCmd.MarkFlagRequired("factor")

	factorCmd.AddCommand(factorNormalizeCmd)
	factorCmd.AddCommand(factorOrthogonalizeCmd)
	factorCmd.AddCommand(factorPCACmd)
	factorCmd.AddCommand(factorQuantileCmd)
	rootCmd.AddCommand(factorCmd)
}

func readFrame(path string) (factor.Frame, error) {
	f, err := openInput(path)
	if err != nil {
		return factor.Frame{}, err
	}
	defer f.Close()
	return factor.ReadFrame(f)
}

// writeFrameOutput writes to factorOutput if set, else to the command's stdout.
func writeFrameOutput(cmd *cobra.Command, frame factor.Frame) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), frame)
	}
	var w io.Writer = cmd.OutOrStdout()
	if factorOutput != "" {
		f, err := os.Create(factorOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return factor.WriteFrame(w, frame)
}

func normalizer(method string, pct float64) (func([]float64) []float64, error) {
	switch strings.ToLower(method) {
	case "zscore", "z":
		return factor.ZScore, nil
	case "minmax":
		return factor.MinMax, nil
	case "rank":
		return factor.Rank, nil
	case "winsorize", "winsor":
		if _, err := factor.Winsorize(nil, pct); err != nil {
			return nil, err
		}
		return func(x []float64) []float64 {
			out, _ := factor.Winsorize(x, pct)
			return out
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown method %q", domain.ErrInvalidInput, method)
	}
}

func runFactorNormalize(cmd *cobra.Command, args []string) error {
	fn, err := normalizer(factorMethod, factorPct)
	if err != nil {
		return err
	}
	frame, err := readFrame(args[0])
	if err != nil {
		return err
	}
	return writeFrameOutput(cmd, frame.Apply(fn))
}

func runFactorOrthogonalize(cmd *cobra.Command, args []string) error {
	frame, err := readFrame(args[0])
	if err != nil {
		return err
	}
	out, err := factor.OrthogonalizeFrame(frame, factorOrder)
	if err != nil {
		return err
	}
	return writeFrameOutput(cmd, out)
}

func runFactorPCA(cmd *cobra.Command, args []string) error {
	frame, err := readFrame(args[0])
	if err != nil {
		return err
	}
	res, err := factor.PCA(frame, factorComponents)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), res)
	}

	t := newTable(cmd.OutOrStdout())
	header := table.Row{"Component", "Variance", "Explained"}
	for _, name := range res.Factors {
		header = append(header, name)
	}
	t.AppendHeader(header)
	cum := 0.0
	for i, comp := range res.Components {
		cum += res.ExplainedRatio[i]
		row := table.Row{
			fmt.Sprintf("PC%d", i+1),
			fmt.Sprintf("%.4f", res.ExplainedVariance[i]),
			fmt.Sprintf("%.1f%% (%.1f%%)", res.ExplainedRatio[i]*100, cum*100),
		}
		for _, l := range comp {
			row = append(row, fmt.Sprintf("%.3f", l))
		}
		t.AppendRow(row)
	}
	t.Render()
	cmd.Printf("%d assets used\n", len(res.Assets))
	return nil
}

func runFactorQuantile(cmd *cobra.Command, args []string) error {
	frame, err := readFrame(args[0])
	if err != nil {
		return err
	}
	fac, ok := frame.Factor(factorName)
	if !ok {
		return fmt.Errorf("%w: no column %q", domain.ErrInvalidInput, factorName)
	}
	ret, ok := frame.Factor(factorReturns)
	if !ok {
		return fmt.Errorf("%w: no column %q", domain.ErrInvalidInput, factorReturns)
	}
	rep, err := factor.QuantileValidate(fac.Values, ret.Values, factorQuantiles)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), rep)
	}

	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Quantile", "Count", "Factor range", "Mean return"})
	for _, b := range rep.Buckets {
		t.AppendRow(table.Row{
			b.Quantile,
			b.Count,
			fmt.Sprintf("%.4g .. %.4g", b.MinFactor, b.MaxFactor),
			fmt.Sprintf("%.4f%%", b.MeanReturn*100),
		})
	}
	t.Render()
	cmd.Printf("Spread (Q%d - Q1): %.4f%%\n", factorQuantiles, rep.Spread*100)
	cmd.Printf("Monotonic:        %t\n", rep.Monotonic)
	if math.IsNaN(rep.IC) {
		cmd.Println("IC (Spearman):    n/a")
	} else {
		cmd.Printf("IC (Spearman):    %.4f\n", rep.IC)
	}
	cmd.Printf("Observations:     %d\n", rep.Observations)
	return nil
}
