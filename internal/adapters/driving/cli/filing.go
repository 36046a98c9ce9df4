package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/strategy"
)

var filingCmd = &cobra.Command{
	Use:   "filing",
	Short: "Fetch SEC EDGAR filings",
	Long: `Look up companies, list filings and read 10-K / 10-Q sections from SEC EDGAR.

EDGAR requires a User-Agent naming you and a contact address:
  finkit settings set edgar.user_agent "Jane Doe jane@example.com"`,
}

var filingCompanyCmd = &cobra.Command{
	Use:   "company [ticker]",
	Short: "Resolve a ticker to its CIK",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilingCompany,
}

var filingListCmd = &cobra.Command{
	Use:   "list [ticker]",
	Short: "List recent filings",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilingList,
}

var filingGetCmd = &cobra.Command{
	Use:   "get [ticker]",
	Short: "Fetch a filing and list its sections",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilingGet,
}

var filingSectionCmd = &cobra.Command{
	Use:   "section [ticker] [item]",
	Short: "Print one section of the latest filing",
	Long: `Print one section of the latest filing of a form.

Items accept "1A", "Item 1A" or "item_1a". For 10-Q filings prefix the part,
e.g. "part_ii_item_1a".`,
	Args: cobra.ExactArgs(2),
	RunE: runFilingSection,
}

var filingBatchCmd = &cobra.Command{
	Use:   "batch [ticker...]",
	Short: "Fetch the latest filing for several tickers",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFilingBatch,
}

var (
	filingForm  string
	filingLimit int
	filingIndex int
	filingRaw   bool
)

func init() {
	for _, c := range []*cobra.Command{filingListCmd, filingGetCmd, filingSectionCmd, filingBatchCmd} {
		c.Flags().StringVarP(&filingForm, "form", "f", domain.FormAnnual, "Form type (10-K, 10-Q, 8-K, ...)")
	}
	filingListCmd.Flags().IntVarP(&filingLimit, "limit", "n", 10, "Maximum filings to list (0 = all)")
	filingGetCmd.Flags().IntVarP(&filingIndex, "index", "i", 0, "Which filing, 0 = most recent")
	filingSectionCmd.Flags().BoolVar(&filingRaw, "raw", false, "Print markdown without terminal styling")

	filingCmd.AddCommand(filingCompanyCmd)
	filingCmd.AddCommand(filingListCmd)
	filingCmd.AddCommand(filingGetCmd)
	filingCmd.AddCommand(filingSectionCmd)
	filingCmd.AddCommand(filingBatchCmd)
	rootCmd.AddCommand(filingCmd)
}

func runFilingCompany(cmd *cobra.Command, args []string) error {
	if filingService == nil {
		return errFilingUnavailable
	}
	c, err := filingService.ResolveCompany(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), c)
	}
	cmd.Printf("%s  CIK %s  %s\n", c.Ticker, c.PaddedCIK(), c.Name)
	return nil
}

func runFilingList(cmd *cobra.Command, args []string) error {
	if filingService == nil {
		return errFilingUnavailable
	}
	refs, err := filingService.ListFilings(cmd.Context(), args[0], filingForm, filingLimit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), refs)
	}
	if len(refs) == 0 {
		cmd.Printf("No %s filings found for %s\n", filingForm, strings.ToUpper(args[0]))
		return nil
	}

	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"#", "Form", "Filed", "Period", "Accession", "Document"})
	for i, r := range refs {
		t.AppendRow(table.Row{i, r.Form, formatDate(r.FilingDate), formatDate(r.ReportDate), r.AccessionNumber, r.PrimaryDocument})
	}
	t.Render()
	return nil
}

func runFilingGet(cmd *cobra.Command, args []string) error {
	if filingService == nil {
		return errFilingUnavailable
	}
	f, err := filingService.GetFiling(cmd.Context(), args[0], filingForm, filingIndex)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), f)
	}

	cmd.Printf("%s %s filed %s\n", f.Company.Name, f.Ref.Form, formatDate(f.Ref.FilingDate))
	cmd.Printf("%s\n\n", f.Ref.URL())
	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Key", "Title", "Chars"})
	for _, s := range f.Sections {
		t.AppendRow(table.Row{s.Key, truncate(s.Title, 60), len(s.Content)})
	}
	t.Render()
	return nil
}

func runFilingSection(cmd *cobra.Command, args []string) error {
	if filingService == nil {
		return errFilingUnavailable
	}
	s, err := filingService.GetSection(cmd.Context(), args[0], filingForm, args[1])
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), s)
	}

	md := "## " + s.Title + "\n\n" + s.Content
	if filingRaw || !stdoutIsTerminal(cmd) {
		cmd.Println(md)
		return nil
	}
	cmd.Print(renderMarkdown(md, strategy.TerminalWidth(os.Stdout)))
	return nil
}

func runFilingBatch(cmd *cobra.Command, args []string) error {
	if filingService == nil {
		return errFilingUnavailable
	}
	results := filingService.BatchFetch(cmd.Context(), args, filingForm)

	if jsonOutput {
		type row struct {
			Ticker   string   `json:"ticker"`
			Filed    string   `json:"filed,omitempty"`
			URL      string   `json:"url,omitempty"`
			Sections []string `json:"sections,omitempty"`
			Error    string   `json:"error,omitempty"`
		}
		out := make([]row, len(results))
		for i, r := range results {
			out[i].Ticker = r.Ticker
			if r.Err != nil {
				out[i].Error = r.Err.Error()
				continue
			}
			out[i].Filed = formatDate(r.Filing.Ref.FilingDate)
			out[i].URL = r.Filing.Ref.URL()
			out[i].Sections = r.Filing.SectionKeys()
		}
		return printJSON(cmd.OutOrStdout(), out)
	}

	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Ticker", "Filed", "Sections", "Status"})
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			t.AppendRow(table.Row{r.Ticker, "-", "-", r.Err.Error()})
			continue
		}
		t.AppendRow(table.Row{r.Ticker, formatDate(r.Filing.Ref.FilingDate), len(r.Filing.Sections), "ok"})
	}
	t.Render()
	if failed > 0 {
		return fmt.Errorf("%d of %d tickers failed", failed, len(results))
	}
	return nil
}
