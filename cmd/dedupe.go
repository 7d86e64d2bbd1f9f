package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/ai"
	"github.com/sells-group/lead-enrich/internal/consolidate"
	"github.com/sells-group/lead-enrich/internal/export"
)

var (
	dedupeOut string
	dedupeAI  bool
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe <input.csv|input.xlsx>",
	Short: "Merge duplicate leads in a CSV or XLSX file",
	Long:  "Groups near-duplicate leads by name, company, email and phone similarity and writes one consolidated record per group.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("dedupe"); err != nil {
			return err
		}

		d := rulesOnly()
		if dedupeAI {
			gen, err := ai.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			ai.LogSelected(gen)
			d = consolidate.New(gen)
		}

		return runDedupe(cmd.Context(), d, args[0], dedupeOut, cmd.OutOrStdout())
	},
}

func init() {
	dedupeCmd.Flags().StringVarP(&dedupeOut, "out", "o", "", "output file, .csv or .xlsx (default: print JSON summary only)")
	dedupeCmd.Flags().BoolVar(&dedupeAI, "ai", false, "let the configured AI provider pick values within duplicate groups")
	rootCmd.AddCommand(dedupeCmd)
}

// rulesOnly merges duplicate groups with the deterministic rules.
func rulesOnly() *consolidate.Consolidator {
	return consolidate.New(nil)
}

// dedupeSummary is printed after a batch run.
type dedupeSummary struct {
	Input           string `json:"input"`
	Output          string `json:"output,omitempty"`
	InputCount      int    `json:"inputCount"`
	OutputCount     int    `json:"outputCount"`
	DuplicateGroups int    `json:"duplicateGroups"`
}

// runDedupe reads leads from in, consolidates them and writes the result to
// out when set. A JSON summary goes to w.
func runDedupe(ctx context.Context, d deduplicator, in, out string, w io.Writer) error {
	if out != "" {
		if _, err := export.FormatOf(out); err != nil {
			return err
		}
	}

	leads, err := export.Read(in)
	if err != nil {
		return err
	}
	zap.L().Info("leads loaded", zap.String("file", in), zap.Int("count", len(leads)))

	res := d.Deduplicate(ctx, leads)

	if out != "" {
		if err := export.Write(out, res.Leads); err != nil {
			return err
		}
		zap.L().Info("consolidated leads written", zap.String("file", out), zap.Int("count", len(res.Leads)))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(dedupeSummary{
		Input:           in,
		Output:          out,
		InputCount:      res.InputCount,
		OutputCount:     res.OutputCount,
		DuplicateGroups: res.DuplicateGroups,
	})
}
