package cli

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/talon/internal/atomicfile"
	"github.com/aidanlsb/talon/internal/audit"
	"github.com/aidanlsb/talon/internal/compendium"
	"github.com/aidanlsb/talon/internal/manual"
	"github.com/aidanlsb/talon/internal/resolver"
	"github.com/aidanlsb/talon/internal/store"
	"github.com/aidanlsb/talon/internal/ui"
)

var (
	resolveDB      string
	resolveCatalog string
	resolveManual  string
	resolveReview  string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Verify extracted ids against the compendium catalog",
	Long: `Resolve walks every distinct xml id referenced by the grant,
stat-addition, and modify tables, maps it to a compendium id, and
verifies the result against the catalog. Matches fill the
*_compendium_id columns; everything else lands in the resolution log
with a status and reason. Ids that stay not_found are exported as a CSV
worksheet for manual review.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := requirePath(resolveDB, cfg.GrantsDB, "grants database", "grants_db")
		if err != nil {
			return err
		}
		catalogPath, err := requirePath(resolveCatalog, cfg.CompendiumDB, "compendium catalog", "compendium_db")
		if err != nil {
			return err
		}
		return runResolve(dbPath, catalogPath,
			pick(resolveManual, cfg.ManualMappings), resolveReview)
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveDB, "db", "", "grants database to resolve")
	resolveCmd.Flags().StringVar(&resolveCatalog, "catalog", "", "compendium catalog database")
	resolveCmd.Flags().StringVar(&resolveManual, "manual", "", "manual override file (csv or yaml)")
	resolveCmd.Flags().StringVar(&resolveReview, "review", "",
		"review worksheet path (default not_found_manual_review.csv beside the database)")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(dbPath, catalogPath, manualPath, reviewPath string) error {
	// Open everything before touching the database so a missing catalog
	// or a bad override file leaves the previous resolution intact.
	cat, err := compendium.Open(catalogPath)
	if err != nil {
		if errors.Is(err, compendium.ErrNoCatalog) {
			return fmt.Errorf("compendium catalog not found at %s\n\nRun with --catalog or set compendium_db in the config", catalogPath)
		}
		return err
	}
	defer cat.Close()

	overrides, err := manual.Load(manualPath)
	if err != nil {
		return err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	summary, _, err := resolver.New(st, cat, overrides).Run()
	if err != nil {
		return err
	}

	printResolveSummary(summary)

	if reviewPath == "" {
		reviewPath = reviewPathFor(dbPath)
	}
	notFound, err := st.NotFound()
	if err != nil {
		return err
	}
	if len(notFound) > 0 {
		names, err := st.DisplayNames()
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := resolver.WriteReview(&buf, notFound, names); err != nil {
			return err
		}
		if err := atomicfile.WriteFile(reviewPath, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write review worksheet: %w", err)
		}
		fmt.Println(ui.Infof("review worksheet %s %s",
			ui.FilePath(reviewPath), ui.Count(len(notFound), "id", "ids")))
	}

	logger := audit.New(dbPath, cfg.AuditEnabled())
	return logger.LogResolve(dbPath, catalogPath, map[string]int{
		"total":               summary.Total,
		"matched":             summary.Matched,
		"matched_manual":      summary.MatchedManual,
		"matched_name_search": summary.MatchedNameSearch,
		"not_found":           summary.NotFound,
		"unmappable":          summary.Unmappable,
	})
}

func reviewPathFor(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), "not_found_manual_review.csv")
}

func printResolveSummary(summary resolver.Summary) {
	fmt.Println(ui.Successf("resolved %d of %d distinct ids", summary.Resolved(), summary.Total))

	tbl := ui.NewTable(2)
	tbl.AddRow("matched (direct)", fmt.Sprintf("%d", summary.Matched))
	tbl.AddRow("matched (manual)", fmt.Sprintf("%d", summary.MatchedManual))
	tbl.AddRow("matched (name search)", fmt.Sprintf("%d", summary.MatchedNameSearch))
	tbl.AddRow("not found", fmt.Sprintf("%d", summary.NotFound))
	tbl.AddRow("unmappable", fmt.Sprintf("%d", summary.Unmappable))
	fmt.Print(tbl.String())

	if summary.NotFound > 0 {
		fmt.Println(ui.Hint("add overrides to the manual mapping file and rerun to pick them up"))
	}
}
