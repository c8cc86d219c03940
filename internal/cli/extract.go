package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/talon/internal/audit"
	"github.com/aidanlsb/talon/internal/rules"
	"github.com/aidanlsb/talon/internal/store"
	"github.com/aidanlsb/talon/internal/ui"
)

var (
	extractSource string
	extractDB     string
	extractVerify bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Parse the rules dump into the grants database",
	Long: `Extract streams every RulesElement in the dump and regenerates the
grants database: records, specifics, and the grant / stat-addition /
modify edge tables, in declaration order. The compendium catalog is
never consulted; the result is usable standalone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := requirePath(extractSource, cfg.SourceXML, "source dump", "source_xml")
		if err != nil {
			return err
		}
		dbPath, err := requirePath(extractDB, cfg.GrantsDB, "grants database", "grants_db")
		if err != nil {
			return err
		}
		return runExtract(source, dbPath, extractVerify)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractSource, "source", "", "rules XML dump to parse")
	extractCmd.Flags().StringVar(&extractDB, "db", "", "grants database to write")
	extractCmd.Flags().BoolVar(&extractVerify, "verify", false,
		"re-count statement tags in the raw stream and check parity")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(source, dbPath string, verify bool) error {
	f, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("failed to open source dump: %w", err)
	}
	defer f.Close()

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	im, err := st.BeginImport()
	if err != nil {
		return err
	}

	scanner := rules.NewScanner(f)
	for {
		rec, err := scanner.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			im.Rollback()
			return fmt.Errorf("failed to parse %s: %w", source, err)
		}
		if err := im.Add(rec); err != nil {
			im.Rollback()
			return err
		}
		if n := scanner.Report().Records; n%1000 == 0 {
			ui.Progress("extracting... %d records", n)
		}
	}
	ui.ProgressDone()

	report := scanner.Report()
	expected := store.ImportCounts{
		Records:   report.Records,
		Specifics: report.Specifics,
		Grants:    report.Grants,
		StatAdds:  report.StatAdds,
		Modifies:  report.Modifies,
	}
	if err := im.Commit(expected); err != nil {
		return err
	}

	for key, value := range map[string]string{
		"source_xml":           source,
		"extracted_at":         time.Now().UTC().Format(time.RFC3339),
		"count_records":        strconv.Itoa(report.Records),
		"count_specifics":      strconv.Itoa(report.Specifics),
		"count_grants":         strconv.Itoa(report.Grants),
		"count_stat_additions": strconv.Itoa(report.StatAdds),
		"count_modifies":       strconv.Itoa(report.Modifies),
		"count_records_failed": strconv.Itoa(report.Failed),
	} {
		if err := st.SetMeta(key, value); err != nil {
			return err
		}
	}

	printExtractSummary(dbPath, report)

	if verify {
		if err := verifyTagParity(source, report); err != nil {
			return err
		}
	}

	logger := audit.New(dbPath, cfg.AuditEnabled())
	return logger.LogExtract(dbPath, source, map[string]int{
		"records":   report.Records,
		"specifics": report.Specifics,
		"grants":    report.Grants,
		"statadds":  report.StatAdds,
		"modifies":  report.Modifies,
	}, report.Failed)
}

func printExtractSummary(dbPath string, report *rules.Report) {
	fmt.Println(ui.Successf("extracted %s", ui.FilePath(dbPath)))

	tbl := ui.NewTable(2)
	tbl.SetMaxWidth(ui.NewDisplayContext().TermWidth)
	tbl.AddRow("records", fmt.Sprintf("%d", report.Records))
	tbl.AddRow("specifics", fmt.Sprintf("%d", report.Specifics))
	tbl.AddRow("grants", fmt.Sprintf("%d", report.Grants))
	tbl.AddRow("stat additions", fmt.Sprintf("%d", report.StatAdds))
	tbl.AddRow("modifies", fmt.Sprintf("%d", report.Modifies))
	for kind, n := range report.Other {
		tbl.AddRow(kind.String()+" (not stored)", fmt.Sprintf("%d", n))
	}
	fmt.Print(tbl.String())

	if len(report.UnknownTags) > 0 {
		fmt.Println(ui.Warningf("unrecognized statement tags %v", report.UnknownTags))
	}
	if report.Failed > 0 {
		fmt.Println(ui.Warningf("%d record(s) failed:", report.Failed))
		for i, failure := range report.Failures {
			if i == 10 {
				fmt.Println(ui.Hint(fmt.Sprintf("  ... and %d more", report.Failed-10)))
				break
			}
			id := failure.SourceID
			if id == "" {
				id = "?"
			}
			fmt.Printf("  %s: %s\n", id, failure.Detail)
		}
	}
}

// verifyTagParity re-reads the raw stream and compares independent tag
// counts against the scanner's report. Statements skipped for missing
// required attributes and statements inside failed records legitimately
// lower the stored counts, so the check flags only stored > counted.
func verifyTagParity(source string, report *rules.Report) error {
	f, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("failed to reopen source dump: %w", err)
	}
	defer f.Close()

	counts, err := rules.CountStatementTags(f)
	if err != nil {
		return fmt.Errorf("failed to count statement tags: %w", err)
	}

	ok := true
	for _, check := range []struct {
		kind   rules.Kind
		stored int
	}{
		{rules.KindGrant, report.Grants},
		{rules.KindStatAdd, report.StatAdds},
		{rules.KindModify, report.Modifies},
	} {
		raw := counts[check.kind]
		switch {
		case check.stored > raw:
			ok = false
			fmt.Println(ui.Errorf("%s: stored %d rows but raw stream has %d tags",
				check.kind, check.stored, raw))
		case check.stored < raw:
			fmt.Println(ui.Warningf("%s: %d tag(s) skipped (missing required attributes or failed records)",
				check.kind, raw-check.stored))
		default:
			fmt.Println(ui.Successf("%s: %d rows match raw tag count", check.kind, raw))
		}
	}
	if !ok {
		return fmt.Errorf("tag-count parity check failed")
	}
	return nil
}
