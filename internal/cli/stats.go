package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/talon/internal/store"
	"github.com/aidanlsb/talon/internal/ui"
)

var statsDB string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show row counts and resolution state for a grants database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := requirePath(statsDB, cfg.GrantsDB, "grants database", "grants_db")
		if err != nil {
			return err
		}
		return runStats(dbPath)
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsDB, "db", "", "grants database to inspect")
	rootCmd.AddCommand(statsCmd)
}

func runStats(dbPath string) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	dc := ui.NewDisplayContext()

	fmt.Println(ui.Header(ui.FilePath(dbPath)))
	meta := ui.NewTable(2)
	meta.SetMaxWidth(dc.TermWidth)
	for _, key := range []string{"source_xml", "extracted_at", "resolved_at"} {
		value, err := st.Meta(key)
		if err != nil {
			return err
		}
		if value == "" {
			value = "-"
		}
		meta.AddRow(key, value)
	}
	fmt.Print(meta.String())
	fmt.Println()

	tables, err := st.TableCounts()
	if err != nil {
		return err
	}
	tbl := ui.NewTable(2)
	tbl.SetMaxWidth(dc.TermWidth)
	for _, table := range []string{
		"records", "specifics", "grants", "stat_additions", "modifies",
		"_id_resolution_log", "manual_mappings",
	} {
		tbl.AddRow(table, fmt.Sprintf("%d", tables[table]))
	}
	fmt.Print(tbl.String())

	statuses, err := st.StatusCounts()
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		fmt.Println(ui.Hint("no resolution pass has run yet"))
		return nil
	}

	fmt.Println()
	fmt.Println(ui.Header("resolution"))
	stbl := ui.NewTable(2)
	stbl.SetMaxWidth(dc.TermWidth)
	for _, status := range []string{
		"matched", "matched_manual", "matched_name_search", "not_found", "unmappable",
	} {
		if n, ok := statuses[status]; ok {
			stbl.AddRow(status, fmt.Sprintf("%d", n))
		}
	}
	fmt.Print(stbl.String())
	return nil
}
