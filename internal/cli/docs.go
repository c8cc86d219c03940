package cli

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	builtindocs "github.com/aidanlsb/talon/docs"
	"github.com/aidanlsb/talon/internal/ui"
)

var docsCmd = &cobra.Command{
	Use:   "docs [topic]",
	Short: "Show bundled documentation",
	Long: `Without arguments, lists the bundled documentation topics. With a
topic name, prints that document.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return listDocs()
		}
		return showDoc(args[0])
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)
}

// docTopics maps topic names to paths inside the embedded docs FS.
func docTopics() (map[string]string, error) {
	topics := make(map[string]string)
	err := fs.WalkDir(builtindocs.FS, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".md") {
			return nil
		}
		name := strings.TrimSuffix(path.Base(p), ".md")
		topics[name] = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read bundled docs: %w", err)
	}
	return topics, nil
}

func listDocs() error {
	topics, err := docTopics()
	if err != nil {
		return err
	}
	names := make([]string, 0, len(topics))
	for name := range topics {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println(ui.Header("topics"))
	for _, name := range names {
		fmt.Printf("  %s  %s\n", name, ui.Hint(path.Dir(topics[name])))
	}
	fmt.Println()
	fmt.Println(ui.Hint("tln docs <topic> to read one; tln help <command> for command usage"))
	return nil
}

func showDoc(topic string) error {
	topics, err := docTopics()
	if err != nil {
		return err
	}
	p, ok := topics[topic]
	if !ok {
		return fmt.Errorf("unknown topic %q\n\nRun 'tln docs' to list topics", topic)
	}
	data, err := fs.ReadFile(builtindocs.FS, p)
	if err != nil {
		return fmt.Errorf("failed to read topic %q: %w", topic, err)
	}
	fmt.Print(string(data))
	return nil
}
