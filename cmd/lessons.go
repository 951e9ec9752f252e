package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/signiz/internal/content"
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "Browse the lesson catalog",
}

var lessonsListCmd = &cobra.Command{
	Use:   "list [category]",
	Short: "List categories, or the items of one category",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		if len(args) == 0 {
			renderTable(cmd.OutOrStdout(), []string{"Category", "Items", "Tests"},
				categoryRows(rt.catalog), []columnAlignment{alignLeft, alignRight, alignRight})
			return nil
		}

		section, err := rt.catalog.Section(content.ParseCategory(args[0]))
		if err != nil {
			return err
		}
		renderTable(cmd.OutOrStdout(), []string{"#", "Id", "Kind", "Title"},
			itemRows(section), []columnAlignment{alignRight, alignRight, alignLeft, alignLeft})
		return nil
	},
}

func categoryRows(catalog *content.Catalog) [][]string {
	var rows [][]string
	for _, sec := range catalog.Sections() {
		rows = append(rows, []string{sec.Name.Title(), strconv.Itoa(len(sec.Items)), strconv.Itoa(sec.TestCount())})
	}
	return rows
}

func itemRows(section content.Section) [][]string {
	rows := make([][]string, 0, len(section.Items))
	for i, it := range section.Items {
		rows = append(rows, []string{strconv.Itoa(i + 1), strconv.Itoa(it.ID), string(it.Kind), it.Label()})
	}
	return rows
}

func init() {
	lessonsCmd.AddCommand(lessonsListCmd)
}
