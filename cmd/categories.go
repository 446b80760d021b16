package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/shouni/go-listing-scraper/pkg/export"
	"github.com/shouni/go-listing-scraper/pkg/render"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "設定済みのカテゴリ一覧を表示します",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		table := export.Table{Header: []string{"Label", "URL"}}
		for _, c := range globalCategories.All() {
			table.Rows = append(table.Rows, []string{c.Label, c.BaseURL})
		}
		render.Table(os.Stdout, table, 0)
		return nil
	},
}
