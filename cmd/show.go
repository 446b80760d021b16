package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shouni/go-listing-scraper/pkg/export"
	"github.com/shouni/go-listing-scraper/pkg/render"
)

var (
	showCategory string // --category 表示するカテゴリ名
	showFile     string // --file CSVファイルのパス (カテゴリより優先)
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "保存済みのCSVを表として表示します",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		path := showFile
		if path == "" {
			if showCategory == "" {
				return fmt.Errorf("--category または --file のどちらかを指定してください")
			}
			category, err := globalCategories.Lookup(showCategory)
			if err != nil {
				return err
			}
			path = filepath.Join(appEnv.OutputDir, export.FileName(category.Label))
		}

		table, err := export.Load(path)
		if errors.Is(err, export.ErrNotFound) {
			log.Printf("警告: %s のデータがありません。先に scrape を実行してください", path)
			return nil
		}
		if err != nil {
			return err
		}

		render.Table(os.Stdout, table, render.DefaultMaxCellWidth)
		return nil
	},
}

func init() {
	showCmd.Flags().StringVarP(&showCategory, "category", "c", "", "表示するカテゴリ名")
	showCmd.Flags().StringVarP(&showFile, "file", "f", "", "表示するCSVファイルのパス")
}
