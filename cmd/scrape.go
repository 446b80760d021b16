package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/shouni/go-listing-scraper/internal/pipeline"
	"github.com/shouni/go-listing-scraper/pkg/export"
	"github.com/shouni/go-listing-scraper/pkg/render"
	"github.com/shouni/go-listing-scraper/pkg/scraper"
)

// コマンドラインフラグ変数を定義
var (
	scrapeCategory string // --category 収集対象のカテゴリ名
	scrapePages    int    // --pages 取得する最大ページ数
	scrapeOutDir   string // --out CSVの出力ディレクトリ
	scrapeNoTable  bool   // --no-table 表の出力を抑止
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "カテゴリの一覧ページを収集し、表示とCSV保存を行います",
	Long:  `--category で指定したカテゴリの一覧ページを1ページ目から --pages ページまで順に取得します。取得に失敗した場合は警告を出して収集を打ち切り、それまでの結果を保存します。`,
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := globalCategories.Lookup(scrapeCategory)
		if err != nil {
			return err
		}

		collector, err := newCollector()
		if err != nil {
			return err
		}

		// Ctrl+C で収集を中断できるようにする
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		outcome, err := pipeline.Run(ctx, collector, category, scrapePages, scrapeOutDir)
		if errors.Is(err, pipeline.ErrNoData) {
			log.Printf("警告: %v", err)
			return nil
		}
		if err != nil {
			return err
		}

		if !scrapeNoTable {
			render.Table(os.Stdout, export.FromListings(outcome.Result.Listings), render.DefaultMaxCellWidth)
		}
		fmt.Printf("CSVを保存しました: %s\n", outcome.CSVPath)
		return nil
	},
}

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeCategory, "category", "c", "",
		"収集対象のカテゴリ名 (categories コマンドで一覧表示)")
	scrapeCmd.Flags().IntVarP(&scrapePages, "pages", "p",
		scraper.DefaultMaxPages,
		fmt.Sprintf("取得する最大ページ数 (1〜%d)", scraper.MaxPagesLimit))
	scrapeCmd.Flags().StringVarP(&scrapeOutDir, "out", "o", appEnv.OutputDir,
		"CSVの出力ディレクトリ")
	scrapeCmd.Flags().BoolVar(&scrapeNoTable, "no-table", false,
		"収集結果の表を出力しない")

	_ = scrapeCmd.MarkFlagRequired("category")
}
