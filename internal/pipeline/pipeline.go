package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shouni/go-listing-scraper/pkg/export"
	"github.com/shouni/go-listing-scraper/pkg/scraper"
	"github.com/shouni/go-listing-scraper/pkg/types"
)

// ErrNoData は、1件もレコードを抽出できなかったことを示します。この場合CSVは書き出しません。
var ErrNoData = errors.New("データが抽出されませんでした。URLまたはページ数を確認してください")

// Collector は収集ループのインターフェースです。*scraper.Collector がこれを満たします。
type Collector interface {
	Collect(ctx context.Context, baseURL string, maxPages int) scraper.Result
}

// Outcome は、1カテゴリ分の実行結果です。
type Outcome struct {
	Category types.Category
	Result   scraper.Result
	CSVPath  string // 書き出したCSVのパス。データがない場合は空
}

// ClampPages は、ページ数を 1〜scraper.MaxPagesLimit の範囲に収めます。
func ClampPages(n int) int {
	if n < 1 {
		return 1
	}
	if n > scraper.MaxPagesLimit {
		return scraper.MaxPagesLimit
	}
	return n
}

// Run は、カテゴリの一覧ページを収集し、結果を outDir/<label>.csv に保存するメインの処理パイプラインです。
// 収集が途中で打ち切られた場合も、それまでのレコードを保存します。
func Run(ctx context.Context, collector Collector, category types.Category, maxPages int, outDir string) (Outcome, error) {
	pages := ClampPages(maxPages)
	log.Printf("収集開始: %s (%s, 最大 %d ページ)", category.Label, category.BaseURL, pages)

	// 1. 収集の実行
	result := collector.Collect(ctx, category.BaseURL, pages)
	outcome := Outcome{Category: category, Result: result}

	if len(result.Listings) == 0 {
		return outcome, ErrNoData
	}

	// 2. CSVへの保存 (毎回上書き)
	path, err := export.Save(outDir, category.Label, result.Listings)
	if err != nil {
		return outcome, fmt.Errorf("収集結果の保存エラー (カテゴリ: %s): %w", category.Label, err)
	}
	outcome.CSVPath = path

	log.Printf("収集完了: %d 件 (%d ページ, スキップ %d 件) → %s",
		len(result.Listings), result.PagesFetched, result.Skipped, path)
	return outcome, nil
}
