package scraper

import (
	"context"
	"fmt"
	"log"

	"github.com/shouni/go-listing-scraper/pkg/extract"
	"github.com/shouni/go-listing-scraper/pkg/fetch"
	"github.com/shouni/go-listing-scraper/pkg/types"
)

const (
	// DefaultMaxPages は、ページ数が指定されなかった場合の既定値です。
	DefaultMaxPages = 5
	// MaxPagesLimit は、画面・CLIから指定できるページ数の上限です。
	MaxPagesLimit = 50
)

// PageSource は、ページ番号を指定して一覧ページのHTMLを取得する機能です。
// *fetch.PageFetcher がこれを満たします。
type PageSource interface {
	FetchPage(ctx context.Context, baseURL string, page int) ([]byte, error)
}

// PageParser は、ページHTMLからレコードとスキップしたカード数を取り出す関数です。
type PageParser func(html []byte) ([]types.Listing, int, error)

// WarnFunc は、ページ取得失敗を呼び出し元へ通知するための関数です。
type WarnFunc func(format string, args ...any)

// State は収集ループの状態です。
type State int

const (
	StateFetching State = iota
	StateExtracting
	StateNextPage
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateExtracting:
		return "extracting"
	case StateNextPage:
		return "next-page"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result は1回の収集の結果です。Listings はページ順・カード順に並びます。
type Result struct {
	Listings     []types.Listing
	PagesFetched int   // 取得に成功したページ数
	Skipped      int   // フィールド欠落で破棄したカード数
	Warning      error // 収集を打ち切ったページ取得エラー。最後まで到達した場合は nil
}

// Collector は、ページ取得とカード抽出を順番に実行する収集ループです。
// 実行ごとの状態は保持しないため、逐次的に再利用できます。
type Collector struct {
	pages   PageSource
	parse   PageParser
	warn    WarnFunc
	verbose bool
}

// CollectorOption は Collector の設定を行うための関数型です。
type CollectorOption func(*Collector)

// WithWarnFunc は、ページ取得失敗時の通知先を設定します。
func WithWarnFunc(fn WarnFunc) CollectorOption {
	return func(c *Collector) {
		if fn != nil {
			c.warn = fn
		}
	}
}

// WithPageParser は、ページ解析関数を差し替えます。
func WithPageParser(parse PageParser) CollectorOption {
	return func(c *Collector) {
		if parse != nil {
			c.parse = parse
		}
	}
}

// WithVerbose は、スキップしたカードのログ出力を有効にします。
func WithVerbose(verbose bool) CollectorOption {
	return func(c *Collector) {
		c.verbose = verbose
	}
}

// NewCollector は Collector を初期化します。
func NewCollector(pages PageSource, options ...CollectorOption) (*Collector, error) {
	if pages == nil {
		return nil, fmt.Errorf("scraper.NewCollector: PageSource cannot be nil")
	}
	c := &Collector{
		pages: pages,
		parse: extract.Page,
		warn:  log.Printf,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Collect は、1ページ目から maxPages ページ目までを順に取得し、抽出したレコードを蓄積します。
// ページ取得に失敗した時点で警告を通知して打ち切り、それまでに集めたレコードを返します。
// maxPages が1未満の場合は一度も取得せず、空の結果を返します。
func (c *Collector) Collect(ctx context.Context, baseURL string, maxPages int) Result {
	var (
		result Result
		html   []byte
		page   = 1
		state  = StateFetching
	)
	if maxPages < 1 {
		state = StateStopped
	}

	for state != StateStopped {
		switch state {
		case StateFetching:
			body, err := c.pages.FetchPage(ctx, baseURL, page)
			if err != nil {
				c.stop(&result, page, err)
				state = StateStopped
				continue
			}
			html = body
			result.PagesFetched++
			state = StateExtracting

		case StateExtracting:
			listings, skipped, err := c.parse(html)
			if err != nil {
				// 解析不能なページも取得失敗として扱う
				c.stop(&result, page, &fetch.PageError{Page: page, Err: err})
				state = StateStopped
				continue
			}
			if skipped > 0 && c.verbose {
				log.Printf("ページ %d: 必須フィールドが欠けたカードを %d 件スキップしました", page, skipped)
			}
			result.Listings = append(result.Listings, listings...)
			result.Skipped += skipped
			state = StateNextPage

		case StateNextPage:
			page++
			if page > maxPages {
				state = StateStopped
			} else {
				state = StateFetching
			}
		}
	}

	return result
}

func (c *Collector) stop(result *Result, page int, err error) {
	result.Warning = err
	c.warn("警告: ページ %d の読み込みに失敗したため収集を中止しました: %v", page, err)
}
