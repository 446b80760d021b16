package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// ----------------------------------------------------------------------
// 依存性の定義 (DIP)
// ----------------------------------------------------------------------

// Fetcher は、指定URLのレスポンスボディを生バイト配列として取得する機能のインターフェースです。
// 本番では go-http-kit のクライアントを包んだ *HTTPFetcher がこれを満たします。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// ----------------------------------------------------------------------
// エラー定義
// ----------------------------------------------------------------------

// PageQueryParam はページ番号を渡すクエリパラメータ名です。
const PageQueryParam = "page"

// ErrFetchFailure は、ページ取得の失敗すべてを表すセンチネルエラーです。
// ネットワークエラー、タイムアウト、200以外のステータスはすべてこれに集約されます。
var ErrFetchFailure = errors.New("ページの取得に失敗しました")

// PageError は、特定ページの取得失敗を表します。
type PageError struct {
	Page int
	URL  string
	Err  error
}

func (e *PageError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("ページ %d の取得エラー: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("ページ %d の取得エラー (URL: %s): %v", e.Page, e.URL, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// Is により errors.Is(err, ErrFetchFailure) が常に真になります。
func (e *PageError) Is(target error) bool { return target == ErrFetchFailure }

// ----------------------------------------------------------------------
// PageFetcher
// ----------------------------------------------------------------------

// PageFetcher は、カテゴリのベースURLにページ番号を付与して一覧ページを取得します。
type PageFetcher struct {
	fetcher Fetcher
}

// NewPageFetcher は、新しい PageFetcher を生成します。
func NewPageFetcher(fetcher Fetcher) (*PageFetcher, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetch.NewPageFetcher: Fetcher cannot be nil")
	}
	return &PageFetcher{fetcher: fetcher}, nil
}

// PageURL は、baseURL に page クエリパラメータを付与したURLを返します。
// 既存のクエリは保持し、page が既にある場合は置き換えます。
func PageURL(baseURL string, page int) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("URLのパースエラー: %w", err)
	}
	q := u.Query()
	q.Set(PageQueryParam, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchPage は、指定ページのHTMLを取得します。
// 失敗した場合は常に *PageError を返します。
func (p *PageFetcher) FetchPage(ctx context.Context, baseURL string, page int) ([]byte, error) {
	if page < 1 {
		return nil, &PageError{Page: page, Err: fmt.Errorf("ページ番号は1以上である必要があります")}
	}

	pageURL, err := PageURL(baseURL, page)
	if err != nil {
		return nil, &PageError{Page: page, Err: err}
	}

	body, err := p.fetcher.FetchBytes(ctx, pageURL)
	if err != nil {
		return nil, &PageError{Page: page, URL: pageURL, Err: err}
	}
	return body, nil
}
