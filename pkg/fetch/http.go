package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-utils/retry"
)

// HTTPFetcher は go-http-kit のクライアントで一覧ページを取得する Fetcher です。
// ステータス 200 のみを成功とし、それ以外の 2xx も失敗として扱います。
// リトライ回数と間隔はクライアントの RetryConfig に従います。
type HTTPFetcher struct {
	client *httpkit.Client
}

// NewHTTPFetcher は、新しい HTTPFetcher を生成します。
func NewHTTPFetcher(client *httpkit.Client) (*HTTPFetcher, error) {
	if client == nil {
		return nil, fmt.Errorf("fetch.NewHTTPFetcher: httpkit.Client cannot be nil")
	}
	return &HTTPFetcher{client: client}, nil
}

// FetchBytes は、url にGETリクエストを送信し、ステータス 200 のレスポンスボディを返します。
func (f *HTTPFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTP GETリクエストの作成に失敗しました (URL: %s): %w", url, err)
	}
	req.Header.Set("User-Agent", httpkit.UserAgent)

	var body []byte
	op := func() error {
		resp, err := f.client.Do(req)
		if err != nil {
			return fmt.Errorf("HTTPリクエスト失敗 (URL: %s): %w", url, err)
		}

		// 200 以外の 2xx は HandleResponse では成功になるため、ここで弾く
		if resp.StatusCode >= 200 && resp.StatusCode < 300 && resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, httpkit.MaxResponseBodySize))
			resp.Body.Close()
			return &httpkit.NonRetryableHTTPError{StatusCode: resp.StatusCode}
		}

		// 4xx/5xx の判定とボディサイズの制限は go-http-kit に任せる
		body, err = httpkit.HandleResponse(resp)
		return err
	}

	if err := retry.Do(ctx, f.client.RetryConfig, "GET "+url, op, f.client.IsHTTPRetryableError); err != nil {
		return nil, err
	}
	return body, nil
}
