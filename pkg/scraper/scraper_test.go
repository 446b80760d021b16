package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-listing-scraper/pkg/fetch"
	"github.com/shouni/go-listing-scraper/pkg/types"
)

// ======================================================================
// モック (Mock) の定義
// ======================================================================

// MockPages はページ番号ごとのHTMLまたはエラーを返す PageSource です。
type MockPages struct {
	pages map[int]string
	fail  map[int]error
	calls []int
}

func (m *MockPages) FetchPage(ctx context.Context, baseURL string, page int) ([]byte, error) {
	m.calls = append(m.calls, page)
	if err, ok := m.fail[page]; ok {
		return nil, &fetch.PageError{Page: page, URL: baseURL, Err: err}
	}
	return []byte(m.pages[page]), nil
}

// warnRecorder は通知された警告を記録します。
type warnRecorder struct {
	messages []string
}

func (w *warnRecorder) warn(format string, args ...any) {
	w.messages = append(w.messages, fmt.Sprintf(format, args...))
}

func cardHTML(page, n int) string {
	return fmt.Sprintf(`<div class="col s6 m4 l3">
  <img class="ad__card-img" src="https://img/%[1]d-%[2]d.jpg">
  <p class="ad__card-description">Chaussure %[1]d-%[2]d</p>
  <p class="ad__card-price">%[2]d0 000 CFA</p>
  <p class="ad__card-location"><span>Dakar</span></p>
</div>`, page, n)
}

func pageHTML(page, cards int) string {
	var b strings.Builder
	b.WriteString("<html><body><div class=\"row\">")
	for i := 1; i <= cards; i++ {
		b.WriteString(cardHTML(page, i))
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

func newTestCollector(t *testing.T, pages PageSource, rec *warnRecorder) *Collector {
	t.Helper()
	c, err := NewCollector(pages, WithWarnFunc(rec.warn))
	require.NoError(t, err)
	return c
}

// ======================================================================
// テスト関数
// ======================================================================

func TestNewCollector(t *testing.T) {
	t.Run("nil page source", func(t *testing.T) {
		c, err := NewCollector(nil)
		assert.Error(t, err)
		assert.Nil(t, c)
	})
	t.Run("nil options keep defaults", func(t *testing.T) {
		c, err := NewCollector(&MockPages{}, WithWarnFunc(nil), WithPageParser(nil))
		require.NoError(t, err)
		assert.NotNil(t, c.warn)
		assert.NotNil(t, c.parse)
	})
}

func TestCollect_TwoFullPages(t *testing.T) {
	pages := &MockPages{pages: map[int]string{1: pageHTML(1, 3), 2: pageHTML(2, 3)}}
	rec := &warnRecorder{}

	result := newTestCollector(t, pages, rec).Collect(context.Background(), "https://example.com/c", 2)

	require.Len(t, result.Listings, 6)
	assert.NoError(t, result.Warning)
	assert.Empty(t, rec.messages)
	assert.Equal(t, []int{1, 2}, pages.calls)
	assert.Equal(t, 2, result.PagesFetched)

	// ページ順・カード順
	i := 0
	for p := 1; p <= 2; p++ {
		for n := 1; n <= 3; n++ {
			assert.Equal(t, fmt.Sprintf("Chaussure %d-%d", p, n), result.Listings[i].Type)
			assert.Equal(t, fmt.Sprintf("%d0 000", n), result.Listings[i].Price)
			i++
		}
	}
}

func TestCollect_StopsAtFailingPage(t *testing.T) {
	pages := &MockPages{
		pages: map[int]string{1: pageHTML(1, 3), 3: pageHTML(3, 3)},
		fail:  map[int]error{2: errors.New("HTTP 500")},
	}
	rec := &warnRecorder{}

	result := newTestCollector(t, pages, rec).Collect(context.Background(), "https://example.com/c", 3)

	assert.Len(t, result.Listings, 3, "失敗前に集めたレコードは返される")
	assert.Equal(t, []int{1, 2}, pages.calls, "失敗後のページは取得しない")
	require.Len(t, rec.messages, 1)
	assert.Contains(t, rec.messages[0], "ページ 2")
	require.Error(t, result.Warning)
	assert.True(t, errors.Is(result.Warning, fetch.ErrFetchFailure))
}

func TestCollect_FailureAtPageK(t *testing.T) {
	const n = 5
	for k := 1; k <= n; k++ {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			pages := &MockPages{pages: map[int]string{}, fail: map[int]error{k: errors.New("boom")}}
			for p := 1; p < k; p++ {
				pages.pages[p] = pageHTML(p, 2)
			}
			rec := &warnRecorder{}

			result := newTestCollector(t, pages, rec).Collect(context.Background(), "u", n)

			assert.Len(t, result.Listings, 2*(k-1))
			assert.Len(t, pages.calls, k)
			assert.Len(t, rec.messages, 1)
			assert.Equal(t, k-1, result.PagesFetched)
		})
	}
}

func TestCollect_EmptyPages(t *testing.T) {
	for _, n := range []int{1, 3, 7} {
		t.Run(fmt.Sprintf("pages=%d", n), func(t *testing.T) {
			pages := &MockPages{pages: map[int]string{}}
			rec := &warnRecorder{}

			result := newTestCollector(t, pages, rec).Collect(context.Background(), "u", n)

			assert.Empty(t, result.Listings)
			assert.Len(t, pages.calls, n, "空ページでも早期終了しない")
			assert.NoError(t, result.Warning)
			assert.Empty(t, rec.messages)
		})
	}
}

func TestCollect_NonPositiveMaxPages(t *testing.T) {
	for _, n := range []int{0, -1} {
		pages := &MockPages{pages: map[int]string{1: pageHTML(1, 3)}}
		rec := &warnRecorder{}

		result := newTestCollector(t, pages, rec).Collect(context.Background(), "u", n)

		assert.Empty(t, result.Listings)
		assert.Empty(t, pages.calls)
		assert.NoError(t, result.Warning)
	}
}

func TestCollect_SkipsIncompleteCards(t *testing.T) {
	html := "<html><body>" + cardHTML(1, 1) +
		`<div class="col s6 m4 l3"><p class="ad__card-price">1 CFA</p></div>` +
		cardHTML(1, 2) + "</body></html>"
	pages := &MockPages{pages: map[int]string{1: html}}
	rec := &warnRecorder{}

	result := newTestCollector(t, pages, rec).Collect(context.Background(), "u", 1)

	require.Len(t, result.Listings, 2)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, rec.messages, "カードのスキップは警告にならない")
	for _, l := range result.Listings {
		assert.NotEmpty(t, l.ImageURL)
	}
}

func TestCollect_ParserErrorStopsRun(t *testing.T) {
	pages := &MockPages{pages: map[int]string{1: "a", 2: "b"}}
	rec := &warnRecorder{}
	parse := func(html []byte) ([]types.Listing, int, error) {
		if string(html) == "b" {
			return nil, 0, errors.New("broken")
		}
		return []types.Listing{{Type: "x"}}, 0, nil
	}

	c, err := NewCollector(pages, WithWarnFunc(rec.warn), WithPageParser(parse))
	require.NoError(t, err)
	result := c.Collect(context.Background(), "u", 3)

	assert.Equal(t, []types.Listing{{Type: "x"}}, result.Listings)
	assert.Equal(t, []int{1, 2}, pages.calls)
	assert.True(t, errors.Is(result.Warning, fetch.ErrFetchFailure))
	assert.Len(t, rec.messages, 1)
}

func TestCollect_Idempotent(t *testing.T) {
	pages := &MockPages{pages: map[int]string{1: pageHTML(1, 4), 2: pageHTML(2, 1)}}
	c := newTestCollector(t, pages, &warnRecorder{})

	first := c.Collect(context.Background(), "u", 2)
	second := c.Collect(context.Background(), "u", 2)

	assert.Equal(t, first, second)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "fetching", StateFetching.String())
	assert.Equal(t, "extracting", StateExtracting.String())
	assert.Equal(t, "next-page", StateNextPage.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "State(9)", State(9).String())
}

// newHTTPCollector は、実際の go-http-kit クライアント経由で srv を取得する Collector を返します。
func newHTTPCollector(t *testing.T, rec *warnRecorder) *Collector {
	t.Helper()
	hf, err := fetch.NewHTTPFetcher(httpkit.New(2*time.Second, httpkit.WithMaxRetries(0)))
	require.NoError(t, err)
	pf, err := fetch.NewPageFetcher(hf)
	require.NoError(t, err)
	return newTestCollector(t, pf, rec)
}

func TestCollect_OverHTTP(t *testing.T) {
	t.Run("empty 200 body moves on to next page", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			if r.URL.Query().Get("page") == "2" {
				_, _ = w.Write([]byte(pageHTML(2, 3)))
			}
		}))
		defer srv.Close()

		rec := &warnRecorder{}
		result := newHTTPCollector(t, rec).Collect(context.Background(), srv.URL+"/categorie/x", 2)

		assert.Len(t, result.Listings, 3)
		assert.Equal(t, int32(2), calls.Load())
		assert.NoError(t, result.Warning)
		assert.Empty(t, rec.messages)
	})

	for _, status := range []int{http.StatusCreated, http.StatusNonAuthoritativeInfo, http.StatusPartialContent} {
		t.Run(fmt.Sprintf("status %d stops at page 1", status), func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(status)
				_, _ = w.Write([]byte(pageHTML(1, 3)))
			}))
			defer srv.Close()

			rec := &warnRecorder{}
			result := newHTTPCollector(t, rec).Collect(context.Background(), srv.URL, 2)

			assert.Empty(t, result.Listings)
			assert.Zero(t, result.PagesFetched)
			assert.Equal(t, int32(1), calls.Load())
			assert.ErrorIs(t, result.Warning, fetch.ErrFetchFailure)
			assert.Len(t, rec.messages, 1)
		})
	}
}
