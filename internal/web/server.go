package web

import (
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/shouni/go-listing-scraper/internal/config"
	"github.com/shouni/go-listing-scraper/internal/pipeline"
	"github.com/shouni/go-listing-scraper/pkg/export"
	"github.com/shouni/go-listing-scraper/pkg/scraper"
)

// Server は、カテゴリ選択フォーム・結果表・CSVダウンロードを提供する簡易なWeb画面です。
type Server struct {
	categories *config.Categories
	collector  pipeline.Collector
	outDir     string

	mu    sync.Mutex             // locks の保護
	locks map[string]*sync.Mutex // カテゴリごとの収集ロック (同一CSVの同時書き込み防止)
	tmpl  *template.Template
}

// NewServer は Server を初期化します。
func NewServer(categories *config.Categories, collector pipeline.Collector, outDir string) (*Server, error) {
	if categories == nil || collector == nil {
		return nil, fmt.Errorf("web.NewServer: categories and collector cannot be nil")
	}
	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("テンプレートの解析に失敗しました: %w", err)
	}
	return &Server{
		categories: categories,
		collector:  collector,
		outDir:     outDir,
		locks:      make(map[string]*sync.Mutex),
		tmpl:       tmpl,
	}, nil
}

// Handler は、ルーティング済みの http.Handler を返します。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /scrape", s.handleScrape)
	mux.HandleFunc("GET /data", s.handleData)
	mux.HandleFunc("GET /download", s.handleDownload)
	return mux
}

// pageData はテンプレートに渡す表示用データです。
type pageData struct {
	Labels       []string
	Selected     string
	Pages        int
	MaxPages     int
	Title        string
	Warning      string
	Table        *export.Table
	DownloadHref string
}

func (s *Server) newPageData(selected string) pageData {
	return pageData{
		Labels:   s.categories.Labels(),
		Selected: selected,
		Pages:    scraper.DefaultMaxPages,
		MaxPages: scraper.MaxPagesLimit,
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, s.newPageData(""))
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	label := r.FormValue("category")
	data := s.newPageData(label)

	category, err := s.categories.Lookup(label)
	if err != nil {
		data.Warning = err.Error()
		s.render(w, http.StatusBadRequest, data)
		return
	}

	pages, err := strconv.Atoi(r.FormValue("pages"))
	if err != nil {
		data.Warning = "ページ数は整数で指定してください"
		s.render(w, http.StatusBadRequest, data)
		return
	}
	data.Pages = pipeline.ClampPages(pages)

	lock := s.lockFor(category.Label)
	lock.Lock()
	outcome, err := pipeline.Run(r.Context(), s.collector, category, data.Pages, s.outDir)
	lock.Unlock()

	if outcome.Result.Warning != nil {
		data.Warning = outcome.Result.Warning.Error()
	}
	switch {
	case errors.Is(err, pipeline.ErrNoData):
		data.Warning = joinWarnings(data.Warning, err.Error())
		s.render(w, http.StatusOK, data)
		return
	case err != nil:
		log.Printf("収集パイプラインの実行エラー: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	table := export.FromListings(outcome.Result.Listings)
	data.Title = fmt.Sprintf("抽出データ: %s", category.Label)
	data.Table = &table
	data.DownloadHref = downloadHref(category.Label)
	s.render(w, http.StatusOK, data)
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get("category")
	data := s.newPageData(label)

	category, err := s.categories.Lookup(label)
	if err != nil {
		data.Warning = err.Error()
		s.render(w, http.StatusNotFound, data)
		return
	}

	table, err := export.Load(s.csvPath(category.Label))
	if err != nil {
		if errors.Is(err, export.ErrNotFound) {
			data.Warning = fmt.Sprintf("%s のデータがありません。先に収集を実行してください", category.Label)
			s.render(w, http.StatusNotFound, data)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data.Title = fmt.Sprintf("保存済みデータ: %s", category.Label)
	data.Table = &table
	data.DownloadHref = downloadHref(category.Label)
	s.render(w, http.StatusOK, data)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	category, err := s.categories.Lookup(r.URL.Query().Get("category"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	path := s.csvPath(category.Label)
	file, err := os.Open(path)
	if err != nil {
		http.Error(w, "データファイルが見つかりません", http.StatusNotFound)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(category.Label)))
	http.ServeContent(w, r, export.FileName(category.Label), modTime(file), file)
}

// lockFor は、カテゴリごとの収集ロックを返します。別カテゴリの収集は並行して実行できます。
func (s *Server) lockFor(label string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[label]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[label] = lock
	}
	return lock
}

func (s *Server) csvPath(label string) string {
	return filepath.Join(s.outDir, export.FileName(label))
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.Execute(w, data); err != nil {
		log.Printf("テンプレートの描画エラー: %v", err)
	}
}

func downloadHref(label string) string {
	return "/download?category=" + url.QueryEscape(label)
}

func modTime(file *os.File) time.Time {
	info, err := file.Stat()
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

func joinWarnings(a, b string) string {
	if a == "" {
		return b
	}
	return a + " / " + b
}
