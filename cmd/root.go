package cmd

import (
	"fmt"
	"log"
	"time"

	clibase "github.com/shouni/go-cli-base"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/spf13/cobra"

	"github.com/shouni/go-listing-scraper/internal/config"
	"github.com/shouni/go-listing-scraper/pkg/fetch"
	"github.com/shouni/go-listing-scraper/pkg/scraper"
)

// --- グローバル定数 ---

const (
	appName           = "listing-scraper"
	defaultTimeoutSec = 10 // 秒
	defaultMaxRetries = 0  // 既定ではリトライしない
)

// --- グローバル変数とフラグ構造体 ---

// AppFlags はこのアプリケーション固有の永続フラグを保持
type AppFlags struct {
	TimeoutSec     int    // --timeout タイムアウト
	MaxRetries     int    // --max-retries リトライ回数
	CategoriesFile string // --categories カテゴリ定義YAML
}

var (
	Flags            AppFlags
	appEnv           = config.LoadEnv() // .env と環境変数 (フラグの既定値)
	globalFetcher    fetch.Fetcher
	globalCategories *config.Categories
)

// --- 初期化とロジック (clibaseへのコールバックとして利用) ---

// addAppPersistentFlags は、アプリケーション固有の永続フラグをルートコマンドに追加します。
func addAppPersistentFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().IntVar(
		&Flags.TimeoutSec,
		"timeout",
		defaultTimeoutSec,
		"HTTPリクエストのタイムアウト時間（秒）",
	)
	rootCmd.PersistentFlags().IntVar(
		&Flags.MaxRetries,
		"max-retries",
		defaultMaxRetries,
		"HTTPリクエストのリトライ最大回数",
	)
	rootCmd.PersistentFlags().StringVar(
		&Flags.CategoriesFile,
		"categories",
		appEnv.CategoriesFile,
		"カテゴリ定義のYAMLファイル（未指定時は組み込みのカテゴリ）",
	)
}

// initAppPreRunE は、clibase共通処理の後に実行される、アプリケーション固有のPersistentPreRunEです。
func initAppPreRunE(cmd *cobra.Command, args []string) error {
	timeout := time.Duration(Flags.TimeoutSec) * time.Second
	retries := Flags.MaxRetries
	if retries < 0 {
		retries = 0
	}

	if clibase.Flags.Verbose {
		if appEnv.DotEnvErr != nil {
			log.Printf("警告: %v", appEnv.DotEnvErr)
		}
		log.Printf("HTTPクライアントのタイムアウトを設定しました (Timeout: %s)。", timeout)
		log.Printf("HTTPクライアントのリトライ回数を設定しました (MaxRetries: %d)。", retries)
	}

	// 共有フェッチャーの初期化 (ステータス200のみを成功とする)
	fetcher, err := fetch.NewHTTPFetcher(httpkit.New(
		timeout,
		httpkit.WithMaxRetries(uint64(retries)),
	))
	if err != nil {
		return fmt.Errorf("フェッチャーの初期化エラー: %w", err)
	}
	globalFetcher = fetcher

	cats, err := config.LoadCategories(Flags.CategoriesFile)
	if err != nil {
		return fmt.Errorf("カテゴリ設定の読み込みエラー: %w", err)
	}
	globalCategories = cats

	return nil
}

// GetGlobalFetcher は、初期化されたフェッチャーを返す関数 (DIの代わり)
func GetGlobalFetcher() fetch.Fetcher {
	return globalFetcher
}

// newCollector は、共有フェッチャーから収集ループを組み立てます。
func newCollector() (*scraper.Collector, error) {
	fetcher := GetGlobalFetcher()
	if fetcher == nil {
		return nil, fmt.Errorf("HTTPクライアントが初期化されていません。rootコマンドのPreRunを確認してください")
	}
	pages, err := fetch.NewPageFetcher(fetcher)
	if err != nil {
		return nil, fmt.Errorf("PageFetcherの初期化エラー: %w", err)
	}
	return scraper.NewCollector(pages, scraper.WithVerbose(clibase.Flags.Verbose))
}

// --- エントリポイント ---

// Execute は、clibaseのExecuteでルートコマンドとサブコマンドを実行するメイン関数です。
func Execute() {
	clibase.Execute(
		appName,
		addAppPersistentFlags,
		initAppPreRunE,
		scrapeCmd,
		showCmd,
		categoriesCmd,
		serveCmd,
	)
}
