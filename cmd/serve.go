package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/shouni/go-listing-scraper/internal/web"
)

const shutdownTimeout = 5 * time.Second

var serveAddr string // --addr 待ち受けアドレス

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "カテゴリ選択・結果表示・CSVダウンロードのWeb画面を起動します",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		collector, err := newCollector()
		if err != nil {
			return err
		}
		server, err := web.NewServer(globalCategories, collector, appEnv.OutputDir)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              serveAddr,
			Handler:           server.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			log.Printf("Web画面を起動しました: http://%s/", displayAddr(serveAddr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("HTTPサーバーの起動エラー: %w", err)
		case <-ctx.Done():
			log.Println("停止要求を受け取りました。サーバーを終了します...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

// displayAddr は、":8080" のようにホストが省略されたアドレスを表示用に補完します。
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", appEnv.Addr, "HTTPサーバーの待ち受けアドレス")
}
