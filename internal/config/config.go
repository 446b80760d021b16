package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/shouni/go-listing-scraper/pkg/types"
)

// 環境変数名 (.env からも読み込まれます)
const (
	EnvCategoriesFile = "LISTING_CATEGORIES_FILE"
	EnvOutputDir      = "LISTING_OUTPUT_DIR"
	EnvAddr           = "LISTING_ADDR"
)

// Env はフラグの既定値として使う環境設定です。
type Env struct {
	CategoriesFile string
	OutputDir      string
	Addr           string
	DotEnvErr      error // .env の読み込み・解析エラー。ファイルが存在しない場合は nil
}

// LoadEnv は、カレントディレクトリの .env を読み込んだうえで環境変数から設定を組み立てます。
func LoadEnv() Env {
	return loadEnv(".env")
}

// loadEnv は path の .env を読み込みます。ファイルが存在しない場合は無視し、
// それ以外のエラーは Env.DotEnvErr に保持します。
func loadEnv(path string) Env {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	if err != nil {
		err = fmt.Errorf("%s の読み込みに失敗しました: %w", path, err)
	}
	return Env{
		CategoriesFile: os.Getenv(EnvCategoriesFile),
		OutputDir:      getEnv(EnvOutputDir, "."),
		Addr:           getEnv(EnvAddr, ":8080"),
		DotEnvErr:      err,
	}
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// ----------------------------------------------------------------------
// カテゴリ
// ----------------------------------------------------------------------

// DefaultCategories は組み込みのカテゴリ一覧です。
var DefaultCategories = []types.Category{
	{Label: "Chaussures Homme", BaseURL: "https://sn.coinafrique.com/categorie/chaussures-homme"},
	{Label: "Chaussures Enfant", BaseURL: "https://sn.coinafrique.com/categorie/chaussures-enfants"},
}

// Categories は表示名で引けるカテゴリの集合です。定義順を保持します。
type Categories struct {
	list []types.Category
}

type categoriesFile struct {
	Categories []types.Category `yaml:"categories"`
}

// NewCategories は、カテゴリ一覧を検証して Categories を生成します。
func NewCategories(list []types.Category) (*Categories, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("カテゴリが1件も定義されていません")
	}
	seen := make(map[string]bool, len(list))
	for i, c := range list {
		label := strings.TrimSpace(c.Label)
		if label == "" || strings.TrimSpace(c.BaseURL) == "" {
			return nil, fmt.Errorf("カテゴリ定義 #%d に label または base_url がありません", i+1)
		}
		if seen[label] {
			return nil, fmt.Errorf("カテゴリ %q が重複しています", label)
		}
		seen[label] = true
	}
	return &Categories{list: append([]types.Category(nil), list...)}, nil
}

// LoadCategories は、path が空なら組み込みのカテゴリを、そうでなければYAMLファイルの定義を返します。
func LoadCategories(path string) (*Categories, error) {
	if path == "" {
		return NewCategories(DefaultCategories)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ定義ファイルの読み込みに失敗しました: %w", err)
	}

	var f categoriesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("カテゴリ定義ファイルのパースに失敗しました: %w", err)
	}
	return NewCategories(f.Categories)
}

// All は定義順のカテゴリ一覧のコピーを返します。
func (c *Categories) All() []types.Category {
	return append([]types.Category(nil), c.list...)
}

// Lookup は表示名に一致するカテゴリを返します。
func (c *Categories) Lookup(label string) (types.Category, error) {
	label = strings.TrimSpace(label)
	for _, cat := range c.list {
		if cat.Label == label {
			return cat, nil
		}
	}
	return types.Category{}, fmt.Errorf("不明なカテゴリです: %q (利用可能: %s)", label, strings.Join(c.Labels(), ", "))
}

// Labels は、ソート済みの表示名一覧を返します。
func (c *Categories) Labels() []string {
	labels := make([]string, 0, len(c.list))
	for _, cat := range c.list {
		labels = append(labels, cat.Label)
	}
	sort.Strings(labels)
	return labels
}
