package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-listing-scraper/pkg/types"
)

const (
	// FileExtension は出力ファイルの拡張子です。
	FileExtension = ".csv"
	// ContentType はダウンロード時に宣言するコンテンツタイプです。
	ContentType = "text/csv"
)

// Header はCSVのヘッダー行です。
var Header = []string{"Type", "Price", "Address", "Image"}

// ErrNotFound は、指定カテゴリのCSVがまだ存在しないことを示します。
var ErrNotFound = errors.New("データファイルが見つかりません")

// Table はヘッダーと行からなる汎用の表データです。
// 他ツールで作成されたCSVも列構成を問わず表示できるようにします。
type Table struct {
	Header []string
	Rows   [][]string
}

// FromListings は、レコード列を Table に変換します。
func FromListings(listings []types.Listing) Table {
	rows := make([][]string, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, []string{l.Type, l.Price, l.Address, l.ImageURL})
	}
	return Table{Header: Header, Rows: rows}
}

// FileName は、カテゴリ表示名から出力ファイル名を生成します。
func FileName(label string) string {
	name := strings.NewReplacer("/", "_", `\`, "_").Replace(strings.TrimSpace(label))
	return name + FileExtension
}

// Write は、ヘッダー付きでレコードをCSVとして書き出します。
func Write(w io.Writer, listings []types.Listing) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("CSVヘッダーの書き込みに失敗しました: %w", err)
	}
	for _, l := range listings {
		if err := writer.Write([]string{l.Type, l.Price, l.Address, l.ImageURL}); err != nil {
			return fmt.Errorf("CSV行の書き込みに失敗しました: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSVの書き込みエラー: %w", err)
	}
	return nil
}

// Save は dir/<label>.csv にレコードを書き出し、そのパスを返します。
// 同じカテゴリのファイルは毎回上書きされます。
func Save(dir, label string, listings []types.Listing) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}

	path := filepath.Join(dir, FileName(label))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("CSVファイルの作成に失敗しました (%s): %w", path, err)
	}
	defer file.Close()

	if err := Write(file, listings); err != nil {
		return "", fmt.Errorf("CSVファイルへの保存に失敗しました (%s): %w", path, err)
	}
	return path, nil
}

// Read は、先頭行をヘッダーとしてCSVを読み込みます。
// 列数が行ごとに異なるファイルも受け付けます。
func Read(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("CSVの読み込みに失敗しました: %w", err)
	}
	if len(records) == 0 {
		return Table{}, nil
	}
	return Table{Header: records[0], Rows: records[1:]}, nil
}

// Load は、パスで指定されたCSVファイルを読み込みます。
// ファイルが存在しない場合は ErrNotFound を返します。
func Load(path string) (Table, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Table{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Table{}, fmt.Errorf("CSVファイルを開けません (%s): %w", path, err)
	}
	defer file.Close()

	return Read(file)
}
