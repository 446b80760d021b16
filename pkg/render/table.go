package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	textUtils "github.com/shouni/go-utils/text"

	"github.com/shouni/go-listing-scraper/pkg/export"
)

// DefaultMaxCellWidth は、1セルに表示する最大文字数の既定値です。
const DefaultMaxCellWidth = 48

// Table は、表データを罫線付きのテキスト表として w に書き出します。
// セル内の改行や連続した空白は1つの空白にまとめ、maxCellWidth を超える部分は切り詰めます。
// maxCellWidth が0以下の場合は切り詰めません。
func Table(w io.Writer, data export.Table, maxCellWidth int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)

	header := table.Row{"#"}
	for _, h := range data.Header {
		header = append(header, h)
	}
	t.AppendHeader(header)

	for i, cells := range data.Rows {
		row := table.Row{i}
		for _, cell := range cells {
			row = append(row, textUtils.NormalizeText(cell))
		}
		t.AppendRow(row)
	}

	if maxCellWidth > 0 {
		configs := make([]table.ColumnConfig, 0, len(data.Header))
		for i := range data.Header {
			configs = append(configs, table.ColumnConfig{
				Number:           i + 2, // 先頭は行番号列
				WidthMax:         maxCellWidth,
				WidthMaxEnforcer: text.Trim,
			})
		}
		t.SetColumnConfigs(configs)
	}

	t.AppendFooter(table.Row{"", fmt.Sprintf("%d 件", len(data.Rows))})
	t.Render()
}
