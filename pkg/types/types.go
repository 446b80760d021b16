package types

// Listing は、一覧ページのカード1枚から抽出された広告レコードです。
// すべてのフィールドは不透明なテキストとして扱い、価格の通貨表記除去以外の正規化は行いません。
type Listing struct {
	Type     string // 商品説明 (例: 靴の種類)
	Price    string // 通貨表記を除いた価格テキスト
	Address  string // 所在地ラベル
	ImageURL string // 画像の src 属性
}

// Category は、スクレイピング対象となるカテゴリの表示名とベースURLの組です。
// プロセス開始時に一度だけ設定され、以後は読み取り専用です。
type Category struct {
	Label   string `yaml:"label"`
	BaseURL string `yaml:"base_url"`
}
