package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/shouni/go-listing-scraper/pkg/types"
)

// ----------------------------------------------------------------------
// 定数定義 (解析関連のみ)
// ----------------------------------------------------------------------
const (
	// CardSelector は一覧ページ上の広告カードを表す構造セレクターです。
	// class 属性が "col s6 m4 l3" と完全に一致する div のみをカードとみなします。
	CardSelector = `div[class="col s6 m4 l3"]`

	priceSelector       = "p.ad__card-price"
	descriptionSelector = "p.ad__card-description"
	locationSelector    = "p.ad__card-location"
	imageSelector       = "img.ad__card-img"

	// CurrencyMarker は価格テキストから取り除く通貨表記です。
	CurrencyMarker = "CFA"
)

// ----------------------------------------------------------------------
// エラー定義
// ----------------------------------------------------------------------

// ErrMissingField は、カード内の必須要素または属性が見つからないことを示します。
var ErrMissingField = errors.New("必須フィールドが見つかりません")

// FieldError は、どのフィールドの取得に失敗したかを保持します。
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField.Error(), e.Field)
}

func (e *FieldError) Is(target error) bool { return target == ErrMissingField }

// ----------------------------------------------------------------------
// メイン関数
// ----------------------------------------------------------------------

// Page は一覧ページのHTMLを UTF-8 に変換してから解析し、
// 全フィールドが揃ったカードのレコードと、スキップしたカード数を返します。
func Page(html []byte) (listings []types.Listing, skipped int, err error) {
	doc, err := NewDocument(html)
	if err != nil {
		return nil, 0, err
	}
	listings, skipped = Cards(doc)
	return listings, skipped, nil
}

// NewDocument は、HTMLバイト列の文字コードを判定して goquery.Document に変換します。
// 空のバイト列はカードのない空のドキュメントになります。
func NewDocument(html []byte) (*goquery.Document, error) {
	if len(html) == 0 {
		// charset.NewReader は空の入力に io.EOF を返すため、判定を行わない
		return goquery.NewDocumentFromReader(bytes.NewReader(html))
	}
	reader, err := charset.NewReader(bytes.NewReader(html), "text/html")
	if err != nil {
		return nil, fmt.Errorf("文字コードの変換に失敗しました: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("HTML解析に失敗しました: %w", err)
	}
	return doc, nil
}

// Cards は、ドキュメント中のカードを出現順に走査し、抽出できたレコードを返します。
// 抽出に失敗したカードは破棄され、その件数のみ返されます。
func Cards(doc *goquery.Document) (listings []types.Listing, skipped int) {
	doc.Find(CardSelector).Each(func(i int, card *goquery.Selection) {
		listing, err := Listing(card)
		if err != nil {
			skipped++
			return
		}
		listings = append(listings, listing)
	})
	return listings, skipped
}

// Listing は、カード1枚から4つのフィールドを取り出します。
// いずれかが欠けている場合は部分的なレコードを返さず、*FieldError を返します。
func Listing(card *goquery.Selection) (types.Listing, error) {
	price := card.Find(priceSelector).First()
	if price.Length() == 0 {
		return types.Listing{}, &FieldError{Field: "price"}
	}

	description := card.Find(descriptionSelector).First()
	if description.Length() == 0 {
		return types.Listing{}, &FieldError{Field: "type"}
	}

	// 所在地は <p> 直下のテキストではなく、内側の <span> のテキストを使う
	location := card.Find(locationSelector).First().Find("span").First()
	if location.Length() == 0 {
		return types.Listing{}, &FieldError{Field: "address"}
	}

	src, ok := card.Find(imageSelector).First().Attr("src")
	if !ok {
		return types.Listing{}, &FieldError{Field: "image"}
	}

	return types.Listing{
		Type:     strings.TrimSpace(description.Text()),
		Price:    NormalizePrice(price.Text()),
		Address:  strings.TrimSpace(location.Text()),
		ImageURL: src,
	}, nil
}

// NormalizePrice は、価格テキストから通貨表記と前後の空白を取り除きます。
// 数値として妥当かどうかの検証は行いません。
func NormalizePrice(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, CurrencyMarker, ""))
}
