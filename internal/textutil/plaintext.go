// Package textutil はHTMLからのプレーンテキスト抽出を提供する。
// スコアリングのキーワード照合と要約生成はタグを除去した本文に対して行う。
package textutil

import (
	"strings"

	"golang.org/x/net/html"
)

// skipElements はテキスト抽出の対象外とする要素。
var skipElements = map[string]struct{}{
	"script": {},
	"style":  {},
	"head":   {},
}

// PlainText はHTML断片からテキストノードのみを抽出して返す。
// scriptとstyleの中身は含めない。連続する空白は1つに畳み、前後の空白を除く。
// 解析不能な入力はそのまま返す（html.Parseは壊れたHTMLにも寛容）。
func PlainText(rawHTML string) string {
	if rawHTML == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return strings.TrimSpace(rawHTML)
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := skipElements[n.Data]; skip {
				return
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(b.String()), " ")
}

// Truncate は文字列をrune単位でmax文字に切り詰める。
// 切り詰めが発生した場合は末尾に省略記号を付ける。
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
