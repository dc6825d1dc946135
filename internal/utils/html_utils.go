package utils

import (
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// EnhanceHTMLContent 为已清洗的 HTML 补充图片懒加载与防盗链属性，
// 并把外部数据源描述中常见的裸链接段落转为可点击链接
func EnhanceHTMLContent(htmlStr string) template.HTML {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return template.HTML(template.HTMLEscapeString(htmlStr))
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("loading", "lazy")
		s.SetAttr("class", "inline-img")
	})

	doc.Find("p").Each(func(i int, s *goquery.Selection) {
		if s.Children().Length() > 0 {
			return
		}
		text := strings.TrimSpace(s.Text())
		if (strings.HasPrefix(text, "https://") || strings.HasPrefix(text, "http://")) && !strings.ContainsAny(text, " \n\"<>") {
			s.Empty()
			a := s.AppendHtml(`<a></a>`).Find("a")
			a.SetAttr("href", text)
			a.SetAttr("target", "_blank")
			a.SetAttr("rel", "nofollow noreferrer noopener")
			a.SetText(text)
		}
	})

	html, _ := doc.Find("body").Html()
	if html == "" {
		html, _ = doc.Html()
	}

	return template.HTML(html)
}
