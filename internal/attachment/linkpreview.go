package attachment

import (
	"Harbor/internal/model"
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

var ErrLinkUnreachable = errors.New("链接不可访问")

// linkPreviewer 抓取目标页面的 OpenGraph 元信息
type linkPreviewer struct {
	http *resty.Client
}

func newLinkPreviewer() *linkPreviewer {
	return &linkPreviewer{
		http: resty.New().
			SetTimeout(10 * time.Second).
			SetHeader("User-Agent", "harbor-feed/1.0"),
	}
}

func (l *linkPreviewer) fetch(ctx context.Context, rawURL string) (*model.Attachment, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, ErrLinkUnreachable
	}

	resp, err := l.http.R().SetContext(ctx).Get(rawURL)
	if err != nil || resp.StatusCode() >= 400 {
		return nil, ErrLinkUnreachable
	}

	att := &model.Attachment{
		Kind:     model.AttachmentLink,
		URL:      rawURL,
		Name:     u.Host,
		MimeType: "text/html",
		Metadata: map[string]string{},
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(resp.Body())))
	if err != nil {
		// 页面可达但不可解析，保留裸链接
		return att, nil
	}

	if title := ogContent(doc, "og:title"); title != "" {
		att.Name = title
	} else if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		att.Name = title
	}
	if desc := ogContent(doc, "og:description"); desc != "" {
		att.Metadata["description"] = desc
	}
	if image := ogContent(doc, "og:image"); image != "" {
		att.ThumbnailURL = image
	}
	return att, nil
}

func ogContent(doc *goquery.Document, property string) string {
	sel := doc.Find(`meta[property="` + property + `"]`).First()
	content, _ := sel.Attr("content")
	return strings.TrimSpace(content)
}
