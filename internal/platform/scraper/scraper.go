package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/yungbote/resourcehub-backend/internal/platform/httpx"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
)

const maxBodyBytes = 2 << 20

// Metadata is what a page says about itself in its <head>.
type Metadata struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Icon        string `json:"icon"`
	SiteName    string `json:"siteName"`
}

type Scraper interface {
	Scrape(ctx context.Context, rawURL string) (Metadata, error)
}

type Config struct {
	Timeout   time.Duration
	UserAgent string
}

type scraper struct {
	log       *logger.Logger
	http      *http.Client
	userAgent string
}

func New(log *logger.Logger, cfg Config) Scraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = "resourcehub-bot/1.0"
	}
	return &scraper{
		log:       log.With("service", "MetadataScraper"),
		http:      &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
	}
}

func (s *scraper) Scrape(ctx context.Context, rawURL string) (Metadata, error) {
	base, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return Metadata{}, fmt.Errorf("scrape: unsupported url %q", rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return Metadata{}, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.http.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("scrape fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Metadata{}, &httpx.StatusError{Service: "scrape", StatusCode: resp.StatusCode}
	}
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}
	md, err := Parse(io.LimitReader(resp.Body, maxBodyBytes), base)
	if err != nil {
		return Metadata{}, err
	}
	s.log.Debug("Scraped page metadata", "url", md.URL, "has_title", md.Title != "", "has_image", md.Image != "")
	return md, nil
}

// Parse extracts head metadata from an HTML document. Relative image and icon
// references are resolved against base.
func Parse(r io.Reader, base *url.URL) (Metadata, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Metadata{}, fmt.Errorf("scrape parse: %w", err)
	}
	var md Metadata
	var title, ogTitle, desc, ogDesc, icon, fallbackIcon string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil {
					title = n.FirstChild.Data
				}
			case "meta":
				key := strings.ToLower(firstNonEmpty(attr(n, "property"), attr(n, "name")))
				content := attr(n, "content")
				switch key {
				case "og:title":
					ogTitle = content
				case "description":
					desc = content
				case "og:description":
					ogDesc = content
				case "og:image", "og:image:url":
					if md.Image == "" {
						md.Image = content
					}
				case "og:site_name":
					md.SiteName = content
				}
			case "link":
				rels := strings.Fields(strings.ToLower(attr(n, "rel")))
				for _, rel := range rels {
					switch rel {
					case "icon":
						if icon == "" {
							icon = attr(n, "href")
						}
					case "apple-touch-icon", "shortcut":
						if fallbackIcon == "" {
							fallbackIcon = attr(n, "href")
						}
					}
				}
			case "body":
				// Head metadata only.
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	md.Title = clean(firstNonEmpty(ogTitle, title))
	md.Description = clean(firstNonEmpty(ogDesc, desc))
	md.SiteName = clean(md.SiteName)
	if base != nil {
		md.URL = base.String()
		md.Image = resolve(base, md.Image)
		md.Icon = resolve(base, firstNonEmpty(icon, fallbackIcon))
		if md.Icon == "" {
			md.Icon = resolve(base, "/favicon.ico")
		}
	}
	return md, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
