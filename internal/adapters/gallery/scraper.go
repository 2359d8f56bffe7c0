package gallery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/imroc/req/v3"

	"albumgrab/internal/core/domain"
)

const (
	hrefSelector = ".nidb-album a[href]"
	nameSelector = ".nidb-album p > strong"

	maxListingSize = 8 << 20 // 8MiB cap for listing pages
)

// GalleryScraper implements ports.LinkSource for album listing pages.
type GalleryScraper struct {
	client *req.Client
}

// NewGalleryScraper creates a new GalleryScraper sharing the given client.
func NewGalleryScraper(client *req.Client) *GalleryScraper {
	return &GalleryScraper{client: client}
}

// Links fetches the listing page and extracts its links.
func (s *GalleryScraper) Links(ctx context.Context, listingURL string) ([]domain.Link, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		DisableAutoReadResponse().
		Get(listingURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing %s: %w", listingURL, err)
	}
	defer resp.Body.Close()

	if !resp.IsSuccessState() {
		return nil, fmt.Errorf("failed to fetch listing %s: unexpected status code: %d", listingURL, resp.GetStatusCode())
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, maxListingSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read listing %s: %w", listingURL, err)
	}
	if len(page) > maxListingSize {
		return nil, fmt.Errorf("%w: page exceeds %d bytes", domain.ErrMalformedListing, maxListingSize)
	}

	links, err := ParseLinks(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedListing, err)
	}
	return links, nil
}

// ParseLinks pairs every album anchor href with the bold caption at the same
// position. Extra hrefs or captions without a partner are dropped. The result
// is deduplicated and sorted by (URL, Name).
func ParseLinks(r io.Reader) ([]domain.Link, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var urls []string
	doc.Find(hrefSelector).Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			urls = append(urls, strings.TrimSpace(href))
		}
	})

	names := doc.Find(nameSelector).Map(func(_ int, sel *goquery.Selection) string {
		return strings.TrimSpace(sel.Text())
	})

	set := mapset.NewThreadUnsafeSet[domain.Link]()
	for i := 0; i < len(urls) && i < len(names); i++ {
		set.Add(domain.Link{URL: urls[i], Name: names[i]})
	}

	links := set.ToSlice()
	slices.SortFunc(links, func(a, b domain.Link) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return links, nil
}
