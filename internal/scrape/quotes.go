// File: internal/scrape/quotes.go
//
// Package scrape holds the demo workloads run against a remote browser
// session: quote scraping with pagination, user agent detection, and the
// multi-provider comparison. All of them work against the provider.Client
// interface and never care which vendor issued the session.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/pbartkiw/aviary/internal/output"
	"github.com/pbartkiw/aviary/internal/provider"
)

// QuotesURL is the public scraping sandbox the demos run against.
const QuotesURL = "https://quotes.toscrape.com"

// nextPageSelector is the pagination link on quotes.toscrape.com.
const nextPageSelector = "li.next > a"

// Quote is one scraped quote.
type Quote struct {
	Page   int      `json:"page"`
	Text   string   `json:"quote"`
	Author string   `json:"author"`
	Tags   []string `json:"tags"`
}

// QuotesResult summarizes a scraping run.
type QuotesResult struct {
	Quotes     []Quote `json:"quotes"`
	Pages      int     `json:"pages"`
	Title      string  `json:"title"`
	JSONPath   string  `json:"json_path,omitempty"`
	Screenshot string  `json:"screenshot,omitempty"`
}

// Authors returns the distinct author names in first-seen order.
func (r *QuotesResult) Authors() []string {
	seen := make(map[string]bool)
	var authors []string
	for _, q := range r.Quotes {
		if !seen[q.Author] {
			seen[q.Author] = true
			authors = append(authors, q.Author)
		}
	}
	return authors
}

// Tags returns the distinct tags in first-seen order.
func (r *QuotesResult) Tags() []string {
	seen := make(map[string]bool)
	var tags []string
	for _, q := range r.Quotes {
		for _, t := range q.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	return tags
}

// Quotes scrapes up to pages pages of quotes from QuotesURL, following
// the pagination link between pages. Running off the end of the site is
// not an error; the result just covers fewer pages. The collected quotes
// are written to the store as JSON and a screenshot of the last page is
// captured.
func Quotes(ctx context.Context, client provider.Client, store *output.Store, pages int, logger *zap.Logger) (*QuotesResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pages < 1 {
		pages = 1
	}

	if err := client.Navigate(ctx, QuotesURL); err != nil {
		return nil, err
	}

	result := &QuotesResult{}
	if title, err := client.Title(ctx); err == nil {
		result.Title = title
	}

	for page := 1; page <= pages; page++ {
		html, err := client.PageSource(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", page, err)
		}
		quotes, err := ParseQuotes(html, page)
		if err != nil {
			return nil, fmt.Errorf("parsing page %d: %w", page, err)
		}
		logger.Info("page scraped",
			zap.String("provider", client.Name()),
			zap.Int("page", page),
			zap.Int("quotes", len(quotes)),
		)
		result.Quotes = append(result.Quotes, quotes...)
		result.Pages = page

		if page == pages {
			break
		}
		if err := client.Click(ctx, nextPageSelector); err != nil {
			var notFound *provider.NotFoundError
			if errors.As(err, &notFound) {
				logger.Info("no next page link, stopping early", zap.Int("page", page))
				break
			}
			return nil, fmt.Errorf("following pagination from page %d: %w", page, err)
		}
	}

	if store != nil {
		path, err := store.WriteJSON("scraped-quotes", result.Quotes)
		if err != nil {
			return nil, err
		}
		result.JSONPath = path

		shot, err := client.Screenshot(ctx, "quotes-screenshot")
		if err != nil {
			logger.Warn("screenshot failed", zap.Error(err))
		} else {
			result.Screenshot = shot
		}
	}

	return result, nil
}

// ParseQuotes extracts the quotes from one page of quotes.toscrape.com
// markup, tagging each with the given page number.
func ParseQuotes(html string, page int) ([]Quote, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}

	var quotes []Quote
	doc.Find(".quote").Each(func(_ int, sel *goquery.Selection) {
		q := Quote{
			Page:   page,
			Text:   strings.TrimSpace(sel.Find(".text").First().Text()),
			Author: strings.TrimSpace(sel.Find(".author").First().Text()),
		}
		sel.Find(".tag").Each(func(_ int, tag *goquery.Selection) {
			if t := strings.TrimSpace(tag.Text()); t != "" {
				q.Tags = append(q.Tags, t)
			}
		})
		if q.Text != "" && q.Author != "" {
			quotes = append(quotes, q)
		}
	})
	return quotes, nil
}
