package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"

	"github.com/pbartkiw/aviary/internal/provider"
)

// scriptedClient is an in-memory provider.Client serving canned pages.
// Click on the pagination selector advances to the next canned page and
// fails with a NotFoundError when none remain, mimicking the real site's
// missing next link on the last page.
type scriptedClient struct {
	name    string
	pages   []string
	pageIdx int

	title   string
	url     string
	texts   map[string]string
	scripts map[string]string

	navigateErr error
	sourceErr   error

	navigated   []string
	clicked     []string
	typed       map[string]string
	screenshots []string
	closeCalls  int
}

func (c *scriptedClient) Name() string {
	if c.name == "" {
		return "scripted"
	}
	return c.name
}

func (c *scriptedClient) Navigate(_ context.Context, url string) error {
	if c.navigateErr != nil {
		return c.navigateErr
	}
	c.navigated = append(c.navigated, url)
	return nil
}

func (c *scriptedClient) Title(context.Context) (string, error) {
	if c.title != "" {
		return c.title, nil
	}
	return "Quotes to Scrape", nil
}

func (c *scriptedClient) CurrentURL(context.Context) (string, error) {
	if c.url != "" {
		return c.url, nil
	}
	if len(c.navigated) > 0 {
		return c.navigated[len(c.navigated)-1], nil
	}
	return "about:blank", nil
}

func (c *scriptedClient) PageSource(context.Context) (string, error) {
	if c.sourceErr != nil {
		return "", c.sourceErr
	}
	if c.pageIdx >= len(c.pages) {
		return "", fmt.Errorf("no page loaded")
	}
	return c.pages[c.pageIdx], nil
}

func (c *scriptedClient) FindElement(ctx context.Context, selector string) (*cdp.Node, error) {
	nodes, err := c.FindElements(ctx, selector)
	if err != nil {
		return nil, err
	}
	return nodes[0], nil
}

func (c *scriptedClient) FindElements(_ context.Context, selector string) ([]*cdp.Node, error) {
	return nil, &provider.NotFoundError{Selector: selector, Wait: time.Second}
}

func (c *scriptedClient) Click(_ context.Context, selector string) error {
	if selector == nextPageSelector && c.pageIdx+1 >= len(c.pages) {
		return &provider.NotFoundError{Selector: selector, Wait: time.Second}
	}
	c.clicked = append(c.clicked, selector)
	if selector == nextPageSelector {
		c.pageIdx++
	}
	return nil
}

func (c *scriptedClient) TypeText(_ context.Context, selector, text string) error {
	if c.typed == nil {
		c.typed = make(map[string]string)
	}
	c.typed[selector] = text
	return nil
}

func (c *scriptedClient) ExecuteScript(_ context.Context, script string, out any) error {
	result, ok := c.scripts[script]
	if !ok {
		return fmt.Errorf("unexpected script %q", script)
	}
	if target, ok := out.(*string); ok {
		*target = result
	}
	return nil
}

func (c *scriptedClient) Text(_ context.Context, selector string) (string, error) {
	if text, ok := c.texts[selector]; ok {
		return text, nil
	}
	return "", &provider.NotFoundError{Selector: selector, Wait: time.Second}
}

func (c *scriptedClient) Attribute(_ context.Context, selector, name string) (string, error) {
	return "", &provider.NotFoundError{Selector: selector + "[" + name + "]", Wait: time.Second}
}

func (c *scriptedClient) ScrollTo(context.Context, string) error { return nil }

func (c *scriptedClient) Screenshot(_ context.Context, name string) (string, error) {
	c.screenshots = append(c.screenshots, name)
	return "outputs/" + name + ".png", nil
}

func (c *scriptedClient) Close(context.Context) error {
	c.closeCalls++
	return nil
}
