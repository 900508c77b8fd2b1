package facebookfetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// storedCookie - формат файла с куками, совместимый с экспортом
// браузерных расширений.
type storedCookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
	Secure bool   `json:"secure"`
}

// loadCookies читает файл сессии оператора.
func loadCookies(path string) ([]storedCookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("facebook adapter: failed to read cookies file: %w", err)
	}

	var cookies []storedCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("facebook adapter: failed to parse cookies file: %w", err)
	}
	if len(cookies) == 0 {
		return nil, fmt.Errorf("facebook adapter: cookies file %s is empty", path)
	}
	return cookies, nil
}

// setCookiesAction устанавливает куки сессии до первой навигации.
func setCookiesAction(cookies []storedCookie) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			domain := c.Domain
			if domain == "" {
				domain = ".facebook.com"
			}
			path := c.Path
			if path == "" {
				path = "/"
			}
			err := network.SetCookie(c.Name, c.Value).
				WithDomain(domain).
				WithPath(path).
				WithSecure(c.Secure).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("failed to set cookie %q: %w", c.Name, err)
			}
		}
		return nil
	})
}
