package yad2fetcher

import (
	"fmt"
	"time"

	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
)

// Yad2FetcherAdapter отвечает за все взаимодействия с сайтом Yad2
type Yad2FetcherAdapter struct {
	// родительский коллектор, который разделяет лимиты
	collector *colly.Collector
	searchURL string
}

// NewYad2FetcherAdapter - конструктор
func NewYad2FetcherAdapter(searchURL string) (*Yad2FetcherAdapter, error) {
	// родительский коллектор
	c := colly.NewCollector(colly.AllowedDomains("www.yad2.co.il", "yad2.co.il"), colly.AllowURLRevisit())

	// Эти правила наследуются всеми клонами коллектора. Yad2 агрессивно
	// банит частые запросы, поэтому паузы обязательны.
	err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*yad2.co.il",
		Parallelism: 1,
		RandomDelay: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("Yad2FetcherAdapter: failed to set limit rule: %w", err)
	}

	extensions.RandomUserAgent(c) // На каждый запрос подставляется User-Agent реального браузера
	extensions.Referer(c)         // Автоматически подставляет заголовок Referer, имитируя навигацию

	return &Yad2FetcherAdapter{
		collector: c,
		searchURL: searchURL,
	}, nil
}

func (a *Yad2FetcherAdapter) Source() domain.Source {
	return domain.SourceYad2
}
