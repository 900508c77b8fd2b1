package facebookfetcher

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/feldboy/aparmenttool/internal/core/domain"
)

const (
	groupURLFormat  = "https://www.facebook.com/groups/%s?sorting_setting=CHRONOLOGICAL"
	scrollRounds    = 3
	scrollPauseTime = 2 * time.Second
	groupLoadWait   = 5 * time.Second
)

// FacebookFetcherAdapter обходит группы Facebook через headless-браузер.
// Публичного API для групп нет, поэтому единственный путь - залогиненная
// браузерная сессия с куками оператора.
type FacebookFetcherAdapter struct {
	cookiesFile string
	headless    bool
}

func NewFacebookFetcherAdapter(cookiesFile string, headless bool) *FacebookFetcherAdapter {
	return &FacebookFetcherAdapter{
		cookiesFile: cookiesFile,
		headless:    headless,
	}
}

func (a *FacebookFetcherAdapter) Source() domain.Source {
	return domain.SourceFacebook
}

// allocatorOptions - флаги Chrome для стабильной работы в контейнере.
func (a *FacebookFetcherAdapter) allocatorOptions() []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", a.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", "he-IL"),
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
}

// newBrowserContext поднимает изолированный браузерный контекст.
func (a *FacebookFetcherAdapter) newBrowserContext(ctx context.Context) (context.Context, context.CancelFunc) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, a.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		browserCancel()
		allocCancel()
	}
	return browserCtx, cancel
}
