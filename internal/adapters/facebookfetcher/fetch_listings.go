package facebookfetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/feldboy/aparmenttool/internal/contextkeys"
	"github.com/feldboy/aparmenttool/internal/core/domain"
	"github.com/feldboy/aparmenttool/internal/core/port"
	"github.com/feldboy/aparmenttool/internal/metrics"
)

// rawPost - пост группы, вытащенный из DOM скриптом extractPostsJS.
type rawPost struct {
	Text      string `json:"text"`
	Permalink string `json:"permalink"`
	ImageURL  string `json:"imageUrl"`
}

// extractPostsJS собирает тексты и пермалинки постов из ленты группы.
// Разметка Facebook обфусцирована, поэтому опираемся на роли элементов,
// а не на классы.
const extractPostsJS = `
(() => {
    const posts = [];
    const articles = document.querySelectorAll('div[role="article"]');
    for (const article of articles) {
        const text = article.innerText || '';
        if (text.trim().length < 30) continue;
        let permalink = '';
        const link = article.querySelector('a[href*="/posts/"], a[href*="/permalink/"]');
        if (link) permalink = link.href;
        let imageUrl = '';
        const img = article.querySelector('img[src*="scontent"]');
        if (img) imageUrl = img.src;
        posts.push({text: text.slice(0, 2000), permalink: permalink, imageUrl: imageUrl});
    }
    return posts;
})()
`

// detectLoginWallJS проверяет, выкинуло ли нас на форму логина.
const detectLoginWallJS = `
(() => {
    if (document.querySelector('form[action*="login"]')) return true;
    if (document.querySelector('input[name="pass"]')) return true;
    return window.location.href.includes('/login');
})()
`

// FetchListings обходит все группы профиля в одной браузерной сессии.
func (a *FacebookFetcherAdapter) FetchListings(ctx context.Context, profile *domain.SearchProfile, since time.Time) ([]domain.RawListing, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	fetchLogger := logger.WithFields(port.Fields{"component": "FacebookFetcherAdapter(FetchListings)"})

	if len(profile.Targets.FacebookGroupIDs) == 0 {
		return nil, nil
	}

	cookies, err := loadCookies(a.cookiesFile)
	if err != nil {
		// Без файла сессии сканировать нечем, пусть оператор разбирается
		metrics.ScanFailures.WithLabelValues(string(domain.SourceFacebook)).Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthenticationExpired, err)
	}

	browserCtx, cancel := a.newBrowserContext(ctx)
	defer cancel()

	if err := chromedp.Run(browserCtx, setCookiesAction(cookies)); err != nil {
		return nil, fmt.Errorf("facebook adapter: failed to apply session cookies: %w", err)
	}

	var all []domain.RawListing
	for _, groupID := range profile.Targets.FacebookGroupIDs {
		groupLogger := fetchLogger.WithFields(port.Fields{"group_id": groupID})

		posts, err := a.scrapeGroup(browserCtx, groupID)
		if err != nil {
			// Протухшая сессия валит весь источник, остальное - только группу
			if errors.Is(err, domain.ErrAuthenticationExpired) {
				metrics.ScanFailures.WithLabelValues(string(domain.SourceFacebook)).Inc()
				return nil, err
			}
			groupLogger.Error("Failed to scrape group, continuing with the rest", err, nil)
			continue
		}

		listings := 0
		for _, post := range posts {
			listing, ok := mapGroupPost(post, groupID)
			if !ok {
				continue
			}
			all = append(all, listing)
			listings++
		}
		groupLogger.Info("Scraped group feed", port.Fields{"posts": len(posts), "listings": listings})
	}

	metrics.ListingsFetched.WithLabelValues(string(domain.SourceFacebook)).Add(float64(len(all)))
	return all, nil
}

// scrapeGroup открывает ленту одной группы, подгружает ее скроллом
// и забирает посты.
func (a *FacebookFetcherAdapter) scrapeGroup(browserCtx context.Context, groupID string) ([]rawPost, error) {
	var loginWall bool
	var posts []rawPost

	tasks := chromedp.Tasks{
		chromedp.Navigate(fmt.Sprintf(groupURLFormat, groupID)),
		chromedp.Sleep(groupLoadWait),
		chromedp.Evaluate(detectLoginWallJS, &loginWall),
	}
	if err := chromedp.Run(browserCtx, tasks); err != nil {
		return nil, fmt.Errorf("facebook adapter: failed to open group %s: %w", groupID, err)
	}
	if loginWall {
		return nil, fmt.Errorf("%w: login wall served for group %s", domain.ErrAuthenticationExpired, groupID)
	}

	scrollTasks := chromedp.Tasks{}
	for i := 0; i < scrollRounds; i++ {
		scrollTasks = append(scrollTasks,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(scrollPauseTime),
		)
	}
	scrollTasks = append(scrollTasks, chromedp.Evaluate(extractPostsJS, &posts))

	if err := chromedp.Run(browserCtx, scrollTasks); err != nil {
		return nil, fmt.Errorf("facebook adapter: failed to extract posts from group %s: %w", groupID, err)
	}

	return posts, nil
}
