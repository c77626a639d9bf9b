// Package browser drives a Chrome instance through chromedp and exposes it
// as a surface.Surface.
package browser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/example/slot-booker/internal/surface"
)

const (
	defaultActionTimeout = 10 * time.Second
	probeTimeout         = 2 * time.Second
	urlPollInterval      = 100 * time.Millisecond
	networkIdleQuiet     = 500 * time.Millisecond
)

type Options struct {
	Headless bool
	// SlowMo is slept after every interaction when not headless.
	SlowMo        time.Duration
	ActionTimeout time.Duration
	Log           zerolog.Logger
}

// Browser owns one browser process for the duration of a run. Close must
// be called on every exit path.
type Browser struct {
	ctx           context.Context
	cancelTab     context.CancelFunc
	cancelAlloc   context.CancelFunc
	slowMo        time.Duration
	actionTimeout time.Duration
}

var _ surface.Surface = (*Browser)(nil)

func Open(ctx context.Context, opts Options) (*Browser, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(1366, 900),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)

	log := opts.Log
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(f string, a ...any) { log.Debug().Msgf(f, a...) }),
		chromedp.WithErrorf(func(f string, a ...any) { log.Debug().Str("source", "chromedp").Msgf(f, a...) }),
	)
	// first Run starts the browser; a cached schedule page would hide the
	// reserve control after a reload
	if err := chromedp.Run(tabCtx, network.Enable(), network.SetCacheDisabled(true)); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	b := &Browser{
		ctx:           tabCtx,
		cancelTab:     cancelTab,
		cancelAlloc:   cancelAlloc,
		actionTimeout: opts.ActionTimeout,
	}
	if !opts.Headless {
		b.slowMo = opts.SlowMo
	}
	if b.actionTimeout <= 0 {
		b.actionTimeout = defaultActionTimeout
	}
	return b, nil
}

func (b *Browser) Close() error {
	b.cancelTab()
	b.cancelAlloc()
	return nil
}

// run executes actions on the tab, bounded by timeout and by ctx.
func (b *Browser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	rctx, cancel := context.WithTimeout(b.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(rctx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (b *Browser) pause() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if b.slowMo <= 0 {
			return nil
		}
		return chromedp.Sleep(b.slowMo).Do(ctx)
	})
}

func (b *Browser) Navigate(ctx context.Context, url string, wait surface.WaitPolicy) error {
	actions := []chromedp.Action{chromedp.Navigate(url)}
	if wait == surface.WaitNetworkIdle {
		actions = append(actions, waitReadyComplete(), chromedp.Sleep(networkIdleQuiet))
	}
	if err := b.run(ctx, 3*b.actionTimeout, actions...); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (b *Browser) Reload(ctx context.Context, wait surface.WaitPolicy) error {
	actions := []chromedp.Action{chromedp.Reload()}
	if wait == surface.WaitNetworkIdle {
		actions = append(actions, waitReadyComplete(), chromedp.Sleep(networkIdleQuiet))
	}
	if err := b.run(ctx, 3*b.actionTimeout, actions...); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

func (b *Browser) Fill(ctx context.Context, selector, value string) error {
	err := b.run(ctx, b.actionTimeout,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
		b.pause(),
	)
	if err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	return nil
}

func (b *Browser) Click(ctx context.Context, l surface.Locator) error {
	err := b.run(ctx, b.actionTimeout,
		chromedp.Click(jsElement(l), chromedp.ByJSPath, chromedp.NodeVisible),
		b.pause(),
	)
	if err != nil {
		return fmt.Errorf("click %s: %w", l, err)
	}
	return nil
}

func (b *Browser) IsVisible(ctx context.Context, l surface.Locator) bool {
	var visible bool
	if err := b.run(ctx, probeTimeout, chromedp.Evaluate(jsVisible(l), &visible)); err != nil {
		return false
	}
	return visible
}

func (b *Browser) WaitVisible(ctx context.Context, l surface.Locator, timeout time.Duration) error {
	if err := b.run(ctx, timeout, chromedp.WaitVisible(jsElement(l), chromedp.ByJSPath)); err != nil {
		return fmt.Errorf("wait for %s: %w", l, err)
	}
	return nil
}

var errURLMismatch = errors.New("url did not match")

func (b *Browser) WaitURL(ctx context.Context, pattern *regexp.Regexp, timeout time.Duration) error {
	poll := chromedp.ActionFunc(func(ctx context.Context) error {
		for {
			var cur string
			if err := chromedp.Location(&cur).Do(ctx); err == nil && pattern.MatchString(cur) {
				return nil
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w %s: %w", errURLMismatch, pattern, ctx.Err())
			case <-time.After(urlPollInterval):
			}
		}
	})
	return b.run(ctx, timeout, poll)
}

func (b *Browser) Count(ctx context.Context, l surface.Locator) (int, error) {
	var n int
	if err := b.run(ctx, b.actionTimeout, chromedp.Evaluate(jsCount(l), &n)); err != nil {
		return 0, fmt.Errorf("count %s: %w", l, err)
	}
	return n, nil
}

func (b *Browser) InnerText(ctx context.Context, l surface.Locator) (string, error) {
	var res struct {
		Found bool   `json:"found"`
		Text  string `json:"text"`
	}
	if err := b.run(ctx, b.actionTimeout, chromedp.Evaluate(jsInnerText(l), &res)); err != nil {
		return "", fmt.Errorf("inner text %s: %w", l, err)
	}
	if !res.Found {
		return "", fmt.Errorf("inner text %s: element not found", l)
	}
	return res.Text, nil
}

func waitReadyComplete() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for {
			var state string
			if err := chromedp.Evaluate(`document.readyState`, &state).Do(ctx); err != nil {
				return err
			}
			if state == "complete" {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(urlPollInterval):
			}
		}
	})
}
