// Package browser wraps launching a headless Chromium and getting a page
// into an analyzable state: loaded, network-idle, and, for SPAs, with
// interactive elements actually rendered.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Options configures the browser session.
type Options struct {
	Width      int
	Height     int
	Timeout    time.Duration
	ProfileDir string // Chrome profile directory for authenticated sessions
	Stealth    bool   // evade basic automation detection
	Logger     *slog.Logger
}

// Browser owns the launched browser and its single analysis page.
type Browser struct {
	browser *rod.Browser
	page    *rod.Page
	logger  *slog.Logger
}

// Open launches a headless browser, navigates to the URL and waits for the
// page to settle.
func Open(ctx context.Context, url string, opts Options) (*Browser, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	path, _ := launcher.LookPath()
	l := launcher.New().Bin(path).Headless(true)
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("browser: launch: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	var page *rod.Page
	if opts.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	if opts.Width > 0 && opts.Height > 0 {
		err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.Width,
			Height:            opts.Height,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			opts.Logger.Warn("browser: set viewport failed", "error", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := page.Context(navCtx).Navigate(url); err != nil {
		page.Close()
		b.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", url, err)
	}

	br := &Browser{browser: b, page: page, logger: opts.Logger}
	br.settle(navCtx)
	return br, nil
}

// Page returns the underlying Rod page.
func (b *Browser) Page() *rod.Page {
	return b.page
}

// Close releases the page and the browser.
func (b *Browser) Close() {
	if b.page != nil {
		b.page.Close()
	}
	if b.browser != nil {
		b.browser.Close()
	}
}

// settle waits for load and network idle, then on SPA frameworks for
// interactive elements to actually appear (bundles hydrate after load).
func (b *Browser) settle(ctx context.Context) {
	page := b.page.Context(ctx)

	if err := page.WaitLoad(); err != nil {
		b.logger.Warn("browser: wait load timeout", "error", err)
	}

	// Bounded idle wait; persistent connections would otherwise hang it.
	b.page.Timeout(5 * time.Second).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()

	if b.isSPA() {
		b.waitForInteractiveElements(5 * time.Second)
	}
}

// isSPA checks for common framework markers.
func (b *Browser) isSPA() bool {
	res, err := b.page.Eval(`() => {
		if (window.__REACT_DEVTOOLS_GLOBAL_HOOK__ || document.querySelector('[data-reactroot]') || document.querySelector('#__next')) return true;
		if (window.__VUE__ || document.querySelector('[data-v-]')) return true;
		if (window.ng || document.querySelector('[ng-version]') || document.querySelector('app-root')) return true;
		if (document.querySelector('[class*="svelte-"]')) return true;
		return false;
	}`)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

// waitForInteractiveElements polls until visible interactive elements
// appear or the timeout passes.
func (b *Browser) waitForInteractiveElements(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		res, err := b.page.Eval(`() => {
			const sel = 'button, [role="button"], input:not([type="hidden"]), textarea, a[href], select';
			let visible = 0;
			document.querySelectorAll(sel).forEach(el => { if (el.offsetParent) visible++; });
			return visible;
		}`)
		if err == nil && res.Value.Int() > 0 {
			// Small grace period for final renders.
			time.Sleep(300 * time.Millisecond)
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
}
