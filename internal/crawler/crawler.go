package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/time/rate"

	"github.com/v0xg/menusweep/internal/ui"
)

// Options configures the crawler behavior
type Options struct {
	Width      int
	Height     int
	Headless   bool
	ProfileDir string // Chrome/Chromium profile directory for authenticated sessions
	// BlockHTTPS aborts every https:// request so only the plain-http
	// target application is reachable.
	BlockHTTPS bool
	// ActionTimeout bounds each single element operation.
	ActionTimeout time.Duration
	// ClickRate caps clicks per second; zero means unlimited.
	ClickRate float64
	Logger    *slog.Logger
}

// PageInfo describes the page currently loaded in the browser
type PageInfo struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Browser wraps the Rod browser and page and implements ui.Accessor.
type Browser struct {
	browser *rod.Browser
	page    *rod.Page
	router  *rod.HijackRouter
	limiter *rate.Limiter
	timeout time.Duration
	log     *slog.Logger
}

var (
	_ ui.Accessor      = (*Browser)(nil)
	_ ui.Screenshotter = (*Browser)(nil)
)

// Launch starts Chromium and opens a blank page. Blocking rules are
// installed before any navigation happens.
func Launch(opts Options) (*Browser, error) {
	if opts.ActionTimeout == 0 {
		opts.ActionTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	path, _ := launcher.LookPath()
	l := launcher.New().Bin(path).Headless(opts.Headless)
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	if opts.Width > 0 && opts.Height > 0 {
		err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.Width,
			Height:            opts.Height,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			browser.Close()
			return nil, fmt.Errorf("set viewport: %w", err)
		}
	}

	b := &Browser{browser: browser, page: page, timeout: opts.ActionTimeout, log: opts.Logger}
	if opts.ClickRate > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(opts.ClickRate), 1)
	}
	if opts.BlockHTTPS {
		if err := b.blockHTTPS(); err != nil {
			b.Close()
			return nil, err
		}
	}
	return b, nil
}

func (b *Browser) blockHTTPS() error {
	router := b.page.HijackRequests()
	err := router.Add("*", "", func(h *rod.Hijack) {
		if strings.EqualFold(h.Request.URL().Scheme, "https") {
			b.log.Debug("blocked request", "url", h.Request.URL().String())
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		return fmt.Errorf("install request filter: %w", err)
	}
	go router.Run()
	b.router = router
	return nil
}

// Close cleans up browser resources
func (b *Browser) Close() {
	if b.router != nil {
		_ = b.router.Stop()
	}
	if b.page != nil {
		_ = b.page.Close()
	}
	if b.browser != nil {
		_ = b.browser.Close()
	}
}

// Open navigates to url and waits for the page to load and the network to
// settle.
func (b *Browser) Open(ctx context.Context, url string, idle time.Duration) (*PageInfo, error) {
	page := b.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, classify(err))
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for load: %w", classify(err))
	}
	if err := b.WaitIdle(ctx, idle); err != nil {
		return nil, err
	}
	return b.Info(ctx)
}

// Info reads the current URL and title.
func (b *Browser) Info(ctx context.Context) (*PageInfo, error) {
	res, err := b.page.Context(ctx).Eval(`() => [window.location.href, document.title]`)
	if err != nil {
		return nil, classify(err)
	}
	arr := res.Value.Arr()
	info := &PageInfo{}
	if len(arr) == 2 {
		info.URL = arr[0].Str()
		info.Title = arr[1].Str()
	}
	return info, nil
}

// outermostJS returns the matches of sel below this (or the document) that
// are not nested inside another match.
const outermostJS = `function (sel) {
	const root = (this instanceof Element) ? this : document;
	return Array.from(root.querySelectorAll(sel)).filter(e => {
		for (let p = e.parentElement; p && p !== root; p = p.parentElement) {
			if (p.matches(sel)) return false;
		}
		return true;
	});
}`

func (b *Browser) Locate(ctx context.Context, within ui.Handle, selector string) ([]ui.Handle, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var els rod.Elements
	var err error
	if within == nil {
		els, err = b.page.Context(ctx).ElementsByJS(rod.Eval(outermostJS, selector))
	} else {
		el, herr := element(within)
		if herr != nil {
			return nil, herr
		}
		els, err = el.Context(ctx).ElementsByJS(rod.Eval(outermostJS, selector))
	}
	if err != nil {
		return nil, classify(err)
	}

	out := make([]ui.Handle, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out, nil
}

func (b *Browser) Count(ctx context.Context, selector string) (int, error) {
	res, err := b.page.Context(ctx).Eval(`(sel) => document.querySelectorAll(sel).length`, selector)
	if err != nil {
		return 0, classify(err)
	}
	return res.Value.Int(), nil
}

func (b *Browser) Click(ctx context.Context, h ui.Handle) error {
	if err := b.pace(ctx); err != nil {
		return err
	}
	return b.withElement(ctx, h, func(el *rod.Element) error {
		return el.Click(proto.InputMouseButtonLeft, 1)
	})
}

// pace blocks until the click limiter allows another click.
func (b *Browser) pace(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	return b.limiter.Wait(ctx)
}

func (b *Browser) ScrollIntoView(ctx context.Context, h ui.Handle) error {
	return b.withElement(ctx, h, func(el *rod.Element) error {
		_, err := el.Eval(`function () { this.scrollIntoView({block: "center"}) }`)
		return err
	})
}

func (b *Browser) InnerText(ctx context.Context, h ui.Handle) (string, error) {
	return b.Evaluate(ctx, h, `function () { return String(this.innerText || '') }`)
}

func (b *Browser) Evaluate(ctx context.Context, h ui.Handle, js string) (string, error) {
	var out string
	err := b.withElement(ctx, h, func(el *rod.Element) error {
		res, err := el.Eval(js)
		if err != nil {
			return err
		}
		out = res.Value.Str()
		return nil
	})
	return out, err
}

func (b *Browser) NextSibling(ctx context.Context, h ui.Handle) (ui.Handle, error) {
	var next ui.Handle
	err := b.withElement(ctx, h, func(el *rod.Element) error {
		res, err := el.Eval(`function () { return this.nextElementSibling !== null }`)
		if err != nil {
			return err
		}
		if !res.Value.Bool() {
			return nil
		}
		n, err := el.Next()
		if err != nil {
			return err
		}
		next = n
		return nil
	})
	return next, err
}

func (b *Browser) Contains(ctx context.Context, outer, inner ui.Handle) (bool, error) {
	o, err := element(outer)
	if err != nil {
		return false, err
	}
	var in bool
	err = b.withElement(ctx, inner, func(el *rod.Element) error {
		res, err := el.Eval(`function (outer) { return outer.contains(this) }`, o.Object)
		if err != nil {
			return err
		}
		in = res.Value.Bool()
		return nil
	})
	return in, err
}

func (b *Browser) WaitVisible(ctx context.Context, h ui.Handle, timeout time.Duration) error {
	el, err := element(h)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return classify(el.Context(ctx).WaitVisible())
}

// WaitIdle waits until no request has been in flight for half a second,
// giving up silently after timeout like long-polling pages require.
func (b *Browser) WaitIdle(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	b.page.Context(ctx).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()
	return nil
}

func (b *Browser) PageText(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	res, err := b.page.Context(ctx).Eval(`() => document.body ? document.body.innerText : ''`)
	if err != nil {
		return "", classify(err)
	}
	return res.Value.Str(), nil
}

// Alive probes the page with a trivial evaluation.
func (b *Browser) Alive(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := b.page.Context(ctx).Eval(`() => 1`); err != nil {
		return fmt.Errorf("%w: %v", ui.ErrAccessor, err)
	}
	return nil
}

func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := b.page.Context(ctx).Screenshot(false, nil)
	if err != nil {
		return nil, classify(err)
	}
	return data, nil
}

// Center returns the centre of the element's first box quad.
func (b *Browser) Center(ctx context.Context, h ui.Handle) (x, y int, err error) {
	err = b.withElement(ctx, h, func(el *rod.Element) error {
		box, err := el.Shape()
		if err != nil {
			return err
		}
		if len(box.Quads) == 0 {
			return fmt.Errorf("element has no shape")
		}
		quad := box.Quads[0]
		x = int((quad[0] + quad[2] + quad[4] + quad[6]) / 4)
		y = int((quad[1] + quad[3] + quad[5] + quad[7]) / 4)
		return nil
	})
	return x, y, err
}

func (b *Browser) withElement(ctx context.Context, h ui.Handle, fn func(el *rod.Element) error) error {
	el, err := element(h)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return classify(fn(el.Context(ctx)))
}

func element(h ui.Handle) (*rod.Element, error) {
	el, ok := h.(*rod.Element)
	if !ok || el == nil {
		return nil, fmt.Errorf("not a page element (%T): %w", h, ui.ErrStale)
	}
	return el, nil
}

// classify maps rod failures onto the ui error taxonomy. Anything it
// cannot place is returned unchanged; the sweep's liveness probe decides
// whether it is fatal.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var notFound *rod.ObjectNotFoundError
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ui.ErrTimeout, err)
	case errors.As(err, &notFound), strings.Contains(err.Error(), "Cannot find context"):
		return fmt.Errorf("%w: %v", ui.ErrStale, err)
	}
	return err
}
