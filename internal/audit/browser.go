// Package audit inspects rendered artifacts for layout defects. It combines
// a fast structural overflow probe in a headless browser with an optional
// vision-model review that fails open when unavailable.
package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// overflowProbe is injected into the rendered page. It reports elements
// whose scroll extent exceeds their client box beyond a small tolerance:
// horizontal overflow always counts, vertical overflow only when the
// element clips it (overflow:hidden), since scrollable regions are normal.
const overflowProbe = `
(() => {
    const TOLERANCE = 5;
    const offenders = [];
    for (const el of document.querySelectorAll('*')) {
        if (el.scrollWidth > el.clientWidth + TOLERANCE) {
            offenders.push(el.tagName.toLowerCase() + '.' + el.className);
            continue;
        }
        const style = window.getComputedStyle(el);
        if (style.overflow === 'hidden' && el.scrollHeight > el.clientHeight + TOLERANCE) {
            offenders.push(el.tagName.toLowerCase() + '.' + el.className);
        }
    }
    return offenders;
})()
`

// Browser wraps a shared headless-browser allocator. The allocator is
// created lazily on first use and reused across audits; Close releases it.
type Browser struct {
	viewportWidth  int
	viewportHeight int

	mu       sync.Mutex
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewBrowser creates a Browser with the given viewport. No process is
// launched until the first check runs.
func NewBrowser(viewportWidth, viewportHeight int) *Browser {
	return &Browser{viewportWidth: viewportWidth, viewportHeight: viewportHeight}
}

// alloc returns the shared allocator context, creating it on first use.
func (b *Browser) alloc() context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.allocCtx == nil {
		b.allocCtx, b.cancel = chromedp.NewExecAllocator(context.Background(),
			append(chromedp.DefaultExecAllocatorOptions[:],
				chromedp.Flag("headless", true),
				chromedp.Flag("disable-gpu", true),
				chromedp.Flag("no-sandbox", true),
				chromedp.Flag("disable-dev-shm-usage", true),
				chromedp.WindowSize(b.viewportWidth, b.viewportHeight),
			)...,
		)
	}
	return b.allocCtx
}

// Close releases the shared browser allocator. Safe to call without a
// prior check.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
		b.allocCtx = nil
		b.cancel = nil
	}
	return nil
}

// fileURL converts an artifact path into a file:// URL.
func fileURL(artifactPath string) (string, error) {
	abs, err := filepath.Abs(artifactPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve artifact path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("artifact not found: %s: %w", abs, err)
	}
	return "file://" + abs, nil
}

// CheckOverflow loads the artifact and runs the overflow probe, returning
// the offending element descriptors. The timeout bounds the whole pass.
func (b *Browser) CheckOverflow(ctx context.Context, artifactPath string, timeout time.Duration) ([]string, error) {
	url, err := fileURL(artifactPath)
	if err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(b.alloc())
	defer cancel()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
	defer cancelTimeout()
	// Propagate caller cancellation into the browser tab.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var offenders []string
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(overflowProbe, &offenders),
	)
	if err != nil {
		return nil, fmt.Errorf("overflow probe failed: %w", err)
	}
	return offenders, nil
}

// Screenshot captures a full-page PNG of the artifact.
func (b *Browser) Screenshot(ctx context.Context, artifactPath string, timeout time.Duration) ([]byte, error) {
	url, err := fileURL(artifactPath)
	if err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(b.alloc())
	defer cancel()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var png []byte
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.FullScreenshot(&png, 90),
	)
	if err != nil {
		return nil, fmt.Errorf("screenshot capture failed: %w", err)
	}
	return png, nil
}
