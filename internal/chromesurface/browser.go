// Package chromesurface hosts the editor page in Chrome and bridges it to a
// core.Session over the DevTools protocol.
package chromesurface

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/chromedp/chromedp"
	"pkt.systems/pslog"
)

// Options configures the Chrome process.
type Options struct {
	ExecPath  string
	Headless  bool
	NoSandbox bool
	Logger    pslog.Logger
}

// Browser owns a Chrome process.
type Browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	log         pslog.Logger
}

var execCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
}

// FindExec returns the Chrome executable path, preferring configured.
func FindExec(configured string) (string, error) {
	if configured = strings.TrimSpace(configured); configured != "" {
		return exec.LookPath(configured)
	}
	for _, name := range execCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", errors.New("chrome executable not found")
}

// Launch starts Chrome and waits until the browser accepts commands.
func Launch(ctx context.Context, opts Options) (*Browser, error) {
	logger := opts.Logger
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
	)
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.Flag("no-sandbox", true))
	}
	if path := strings.TrimSpace(opts.ExecPath); path != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(path))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(pslog.LogLoggerWithLevel(logger.With("component", "chromedp"), pslog.ErrorLevel).Printf),
	)
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		logger.Warn("chrome launch failed", "err", err)
		return nil, err
	}
	logger.Info("chrome launched", "headless", opts.Headless)
	return &Browser{ctx: browserCtx, cancel: cancel, allocCancel: allocCancel, log: logger}, nil
}

// Close terminates the browser.
func (b *Browser) Close() {
	if b == nil {
		return
	}
	b.cancel()
	b.allocCancel()
	b.log.Debug("chrome closed")
}
