package renderer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/pagemark/pagemark/internal/logging"
)

// ChromedpRenderer drives a headless Chrome via the DevTools protocol. Every
// request gets its own browser process and context, torn down on all exit
// paths including timeout, so a stuck page can never leak a browser.
type ChromedpRenderer struct {
	cfg    Config
	logger logging.Logger
}

// NewChromedp creates the chromedp backend.
func NewChromedp(cfg Config, logger logging.Logger) (*ChromedpRenderer, error) {
	componentLogger := logging.OrNop(logger).With(logging.Field{Key: "backend", Value: "chromedp"})

	componentLogger.Info("created chromedp renderer",
		logging.Field{Key: "timeout", Value: cfg.Timeout.String()},
		logging.Field{Key: "idle_after", Value: cfg.IdleAfter.String()},
		logging.Field{Key: "headless", Value: cfg.Headless})

	return &ChromedpRenderer{cfg: cfg, logger: componentLogger}, nil
}

func (r *ChromedpRenderer) Render(ctx context.Context, req *Request) (*Result, error) {
	if req == nil || req.URL == nil {
		return nil, errors.New("nil render request")
	}
	target := req.URL.String()

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", r.cfg.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
	)
	if r.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.cfg.UserAgent))
	}
	// Chrome resolves hostnames itself, which would reopen the gap between
	// validation-time and fetch-time resolution. Mapping the hostname to the
	// pinned address forces Chrome to connect to what validation saw.
	if len(req.PinnedAddrs) > 0 {
		opts = append(opts, chromedp.Flag("host-resolver-rules",
			fmt.Sprintf("MAP %s %s", req.URL.Hostname(), req.PinnedAddrs[0])))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	var status atomic.Int64
	chromedp.ListenTarget(taskCtx, func(ev any) {
		if resp, ok := ev.(*network.EventResponseReceived); ok {
			if resp.Type == network.ResourceTypeDocument && status.Load() == 0 {
				status.Store(resp.Response.Status)
			}
		}
	})

	idle := waitNetworkIdle(taskCtx, r.cfg.IdleAfter)

	if err := chromedp.Run(taskCtx,
		network.Enable(),
		chromedp.Navigate(target),
	); err != nil {
		return nil, wrapErr(target, err)
	}

	select {
	case <-idle:
	case <-taskCtx.Done():
		return nil, wrapErr(target, taskCtx.Err())
	}

	var html, location string
	if err := chromedp.Run(taskCtx,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return nil, wrapErr(target, err)
	}

	if r.cfg.MaxContentSize > 0 && int64(len(html)) > r.cfg.MaxContentSize {
		return nil, oversizedErr(target, r.cfg.MaxContentSize)
	}

	finalURL := req.URL
	if location != "" {
		if u, err := url.Parse(location); err == nil && u.Host != "" {
			finalURL = u
		}
	}
	// Snapshots of about:blank mean navigation never committed.
	if strings.HasPrefix(finalURL.String(), "about:") {
		return nil, &RenderError{Kind: KindNetworkFailure, URL: target, Err: errors.New("navigation did not commit")}
	}

	r.logger.Debug("rendered page",
		logging.Field{Key: "url", Value: target},
		logging.Field{Key: "final_url", Value: finalURL.String()},
		logging.Field{Key: "status", Value: status.Load()},
		logging.Field{Key: "bytes", Value: len(html)})

	return &Result{
		HTML:       html,
		FinalURL:   finalURL,
		StatusCode: int(status.Load()),
		FetchedAt:  time.Now(),
	}, nil
}

func (r *ChromedpRenderer) Close() error {
	r.logger.Info("closing chromedp renderer")
	return nil
}

// waitNetworkIdle returns a channel that closes once no requests have been
// in flight for idleAfter. The initial timer covers pages that finish all
// loading before the listener sees any event.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) <-chan struct{} {
	idleChan := make(chan struct{})
	var activeReqs int32
	var timer *time.Timer
	var timerMu sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMu.Lock()
		defer timerMu.Unlock()

		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				once.Do(func() { close(idleChan) })
			}
		})
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&activeReqs, -1) <= 0 {
				startTimer()
			}
		}
	})

	startTimer()
	return idleChan
}
