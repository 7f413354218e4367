// Package fetch downloads a single image over HTTP.
//
// A fetch is one blocking GET: the body is read through a counting reader that
// reports percentages and polls a cancellation token between reads, then the
// bytes are decoded into an image.Image. Every failure is folded into the
// returned Outcome; nothing escapes as a panic or a second return value.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"imagefetch/pkg/config"
	"imagefetch/pkg/driver"
	"imagefetch/pkg/driver/httpclient"
	"imagefetch/pkg/driver/imagedecode"
	"imagefetch/pkg/logging"
)

// DefaultReadBufferSize is the largest chunk requested from the body per read.
const DefaultReadBufferSize = 32 << 10

// Fetcher performs image fetches. The zero value is not usable; build one with
// New or fill Client and Decoder. A Fetcher holds no per-fetch state and may
// be shared by concurrent fetches.
type Fetcher struct {
	Client  *http.Client
	Decoder imagedecode.Driver
	// ReadBufferSize caps each read from the body; <= 0 uses DefaultReadBufferSize.
	ReadBufferSize int
	// OnState, when set, observes every state transition.
	OnState func(State)
}

// New builds a Fetcher from the registered HTTP client and image decode drivers.
func New(ctx context.Context) (*Fetcher, error) {
	httpDriver, err := driver.Get[httpclient.Driver](ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get http client driver: %w", err)
	}
	decoder, err := driver.Get[imagedecode.Driver](ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get image decode driver: %w", err)
	}
	return &Fetcher{
		Client:         httpDriver.Client(),
		Decoder:        decoder,
		ReadBufferSize: config.FromContext(ctx).Fetch.ReadBufferSize,
	}, nil
}

// Fetch downloads and decodes the image at url using the registered drivers.
func Fetch(ctx context.Context, url string, onProgress ProgressFunc, token Token) Outcome {
	f, err := New(ctx)
	if err != nil {
		logging.GetLogger(ctx).Error("fetch unavailable", "url", url, "err", err)
		return Outcome{Status: StatusFailed, Err: err}
	}
	return f.Fetch(ctx, url, onProgress, token)
}

// Fetch downloads and decodes the image at url. onProgress and token may be nil.
//
// Cancellation through token is cooperative: it is checked before connecting
// and around every read, so a fetch stops at most one read after the token
// flips. Cancelling ctx aborts blocking network calls and also ends in
// StatusCancelled.
func (f *Fetcher) Fetch(ctx context.Context, url string, onProgress ProgressFunc, token Token) Outcome {
	if token == nil {
		token = never{}
	}
	op := &operation{
		fetcher: f,
		url:     url,
		logger:  logging.GetLogger(ctx).With("url", url),
	}
	return op.run(ctx, onProgress, token)
}

type operation struct {
	fetcher *Fetcher
	url     string
	logger  *slog.Logger
	bytes   int64
}

func (o *operation) enter(s State) {
	o.logger.Debug("fetch state", "state", s)
	if o.fetcher.OnState != nil {
		o.fetcher.OnState(s)
	}
}

func (o *operation) cancelled() Outcome {
	o.enter(StateCancelled)
	return Outcome{Status: StatusCancelled, Bytes: o.bytes}
}

func (o *operation) fail(kind Kind, status int, err error) Outcome {
	o.enter(StateFailed)
	ferr := &Error{Kind: kind, URL: o.url, StatusCode: status, Err: err}
	o.logger.Debug("fetch failed", "err", ferr)
	return Outcome{Status: StatusFailed, Bytes: o.bytes, Err: ferr}
}

func (o *operation) run(ctx context.Context, onProgress ProgressFunc, token Token) Outcome {
	o.enter(StateIdle)
	if token.IsCancelled() || ctx.Err() != nil {
		return o.cancelled()
	}

	o.enter(StateConnecting)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.url, nil)
	if err != nil {
		return o.fail(KindConnection, 0, err)
	}
	client := o.fetcher.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return o.cancelled()
		}
		return o.fail(KindConnection, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return o.fail(KindProtocol, resp.StatusCode, fmt.Errorf("unsuccessful result code: %s", resp.Status))
	}

	o.enter(StateDownloading)
	body := &progressReader{
		r:          resp.Body,
		token:      token,
		onProgress: onProgress,
		total:      resp.ContentLength,
	}
	if body.total <= 0 {
		o.logger.Debug("content length unknown, progress disabled")
	}
	size := o.fetcher.ReadBufferSize
	if size <= 0 {
		size = DefaultReadBufferSize
	}
	data, err := drain(body, size, resp.ContentLength)
	o.bytes = body.read
	if body.cancelled {
		return o.cancelled()
	}
	if err != nil {
		if ctx.Err() != nil {
			return o.cancelled()
		}
		return o.fail(KindConnection, 0, err)
	}

	o.enter(StateDecoding)
	if o.fetcher.Decoder == nil {
		return o.fail(KindDecode, 0, fmt.Errorf("no image decoder configured"))
	}
	img, format, err := o.fetcher.Decoder.Decode(ctx, bytes.NewReader(data))
	if token.IsCancelled() {
		return o.cancelled()
	}
	if err != nil {
		return o.fail(KindDecode, 0, err)
	}

	o.enter(StateSucceeded)
	o.logger.Debug("fetch succeeded", "format", format, "bytes", o.bytes)
	return Outcome{Status: StatusSucceeded, Image: img, Format: format, Bytes: o.bytes}
}
