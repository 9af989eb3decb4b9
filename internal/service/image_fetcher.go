package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/guttosm/patchwork-service/internal/logger"
	"github.com/guttosm/patchwork-service/internal/metrics"
	"github.com/guttosm/patchwork-service/internal/provider"
	"github.com/rs/zerolog"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
	"golang.org/x/sync/errgroup"
)

// CoverFetcher downloads cover images and normalizes them to size×size squares.
type CoverFetcher interface {
	Fetch(ctx context.Context, urls []string, size int) []image.Image
}

// FetcherConfig holds the download policy.
type FetcherConfig struct {
	// Concurrency is the batch width.
	Concurrency int
	// Timeout bounds a single attempt.
	Timeout time.Duration
	// Retries is the total number of attempts per URL.
	Retries int
	// InitialBackoff is the wait after the first failed attempt; it doubles after each further failure.
	InitialBackoff time.Duration
	// BatchDelay is the pause between batches.
	BatchDelay time.Duration
	UserAgent  string
	// MaxBytes caps a single download.
	MaxBytes int64
	// MaxPixels caps width×height of a cover, checked from the image header before decoding.
	MaxPixels int64
}

// DefaultMaxPixels is the largest cover accepted, 16383×16383.
const DefaultMaxPixels = 268_402_689

// ErrCoverTooLarge reports a cover whose header exceeds the pixel budget.
var ErrCoverTooLarge = errors.New("cover exceeds pixel limit")

// DefaultFetcherConfig returns the production download policy.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Concurrency:    5,
		Timeout:        10 * time.Second,
		Retries:        3,
		InitialBackoff: 500 * time.Millisecond,
		BatchDelay:     100 * time.Millisecond,
		UserAgent:      provider.DefaultUserAgent,
		MaxBytes:       20 << 20,
		MaxPixels:      DefaultMaxPixels,
	}
}

// ImageFetcher downloads covers in fixed-width batches with per-URL retry.
type ImageFetcher struct {
	client *http.Client
	cfg    FetcherConfig
	log    zerolog.Logger
}

// NewImageFetcher creates a fetcher. Zero config fields take their defaults.
func NewImageFetcher(client *http.Client, cfg FetcherConfig) *ImageFetcher {
	def := DefaultFetcherConfig()
	if client == nil {
		client = &http.Client{}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Retries <= 0 {
		cfg.Retries = def.Retries
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = def.BatchDelay
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = def.MaxBytes
	}
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = def.MaxPixels
	}
	return &ImageFetcher{client: client, cfg: cfg, log: logger.Component("fetcher")}
}

// Fetch downloads every URL and returns the decoded, cropped images in URL
// order. URLs that fail after all attempts, or do not decode, are left out.
func (f *ImageFetcher) Fetch(ctx context.Context, urls []string, size int) []image.Image {
	results := make([]image.Image, len(urls))

	for start := 0; start < len(urls); start += f.cfg.Concurrency {
		end := min(start+f.cfg.Concurrency, len(urls))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i] = f.fetchOne(ctx, urls[i], size)
				return nil
			})
		}
		_ = g.Wait()

		if end < len(urls) {
			select {
			case <-ctx.Done():
				return compact(results)
			case <-time.After(f.cfg.BatchDelay):
			}
		}
	}

	return compact(results)
}

func compact(images []image.Image) []image.Image {
	out := make([]image.Image, 0, len(images))
	for _, img := range images {
		if img != nil {
			out = append(out, img)
		}
	}
	return out
}

func (f *ImageFetcher) fetchOne(ctx context.Context, url string, size int) image.Image {
	data, err := f.download(ctx, url)
	if err != nil {
		metrics.RecordCoverDownload("failed")
		f.log.Warn().Err(err).Str("url", url).Int("attempts", f.cfg.Retries).Msg("Failed to download cover")
		return nil
	}

	src, err := decodeCover(data, f.cfg.MaxPixels)
	if err != nil {
		metrics.RecordCoverDownload("undecodable")
		f.log.Warn().Err(err).Str("url", url).Msg("Failed to decode cover")
		return nil
	}

	metrics.RecordCoverDownload("success")
	return CoverFit(src, size)
}

// decodeCover decodes data unless its header declares more than maxPixels pixels.
func decodeCover(data []byte, maxPixels int64) (image.Image, error) {
	hdr, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if int64(hdr.Width)*int64(hdr.Height) > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrCoverTooLarge, hdr.Width, hdr.Height)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	return src, err
}

// retryPolicy waits InitialBackoff after the first failed attempt, then doubles,
// and stops after Retries attempts in total or when ctx is done.
func (f *ImageFetcher) retryPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.cfg.InitialBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.cfg.Retries-1)), ctx)
}

func (f *ImageFetcher) download(ctx context.Context, url string) ([]byte, error) {
	policy := f.retryPolicy(ctx)

	attempt := 0
	return backoff.RetryWithData(func() ([]byte, error) {
		attempt++
		data, err := f.attempt(ctx, url)
		if err != nil {
			f.log.Debug().Err(err).Str("url", url).Int("attempt", attempt).Msg("Cover download attempt failed")
		}
		return data, err
	}, policy)
}

func (f *ImageFetcher) attempt(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.cfg.MaxBytes {
		return nil, backoff.Permanent(fmt.Errorf("image larger than %d bytes", f.cfg.MaxBytes))
	}
	return data, nil
}

// CoverFit scales src to a size×size square, cropping the centered overflow
// of the longer side.
func CoverFit(src image.Image, size int) *image.RGBA {
	b := src.Bounds()
	side := min(b.Dx(), b.Dy())
	crop := image.Rect(0, 0, side, side).Add(image.Pt(
		b.Min.X+(b.Dx()-side)/2,
		b.Min.Y+(b.Dy()-side)/2,
	))

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, xdraw.Src, nil)
	return dst
}
