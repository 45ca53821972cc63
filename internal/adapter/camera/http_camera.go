package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/disintegration/imaging"

	"github.com/tmnhat/pantry-scan/internal/core/domain"
)

const (
	defaultFacing  = "environment"
	defaultWidth   = 1280
	defaultHeight  = 720
	defaultQuality = 90
)

type Config struct {
	// SnapshotURL is the endpoint that serves one still image per GET,
	// e.g. an IP-webcam snapshot URL.
	SnapshotURL string
	Facing      string
	Width       int
	Height      int
	Quality     int
	Timeout     time.Duration
}

// HTTPCamera is a capture surface backed by an HTTP snapshot endpoint. The
// facing and resolution preferences travel as query parameters; every frame
// is re-encoded as JPEG fitted to the requested resolution.
type HTTPCamera struct {
	snapshotURL string
	width       int
	height      int
	quality     int
	httpClient  *http.Client

	mu       sync.Mutex
	open     bool
	released bool
}

func New(cfg Config) (*HTTPCamera, error) {
	if strings.TrimSpace(cfg.SnapshotURL) == "" {
		return nil, errors.New("camera snapshot url is required")
	}
	facing := cfg.Facing
	if facing == "" {
		facing = defaultFacing
	}
	width, height := cfg.Width, cfg.Height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	quality := cfg.Quality
	if quality <= 0 || quality > 100 {
		quality = defaultQuality
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	u, err := url.Parse(cfg.SnapshotURL)
	if err != nil {
		return nil, fmt.Errorf("invalid camera snapshot url: %w", err)
	}
	q := u.Query()
	q.Set("facing", facing)
	q.Set("width", strconv.Itoa(width))
	q.Set("height", strconv.Itoa(height))
	u.RawQuery = q.Encode()

	return &HTTPCamera{
		snapshotURL: u.String(),
		width:       width,
		height:      height,
		quality:     quality,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

// Open acquires the feed by probing the snapshot endpoint. Re-opening
// implicitly closes any previously open feed first.
func (c *HTTPCamera) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.openLocked(ctx)
}

func (c *HTTPCamera) openLocked(ctx context.Context) error {
	if c.open {
		c.closeLocked()
	}

	resp, err := c.fetch(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", transportErrKind(err), err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status=%d", domain.ErrPermission, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: status=%d", domain.ErrNoDevice, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: status=%d", domain.ErrDevice, resp.StatusCode)
	}

	c.open = true
	c.released = false
	return nil
}

// transportErrKind classifies a transport-level failure: a refused
// connection means no camera endpoint exists; timeouts, TLS and other
// transport failures are generic acquisition errors.
func transportErrKind(err error) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return domain.ErrNoDevice
	}
	return domain.ErrDevice
}

// CaptureFrame fetches one snapshot, fits it into the configured resolution
// and returns it re-encoded as JPEG. A surface whose acquisition failed
// earlier is reacquired on demand; an explicitly closed surface stays
// released until the next Open.
func (c *HTTPCamera) CaptureFrame(ctx context.Context) (domain.Image, error) {
	c.mu.Lock()
	if !c.open {
		if c.released {
			c.mu.Unlock()
			return domain.Image{}, fmt.Errorf("%w: surface is not open", domain.ErrNotReady)
		}
		if err := c.openLocked(ctx); err != nil {
			c.mu.Unlock()
			return domain.Image{}, err
		}
	}
	c.mu.Unlock()

	resp, err := c.fetch(ctx)
	if err != nil {
		return domain.Image{}, fmt.Errorf("%w: %v", domain.ErrDevice, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return domain.Image{}, fmt.Errorf("%w: status=%d", domain.ErrNotReady, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Image{}, fmt.Errorf("%w: status=%d", domain.ErrDevice, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Image{}, fmt.Errorf("%w: read frame: %v", domain.ErrDevice, err)
	}
	if len(raw) == 0 {
		return domain.Image{}, fmt.Errorf("%w: no frame produced yet", domain.ErrNotReady)
	}

	src, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return domain.Image{}, fmt.Errorf("%w: undecodable frame: %v", domain.ErrDevice, err)
	}
	frame := imaging.Fit(src, c.width, c.height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, frame, imaging.JPEG, imaging.JPEGQuality(c.quality)); err != nil {
		return domain.Image{}, fmt.Errorf("%w: encode frame: %v", domain.ErrDevice, err)
	}
	return domain.Image{MediaType: "image/jpeg", Data: buf.Bytes()}, nil
}

// Close releases the feed. Idempotent.
func (c *HTTPCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	c.released = true
	return nil
}

func (c *HTTPCamera) closeLocked() {
	if !c.open {
		return
	}
	c.open = false
	c.httpClient.CloseIdleConnections()
}

func (c *HTTPCamera) fetch(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.snapshotURL, nil)
	if err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}
