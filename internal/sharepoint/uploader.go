// Package sharepoint uploads files to SharePoint document libraries through
// the Microsoft Graph drive API.
//
// Small files go up as a single direct PUT. Larger files go through an
// upload session: one pre-authorized URL accepting either a single PUT
// covering the full span or a strictly sequential series of byte-range
// fragments. Fragment writes are not retried or resumed; a failure mid-way
// abandons the session (the service supports resuming via a status query,
// deliberately not used here).
package sharepoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/go-units"
	"github.com/rs/zerolog/log"
)

// Error types for upload outcomes. Both are fatal to the single upload,
// never to the batch: callers looping over many files record the failure
// and continue with the next item.
var (
	// ErrSessionCreation indicates the upload session could not be
	// established. Not retried automatically.
	ErrSessionCreation = errors.New("sharepoint: upload session creation failed")

	// ErrTransfer indicates a content write failed. The session, if any,
	// is left in an undefined, non-resumed state.
	ErrTransfer = errors.New("sharepoint: transfer failed")
)

// Uploader delivers local file bytes to a SharePoint drive.
//
// Uploads are synchronous and sequential: one upload runs to completion or
// failure before the next begins, and fragments within an upload are sent
// in strictly ascending, contiguous offset order.
type Uploader struct {
	http      *http.Client
	chunkSize int64
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(u *Uploader) { u.http = httpClient }
}

// WithChunkSize overrides the fragment size. Sizes are rounded down to the
// nearest fragment alignment boundary.
func WithChunkSize(size int64) Option {
	return func(u *Uploader) {
		if size >= FragmentAlignment {
			u.chunkSize = size - size%FragmentAlignment
		}
	}
}

// NewUploader creates an uploader with the default chunk size.
func NewUploader(opts ...Option) *Uploader {
	u := &Uploader{
		http:      &http.Client{},
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// UploadFile uploads the file at path into folder under the target
// endpoint. The file is opened immediately before the first read and
// closed on every exit path.
func (u *Uploader) UploadFile(ctx context.Context, token, endpoint, folder, path string) (*DriveItem, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	target := Target{
		Endpoint: endpoint,
		Folder:   folder,
		FileName: filepath.Base(path),
		Size:     info.Size(),
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return u.Upload(ctx, token, target, f)
}

// Upload delivers target.Size bytes from src to the target. Content below
// the small-file threshold short-circuits the session machinery entirely.
func (u *Uploader) Upload(ctx context.Context, token string, target Target, src io.Reader) (*DriveItem, error) {
	log.Debug().
		Str("target", target.String()).
		Str("size", units.BytesSize(float64(target.Size))).
		Msg("starting upload")

	if target.Size < SmallUploadLimit {
		return u.uploadDirect(ctx, token, target, src)
	}

	session, err := u.createSession(ctx, token, target)
	if err != nil {
		return nil, err
	}

	if target.Size < SessionPutLimit {
		return u.uploadWhole(ctx, session.UploadURL, target, src)
	}
	return u.uploadFragments(ctx, session.UploadURL, target, src)
}

// uploadDirect PUTs the whole content to the per-object content URL.
func (u *Uploader) uploadDirect(ctx context.Context, token string, target Target, src io.Reader) (*DriveItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.contentURL(), src)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrTransfer, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.ContentLength = target.Size

	item, err := u.doWrite(req)
	if err != nil {
		return nil, fmt.Errorf("direct upload of %s: %w", target, err)
	}
	return item, nil
}

// createSession POSTs the session-creation endpoint and validates the
// returned upload URL.
func (u *Uploader) createSession(ctx context.Context, token string, target Target) (*UploadSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.sessionURL(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrSessionCreation, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", "bearer "+token)

	resp, err := u.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSessionCreation, target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrSessionCreation, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: %s: status %d", ErrSessionCreation, target, resp.StatusCode)
	}

	var session UploadSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrSessionCreation, err)
	}
	if strings.TrimSpace(session.UploadURL) == "" {
		return nil, fmt.Errorf("%w: %s: response carried no upload URL", ErrSessionCreation, target)
	}

	log.Debug().Str("target", target.String()).Msg("upload session created")
	return &session, nil
}

// uploadWhole sends the entire content as one PUT to the session URL.
func (u *Uploader) uploadWhole(ctx context.Context, uploadURL string, target Target, src io.Reader) (*DriveItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, src)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrTransfer, err)
	}
	req.Header.Set("Content-Range", fmt.Sprintf("bytes 0-%d/%d", target.Size-1, target.Size))
	req.ContentLength = target.Size

	item, err := u.doWrite(req)
	if err != nil {
		return nil, fmt.Errorf("session upload of %s: %w", target, err)
	}
	return item, nil
}

// uploadFragments streams src in fixed-size reads and PUTs each fragment
// sequentially to the session URL. The final fragment is trimmed to its
// actual byte count, never padded. The loop terminates on a short read.
func (u *Uploader) uploadFragments(ctx context.Context, uploadURL string, target Target, src io.Reader) (*DriveItem, error) {
	buf := make([]byte, u.chunkSize)
	var offset int64
	var item *DriveItem

	for {
		n, err := io.ReadFull(src, buf)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: read fragment at offset %d: %w", ErrTransfer, offset, err)
		}

		item, err = u.putFragment(ctx, uploadURL, buf[:n], offset, target.Size)
		if err != nil {
			return nil, fmt.Errorf("fragment upload of %s: %w", target, err)
		}

		log.Debug().
			Str("target", target.String()).
			Int64("offset", offset).
			Str("sent", units.BytesSize(float64(offset)+float64(n))).
			Msg("fragment uploaded")

		offset += int64(n)
		if n < len(buf) {
			break
		}
	}

	return item, nil
}

// putFragment writes one byte range to the session URL. No Authorization
// header: the URL is pre-authorized.
func (u *Uploader) putFragment(ctx context.Context, uploadURL string, chunk []byte, offset, total int64) (*DriveItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(chunk))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrTransfer, err)
	}
	end := offset + int64(len(chunk)) - 1
	req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", offset, end, total))
	req.ContentLength = int64(len(chunk))

	return u.doWrite(req)
}

// doWrite executes a content write and decodes the finished object
// metadata when the service returns it. Intermediate fragment writes
// answer 202 Accepted with a range status body instead; those return nil.
func (u *Uploader) doWrite(req *http.Request) (*DriveItem, error) {
	resp, err := u.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrTransfer, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrTransfer, resp.StatusCode, msg)
	}

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		var item DriveItem
		if err := json.Unmarshal(body, &item); err == nil && item.ID != "" {
			return &item, nil
		}
	}
	return nil, nil
}
