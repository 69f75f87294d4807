// Package uploads wraps the Cloudinary media host: multipart uploads for
// post attachments and best-effort deletion by public ID.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/url"
	"regexp"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"golang.org/x/sync/errgroup"

	"vecindario/models"
)

const (
	ResourceImage = "image"
	ResourceRaw   = "raw"

	imageFolder    = "vecindario/posts"
	documentFolder = "vecindario/documents"
)

// ErrNotConfigured is returned when no CLOUDINARY_URL was provided.
var ErrNotConfigured = errors.New("cloudinary is not configured")

// publicIDPattern captures the path after /upload/<version>/ up to the last
// dot-extension. That capture, URL-decoded, is the public ID Cloudinary
// expects for deletion.
var publicIDPattern = regexp.MustCompile(`/upload/(?:v\d+/)?(.+)\.[^./]+$`)

// ExtractPublicID recovers the public ID from a Cloudinary delivery URL.
func ExtractPublicID(rawURL string) (string, error) {
	m := publicIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", fmt.Errorf("no public ID in URL %q", rawURL)
	}
	id, err := url.QueryUnescape(m[1])
	if err != nil {
		return "", fmt.Errorf("decode public ID from %q: %w", rawURL, err)
	}
	return id, nil
}

// Service talks to Cloudinary. The upload and destroy calls are behind
// function fields so tests can run without the remote host.
type Service struct {
	enabled   bool
	uploadFn  func(ctx context.Context, file io.Reader, params uploader.UploadParams) (string, error)
	destroyFn func(ctx context.Context, publicID, resourceType string) error
}

// New builds a Service from a CLOUDINARY_URL. An empty URL yields a disabled
// service: uploads fail with ErrNotConfigured and cleanup reports
// not_attempted.
func New(cloudinaryURL string) (*Service, error) {
	if cloudinaryURL == "" {
		return &Service{}, nil
	}

	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}

	return &Service{
		enabled: true,
		uploadFn: func(ctx context.Context, file io.Reader, params uploader.UploadParams) (string, error) {
			res, err := cld.Upload.Upload(ctx, file, params)
			if err != nil {
				return "", err
			}
			if res.Error.Message != "" {
				return "", errors.New(res.Error.Message)
			}
			return res.SecureURL, nil
		},
		destroyFn: func(ctx context.Context, publicID, resourceType string) error {
			res, err := cld.Upload.Destroy(ctx, uploader.DestroyParams{
				PublicID:     publicID,
				ResourceType: resourceType,
			})
			if err != nil {
				return err
			}
			if res.Result != "ok" && res.Result != "not found" {
				return fmt.Errorf("destroy %s: %s", publicID, res.Result)
			}
			return nil
		},
	}, nil
}

// Enabled reports whether a Cloudinary account is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.enabled
}

func (s *Service) uploadOne(ctx context.Context, fh *multipart.FileHeader, folder, resourceType string) (string, error) {
	file, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer file.Close()

	return s.uploadFn(ctx, file, uploader.UploadParams{
		Folder:       folder,
		ResourceType: resourceType,
	})
}

// UploadPostFiles uploads all images and documents of a post concurrently.
// The batch is all-or-nothing: the first failure aborts it and the caller
// persists nothing.
func (s *Service) UploadPostFiles(ctx context.Context, images, documents []*multipart.FileHeader) ([]string, []string, error) {
	if !s.Enabled() {
		if len(images) == 0 && len(documents) == 0 {
			return nil, nil, nil
		}
		return nil, nil, ErrNotConfigured
	}

	imageURLs := make([]string, len(images))
	documentURLs := make([]string, len(documents))

	g, gctx := errgroup.WithContext(ctx)
	for i, fh := range images {
		g.Go(func() error {
			u, err := s.uploadOne(gctx, fh, imageFolder, ResourceImage)
			if err != nil {
				return fmt.Errorf("upload image %s: %w", fh.Filename, err)
			}
			imageURLs[i] = u
			return nil
		})
	}
	for i, fh := range documents {
		g.Go(func() error {
			u, err := s.uploadOne(gctx, fh, documentFolder, ResourceRaw)
			if err != nil {
				return fmt.Errorf("upload document %s: %w", fh.Filename, err)
			}
			documentURLs[i] = u
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return imageURLs, documentURLs, nil
}

// deleteFiles issues one destroy per URL. Failures are isolated: a bad URL
// or a remote error is counted and recorded, never re-thrown, so one broken
// file cannot block the rest of the batch.
func (s *Service) deleteFiles(ctx context.Context, urls []string, resourceType string) models.CleanupCounts {
	counts := models.CleanupCounts{Errors: []string{}}
	for _, raw := range urls {
		res := models.FileResult{URL: raw}

		publicID, err := ExtractPublicID(raw)
		if err != nil {
			res.Error = "Invalid URL"
			counts.Add(res)
			continue
		}
		res.PublicID = publicID

		if err := s.destroyFn(ctx, publicID, resourceType); err != nil {
			log.Printf("[deleteFiles] destroy %s failed: %v", publicID, err)
			res.Error = err.Error()
			counts.Add(res)
			continue
		}

		res.Deleted = true
		counts.Add(res)
	}
	return counts
}

// DeletePostFiles removes a post's remote attachments, images as "image"
// resources and documents as "raw". The report tells the caller how far the
// cleanup got; it never returns an error.
func (s *Service) DeletePostFiles(ctx context.Context, images, documents []string) models.CleanupReport {
	report := models.CleanupReport{
		Images:    models.CleanupCounts{Errors: []string{}},
		Documents: models.CleanupCounts{Errors: []string{}},
	}

	if !s.Enabled() {
		report.Images.Failed = len(images)
		report.Documents.Failed = len(documents)
		report.Resolve()
		return report
	}

	report.Attempted = true
	report.Images = s.deleteFiles(ctx, images, ResourceImage)
	report.Documents = s.deleteFiles(ctx, documents, ResourceRaw)
	report.Resolve()
	return report
}
