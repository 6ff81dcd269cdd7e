// Package azure stores cache entries as tar blobs in an Azure Blob Storage container.
package azure

import (
	"bytes"
	"context"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"go.trai.ch/backfill/internal/adapters/archive"
	fsutil "go.trai.ch/backfill/internal/adapters/fs"
	"go.trai.ch/backfill/internal/adapters/stream"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Client is the subset of *azblob.Client the backend uses.
type Client interface {
	DownloadStream(ctx context.Context, containerName, blobName string, o *azblob.DownloadStreamOptions) (azblob.DownloadStreamResponse, error)
	UploadStream(ctx context.Context, containerName, blobName string, body io.Reader, o *azblob.UploadStreamOptions) (azblob.UploadStreamResponse, error)
}

// Options configures the container and the optional size ceiling.
type Options struct {
	Container string
	MaxSize   int64
}

// NewClient connects to the account described by connectionString.
func NewClient(connectionString string) (*azblob.Client, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, zerr.Wrap(domain.ErrInvalidConfig, "failed to create azure blob client: "+err.Error())
	}
	return client, nil
}

// Storage stores the entry for a fingerprint as the blob of the same name.
type Storage struct {
	client      Client
	opts        Options
	packageRoot string
	logger      ports.Logger
}

// New creates an Azure Blob backend.
func New(client Client, opts Options, packageRoot string, logger ports.Logger) *Storage {
	return &Storage{client: client, opts: opts, packageRoot: packageRoot, logger: logger}
}

// Fetch downloads and extracts the blob for fp. Any failure to receive the blob is a miss.
func (s *Storage) Fetch(ctx context.Context, fp domain.Fingerprint) (bool, error) {
	resp, err := s.client.DownloadStream(ctx, s.opts.Container, fp.String(), nil)
	if err != nil {
		s.logger.WithField("blob", fp.String()).WithError(err).Debug("blob download failed, treating as miss")
		return false, nil
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close in defer

	if s.opts.MaxSize > 0 && resp.ContentLength != nil && *resp.ContentLength > s.opts.MaxSize {
		s.logger.WithField("size", *resp.ContentLength).Debug("blob exceeds maxSize, skipping")
		return false, nil
	}

	data, err := stream.NewAccumulator(resp.Body, s.opts.MaxSize).Bytes()
	if err != nil {
		s.logger.WithField("blob", fp.String()).WithError(err).Debug("blob transfer failed, treating as miss")
		return false, nil
	}

	if _, err := archive.Unpack(bytes.NewReader(data), s.packageRoot, ""); err != nil {
		return false, err
	}
	return true, nil
}

// Put streams a tar of files into the blob for fp.
func (s *Storage) Put(ctx context.Context, fp domain.Fingerprint, files []string) error {
	if s.opts.MaxSize > 0 {
		if total := fsutil.TotalSize(s.packageRoot, files); total > s.opts.MaxSize {
			s.logger.WithField("size", total).Debug("output exceeds maxSize, skipping upload")
			return nil
		}
	}

	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		_, err := archive.Pack(pw, s.packageRoot, "", files)
		pw.CloseWithError(err) //nolint:errcheck // Always returns nil
		return err
	})
	g.Go(func() error {
		_, err := s.client.UploadStream(gctx, s.opts.Container, fp.String(), pr, nil)
		pr.CloseWithError(err) //nolint:errcheck // Always returns nil
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to upload blob"), "blob", fp.String())
		}
		return nil
	})
	return g.Wait()
}
