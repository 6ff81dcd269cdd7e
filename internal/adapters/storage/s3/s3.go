// Package s3 stores cache entries as gzip compressed tar objects in an S3 bucket.
package s3

import (
	"context"
	"errors"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"go.trai.ch/backfill/internal/adapters/archive"
	fsutil "go.trai.ch/backfill/internal/adapters/fs"
	"go.trai.ch/backfill/internal/adapters/stream"
	"go.trai.ch/backfill/internal/core/domain"
	"go.trai.ch/backfill/internal/core/ports"
	"go.trai.ch/zerr"
)

// DigestMetadataKey is the object metadata entry holding the archive digest.
const DigestMetadataKey = "backfill-digest"

// Getter is the subset of the S3 API used for downloads.
type Getter interface {
	GetObjectWithContext(ctx aws.Context, input *awss3.GetObjectInput, opts ...request.Option) (*awss3.GetObjectOutput, error)
}

// Uploader is the subset of the S3 upload manager used for uploads.
type Uploader interface {
	UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// Options configures the bucket layout and transfer limits.
type Options struct {
	Bucket       string
	Prefix       string
	MaxSize      int64
	StallTimeout time.Duration
}

// NewClients builds a getter and an uploader sharing one session.
func NewClients(opts domain.S3Options) (Getter, Uploader, error) {
	cfg := aws.NewConfig()
	if opts.Region != "" {
		cfg = cfg.WithRegion(opts.Region)
	}
	if opts.Endpoint != "" {
		cfg = cfg.WithEndpoint(opts.Endpoint)
	}
	if opts.ForcePathStyle {
		cfg = cfg.WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, nil, zerr.Wrap(domain.ErrInvalidConfig, "failed to create aws session: "+err.Error())
	}
	client := awss3.New(sess)
	return client, s3manager.NewUploaderWithClient(client), nil
}

// Storage stores the entry for a fingerprint under prefix+fingerprint.
type Storage struct {
	getter      Getter
	uploader    Uploader
	opts        Options
	packageRoot string
	cacheRoot   string
	logger      ports.Logger
}

// New creates an S3 backend. cacheRoot holds temporary files during transfers.
func New(getter Getter, uploader Uploader, opts Options, packageRoot, cacheRoot string, logger ports.Logger) *Storage {
	if opts.StallTimeout <= 0 {
		opts.StallTimeout = domain.DefaultStallTimeout
	}
	return &Storage{
		getter:      getter,
		uploader:    uploader,
		opts:        opts,
		packageRoot: packageRoot,
		cacheRoot:   cacheRoot,
		logger:      logger,
	}
}

// Key returns the object key for fp.
func (s *Storage) Key(fp domain.Fingerprint) string {
	return s.opts.Prefix + fp.String()
}

// Fetch downloads the object for fp into a staging folder, verifies its digest and copies
// the result into the package root. Missing objects, archives whose files add up to more
// than maxSize and digest mismatches are misses.
func (s *Storage) Fetch(ctx context.Context, fp domain.Fingerprint) (bool, error) {
	key := s.Key(fp)
	out, err := s.getter.GetObjectWithContext(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, zerr.With(zerr.Wrap(err, "failed to get object"), "key", key)
	}

	body := stream.NewStallReader(ctx, out.Body, s.opts.StallTimeout)
	defer body.Close() //nolint:errcheck // Best effort close in defer

	if err := os.MkdirAll(s.cacheRoot, domain.DirPerm); err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to create cache folder"), "path", s.cacheRoot)
	}
	staging, err := os.MkdirTemp(s.cacheRoot, "s3-fetch-")
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to create staging folder"), "path", s.cacheRoot)
	}
	defer os.RemoveAll(staging) //nolint:errcheck // Staging only lives for this call

	digester := archive.NewDigester()
	tee := io.TeeReader(body, digester)

	files, err := archive.UnpackGzipLimit(tee, staging, "", s.opts.MaxSize)
	if errors.Is(err, domain.ErrSizeLimitExceeded) {
		s.logger.WithField("key", key).WithField("maxSize", s.opts.MaxSize).Debug("object exceeds maxSize, skipping")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(io.Discard, tee); err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to drain object"), "key", key)
	}

	if err := digester.Verify(metadataValue(out.Metadata, DigestMetadataKey)); err != nil {
		s.logger.WithField("key", key).WithError(err).Warn("object digest mismatch, treating as miss")
		return false, nil
	}

	if _, err := fsutil.CopyFiles(files, staging, s.packageRoot, false); err != nil {
		return false, err
	}
	return true, nil
}

// Put uploads files as one gzip compressed tar. Outputs whose sizes add up to more than
// maxSize are skipped.
func (s *Storage) Put(ctx context.Context, fp domain.Fingerprint, files []string) error {
	if total := fsutil.TotalSize(s.packageRoot, files); s.opts.MaxSize > 0 && total > s.opts.MaxSize {
		s.logger.WithField("size", total).WithField("maxSize", s.opts.MaxSize).Debug("output exceeds maxSize, skipping upload")
		return nil
	}

	if err := os.MkdirAll(s.cacheRoot, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create cache folder"), "path", s.cacheRoot)
	}
	spool, err := os.CreateTemp(s.cacheRoot, "s3-put-*.tgz")
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create spool file"), "path", s.cacheRoot)
	}
	defer os.Remove(spool.Name()) //nolint:errcheck // Spool only lives for this call
	defer spool.Close()           //nolint:errcheck // Best effort close in defer

	digester := archive.NewDigester()
	if _, err := archive.PackGzip(io.MultiWriter(spool, digester), s.packageRoot, "", files); err != nil {
		return err
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to rewind spool file"), "path", spool.Name())
	}

	key := s.Key(fp)
	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:   aws.String(s.opts.Bucket),
		Key:      aws.String(key),
		Body:     spool,
		Metadata: map[string]*string{DigestMetadataKey: aws.String(digester.Digest())},
	})
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to upload object"), "key", key)
	}
	return nil
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	return slices.Contains([]string{awss3.ErrCodeNoSuchKey, "NotFound"}, aerr.Code())
}

// metadataValue looks key up ignoring case; the SDK canonicalizes header names.
func metadataValue(md map[string]*string, key string) string {
	for k, v := range md {
		if strings.EqualFold(k, key) {
			return aws.StringValue(v)
		}
	}
	return ""
}
