// Package attachment implements context.AttachmentResolver against
// S3-compatible object storage.
package attachment

import (
	stdctx "context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	ctx "github.com/iota-uz/context"
	"github.com/pkg/errors"
)

const resolverVersion = "s3-resolver/1"

// S3Resolver resolves attachment references backed by an S3 (or
// S3-compatible: MinIO, LocalStack) bucket. URIs are bucket-relative keys.
type S3Resolver struct {
	client *s3.Client
	bucket string
}

// S3ResolverConfig configures NewS3Resolver.
type S3ResolverConfig struct {
	Bucket   string
	Region   string
	Endpoint string // optional custom endpoint, for MinIO/LocalStack
}

// NewS3Resolver builds an S3Resolver from cfg, loading AWS credentials and
// region from the default provider chain.
func NewS3Resolver(ctxArg stdctx.Context, cfg S3ResolverConfig) (*S3Resolver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctxArg, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Resolver{client: client, bucket: cfg.Bucket}, nil
}

// Resolve fetches ref.URI from the bucket. metadata_only skips the body
// fetch entirely; extract and full both download the object and detect its
// MIME type, differing only in how much of the body attachment.Parts
// carries (extract truncates to a text preview, full carries everything
// mimetype successfully sniffs as text).
func (r *S3Resolver) Resolve(ctxArg stdctx.Context, ref ctx.AttachmentRef, level ctx.ResolutionLevel) (ctx.AttachmentResolution, error) {
	key := strings.TrimPrefix(ref.URI, "/")

	head, err := r.client.HeadObject(ctxArg, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return ctx.AttachmentResolution{}, errors.Wrap(err, "s3 head object failed")
	}

	meta := map[string]any{
		"key":         key,
		"sizeBytes":   aws.ToInt64(head.ContentLength),
		"contentType": aws.ToString(head.ContentType),
	}

	if level == ctx.ResolutionMetadataOnly {
		return ctx.AttachmentResolution{
			Meta:            meta,
			ResolverVersion: resolverVersion,
		}, nil
	}

	obj, err := r.client.GetObject(ctxArg, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return ctx.AttachmentResolution{}, errors.Wrap(err, "s3 get object failed")
	}
	defer obj.Body.Close()

	body, err := io.ReadAll(obj.Body)
	if err != nil {
		return ctx.AttachmentResolution{}, errors.Wrap(err, "reading s3 object body failed")
	}

	detected := mimetype.Detect(body)
	meta["detectedMimeType"] = detected.String()

	snapshot := sha256.Sum256(body)
	snapshotHash := hex.EncodeToString(snapshot[:])

	text := textForLevel(body, detected.String(), level)

	var parts []ctx.AttachmentPart
	if text != "" {
		parts = []ctx.AttachmentPart{{Kind: "text", Text: text}}
	}

	return ctx.AttachmentResolution{
		Meta:            meta,
		Parts:           parts,
		SnapshotHash:    snapshotHash,
		ResolverVersion: resolverVersion,
	}, nil
}

const extractPreviewChars = 4000

// textForLevel decides what text (if any) an attachment's part list should
// carry, given its sniffed MIME type and the requested resolution level.
func textForLevel(body []byte, detectedMimeType string, level ctx.ResolutionLevel) string {
	if !strings.HasPrefix(detectedMimeType, "text/") && detectedMimeType != "application/json" {
		return ""
	}
	text := string(body)
	if level == ctx.ResolutionExtract && len(text) > extractPreviewChars {
		text = text[:extractPreviewChars]
	}
	return text
}
