// Package publish copies finished artifacts to the destinations named in a
// job: the local serve directory, S3, GCS or an SFTP server.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"animvid/logger"
	"animvid/models"
)

// UploadFunc writes reader to one backend. accessInfo carries the stored
// credentials plus the target name keys filled by prepareAccessInfo.
type UploadFunc func(ctx context.Context, accessInfo map[string]string, reader io.Reader) error

// CredentialSource resolves a destination's credentials key.
type CredentialSource interface {
	Get(key string) (map[string]string, error)
}

// Publisher implements the job publisher over the registered backends.
type Publisher struct {
	Credentials CredentialSource
	ServeDir    string
	backends    map[string]UploadFunc
}

// New returns a publisher with the directServe, s3, gcs and sftp backends.
func New(creds CredentialSource, serveDir string) *Publisher {
	return &Publisher{
		Credentials: creds,
		ServeDir:    serveDir,
		backends: map[string]UploadFunc{
			"directServe": UploadToDirectServe,
			"s3":          UploadToS3WithCreds,
			"gcs":         UploadToGCSWithJSON,
			"sftp":        UploadToSFTPWithCreds,
		},
	}
}

// Register replaces the backend used for a destination type.
func (p *Publisher) Register(destType string, fn UploadFunc) {
	p.backends[destType] = fn
}

// Publish sends art to every destination. One failing destination does not
// stop the others; all failures are joined into the returned error.
func (p *Publisher) Publish(ctx context.Context, art models.OutputArtifact, dests []models.Destination) error {
	var errs []error
	for _, d := range dests {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("publishing cancelled: %w", err))
			break
		}
		if err := p.publishOne(ctx, art, d); err != nil {
			logger.Errorf("Failed to publish %s to %s: %v", art.Path, d.Type, err)
			errs = append(errs, fmt.Errorf("failed to write %s to %s: %w", filepath.Base(art.Path), d.Type, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Publisher) publishOne(ctx context.Context, art models.OutputArtifact, d models.Destination) error {
	upload, ok := p.backends[d.Type]
	if !ok {
		return fmt.Errorf("unknown backend type: %s", d.Type)
	}

	var creds map[string]string
	if d.CredentialsKey != "" {
		if p.Credentials == nil {
			return fmt.Errorf("no credentials store for key %s", d.CredentialsKey)
		}
		c, err := p.Credentials.Get(d.CredentialsKey)
		if err != nil {
			return err
		}
		creds = c
	} else if d.Type != "directServe" {
		return fmt.Errorf("%s destination needs a credentials key", d.Type)
	}

	reader, err := os.Open(art.Path)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", art.Path, err)
	}
	defer reader.Close()

	accessInfo := p.prepareAccessInfo(d, filepath.Base(art.Path), art.Format, creds)
	return upload(ctx, accessInfo, reader)
}

// prepareAccessInfo merges the credentials with the target naming keys each
// backend reads.
func (p *Publisher) prepareAccessInfo(d models.Destination, filename string, format models.OutputFormat, creds map[string]string) map[string]string {
	accessInfo := make(map[string]string, len(creds)+6)
	for k, v := range creds {
		accessInfo[k] = v
	}

	object := path.Join(d.Folder, filename)
	accessInfo["filename"] = filename
	accessInfo["folder"] = d.Folder
	accessInfo["contentType"] = ContentType(format)

	switch d.Type {
	case "directServe":
		accessInfo["baseDir"] = p.ServeDir
	case "s3":
		accessInfo["key"] = path.Join(creds["prefix"], object)
	case "gcs":
		accessInfo["object"] = path.Join(creds["prefix"], object)
	case "sftp":
		accessInfo["remotePath"] = path.Join(creds["remoteDir"], object)
	}
	return accessInfo
}

// ContentType is the MIME type of an output format.
func ContentType(format models.OutputFormat) string {
	switch format {
	case models.FormatMP4:
		return "video/mp4"
	case models.FormatWebM:
		return "video/webm"
	case models.FormatMKV:
		return "video/x-matroska"
	case models.FormatMOV:
		return "video/quicktime"
	case models.FormatGIF:
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
