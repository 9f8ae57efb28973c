// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ErrCredentialsNotFound indicates a missing service account key file.
var ErrCredentialsNotFound = errors.New("service account key not found")

// GCSSink uploads the configuration to a Cloud Storage object.
type GCSSink struct {
	Bucket string
	Object string

	client    *storage.Client
	newWriter func(ctx context.Context) io.WriteCloser
}

// NewGCSSink creates a sink for gs://bucket/object.
//
// An empty credentialsFile uses application default credentials.
func NewGCSSink(ctx context.Context, bucket, object, credentialsFile string) (*GCSSink, error) {
	if bucket == "" || object == "" {
		return nil, errors.New("bucket and object are required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, credentialsFile)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	s := &GCSSink{Bucket: bucket, Object: object, client: client}
	s.newWriter = func(ctx context.Context) io.WriteCloser {
		w := client.Bucket(bucket).Object(object).NewWriter(ctx)
		w.ContentType = contentType(object)
		w.CacheControl = "no-cache, no-store, must-revalidate"
		return w
	}
	return s, nil
}

// Location returns the gs:// URL of the object.
func (s *GCSSink) Location() string {
	return fmt.Sprintf("gs://%s/%s", s.Bucket, s.Object)
}

// Write implements Sink.
func (s *GCSSink) Write(ctx context.Context, data []byte) (string, error) {
	w := s.newWriter(ctx)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to upload to %s: %w", s.Location(), err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer for %s: %w", s.Location(), err)
	}
	return s.Location(), nil
}

// Close releases the storage client.
func (s *GCSSink) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func contentType(object string) string {
	if FormatFromPath(object) == FormatJSON {
		return "application/json"
	}
	return "application/yaml"
}
