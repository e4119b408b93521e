// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file defines the VideoService, which mints secure, time-limited URLs
// for streaming source videos from their private GCS bucket to the review
// UI without handing out credentials.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	credentialspb "cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
)

// VideoService signs GCS object URLs on behalf of a configured service
// account through the IAM Credentials API, so no local key file is needed
// when running on GCP infrastructure.
type VideoService struct {
	StorageClient *storage.Client
	IAMClient     *credentials.IamCredentialsClient
	SignerEmail   string
}

func NewVideoService(storageClient *storage.Client, iamClient *credentials.IamCredentialsClient, signerEmail string) *VideoService {
	return &VideoService{
		StorageClient: storageClient,
		IAMClient:     iamClient,
		SignerEmail:   signerEmail,
	}
}

// parseGSURI splits a gs://bucket/object URI into its components.
func parseGSURI(uri string) (bucket string, object string, err error) {
	const prefix = "gs://"
	if !strings.HasPrefix(uri, prefix) {
		return "", "", fmt.Errorf("invalid GCS URI format: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, prefix), "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI: unable to determine bucket and object from %s", uri)
	}
	return parts[0], parts[1], nil
}

// GenerateSignedURL returns a V4-signed GET URL for the given gs:// URI,
// valid for the requested duration.
func (s *VideoService) GenerateSignedURL(ctx context.Context, gsURI string, expires time.Duration) (string, error) {
	bucketName, objectName, err := parseGSURI(gsURI)
	if err != nil {
		return "", err
	}

	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: s.SignerEmail,
		SignBytes: func(b []byte) ([]byte, error) {
			req := &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
				Payload: b,
			}
			resp, err := s.IAMClient.SignBlob(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		},
	}

	u, err := s.StorageClient.Bucket(bucketName).SignedURL(objectName, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).Object(%q).SignedURL: %w", bucketName, objectName, err)
	}
	return u, nil
}
