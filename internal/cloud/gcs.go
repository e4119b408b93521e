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

// Google Cloud Storage data structures: the Pub/Sub notification payload
// GCS emits on object events, and a lightweight internal object reference
// passed between workflow commands.
package cloud

import "fmt"

// GetGCSObjectName returns the chain context key under which the triggering
// GCSObject is stored for downstream commands.
func GetGCSObjectName() string {
	return "__GCS__OBJ__"
}

// GCSPubSubNotification maps the JSON payload of a GCS event notification
// delivered through Pub/Sub.
type GCSPubSubNotification struct {
	Kind                    string                 `json:"kind"`
	ID                      string                 `json:"id"`
	SelfLink                string                 `json:"selfLink"`
	Name                    string                 `json:"name"`
	Bucket                  string                 `json:"bucket"`
	Generation              string                 `json:"generation"`
	MetaGeneration          string                 `json:"metageneration"`
	ContentType             string                 `json:"contentType"`
	TimeCreated             string                 `json:"timeCreated"`
	Updated                 string                 `json:"updated"`
	StorageClass            string                 `json:"storageClass"`
	TimeStorageClassUpdated string                 `json:"timeStorageClassUpdated"`
	Size                    string                 `json:"size"`
	MD5Hash                 string                 `json:"md5Hash"`
	MediaLink               string                 `json:"mediaLink"`
	MetaData                map[string]interface{} `json:"metadata"`
	Crc32c                  string                 `json:"crc32c"`
	ETag                    string                 `json:"etag"`
}

// GCSObject is a minimal reference to a stored object, distilled from the
// notification payload.
type GCSObject struct {
	Bucket   string
	Name     string
	MIMEType string
}

// URI renders the gs:// form of the object reference.
func (o *GCSObject) URI() string {
	return fmt.Sprintf("gs://%s/%s", o.Bucket, o.Name)
}

// URL renders the browsable HTTPS form of the object reference.
func (o *GCSObject) URL() string {
	return fmt.Sprintf("https://storage.mtls.cloud.google.com/%s/%s", o.Bucket, o.Name)
}
