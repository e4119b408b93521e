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

// General-purpose helpers for the cloud package: hierarchical TOML
// configuration loading and a text-extraction wrapper over generative
// model responses with token accounting.
package cloud

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"

	"go.opentelemetry.io/otel/metric"

	"github.com/BurntSushi/toml"
	"google.golang.org/genai"
)

const (
	ConfigFileBaseName  = ".env"              // Base name for configuration files.
	ConfigFileExtension = ".toml"             // Extension for configuration files.
	ConfigSeparator     = "."                 // Separator in override file names (".env.local.toml").
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX" // Env var naming the config directory.
	EnvConfigRuntime    = "GCP_RUNTIME"       // Env var naming the runtime ("local", "test", "prod").
)

func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig populates baseConfig from the base .env.toml file and then
// overlays the environment-specific file for the current GCP_RUNTIME
// (defaulting to "test"). Values in the overlay win. Missing files are
// skipped; a file that exists but fails to decode is fatal.
func LoadConfig(baseConfig interface{}) {
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension

	if fileExists(baseConfigFileName) {
		if _, err := toml.DecodeFile(baseConfigFileName, baseConfig); err != nil {
			log.Fatalf("failed to decode base configuration file %s with error: %s", baseConfigFileName, err)
		}
	}

	if fileExists(envConfigFileName) {
		if _, err := toml.DecodeFile(envConfigFileName, baseConfig); err != nil {
			log.Fatalf("failed to decode environment configuration file: %s with error: %s", envConfigFileName, err)
		}
	}
}

// GenerateText invokes the model with the given content and returns the
// concatenated text of all response parts. Prompt and candidate token
// counts are recorded on the supplied counters when usage metadata is
// present.
func GenerateText(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	model GenerativeModel,
	content []*genai.Content) (string, error) {
	resp, err := model.GenerateContent(ctx, content)
	if err != nil {
		return "", err
	}

	if resp.UsageMetadata != nil {
		if inputTokenCounter != nil {
			inputTokenCounter.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
		}
		if outputTokenCounter != nil {
			outputTokenCounter.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
		}
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
