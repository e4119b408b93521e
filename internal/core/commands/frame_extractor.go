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

// This file defines the frame extraction command. It runs ffmpeg over the
// downloaded video to sample one still frame per second, uploads the frames
// to the frame bucket, and partitions the ordered frame list into the
// batches the describers consume.
//
// Extraction is the one stage whose failure aborts the run: without frames
// there is nothing to describe or summarize, so the command records an
// error on the chain and no analysis records are written at all.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	goctx "context"

	"github.com/h2non/filetype"
	"github.com/mwira/gcp-go-video-narrative/internal/cloud"
	"github.com/mwira/gcp-go-video-narrative/internal/core/cor"
	"github.com/mwira/gcp-go-video-narrative/internal/core/model"
)

// FrameFilePattern names the extracted frames with zero-padded numbers so
// their lexicographic order matches their temporal order.
const FrameFilePattern = "%05d.png"

// FrameExtractor runs ffmpeg to decompose the local video file into
// per-second PNG frames, stores them in the frame bucket, and emits the
// partitioned frame batches.
type FrameExtractor struct {
	cor.BaseCommand
	ffmpegPath  string
	sink        FrameSink
	batchSize   int
	callTimeout time.Duration
}

func NewFrameExtractor(name string, ffmpegPath string, sink FrameSink, batchSize int, callTimeout time.Duration) *FrameExtractor {
	return &FrameExtractor{
		BaseCommand: *cor.NewBaseCommand(name),
		ffmpegPath:  ffmpegPath,
		sink:        sink,
		batchSize:   batchSize,
		callTimeout: callTimeout,
	}
}

// PartitionFrames splits the ordered frame names into consecutive groups of
// at most batchSize, assigning 1-based sequence IDs. Zero frames yield zero
// batches. The function is deterministic in its inputs; nothing else feeds
// the grouping.
func PartitionFrames(video *model.Video, imagePath string, frames []string, batchSize int) []*model.FrameBatch {
	if batchSize < 1 {
		batchSize = 1
	}
	batches := make([]*model.FrameBatch, 0, (len(frames)+batchSize-1)/batchSize)
	for start := 0; start < len(frames); start += batchSize {
		end := start + batchSize
		if end > len(frames) {
			end = len(frames)
		}
		sequence := len(batches) + 1
		batches = append(batches, &model.FrameBatch{
			VideoID:    video.ID,
			SourceURI:  video.SourceURI,
			VideoURL:   video.URL,
			SequenceID: model.SequenceID(sequence),
			Sequence:   sequence,
			ImagePath:  imagePath,
			Frames:     frames[start:end],
		})
	}
	return batches
}

func (c *FrameExtractor) fail(context cor.Context, err error) {
	c.GetErrorCounter().Add(context.GetContext(), 1)
	context.AddError(c.GetName(), fmt.Errorf("%w: %v", model.ErrExtractionFailure, err))
}

func (c *FrameExtractor) Execute(context cor.Context) {
	videoPath := context.Get(c.GetInputParam()).(string)
	video := context.Get(GetVideoParameterName()).(*model.Video)
	msg := context.Get(cloud.GetGCSObjectName()).(*cloud.GCSObject)

	// ffmpeg trusts its input probing only so far; reject files that are
	// not recognizably video before shelling out.
	if err := checkVideoType(videoPath); err != nil {
		c.fail(context, err)
		return
	}

	frameDir, err := os.MkdirTemp("", "frames-")
	if err != nil {
		c.fail(context, err)
		return
	}
	defer func() {
		if err := os.RemoveAll(frameDir); err != nil {
			slog.Warn("failed to remove frame directory", "dir", frameDir, "error", err)
		}
	}()

	ctx, cancel := goctx.WithTimeout(context.GetContext(), c.callTimeout)
	defer cancel()

	outPattern := filepath.Join(frameDir, FrameFilePattern)
	cmd := exec.CommandContext(ctx, c.ffmpegPath,
		"-y", "-hide_banner",
		"-i", videoPath,
		"-vf", "fps=1",
		outPattern)
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		c.fail(context, fmt.Errorf("error running ffmpeg: %v", err))
		return
	}

	frames, err := listFrames(frameDir)
	if err != nil {
		c.fail(context, err)
		return
	}

	for _, frame := range frames {
		file, err := os.Open(filepath.Join(frameDir, frame))
		if err != nil {
			c.fail(context, err)
			return
		}
		err = c.sink.WriteFrame(context.GetContext(), msg.Name, frame, file)
		_ = file.Close()
		if err != nil {
			c.fail(context, err)
			return
		}
	}

	batches := PartitionFrames(video, msg.Name, frames, c.batchSize)
	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.Info("extracted frames", "video", video.ID, "frames", len(frames), "batches", len(batches))
	context.Add(c.GetOutputParam(), batches)
}

// checkVideoType sniffs the file header and rejects non-video content.
func checkVideoType(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	head := make([]byte, 261)
	n, err := file.Read(head)
	if err != nil {
		return fmt.Errorf("unable to read file header: %v", err)
	}
	kind, _ := filetype.Match(head[:n])
	if kind == filetype.Unknown || !strings.HasPrefix(kind.MIME.Value, "video/") {
		return fmt.Errorf("object is not a recognizable video (detected %q)", kind.MIME.Value)
	}
	return nil
}

// listFrames returns the frame file names in lexicographic order, which for
// the zero-padded pattern is also temporal order.
func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	frames := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		frames = append(frames, entry.Name())
	}
	sort.Strings(frames)
	return frames, nil
}
