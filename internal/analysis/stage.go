// Package analysis runs one report through the reasoning model as a
// streaming stage: assemble the report, stream the model's reasoning and
// answer while re-emitting progress, then persist the transcript.
package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/haolin/tianji/backend/internal/ark"
	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/internal/report"
	"github.com/haolin/tianji/backend/pkg/logger"
)

// Chatter abstracts the model client so stages can be tested without a
// live endpoint
type Chatter interface {
	ChatStream(ctx context.Context, messages []ark.Message, handler ark.StreamHandler) (contracts.StageResult, error)
}

// Stage couples one report source with the model. A stage whose source has
// no data is skipped: it returns an empty result and no error, and the
// decision stage simply sees an empty report section.
type Stage struct {
	source    report.Source
	client    Chatter
	sink      contracts.ProgressSink
	outputDir string
	stockCode string // empty for stages not tied to one stock
	log       *logger.Logger
}

func NewStage(source report.Source, client Chatter, sink contracts.ProgressSink, outputDir, stockCode string, log *logger.Logger) *Stage {
	if sink == nil {
		sink = contracts.NopSink
	}
	return &Stage{
		source:    source,
		client:    client,
		sink:      sink,
		outputDir: outputDir,
		stockCode: stockCode,
		log:       log,
	}
}

func (s *Stage) ID() contracts.StageID { return s.source.Stage() }

// Run executes the stage for the given target date
func (s *Stage) Run(ctx context.Context, target time.Time) (contracts.StageResult, error) {
	id := s.source.Stage()
	spec := stageSpecs[id]
	start := time.Now()

	s.log.WithFields(map[string]interface{}{
		"stage":  string(id),
		"stock":  s.stockCode,
		"target": target.Format("2006-01-02"),
	}).Info("🔍 analysis stage started")

	payload, err := s.source.Build(target)
	if err != nil {
		return contracts.StageResult{}, fmt.Errorf("build %s report: %w", id, err)
	}
	if !payload.HasData {
		s.log.WithField("stage", string(id)).Warn("❌ report empty, stage skipped")
		return contracts.StageResult{}, nil
	}

	messages := []ark.Message{
		{Role: "system", Content: spec.systemPrompt},
		{Role: "user", Content: fmt.Sprintf(spec.userTemplate, payload.Text)},
	}

	result, err := s.client.ChatStream(ctx, messages, func(d ark.Delta) {
		partial := d.ReasoningContent
		if partial == "" {
			partial = d.Content
		}
		s.sink.Emit(contracts.ProgressEvent{
			Stage:       id,
			Message:     spec.runningStatus,
			PartialText: partial,
		})
	})
	if err != nil {
		return contracts.StageResult{}, fmt.Errorf("%s analysis failed: %w", id, err)
	}
	s.sink.Emit(contracts.ProgressEvent{Stage: id, Message: spec.doneStatus})

	if err := s.saveTranscript(spec, target, result); err != nil {
		// Losing the artifact is not worth failing the prediction over
		s.log.WithError(err).Warn("failed to save analysis transcript")
	}

	s.log.WithFields(map[string]interface{}{
		"stage":   string(id),
		"elapsed": time.Since(start).Round(time.Millisecond).String(),
	}).Info("⏰ analysis stage complete")

	return result, nil
}

// saveTranscript writes reasoning followed by answer to a markdown file
// named after the stock, stage and dates, matching the suggestion archive
// layout consumed by the frontend.
func (s *Stage) saveTranscript(spec stageSpec, target time.Time, result contracts.StageResult) error {
	if s.outputDir == "" || result.Empty() {
		return nil
	}

	name := fmt.Sprintf("%s%s_%s_%s.md",
		s.stockCode, spec.artifactLabel,
		target.Format("2006-01-02"),
		time.Now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(s.outputDir, name)

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(result.Reasoning+result.Answer), 0o644)
}
