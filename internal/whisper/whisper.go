package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/MikelWL/whisper-clipboard/internal/config"
)

// Transcriber converts one completed utterance into text. Transcribe
// is safe to call while the next recording session is already running.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error)
	LoadModel(model string) error
	Close() error
}

type whisperTranscriber struct {
	cfg config.WhisperConfig

	mu        sync.Mutex
	model     whisper.Model
	modelPath string
}

// New creates a whisper.cpp transcriber, downloading the configured
// model first if it is not on disk yet.
func New(cfg config.WhisperConfig) (Transcriber, error) {
	modelPath := filepath.Join(config.ModelsPath(), cfg.Model+".bin")

	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		if err := downloadModel(cfg.Model, modelPath); err != nil {
			return nil, fmt.Errorf("failed to download model: %w", err)
		}
	}

	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	return &whisperTranscriber{
		cfg:       cfg,
		model:     model,
		modelPath: modelPath,
	}, nil
}

// Transcribe runs whisper.cpp over the whole utterance and returns the
// joined segment text. One inference runs at a time; callers queue.
func (w *whisperTranscriber) Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.model == nil {
		return "", fmt.Errorf("transcriber closed")
	}

	wctx, err := w.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("failed to create context: %w", err)
	}

	if w.cfg.Threads > 0 {
		wctx.SetThreads(uint(w.cfg.Threads))
	}
	if w.cfg.Temperature > 0 {
		wctx.SetTemperature(w.cfg.Temperature)
	}
	if w.cfg.Language != "auto" && w.cfg.Language != "" {
		if err := wctx.SetLanguage(w.cfg.Language); err != nil {
			return "", fmt.Errorf("failed to set language: %w", err)
		}
	}
	wctx.SetTranslate(false)

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper process failed: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " "), nil
}

func (w *whisperTranscriber) LoadModel(model string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	modelPath := filepath.Join(config.ModelsPath(), model+".bin")
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		if err := downloadModel(model, modelPath); err != nil {
			return fmt.Errorf("failed to download model: %w", err)
		}
	}

	newModel, err := whisper.New(modelPath)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	if w.model != nil {
		w.model.Close()
	}
	w.model = newModel
	w.modelPath = modelPath
	return nil
}

func (w *whisperTranscriber) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.model != nil {
		w.model.Close()
		w.model = nil
	}
	return nil
}
