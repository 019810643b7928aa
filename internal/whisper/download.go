package whisper

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

const modelBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// Models that can be fetched automatically.
var knownModels = map[string]bool{
	"base.en":        true,
	"small.en":       true,
	"medium.en":      true,
	"large-v3":       true,
	"large-v3-turbo": true,
}

// KnownModels lists the models the downloader can fetch, for menus.
func KnownModels() []string {
	return []string{"base.en", "small.en", "medium.en", "large-v3", "large-v3-turbo"}
}

// downloadModel fetches a ggml model into destPath, writing through a
// temp file so a partial download never looks like a usable model.
func downloadModel(model, destPath string) error {
	if !knownModels[model] {
		return fmt.Errorf("unknown model: %s", model)
	}
	url := fmt.Sprintf("%s/ggml-%s.bin", modelBaseURL, model)

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	tmpPath := destPath + ".tmp"
	defer os.Remove(tmpPath)

	log.Info().Str("model", model).Str("url", url).Msg("Starting model download")

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to download model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download model: HTTP %d", resp.StatusCode)
	}

	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer out.Close()

	var writer io.Writer = out
	if resp.ContentLength > 0 {
		writer = io.MultiWriter(out, &downloadProgress{
			model:   model,
			total:   resp.ContentLength,
			lastLog: time.Now(),
		})
	} else {
		log.Warn().Str("model", model).Msg("Content-Length not provided, progress tracking unavailable")
	}

	if _, err := io.Copy(writer, resp.Body); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to move model file: %w", err)
	}

	log.Info().
		Str("model", model).
		Str("path", destPath).
		Float64("size_mb", float64(resp.ContentLength)/1024/1024).
		Msg("Model downloaded")
	return nil
}

// downloadProgress logs download progress at most every 2 seconds.
type downloadProgress struct {
	model   string
	total   int64
	written int64
	lastLog time.Time
}

func (p *downloadProgress) Write(b []byte) (int, error) {
	p.written += int64(len(b))

	if now := time.Now(); now.Sub(p.lastLog) >= 2*time.Second || p.written >= p.total {
		p.lastLog = now
		log.Info().
			Str("model", p.model).
			Float64("percent", float64(p.written)/float64(p.total)*100).
			Float64("downloaded_mb", float64(p.written)/1024/1024).
			Msg("Downloading model")
	}
	return len(b), nil
}
