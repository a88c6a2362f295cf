package voice

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Emitter writes the voice config to durable storage exactly once.
// A second Emit on the same Emitter fails with ErrAlreadyEmitted. The
// write goes through a temp file and an atomic rename so a crashed run
// never leaves a truncated config behind.
type Emitter struct {
	log *slog.Logger

	mu   sync.Mutex
	done bool
	path string
}

func NewEmitter(log *slog.Logger) *Emitter {
	if log == nil {
		log = slog.Default()
	}
	return &Emitter{log: log}
}

// Emit validates cfg, fills default inference scales, and writes it as
// JSON to path.
func (e *Emitter) Emit(cfg *Config, path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done {
		return fmt.Errorf("%w (to %s)", ErrAlreadyEmitted, e.path)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.fillDefaults()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("voice: encode config: %w", err)
	}
	data = append(data, '\n')

	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("voice: write config: %w", err)
	}
	e.done = true
	e.path = path
	e.log.Info("voice config written",
		"path", path,
		"num_symbols", cfg.NumSymbols,
		"num_speakers", cfg.NumSpeakers,
		"phoneme_type", cfg.PhonemeType)
	return nil
}

// Emitted reports whether the config has been written.
func (e *Emitter) Emitted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

// Load reads a previously emitted voice config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("voice: read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("voice: decode config %s: %w", path, err)
	}
	return &cfg, nil
}

// CopyAlongside copies the config file at configPath next to an
// exported model artifact, naming it `<model>.json` so an exported
// `voice.onnx` ends up with a sibling `voice.onnx.json`. The bytes are
// copied unchanged. It returns the destination path.
func CopyAlongside(configPath, modelPath string) (string, error) {
	if !strings.HasSuffix(modelPath, ".onnx") {
		return "", fmt.Errorf("voice: model path %s does not end in .onnx", modelPath)
	}
	src, err := os.Open(configPath)
	if err != nil {
		return "", fmt.Errorf("voice: open config: %w", err)
	}
	defer src.Close()

	dst := modelPath + ".json"
	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("voice: read config: %w", err)
	}
	if err := writeFileAtomic(dst, data); err != nil {
		return "", fmt.Errorf("voice: copy config: %w", err)
	}
	return dst, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
