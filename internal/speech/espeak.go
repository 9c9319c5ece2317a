package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// ContentType of the audio produced by the espeak engine.
const ContentType = "audio/wav"

// EspeakEngine drives the espeak-ng command line synthesizer. The config and
// voice resources are the JSON files shipped with the browser speech bundle;
// the voice file's voice_id selects the espeak voice.
type EspeakEngine struct {
	binary string
	fs     afero.Fs

	mu       sync.RWMutex
	resolved string
	voice    string
}

// NewEspeakEngine creates an engine reading resources from fsys.
func NewEspeakEngine(binary string, fsys afero.Fs) *EspeakEngine {
	return &EspeakEngine{binary: binary, fs: fsys}
}

type voiceFile struct {
	VoiceID string `json:"voice_id"`
}

// LoadConfig checks that the config resource is readable JSON and that the
// binary can be found.
func (e *EspeakEngine) LoadConfig(ctx context.Context, p string) error {
	data, err := afero.ReadFile(e.fs, p)
	if err != nil {
		return fmt.Errorf("read speech config: %w", err)
	}
	if !json.Valid(data) {
		return fmt.Errorf("speech config %s is not valid JSON", p)
	}
	resolved, err := exec.LookPath(e.binary)
	if err != nil {
		return fmt.Errorf("locate %s: %w", e.binary, err)
	}
	e.mu.Lock()
	e.resolved = resolved
	e.mu.Unlock()
	return nil
}

// LoadVoice reads the voice resource and remembers its espeak voice name.
func (e *EspeakEngine) LoadVoice(ctx context.Context, p string) error {
	data, err := afero.ReadFile(e.fs, p)
	if err != nil {
		return fmt.Errorf("read speech voice: %w", err)
	}
	var vf voiceFile
	if err := json.Unmarshal(data, &vf); err != nil {
		return fmt.Errorf("parse speech voice %s: %w", p, err)
	}
	if strings.TrimSpace(vf.VoiceID) == "" {
		return fmt.Errorf("speech voice %s has no voice_id", p)
	}
	e.mu.Lock()
	e.voice = path.Base(vf.VoiceID)
	e.mu.Unlock()
	return nil
}

// Synthesize runs espeak-ng and returns the WAV output.
func (e *EspeakEngine) Synthesize(ctx context.Context, text string, opts Options) ([]byte, error) {
	e.mu.RLock()
	bin, voice := e.resolved, e.voice
	e.mu.RUnlock()
	if bin == "" || voice == "" {
		return nil, ErrNotLoaded
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, espeakArgs(voice, text, opts)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("espeak: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, errors.New("espeak produced no audio")
	}
	return stdout.Bytes(), nil
}

func espeakArgs(voice, text string, o Options) []string {
	v := voice
	if o.Variant != "" {
		v += "+" + o.Variant
	}
	return []string{
		"--stdout",
		"-a", strconv.Itoa(o.Amplitude),
		"-s", strconv.Itoa(o.Speed),
		"-p", strconv.Itoa(o.Pitch),
		"-v", v,
		"--", text,
	}
}
