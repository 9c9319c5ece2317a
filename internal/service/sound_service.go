package service

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"strings"

	"vowel-quiz/internal/audio"
	"vowel-quiz/internal/catalog"
	"vowel-quiz/internal/domain"
	"vowel-quiz/internal/logger"

	"go.uber.org/zap"
)

// Sound is an opened audio asset ready to stream.
type Sound struct {
	Path        string
	ContentType string
	Body        io.ReadCloser
}

// SoundService resolves vowel and example-word sounds to stored assets.
type SoundService interface {
	VowelSound(ctx context.Context, key string) (*Sound, error)
	WordSound(ctx context.Context, word string) (*Sound, error)
}

type soundService struct {
	cat       *catalog.Catalog
	assets    *audio.AssetStore
	vowelDir  string
	extension string
}

// NewSoundService creates a sound service.
func NewSoundService(cat *catalog.Catalog, assets *audio.AssetStore, vowelDir, extension string) SoundService {
	if vowelDir == "" {
		vowelDir = "vowels"
	}
	if extension == "" {
		extension = ".mp3"
	}
	return &soundService{cat: cat, assets: assets, vowelDir: vowelDir, extension: extension}
}

// VowelSound implements SoundService
func (s *soundService) VowelSound(ctx context.Context, key string) (*Sound, error) {
	item, ok := s.cat.ByKey(key)
	if !ok {
		return nil, domain.NewQuestionNotFoundError(key)
	}
	return s.open(ctx, audio.VowelCandidates(s.vowelDir, item.Sound))
}

// WordSound implements SoundService
func (s *soundService) WordSound(ctx context.Context, word string) (*Sound, error) {
	canonical, ok := s.cat.Word(word)
	if !ok {
		return nil, domain.NewError(domain.CodeNotFound, "Unknown example word: "+word, nil)
	}
	return s.open(ctx, audio.WordCandidates(canonical, s.extension))
}

func (s *soundService) open(ctx context.Context, candidates []string) (*Sound, error) {
	src, err := s.assets.Resolve(ctx, candidates)
	if err != nil {
		if errors.Is(err, audio.ErrExhausted) {
			logger.Get().Debug("No audio candidate found", zap.Strings("candidates", candidates))
			return nil, domain.NewAudioNotFoundError(candidates, err)
		}
		return nil, domain.NewInternalError("Failed to resolve audio", err)
	}
	f, err := s.assets.Open(src)
	if err != nil {
		return nil, domain.NewInternalError("Failed to open audio", err)
	}
	return &Sound{Path: src, ContentType: contentType(src), Body: f}, nil
}

var audioTypes = map[string]string{
	".mp3": "audio/mpeg",
	".ogg": "audio/ogg",
	".wav": "audio/wav",
}

func contentType(src string) string {
	ext := strings.ToLower(path.Ext(src))
	if ct, ok := audioTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
