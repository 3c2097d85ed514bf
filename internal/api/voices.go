package api

import (
	"context"

	"shortsdub/internal/services/elevenlabs"
)

// VoiceLister abstracts the speech provider's voice catalogue.
type VoiceLister interface {
	ListVoices(ctx context.Context, targetLanguage string) ([]elevenlabs.Voice, error)
}

// VoiceService lists voices usable for the configured target language.
type VoiceService struct {
	lister VoiceLister
	target string
}

// NewVoiceService constructs a VoiceService.
func NewVoiceService(lister VoiceLister, targetLanguage string) *VoiceService {
	return &VoiceService{lister: lister, target: targetLanguage}
}

// List returns the filtered voices; an empty catalogue is an empty list.
func (s *VoiceService) List(ctx context.Context) (VoiceListResponse, error) {
	voices, err := s.lister.ListVoices(ctx, s.target)
	if err != nil {
		return VoiceListResponse{}, err
	}
	out := make([]Voice, 0, len(voices))
	for _, v := range voices {
		out = append(out, Voice{ID: v.ID, Name: v.Name})
	}
	return VoiceListResponse{Voices: out}, nil
}
