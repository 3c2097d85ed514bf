package elevenlabs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"shortsdub/internal/language"
)

// Voice is a selectable speaker.
type Voice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type voicesResponse struct {
	Voices []struct {
		VoiceID string            `json:"voice_id"`
		Name    string            `json:"name"`
		Labels  map[string]string `json:"labels"`
	} `json:"voices"`
}

// ListVoices returns multilingual voices and voices labelled with the
// target language, sorted by name.
func (c *Client) ListVoices(ctx context.Context, targetLanguage string) ([]Voice, error) {
	raw, err := c.fetchVoices(ctx)
	if err != nil {
		return nil, err
	}
	needles := []string{"multilingual"}
	if name := strings.ToLower(language.DisplayName(targetLanguage)); name != "" && name != "unknown" {
		needles = append(needles, name)
	}
	if code := language.ToISO2(targetLanguage); code != "" {
		needles = append(needles, code)
	}

	voices := make([]Voice, 0, len(raw.Voices))
	for _, v := range raw.Voices {
		if v.VoiceID == "" || !labelsMatch(v.Labels, needles) {
			continue
		}
		voices = append(voices, Voice{ID: v.VoiceID, Name: v.Name})
	}
	sort.SliceStable(voices, func(i, j int) bool {
		return strings.ToLower(voices[i].Name) < strings.ToLower(voices[j].Name)
	})
	return voices, nil
}

// HealthCheck verifies the API key by listing voices.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("elevenlabs health: api key required")
	}
	_, err := c.fetchVoices(ctx)
	return err
}

func (c *Client) fetchVoices(ctx context.Context) (voicesResponse, error) {
	var out voicesResponse
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "v1", "voices")
	if err != nil {
		return out, fmt.Errorf("build endpoint: %w", err)
	}
	var payload []byte
	err = c.retry.Do(ctx, "elevenlabs voices", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("xi-api-key", c.cfg.APIKey)
		body, err := c.do(req, "elevenlabs voices")
		if err != nil {
			return err
		}
		payload = body
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("list voices: %w", err)
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, fmt.Errorf("decode voices: %w", err)
	}
	return out, nil
}

// labelsMatch reports whether any label key or value mentions a needle. Short
// needles (language codes) must match a whole label value.
func labelsMatch(labels map[string]string, needles []string) bool {
	for key, value := range labels {
		key = strings.ToLower(key)
		value = strings.ToLower(strings.TrimSpace(value))
		for _, needle := range needles {
			if len(needle) <= 3 {
				if value == needle {
					return true
				}
				continue
			}
			if strings.Contains(key, needle) || strings.Contains(value, needle) {
				return true
			}
		}
	}
	return false
}
