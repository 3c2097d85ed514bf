package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shortsdub/internal/job"
	"shortsdub/internal/language"
	"shortsdub/internal/services"
	"shortsdub/internal/services/retry"
	"shortsdub/internal/textutil"
)

const translateStage = "translate"

// TranslationPrompt instructs the model to return a single JSON object.
const TranslationPrompt = `You translate transcripts of short spoken videos for dubbing.
Translate the user's text from %s to %s. Preserve the meaning of the whole
utterance and keep it natural to speak aloud; exact punctuation does not
matter. Do not add commentary, notes, or romanization.
Respond with JSON only: {"translation": "<translated text>"}`

type translationPayload struct {
	Translation string `json:"translation"`
}

// Translate renders transcript text in the target language. Empty output and
// output identical to the input across different languages are failures.
func (c *Client) Translate(ctx context.Context, transcript job.Transcript, target string) (job.Translation, error) {
	source := transcript.Language
	if strings.TrimSpace(transcript.Text) == "" {
		return job.Translation{}, services.Wrap(services.ErrValidation, translateStage, "validate input", "empty transcript", nil)
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return job.Translation{}, services.Wrap(services.ErrConfiguration, translateStage, "validate config", "llm api key required", nil)
	}

	prompt := fmt.Sprintf(TranslationPrompt, language.DisplayName(source), language.DisplayName(target))
	content, err := c.CompleteJSON(ctx, prompt, transcript.Text)
	if err != nil {
		return job.Translation{}, wrapRequestError(err)
	}

	var parsed translationPayload
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return job.Translation{}, services.Wrap(services.ErrExternalTool, translateStage, "parse response", "unreadable translation payload", err)
	}
	text := strings.TrimSpace(parsed.Translation)
	if text == "" {
		return job.Translation{}, services.Wrap(services.ErrEmptyResult, translateStage, "parse response", "empty result", nil)
	}
	if !language.Same(source, target) && textutil.SameText(text, transcript.Text) {
		return job.Translation{}, services.Wrap(services.ErrValidation, translateStage, "verify output", "translation is unchanged from the source text", nil)
	}
	return job.Translation{Text: text, SourceLanguage: source, TargetLanguage: target}, nil
}

func wrapRequestError(err error) error {
	var statusErr *retry.StatusError
	switch {
	case errors.As(err, &statusErr):
		msg := fmt.Sprintf("http %d: %s", statusErr.StatusCode, summarizePayloadSnippet(statusErr.Body))
		return services.Wrap(services.ErrProviderStatus, translateStage, "chat completion", msg, err)
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, translateStage, "chat completion", "timeout", err)
	default:
		return services.Wrap(services.ErrTransient, translateStage, "chat completion", "translation request failed", err)
	}
}
