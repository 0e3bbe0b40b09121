package words

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// Validator decides whether a user-supplied string is a real word. It is
// consulted only for words outside the corpus. Implementations must fail
// closed: an unreachable backend means "invalid".
type Validator interface {
	Valid(ctx context.Context, word string) bool
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, word string) bool

func (f ValidatorFunc) Valid(ctx context.Context, word string) bool { return f(ctx, word) }

// RejectAll is the validator for languages without an authoritative
// dictionary.
var RejectAll Validator = ValidatorFunc(func(context.Context, string) bool { return false })

const (
	defaultDictionaryAPI = "https://api.dictionaryapi.dev/api/v2/entries/en/"
	defaultCambridge     = "https://dictionary.cambridge.org/dictionary/english/"
)

// DictionaryValidator checks English words against dictionaryapi.dev and
// falls back to the Cambridge dictionary, which redirects unknown words to a
// shorter search URL.
type DictionaryValidator struct {
	Client       *http.Client
	APIBase      string
	FallbackBase string
	Timeout      time.Duration
}

// NewDictionaryValidator returns a validator with the public endpoints.
func NewDictionaryValidator(timeout time.Duration) *DictionaryValidator {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &DictionaryValidator{
		Client:       &http.Client{},
		APIBase:      defaultDictionaryAPI,
		FallbackBase: defaultCambridge,
		Timeout:      timeout,
	}
}

func (v *DictionaryValidator) Valid(ctx context.Context, word string) bool {
	if !isLatin(word) {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, v.Timeout)
	defer cancel()

	if v.APIBase != "" && v.lookupAPI(ctx, word) {
		return true
	}
	if v.FallbackBase != "" {
		return v.lookupFallback(ctx, word)
	}
	return false
}

func (v *DictionaryValidator) lookupAPI(ctx context.Context, word string) bool {
	resp, err := v.get(ctx, v.APIBase+url.PathEscape(word))
	if err != nil {
		log.Debug().Err(err).Str("word", word).Msg("dictionary api unavailable")
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (v *DictionaryValidator) lookupFallback(ctx context.Context, word string) bool {
	target := v.FallbackBase + url.PathEscape(word)
	resp, err := v.get(ctx, target)
	if err != nil {
		log.Debug().Err(err).Str("word", word).Msg("fallback dictionary unavailable")
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}
	// Unknown words are redirected to the (shorter) dictionary root.
	return len(resp.Request.URL.String()) >= len(target)
}

func (v *DictionaryValidator) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	client := v.Client
	if client == nil {
		client = http.DefaultClient
	}
	return client.Do(req)
}

// ForLanguage returns the default validator for a language.
func ForLanguage(language string, timeout time.Duration) Validator {
	if language == "en" {
		return NewDictionaryValidator(timeout)
	}
	return RejectAll
}
