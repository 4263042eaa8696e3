package usersettings

import (
	"context"
	"fmt"
)

/* User language preferences, fetched from the settings service and cached.
 * The cache is pluggable: Redis when the gateway runs replicated, an
 * in-process LRU otherwise.
 */

// Lang is one allowed language in a user's settings.
type Lang struct {
	Label string `json:"label"`
	Code  string `json:"code"`
}

// UserSettings is the settings service's record for one user.
type UserSettings struct {
	UserID       int64  `json:"user_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	Source       string `json:"source"`
	AllowedLangs []Lang `json:"allowed_langs"`
}

// DefaultLangCodes are used until a user picks their own languages.
var DefaultLangCodes = []string{"ru", "be", "uk"}

// LangCache stores resolved language codes per user.
type LangCache interface {
	Get(ctx context.Context, userID int64) ([]string, bool, error)
	Set(ctx context.Context, userID int64, langs []string) error
	Invalidate(ctx context.Context, userID int64) error
}

// UseCase defines the language-preference operations handler modules use.
type UseCase interface {
	UserOrDefaultLangCodes(ctx context.Context, userID int64) []string
	Langs(ctx context.Context) ([]Lang, error)
	SetAllowedLangs(ctx context.Context, settings UserSettings, langs []string) error
}

// Service resolves user language codes with a read-through cache.
type Service struct {
	client *Client
	cache  LangCache
}

// NewService creates a settings service over the given client and cache.
func NewService(client *Client, cache LangCache) *Service {
	return &Service{client: client, cache: cache}
}

// UserOrDefaultLangCodes returns the user's allowed language codes, falling
// back to the defaults when the settings service has no record or fails.
func (s *Service) UserOrDefaultLangCodes(ctx context.Context, userID int64) []string {
	if langs, ok, err := s.cache.Get(ctx, userID); err == nil && ok {
		return langs
	}

	settings, err := s.client.GetUserSettings(ctx, userID)
	if err != nil || len(settings.AllowedLangs) == 0 {
		return DefaultLangCodes
	}

	langs := make([]string, 0, len(settings.AllowedLangs))
	for _, lang := range settings.AllowedLangs {
		langs = append(langs, lang.Code)
	}

	// Cache write failures only cost a future round trip.
	_ = s.cache.Set(ctx, userID, langs)

	return langs
}

// Langs lists every language the settings service knows about.
func (s *Service) Langs(ctx context.Context) ([]Lang, error) {
	return s.client.GetLangs(ctx)
}

// SetAllowedLangs replaces a user's allowed languages and drops the stale
// cache entry so the next resolve sees the new set.
func (s *Service) SetAllowedLangs(ctx context.Context, settings UserSettings, langs []string) error {
	if err := s.cache.Invalidate(ctx, settings.UserID); err != nil {
		return fmt.Errorf("invalidating lang cache: %w", err)
	}

	if err := s.client.UpdateUserSettings(ctx, settings, langs); err != nil {
		return fmt.Errorf("updating user settings: %w", err)
	}
	return nil
}
