// Package preferences stores the user's language, voice, notification and
// offline-sync settings. Unset preferences read as their defaults.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"arogya-setu/internal/storage"
)

const (
	keyLanguage      = "arogya_language"
	keyVoice         = "arogya_voice_settings"
	keyNotifications = "arogya_notifications"
	keyOffline       = "arogya_offline"
)

var ErrValidation = errors.New("invalid preference")

type Service interface {
	Language(ctx context.Context) (Language, error)
	SetLanguage(ctx context.Context, code string) (Language, error)
	Voice(ctx context.Context) (VoiceSettings, error)
	UpdateVoice(ctx context.Context, u VoiceUpdate) (VoiceSettings, error)
	Notifications(ctx context.Context) (Notifications, error)
	SetNotifications(ctx context.Context, n Notifications) (Notifications, error)
	Offline(ctx context.Context) (OfflineSettings, error)
	SetOffline(ctx context.Context, o OfflineSettings) (OfflineSettings, error)
}

type service struct {
	kv storage.KV
}

func NewService(kv storage.KV) Service {
	return &service{kv: kv}
}

// load decodes key into dst, leaving dst untouched when nothing is stored.
func (s *service) load(ctx context.Context, key string, dst any) error {
	err := s.kv.Get(ctx, key, dst)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load %s: %w", key, err)
	}
	return nil
}

func (s *service) Language(ctx context.Context) (Language, error) {
	code := DefaultLanguage
	if err := s.load(ctx, keyLanguage, &code); err != nil {
		return Language{}, err
	}
	lang, ok := findLanguage(code)
	if !ok {
		lang, _ = findLanguage(DefaultLanguage)
	}
	return lang, nil
}

func (s *service) SetLanguage(ctx context.Context, code string) (Language, error) {
	lang, ok := findLanguage(code)
	if !ok {
		return Language{}, fmt.Errorf("%w: unsupported language %q", ErrValidation, code)
	}
	if err := s.kv.Put(ctx, keyLanguage, lang.Code); err != nil {
		return Language{}, err
	}
	return lang, nil
}

func (s *service) Voice(ctx context.Context) (VoiceSettings, error) {
	v := DefaultVoiceSettings()
	if err := s.load(ctx, keyVoice, &v); err != nil {
		return VoiceSettings{}, err
	}
	return v, nil
}

func (s *service) UpdateVoice(ctx context.Context, u VoiceUpdate) (VoiceSettings, error) {
	v, err := s.Voice(ctx)
	if err != nil {
		return VoiceSettings{}, err
	}
	if u.Enabled != nil {
		v.Enabled = *u.Enabled
	}
	if u.Rate != nil {
		v.Rate = *u.Rate
	}
	if u.Pitch != nil {
		v.Pitch = *u.Pitch
	}
	if u.Volume != nil {
		v.Volume = *u.Volume
	}
	if u.Language != nil {
		v.Language = *u.Language
	}

	// Ranges accepted by speech synthesis engines.
	switch {
	case v.Rate < 0.1 || v.Rate > 10:
		return VoiceSettings{}, fmt.Errorf("%w: rate must be between 0.1 and 10", ErrValidation)
	case v.Pitch < 0 || v.Pitch > 2:
		return VoiceSettings{}, fmt.Errorf("%w: pitch must be between 0 and 2", ErrValidation)
	case v.Volume < 0 || v.Volume > 1:
		return VoiceSettings{}, fmt.Errorf("%w: volume must be between 0 and 1", ErrValidation)
	case v.Language == "":
		return VoiceSettings{}, fmt.Errorf("%w: voice language is required", ErrValidation)
	}

	if err := s.kv.Put(ctx, keyVoice, v); err != nil {
		return VoiceSettings{}, err
	}
	return v, nil
}

func (s *service) Notifications(ctx context.Context) (Notifications, error) {
	n := DefaultNotifications()
	if err := s.load(ctx, keyNotifications, &n); err != nil {
		return Notifications{}, err
	}
	return n, nil
}

func (s *service) SetNotifications(ctx context.Context, n Notifications) (Notifications, error) {
	if err := s.kv.Put(ctx, keyNotifications, n); err != nil {
		return Notifications{}, err
	}
	return n, nil
}

func (s *service) Offline(ctx context.Context) (OfflineSettings, error) {
	o := DefaultOfflineSettings()
	if err := s.load(ctx, keyOffline, &o); err != nil {
		return OfflineSettings{}, err
	}
	return o, nil
}

func (s *service) SetOffline(ctx context.Context, o OfflineSettings) (OfflineSettings, error) {
	if !slices.Contains(SyncFrequencies, o.SyncFrequency) {
		return OfflineSettings{}, fmt.Errorf("%w: unknown sync frequency %q", ErrValidation, o.SyncFrequency)
	}
	if !slices.Contains(StorageOptions, o.OfflineStorage) {
		return OfflineSettings{}, fmt.Errorf("%w: unknown storage size %q", ErrValidation, o.OfflineStorage)
	}
	if err := s.kv.Put(ctx, keyOffline, o); err != nil {
		return OfflineSettings{}, err
	}
	return o, nil
}
