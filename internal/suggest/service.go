package suggest

import (
	"time"

	"github.com/amirbrooks/tasker-notes/internal/logger"
)

// Service binds settings and a clock to BuildSuggestions for callers that
// serve many requests, such as the CLI and editor integrations.
type Service struct {
	settings Settings
	now      func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now as the source of "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(settings Settings, opts ...Option) *Service {
	s := &Service{settings: settings, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Settings() Settings {
	return s.settings
}

// Suggest returns the completions for line at cursor.
func (s *Service) Suggest(line string, cursor int) []SuggestInfo {
	items := BuildSuggestions(line, cursor, s.settings, s.now())
	logger.Logger.Debugw("suggestions built",
		"cursor", cursor,
		"line_length", len(line),
		"count", len(items))
	return items
}
