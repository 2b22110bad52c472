package login

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/andrasnagy-data/delivery/internal/shared/config"
	"github.com/andrasnagy-data/delivery/internal/shared/i18n"
)

type (
	// screen is one instantiation of the login screen, bound to a browser by cookie.
	screen struct {
		id         uuid.UUID
		controller *Controller
		effects    *effects
		lang       language.Tag
		printer    *message.Printer

		mu       sync.Mutex
		lastSeen time.Time
	}

	ScreensParams struct {
		fx.In

		Config       *config.Config
		Logger       zerolog.Logger
		Auth         AuthClient
		Sessions     SessionStore
		Connectivity ConnectivityProbe
	}

	// Screens keeps the live login screens. Screens untouched for longer than
	// the configured TTL are dropped by a janitor goroutine.
	Screens struct {
		auth         AuthClient
		sessions     SessionStore
		connectivity ConnectivityProbe
		logger       zerolog.Logger
		ttl          time.Duration
		fallback     language.Tag
		prefill      *Credentials
		now          func() time.Time

		mu      sync.Mutex
		screens map[uuid.UUID]*screen

		stop chan struct{}
		wg   sync.WaitGroup
	}
)

func NewScreens(p ScreensParams) *Screens {
	s := &Screens{
		auth:         p.Auth,
		sessions:     p.Sessions,
		connectivity: p.Connectivity,
		logger:       p.Logger.With().Str("component", "login").Logger(),
		ttl:          p.Config.LoginScreenTTL,
		fallback:     i18n.ParseFallback(p.Config.DefaultLanguage),
		now:          time.Now,
		screens:      make(map[uuid.UUID]*screen),
	}
	if !p.Config.IsEnvProd() && p.Config.DemoEmail != "" {
		s.prefill = &Credentials{Email: p.Config.DemoEmail, Password: p.Config.DemoPassword}
	}
	return s
}

// open instantiates a fresh screen with its own controller.
func (s *Screens) open(lang language.Tag) *screen {
	printer := message.NewPrinter(lang)
	sc := &screen{
		id:       uuid.New(),
		effects:  &effects{},
		lang:     lang,
		printer:  printer,
		lastSeen: s.now(),
	}

	opts := []Option{
		WithLogger(s.logger.With().Str("screen_id", sc.id.String()).Logger()),
		WithPrinter(printer),
		WithTransitionHook(recordTransition),
	}
	if s.prefill != nil {
		opts = append(opts, WithPrefill(s.prefill.Email, s.prefill.Password))
	}

	sc.controller = NewController(Deps{
		Auth:         s.auth,
		Sessions:     &screenSessions{store: s.sessions, effects: sc.effects},
		Navigator:    sc.effects,
		Connectivity: s.connectivity,
		Alerts:       sc.effects,
	}, opts...)

	s.mu.Lock()
	s.screens[sc.id] = sc
	s.mu.Unlock()
	screensOpen.Inc()

	s.logger.Debug().Str("screen_id", sc.id.String()).Msg("Login screen opened")
	return sc
}

// get returns a live screen and marks it as used.
func (s *Screens) get(id uuid.UUID) (*screen, bool) {
	s.mu.Lock()
	sc, ok := s.screens[id]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}

	sc.mu.Lock()
	sc.lastSeen = s.now()
	sc.mu.Unlock()
	return sc, true
}

// drop removes a screen, typically after it navigated away.
func (s *Screens) drop(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.screens[id]; ok {
		delete(s.screens, id)
		screensOpen.Dec()
	}
}

func (s *Screens) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.screens)
}

// sweep drops screens idle for longer than the TTL. Screens with a request in
// flight are kept until it resolves.
func (s *Screens) sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sc := range s.screens {
		sc.mu.Lock()
		idle := now.Sub(sc.lastSeen)
		sc.mu.Unlock()
		if idle < s.ttl || sc.controller.Snapshot().State == StateSubmitting {
			continue
		}
		delete(s.screens, id)
		screensOpen.Dec()
		removed++
	}
	return removed
}

// Start runs the janitor for the lifetime of the fx application.
func (s *Screens) Start(lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.startJanitor(s.ttl / 2)
			return nil
		},
		OnStop: func(context.Context) error {
			s.stopJanitor()
			return nil
		},
	})
}

func (s *Screens) startJanitor(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	stop := make(chan struct{})
	s.stop = stop
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := s.sweep(s.now()); n > 0 {
					s.logger.Debug().Int("removed", n).Msg("Expired login screens swept")
				}
			case <-stop:
				return
			}
		}
	}()
}

func (s *Screens) stopJanitor() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.wg.Wait()
	s.stop = nil
}
