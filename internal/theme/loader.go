package theme

import (
	"log/slog"
	"sync"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Loader owns the CSS provider attached to the display.
type Loader struct {
	mu       sync.Mutex
	logger   *slog.Logger
	provider *gtk.CSSProvider
	userPath string
	applied  bool
}

// NewLoader creates a loader for the given user stylesheet path.
func NewLoader(userPath string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:   logger,
		provider: gtk.NewCSSProvider(),
		userPath: userPath,
	}
}

// Path returns the user stylesheet path being watched.
func (l *Loader) Path() string {
	return l.userPath
}

// Load (re)reads the stylesheet into the provider.
func (l *Loader) Load() {
	l.mu.Lock()
	defer l.mu.Unlock()

	css, fromUser, err := Resolve(l.userPath)
	if err != nil {
		l.logger.Warn("failed to load user stylesheet, using default", "path", l.userPath, "error", err)
	}
	l.provider.LoadFromString(css)

	if fromUser {
		l.logger.Info("loaded user stylesheet", "path", l.userPath)
	} else {
		l.logger.Debug("loaded default stylesheet")
	}
}

// Apply attaches the provider to display, or the default display if nil.
func (l *Loader) Apply(display *gdk.Display) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.applied {
		return
	}
	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display == nil {
		l.logger.Warn("no display available, cannot apply stylesheet")
		return
	}

	gtk.StyleContextAddProviderForDisplay(
		display,
		l.provider,
		gtk.STYLE_PROVIDER_PRIORITY_APPLICATION,
	)
	l.applied = true
}
