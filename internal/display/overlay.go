package display

import (
	"errors"
	"log/slog"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/trigg/orientprompt/internal/config"
	"github.com/trigg/orientprompt/internal/orientation"
)

// ErrLayerShellUnsupported is returned when the compositor does not offer
// the layer-shell protocol.
var ErrLayerShellUnsupported = errors.New("layer-shell is not supported by the compositor")

// Overlay is the rotation prompt window.
type Overlay struct {
	window  *gtk.Window
	picture *gtk.Picture
	config  *config.WindowConfig
	logger  *slog.Logger

	onConfirm func()

	anchors orientation.Anchors
	visible bool
}

// NewOverlay creates the prompt window for app. It is not shown until Show.
func NewOverlay(app *gtk.Application, cfg *config.WindowConfig, logger *slog.Logger) (*Overlay, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = &config.DefaultConfig().Window
	}

	if !layershell.IsSupported() {
		return nil, ErrLayerShellUnsupported
	}

	o := &Overlay{
		config:  cfg,
		logger:  logger,
		anchors: orientation.DefaultAnchors,
	}

	o.picture = gtk.NewPicture()
	o.picture.AddCSSClass("orientprompt-icon")

	o.window = gtk.NewWindow()
	o.window.SetApplication(app)
	o.window.SetChild(o.picture)
	o.window.AddCSSClass("orientprompt")
	o.window.SetDecorated(false)
	o.window.SetResizable(false)

	o.window.SetSizeRequest(cfg.Size, cfg.Size)
	o.loadIcon()

	layershell.InitForWindow(o.window)
	layershell.SetLayer(o.window, layershell.LayerShellLayerOverlay)
	layershell.SetNamespace(o.window, cfg.Namespace)
	layershell.SetKeyboardMode(o.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetExclusiveZone(o.window, 0) // Don't reserve space
	o.applyAnchors()

	o.connectSignals()

	return o, nil
}

// loadIcon looks the prompt icon up in the display's icon theme.
func (o *Overlay) loadIcon() {
	iconTheme := gtk.IconThemeGetForDisplay(o.window.Display())
	if iconTheme == nil {
		o.logger.Warn("no icon theme available")
		return
	}
	if !iconTheme.HasIcon(o.config.Icon) {
		o.logger.Warn("icon not found in theme", "icon", o.config.Icon)
	}

	paintable := iconTheme.LookupIcon(o.config.Icon, nil, o.config.IconSize, 1, gtk.TextDirLTR, 0)
	o.picture.SetPaintable(paintable)
}

// connectSignals reacts to a click or touch on the icon.
func (o *Overlay) connectSignals() {
	clickCtrl := gtk.NewGestureClick()
	clickCtrl.ConnectReleased(func(nPress int, x, y float64) {
		if o.onConfirm != nil {
			o.onConfirm()
		}
	})
	o.picture.AddController(clickCtrl)
}

// OnConfirm sets the callback for the user accepting the rotation.
func (o *Overlay) OnConfirm(cb func()) {
	o.onConfirm = cb
}

// Show presents the prompt.
func (o *Overlay) Show() {
	o.visible = true
	o.window.Present()
	o.window.SetVisible(true)
}

// Hide withdraws the prompt.
func (o *Overlay) Hide() {
	o.visible = false
	o.window.SetVisible(false)
}

// Visible reports whether the prompt is currently shown.
func (o *Overlay) Visible() bool {
	return o.visible
}

// SetAnchors moves the prompt to the corner described by anchors.
func (o *Overlay) SetAnchors(anchors orientation.Anchors) {
	o.anchors = anchors
	o.applyAnchors()
}

// Anchors returns the anchors currently in effect.
func (o *Overlay) Anchors() orientation.Anchors {
	return o.anchors
}

// Screen returns the connector of the single monitor, or false when the
// monitor configuration is not exactly one.
func (o *Overlay) Screen() (string, bool) {
	display := o.window.Display()
	connector, ok := singleConnector(display)
	if !ok {
		o.logger.Debug("not exactly one monitor", "count", monitorCount(display))
	}
	return connector, ok
}

// UpdateConfig applies a reloaded window configuration. A changed
// namespace needs a restart.
func (o *Overlay) UpdateConfig(cfg *config.WindowConfig) {
	iconChanged := cfg.Icon != o.config.Icon || cfg.IconSize != o.config.IconSize
	o.config = cfg

	o.window.SetSizeRequest(cfg.Size, cfg.Size)
	o.applyAnchors()
	if iconChanged {
		o.loadIcon()
	}
}

// Destroy releases the window.
func (o *Overlay) Destroy() {
	o.window.Destroy()
}

// applyAnchors sets every edge explicitly plus the configured margin.
func (o *Overlay) applyAnchors() {
	a := o.anchors
	layershell.SetAnchor(o.window, layershell.LayerShellEdgeRight, a.Right)
	layershell.SetAnchor(o.window, layershell.LayerShellEdgeBottom, a.Bottom)
	layershell.SetAnchor(o.window, layershell.LayerShellEdgeLeft, a.Left)
	layershell.SetAnchor(o.window, layershell.LayerShellEdgeTop, a.Top)

	layershell.SetMargin(o.window, layershell.LayerShellEdgeRight, o.margin(a.Right))
	layershell.SetMargin(o.window, layershell.LayerShellEdgeBottom, o.margin(a.Bottom))
	layershell.SetMargin(o.window, layershell.LayerShellEdgeLeft, o.margin(a.Left))
	layershell.SetMargin(o.window, layershell.LayerShellEdgeTop, o.margin(a.Top))
}

func (o *Overlay) margin(anchored bool) int {
	if anchored {
		return o.config.Margin
	}
	return 0
}
