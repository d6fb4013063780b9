package ui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ftahirops/sensorguard/config"
	"github.com/ftahirops/sensorguard/model"
)

// errNoConfigFile is reported when the session has no file it may write.
var errNoConfigFile = errors.New("no writable config file (the default one failed to parse)")

// WithConfig sets the config the form's defaults came from and the file
// ctrl+d writes them to. An empty path disables saving.
func (m Model) WithConfig(cfg config.Config, path string) Model {
	m.cfg = cfg
	m.cfgPath = path
	return m
}

// saveDefaults persists r as the form defaults in the session's config file.
func saveDefaults(cfg config.Config, path string, r model.Reading) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return saveConfirmMsg{err: errNoConfigFile}
		}
		values := r.Vector()
		cfg.Defaults = make(map[string]float64, len(values))
		for i, f := range model.Features {
			cfg.Defaults[f.Column] = values[i]
		}
		if err := config.SaveFile(cfg, path); err != nil {
			return saveConfirmMsg{err: err}
		}
		return saveConfirmMsg{path: path, defaults: r, cfg: cfg}
	}
}
