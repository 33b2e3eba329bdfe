package flowscene

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Speed multiplier bounds.
const (
	MinSpeedMultiplier = 0.1
	MaxSpeedMultiplier = 5
)

// Environment overrides applied by ApplyEnv.
const (
	EnvTier          = "FLOWSCENE_TIER"
	EnvParticleColor = "FLOWSCENE_PARTICLE_COLOR"
	EnvSpeed         = "FLOWSCENE_SPEED"
)

// DefaultParticleColor is the particle and hover-glow color.
var DefaultParticleColor = Color{0.23, 0.51, 0.96, 1} // #3b82f6

// Settings are the live configuration values read by the render loop every
// frame.
type Settings struct {
	Tier            StyleTier `toml:"tier" yaml:"tier"`
	ParticleColor   Color     `toml:"particle_color" yaml:"particle_color"`
	SpeedMultiplier float64   `toml:"speed" yaml:"speed"`
	// ShowGrid enables the premium-tier background grid.
	ShowGrid bool `toml:"grid" yaml:"grid"`
	ShowFPS  bool `toml:"fps" yaml:"fps"`
	// Debug logs per-frame draw stats.
	Debug bool `toml:"debug" yaml:"debug"`
	// RecordDuration is the default recording window.
	RecordDuration time.Duration `toml:"record_duration" yaml:"record_duration"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Tier:            TierPremium,
		ParticleColor:   DefaultParticleColor,
		SpeedMultiplier: 1,
		ShowGrid:        true,
		RecordDuration:  5 * time.Second,
	}
}

// Normalize clamps the speed multiplier and fills zero values.
func (s Settings) Normalize() Settings {
	s.SpeedMultiplier = ClampSpeed(s.SpeedMultiplier)
	if s.ParticleColor.IsZero() {
		s.ParticleColor = DefaultParticleColor
	}
	s.ParticleColor.A = 1
	if s.RecordDuration <= 0 {
		s.RecordDuration = DefaultSettings().RecordDuration
	}
	return s
}

// ClampSpeed limits a multiplier to [MinSpeedMultiplier, MaxSpeedMultiplier].
// Zero and NaN map to 1.
func ClampSpeed(v float64) float64 {
	if v == 0 || v != v {
		return 1
	}
	return max(MinSpeedMultiplier, min(MaxSpeedMultiplier, v))
}

// LoadSettingsFile overlays a TOML (.toml) or YAML (.yaml, .yml) file onto
// DefaultSettings. Keys absent from the file keep their defaults.
func LoadSettingsFile(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("flowscene: load settings: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &s); err != nil {
			return DefaultSettings(), fmt.Errorf("flowscene: load settings %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return DefaultSettings(), fmt.Errorf("flowscene: load settings %s: %w", path, err)
		}
	default:
		return s, fmt.Errorf("flowscene: load settings %s: unsupported extension", path)
	}
	return s.Normalize(), nil
}

// ApplyEnv overlays FLOWSCENE_* environment variables onto s. Invalid values
// are reported and leave the field unchanged.
func ApplyEnv(s Settings) (Settings, error) {
	return applyEnv(s, os.Getenv)
}

func applyEnv(s Settings, getenv func(string) string) (Settings, error) {
	var errs []string
	if v := getenv(EnvTier); v != "" {
		if tier, ok := ParseStyleTier(v); ok {
			s.Tier = tier
		} else {
			errs = append(errs, EnvTier+"="+strconv.Quote(v))
		}
	}
	if v := getenv(EnvParticleColor); v != "" {
		if c, ok := ParseColor(v); ok {
			s.ParticleColor = c
		} else {
			errs = append(errs, EnvParticleColor+"="+strconv.Quote(v))
		}
	}
	if v := getenv(EnvSpeed); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.SpeedMultiplier = f
		} else {
			errs = append(errs, EnvSpeed+"="+strconv.Quote(v))
		}
	}
	s = s.Normalize()
	if len(errs) > 0 {
		return s, fmt.Errorf("flowscene: invalid environment: %s", strings.Join(errs, ", "))
	}
	return s, nil
}

// SettingsStore holds live settings. Writers replace the whole value; the
// render loop loads a snapshot each frame. It is safe for concurrent use.
type SettingsStore struct {
	v atomic.Pointer[Settings]
}

// NewSettingsStore returns a store holding s, normalized.
func NewSettingsStore(s Settings) *SettingsStore {
	st := &SettingsStore{}
	st.Store(s)
	return st
}

// Load returns the current settings.
func (st *SettingsStore) Load() Settings {
	if p := st.v.Load(); p != nil {
		return *p
	}
	return DefaultSettings()
}

// Store replaces the settings.
func (st *SettingsStore) Store(s Settings) {
	s = s.Normalize()
	st.v.Store(&s)
}

// Update applies fn to a copy of the current settings and stores the result.
func (st *SettingsStore) Update(fn func(*Settings)) {
	for {
		old := st.v.Load()
		var s Settings
		if old != nil {
			s = *old
		} else {
			s = DefaultSettings()
		}
		fn(&s)
		s = s.Normalize()
		if st.v.CompareAndSwap(old, &s) {
			return
		}
	}
}

// SetTier switches the style tier.
func (st *SettingsStore) SetTier(t StyleTier) {
	st.Update(func(s *Settings) { s.Tier = t })
}

// SetParticleColor changes the particle and glow color.
func (st *SettingsStore) SetParticleColor(c Color) {
	st.Update(func(s *Settings) { s.ParticleColor = c })
}

// SetSpeed changes the speed multiplier, clamped to the allowed range.
func (st *SettingsStore) SetSpeed(v float64) {
	st.Update(func(s *Settings) { s.SpeedMultiplier = v })
}
