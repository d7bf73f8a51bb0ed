// Package config loads idlesnap settings from the global config file, the
// project file and IDLESNAP_* environment variables, in increasing
// precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Sections lists the optional export sections, in export order.
var Sections = []string{
	"skills", "mastery", "bank", "equipment", "stats", "astrology", "township",
	"pets", "completion", "shop", "farming", "agility", "slayer", "cartography",
}

// Config holds all configurable idlesnap settings.
type Config struct {
	Sections      map[string]bool `mapstructure:"sections"`
	ETA           ETA             `mapstructure:"eta"`
	Changes       Changes         `mapstructure:"changes"`
	QuickBuffer   time.Duration   `mapstructure:"quickBuffer"`
	Compress      bool            `mapstructure:"compress"`
	Debug         bool            `mapstructure:"debug"`
	Storage       Storage         `mapstructure:"storage"`
	StatePath     string          `mapstructure:"statePath"` // host dump written by the game bridge
	OutputDir     string          `mapstructure:"outputDir"`
	DefaultFormat string          `mapstructure:"defaultFormat"` // "json" | "markdown"
}

// ETA toggles the rate tracker and its sub-features.
type ETA struct {
	Enabled      bool `mapstructure:"enabled"`
	Damage       bool `mapstructure:"damage"`
	Mastery      bool `mapstructure:"mastery"`
	Costs        bool `mapstructure:"costs"`
	GlobalEvents bool `mapstructure:"globalEvents"`
	LevelsAhead  int  `mapstructure:"levelsAhead"`
}

// Changes configures diffing and the changes history.
type Changes struct {
	Enabled    bool `mapstructure:"enabled"`
	Persist    bool `mapstructure:"persist"`
	HistoryMax int  `mapstructure:"historyMax"`
}

// Storage selects the persistence backend.
type Storage struct {
	Backend string `mapstructure:"backend"` // "file" | "sqlite" | "memory"
	Dir     string `mapstructure:"dir"`     // empty means the XDG data dir
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	sections := make(map[string]bool, len(Sections))
	for _, s := range Sections {
		sections[s] = true
	}
	return Config{
		Sections: sections,
		ETA: ETA{
			Enabled:     true,
			Damage:      true,
			Mastery:     true,
			Costs:       true,
			LevelsAhead: 5,
		},
		Changes: Changes{
			Enabled:    true,
			Persist:    true,
			HistoryMax: 10,
		},
		QuickBuffer:   5 * time.Second,
		Storage:       Storage{Backend: "file"},
		StatePath:     "idle-state.json",
		OutputDir:     ".",
		DefaultFormat: "markdown",
	}
}

// Enabled reports whether the optional section name is switched on. Unknown
// sections are off.
func (c Config) Enabled(name string) bool {
	return c.Sections[name]
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	for name, on := range d.Sections {
		v.SetDefault("sections."+name, on)
	}
	v.SetDefault("eta.enabled", d.ETA.Enabled)
	v.SetDefault("eta.damage", d.ETA.Damage)
	v.SetDefault("eta.mastery", d.ETA.Mastery)
	v.SetDefault("eta.costs", d.ETA.Costs)
	v.SetDefault("eta.globalEvents", d.ETA.GlobalEvents)
	v.SetDefault("eta.levelsAhead", d.ETA.LevelsAhead)
	v.SetDefault("changes.enabled", d.Changes.Enabled)
	v.SetDefault("changes.persist", d.Changes.Persist)
	v.SetDefault("changes.historyMax", d.Changes.HistoryMax)
	v.SetDefault("quickBuffer", d.QuickBuffer)
	v.SetDefault("compress", d.Compress)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.dir", d.Storage.Dir)
	v.SetDefault("statePath", d.StatePath)
	v.SetDefault("outputDir", d.OutputDir)
	v.SetDefault("defaultFormat", d.DefaultFormat)
}

// GlobalPath returns ~/.config/idlesnap/config.yaml.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "idlesnap", "config.yaml"), nil
}

// ProjectPath is the project config file, relative to the working directory.
const ProjectPath = ".idlesnap.yaml"

// newViper layers defaults, the global file, the project file and the
// environment. Absent files are skipped.
func newViper(globalPath, projectPath string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("IDLESNAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	read := v.ReadInConfig
	for _, path := range []string{globalPath, projectPath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		v.SetConfigFile(path)
		if err := read(); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
		// Later files merge over earlier ones.
		read = v.MergeInConfig
	}
	return v, nil
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// Load reads the global file, then the project file, then the environment.
func Load() (Config, error) {
	global, err := GlobalPath()
	if err != nil {
		return Config{}, err
	}
	return LoadFiles(global, ProjectPath)
}

// LoadFiles is Load with explicit file paths. Either may be empty.
func LoadFiles(globalPath, projectPath string) (Config, error) {
	v, err := newViper(globalPath, projectPath)
	if err != nil {
		return Config{}, err
	}
	return decode(v)
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Source yields the configuration to use for one cycle. Current is called
// on every cycle and must not be cached by callers.
type Source interface {
	Current() Config
}

// Static is a Source that never changes.
type Static Config

func (s Static) Current() Config { return Config(s) }

// FileSource re-reads the config files whenever one of them changes.
type FileSource struct {
	mu  sync.RWMutex
	v   *viper.Viper
	cfg Config
	log *slog.Logger
}

// NewFileSource loads the given files and watches the last one that exists.
func NewFileSource(globalPath, projectPath string, log *slog.Logger) (*FileSource, error) {
	if log == nil {
		log = slog.Default()
	}
	v, err := newViper(globalPath, projectPath)
	if err != nil {
		return nil, err
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	s := &FileSource{v: v, cfg: cfg, log: log}
	if v.ConfigFileUsed() != "" {
		v.OnConfigChange(func(e fsnotify.Event) {
			s.reload(globalPath, projectPath, e.Name)
		})
		v.WatchConfig()
	}
	return s, nil
}

func (s *FileSource) reload(globalPath, projectPath, changed string) {
	v, err := newViper(globalPath, projectPath)
	if err == nil {
		var cfg Config
		if cfg, err = decode(v); err == nil {
			s.mu.Lock()
			s.cfg = cfg
			s.v = v
			s.mu.Unlock()
			s.log.Debug("config reloaded", "file", changed)
			return
		}
	}
	s.log.Warn("config reload failed, keeping previous values", "file", changed, "err", err)
}

// Current returns the latest successfully loaded configuration.
func (s *FileSource) Current() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Ref names one setting: a section such as "eta" and a key within it.
type Ref struct {
	Section string
	Key     string
}

func (r Ref) valid() bool {
	return r.Section != "" && r.Key != "" &&
		!strings.ContainsAny(r.Section, ". ") && !strings.ContainsAny(r.Key, ". ")
}

func (r Ref) String() string {
	return r.Section + "." + r.Key
}

// Lookup returns the current value of a setting. A malformed reference is
// logged as an error and yields nil, false.
func (s *FileSource) Lookup(r Ref) (any, bool) {
	if !r.valid() {
		s.log.Error("invalid setting reference", "section", r.Section, "key", r.Key)
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.v.IsSet(r.String()) {
		return nil, false
	}
	return s.v.Get(r.String()), true
}
