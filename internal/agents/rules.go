package agents

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// GeneralRules are the thresholds applied to every verification.
type GeneralRules struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	AllowPartial        bool    `yaml:"allow_partial"`
}

// ActionRules constrain the output of a single action type.
type ActionRules struct {
	RequiredFields []string `yaml:"required_fields"`
	MinLength      int      `yaml:"min_length"`
	TextField      string   `yaml:"text_field"`
}

// RuleSet is one complete, immutable rules document.
type RuleSet struct {
	General GeneralRules           `yaml:"general"`
	Actions map[string]ActionRules `yaml:"actions"`
}

// DefaultRules mirrors configs/rules.yaml and is used when no rules file
// is configured or a reload fails before any valid load.
func DefaultRules() RuleSet {
	return RuleSet{
		General: GeneralRules{ConfidenceThreshold: 0.6, AllowPartial: false},
		Actions: map[string]ActionRules{
			"read_file": {
				RequiredFields: []string{"content"},
			},
			"analyze_text": {
				RequiredFields: []string{"key_points", "themes", "risks"},
			},
			"summarize": {
				RequiredFields: []string{"summary"},
				MinLength:      20,
				TextField:      "summary",
			},
			"respond_user": {
				RequiredFields: []string{"message"},
			},
		},
	}
}

// RulesSource yields the rule set in force at call time.
type RulesSource interface {
	Current() RuleSet
}

// StaticRules is a RulesSource that never changes.
type StaticRules struct{ Rules RuleSet }

func (s StaticRules) Current() RuleSet { return s.Rules }

// RulesWatcher serves a rules file and reloads it when the file changes.
// A broken edit keeps the last good rule set in force.
type RulesWatcher struct {
	path    string
	watcher *fsnotify.Watcher

	mu    sync.RWMutex
	rules RuleSet
}

// NewRulesWatcher loads path and starts watching it. The initial load must
// succeed; later reload failures only log.
func NewRulesWatcher(path string) (*RulesWatcher, error) {
	rules, err := loadRules(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("rules watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	rw := &RulesWatcher{path: path, watcher: w, rules: rules}
	go rw.loop()
	return rw, nil
}

func (rw *RulesWatcher) Current() RuleSet {
	rw.mu.RLock()
	defer rw.mu.RUnlock()
	return rw.rules
}

// Close stops watching. Current keeps returning the last loaded rules.
func (rw *RulesWatcher) Close() error { return rw.watcher.Close() }

func (rw *RulesWatcher) loop() {
	for {
		select {
		case ev, ok := <-rw.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			rules, err := loadRules(rw.path)
			if err != nil {
				log.Warn().Err(err).Str("path", rw.path).Msg("rules reload failed, keeping previous rules")
				continue
			}
			rw.mu.Lock()
			rw.rules = rules
			rw.mu.Unlock()
			log.Info().Str("path", rw.path).Msg("verification rules reloaded")
		case err, ok := <-rw.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("rules watcher error")
		}
	}
}

func loadRules(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read rules: %w", err)
	}
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("parse rules: %w", err)
	}
	if rs.General.ConfidenceThreshold <= 0 || rs.General.ConfidenceThreshold > 1 {
		return RuleSet{}, fmt.Errorf("confidence_threshold %v out of range (0,1]", rs.General.ConfidenceThreshold)
	}
	return rs, nil
}
