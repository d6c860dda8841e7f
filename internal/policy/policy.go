// Package policy maps configured repositories to their payout mode and
// decides whether a commit message qualifies for payment.
package policy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode selects how commit messages opt in or out of payment.
type Mode string

const (
	// MoneyMoney pays every commit unless its message contains FREEBIE.
	MoneyMoney Mode = "MONEYMONEY"
	// Freebie pays only commits whose message contains MONEYMONEY.
	Freebie Mode = "FREEBIE"
)

const mergePrefix = "Merge"

var ErrUnknownMode = errors.New("unknown repository mode")

// RepositoryConfig is one configured repository.
type RepositoryConfig struct {
	URL  string `json:"url" yaml:"url"`
	Mode Mode   `json:"mode" yaml:"mode"`
}

// Policy is an immutable, case-insensitive repository URL to Mode table.
type Policy struct {
	modes   map[string]Mode
	configs []RepositoryConfig
}

// New builds a Policy. Empty modes default to MoneyMoney.
func New(configs []RepositoryConfig) (*Policy, error) {
	p := &Policy{
		modes:   make(map[string]Mode, len(configs)),
		configs: make([]RepositoryConfig, 0, len(configs)),
	}

	for _, cfg := range configs {
		url := strings.TrimSpace(cfg.URL)
		if url == "" {
			return nil, errors.New("repository url is required")
		}

		mode := Mode(strings.ToUpper(strings.TrimSpace(string(cfg.Mode))))
		if mode == "" {
			mode = MoneyMoney
		}
		if mode != MoneyMoney && mode != Freebie {
			return nil, fmt.Errorf("%w: %q for %s", ErrUnknownMode, cfg.Mode, url)
		}

		p.modes[strings.ToLower(url)] = mode
		p.configs = append(p.configs, RepositoryConfig{URL: url, Mode: mode})
	}

	return p, nil
}

// Lookup returns the mode for a repository URL, ignoring case.
func (p *Policy) Lookup(url string) (Mode, bool) {
	if p == nil {
		return "", false
	}
	mode, ok := p.modes[strings.ToLower(strings.TrimSpace(url))]
	return mode, ok
}

// URLs lists the configured repository URLs in configuration order.
func (p *Policy) URLs() []string {
	if p == nil {
		return nil
	}
	urls := make([]string, len(p.configs))
	for i, cfg := range p.configs {
		urls[i] = cfg.URL
	}
	return urls
}

// Repositories returns a copy of the normalised configuration.
func (p *Policy) Repositories() []RepositoryConfig {
	if p == nil {
		return nil
	}
	out := make([]RepositoryConfig, len(p.configs))
	copy(out, p.configs)
	return out
}

// Qualifies reports whether a commit message is eligible for payment under
// mode. A nil message or a merge commit never qualifies.
func Qualifies(message *string, mode Mode) bool {
	if message == nil {
		return false
	}

	msg := *message
	if strings.HasPrefix(msg, mergePrefix) {
		return false
	}

	switch mode {
	case MoneyMoney:
		return !strings.Contains(msg, string(Freebie))
	case Freebie:
		return strings.Contains(msg, string(MoneyMoney))
	default:
		return false
	}
}

// ParseJSON reads a JSON list of repository configs.
func ParseJSON(data []byte) ([]RepositoryConfig, error) {
	var configs []RepositoryConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("parse repositories json: %w", err)
	}
	return configs, nil
}

// repositoriesFile is the layout of a YAML repositories file.
type repositoriesFile struct {
	Repositories []RepositoryConfig `yaml:"repositories"`
}

// ParseYAML reads a YAML document with a top level repositories list.
func ParseYAML(data []byte) ([]RepositoryConfig, error) {
	var file repositoriesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse repositories yaml: %w", err)
	}
	return file.Repositories, nil
}

// Load builds a Policy from an inline JSON string and an optional YAML file.
// Entries from both sources are combined; the file is read first.
func Load(inlineJSON string, yamlPath string) (*Policy, error) {
	var configs []RepositoryConfig

	if path := strings.TrimSpace(yamlPath); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read repositories file: %w", err)
		}
		fromFile, err := ParseYAML(data)
		if err != nil {
			return nil, err
		}
		configs = append(configs, fromFile...)
	}

	if inline := strings.TrimSpace(inlineJSON); inline != "" {
		fromEnv, err := ParseJSON([]byte(inline))
		if err != nil {
			return nil, err
		}
		configs = append(configs, fromEnv...)
	}

	return New(configs)
}
