package iocs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/muurk/droidtriage/internal/logging"
)

// RuleLoadError represents a failure locating, reading, or parsing the
// indicator rule file
type RuleLoadError struct {
	Op   string // What was being attempted ("locate", "read", "parse", "fetch")
	Path string // Rule file path involved (may be empty for locate failures)
	Err  error  // Underlying error (if any)
}

// Error implements the error interface
func (e *RuleLoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("rule %s failed for %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("rule %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *RuleLoadError) Unwrap() error {
	return e.Err
}

// RuleSet is the loaded indicator database with lookup indexes
type RuleSet struct {
	rules     []Rule
	byPackage map[string]*Rule
	byService map[string]*Rule
}

// NewRuleSet builds lookup indexes over a list of rules. Duplicate package
// or service ids keep the first entry; the rule file is authored by hand
// and duplicates are authoring mistakes, not alternatives.
func NewRuleSet(rules []Rule) *RuleSet {
	rs := &RuleSet{
		rules:     rules,
		byPackage: make(map[string]*Rule),
		byService: make(map[string]*Rule),
	}
	for i := range rules {
		rule := &rules[i]
		for _, pkg := range rule.Packages {
			if _, ok := rs.byPackage[pkg]; !ok {
				rs.byPackage[pkg] = rule
			}
		}
		for _, svc := range rule.Services {
			if _, ok := rs.byService[svc]; !ok {
				rs.byService[svc] = rule
			}
		}
	}
	return rs
}

// Len returns the number of indicator entries
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// MatchPackage looks up an Android package id against the indicators
func (rs *RuleSet) MatchPackage(packageID string) (*Rule, bool) {
	rule, ok := rs.byPackage[packageID]
	return rule, ok
}

// MatchService looks up an accessibility/admin service id against the
// indicators. Service ids appear both fully qualified
// ("pkg/com.x.Service") and shorthand ("pkg/.Service"); the rule file is
// expected to list them in the form the device reports.
func (rs *RuleSet) MatchService(serviceID string) (*Rule, bool) {
	rule, ok := rs.byService[serviceID]
	return rule, ok
}

// LoadFile reads and parses the rule file at path, returning the rule set
// and the sha256 hex digest of the file content. All failures are
// *RuleLoadError.
func LoadFile(path string) (*RuleSet, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", &RuleLoadError{Op: "read", Path: path, Err: err}
	}

	contentHash := contentDigest(data)

	var rules []Rule
	if err := yamlUnmarshal(data, &rules); err != nil {
		return nil, "", &RuleLoadError{Op: "parse", Path: path, Err: err}
	}

	rs := NewRuleSet(rules)
	logging.Debug("Loaded indicator rules",
		zap.String("path", path),
		zap.String("sha256", contentHash),
		zap.Int("entries", rs.Len()),
	)
	return rs, contentHash, nil
}

// contentDigest returns the sha256 hex digest of raw file content
func contentDigest(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// yamlUnmarshal is split out so fetch-time validation and load share one
// parse path
func yamlUnmarshal(data []byte, out *[]Rule) error {
	return yaml.Unmarshal(data, out)
}
