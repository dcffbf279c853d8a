package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestName is the project manifest file looked up by the CLI.
const ManifestName = "brili.yml"

// Manifest represents the parsed contents of brili.yml.
type Manifest struct {
	Path          string
	Dir           string
	Name          string
	Entry         string
	MaxCallDepth  int
	MaxAllocation int64
	CheckLeaks    bool
	Targets       map[string]*TargetSpec
	TargetOrder   []string
	Suites        map[string]*SuiteSpec
	SuiteOrder    []string
}

// TargetSpec names a program and the arguments to run it with.
type TargetSpec struct {
	Name    string
	Program string
	Args    []string
	Profile bool
	Entry   string
}

// SuiteSpec locates a directory of fixtures, either local or in a git repository.
type SuiteSpec struct {
	Name   string
	Git    string
	Tag    string
	Branch string
	Rev    string
	Path   string
}

// IsGit reports whether the suite must be fetched before it can run.
func (s *SuiteSpec) IsGit() bool { return s != nil && s.Git != "" }

// Ref returns the requested revision in precedence order rev, tag, branch.
func (s *SuiteSpec) Ref() string {
	switch {
	case s.Rev != "":
		return s.Rev
	case s.Tag != "":
		return s.Tag
	default:
		return s.Branch
	}
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadManifest parses brili.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	manifest, err := raw.toManifest(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// FindManifest walks up from start looking for brili.yml. It returns "" when
// none exists.
func FindManifest(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("manifest: resolve %s: %w", start, err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("manifest: stat %s: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if m.MaxCallDepth < 0 {
		errs.Issues = append(errs.Issues, "max_call_depth must not be negative")
	}
	if m.MaxAllocation < 0 {
		errs.Issues = append(errs.Issues, "max_allocation must not be negative")
	}
	for _, name := range m.TargetOrder {
		target := m.Targets[name]
		if target.Program == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("target %q requires a program", name))
		}
	}
	for _, name := range m.SuiteOrder {
		for _, issue := range m.Suites[name].validate() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("suites.%s: %s", name, issue))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func (s *SuiteSpec) validate() []string {
	var errs []string
	refs := 0
	for _, ref := range []string{s.Tag, s.Branch, s.Rev} {
		if ref != "" {
			refs++
		}
	}
	if s.Git == "" && s.Path == "" {
		errs = append(errs, "must specify git or path")
	}
	if s.Git == "" && refs > 0 {
		errs = append(errs, "tag, branch and rev apply only to git suites")
	}
	if refs > 1 {
		errs = append(errs, "specify at most one of tag, branch or rev")
	}
	return errs
}

var ErrNoTargets = errors.New("manifest: no targets defined")

// DefaultTarget returns the first target in manifest order.
func (m *Manifest) DefaultTarget() (*TargetSpec, error) {
	if m == nil || len(m.TargetOrder) == 0 {
		return nil, ErrNoTargets
	}
	return m.Targets[m.TargetOrder[0]], nil
}

// FindTarget looks up a target by sanitized or original name.
func (m *Manifest) FindTarget(name string) (*TargetSpec, bool) {
	if m == nil {
		return nil, false
	}
	target, ok := m.Targets[sanitizeSegment(name)]
	return target, ok
}

// FindSuite looks up a suite by sanitized or original name.
func (m *Manifest) FindSuite(name string) (*SuiteSpec, bool) {
	if m == nil {
		return nil, false
	}
	suite, ok := m.Suites[sanitizeSegment(name)]
	return suite, ok
}

// SuiteDir resolves the fixture root of a suite. Git suites live in their
// fetched checkout, so they need the lockfile entry recorded by a fetch.
func (m *Manifest) SuiteDir(suite *SuiteSpec, lock *Lockfile) (string, error) {
	if !suite.IsGit() {
		if filepath.IsAbs(suite.Path) {
			return suite.Path, nil
		}
		return filepath.Join(m.Dir, suite.Path), nil
	}
	locked, ok := lock.Find(suite.Name)
	if !ok || locked.Path == "" {
		return "", fmt.Errorf("suite %q has not been fetched", suite.Name)
	}
	if suite.Path == "" {
		return locked.Path, nil
	}
	return filepath.Join(locked.Path, suite.Path), nil
}

// ProgramPath resolves a target's program relative to the manifest.
func (m *Manifest) ProgramPath(target *TargetSpec) string {
	if filepath.IsAbs(target.Program) {
		return target.Program
	}
	return filepath.Join(m.Dir, target.Program)
}

// RunConfig derives engine settings for target. Flags may override the result.
func (m *Manifest) RunConfig(target *TargetSpec) Config {
	cfg := Config{
		Entry:         m.Entry,
		MaxCallDepth:  m.MaxCallDepth,
		MaxAllocation: m.MaxAllocation,
		CheckLeaks:    m.CheckLeaks,
	}
	if target != nil {
		cfg.Args = append([]string(nil), target.Args...)
		cfg.Profiling = target.Profile
		if target.Entry != "" {
			cfg.Entry = target.Entry
		}
	}
	return cfg
}

type manifestFile struct {
	Name          string     `yaml:"name"`
	Entry         string     `yaml:"entry"`
	MaxCallDepth  int        `yaml:"max_call_depth"`
	MaxAllocation int64      `yaml:"max_allocation"`
	CheckLeaks    bool       `yaml:"check_leaks"`
	Targets       orderedMap `yaml:"targets"`
	Suites        orderedMap `yaml:"suites"`
}

type targetYAML struct {
	Program string     `yaml:"program"`
	Args    stringList `yaml:"args"`
	Profile bool       `yaml:"profile"`
	Entry   string     `yaml:"entry"`
}

type suiteYAML struct {
	Git    string `yaml:"git"`
	Tag    string `yaml:"tag"`
	Branch string `yaml:"branch"`
	Rev    string `yaml:"rev"`
	Path   string `yaml:"path"`
}

// orderedMap keeps mapping entries in document order for later decoding.
type orderedMap struct {
	items []orderedEntry
}

type orderedEntry struct {
	name string
	node *yaml.Node
}

func (om *orderedMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == 0 || (value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
		om.items = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest: expected a mapping but found %s", value.ShortTag())
	}
	items := make([]orderedEntry, 0, len(value.Content)/2)
	for i := 0; i < len(value.Content); i += 2 {
		var key string
		if err := value.Content[i].Decode(&key); err != nil {
			return err
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("manifest: mapping keys must be non-empty")
		}
		items = append(items, orderedEntry{name: key, node: value.Content[i+1]})
	}
	om.items = items
	return nil
}

type stringList []string

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*l = nil
			return nil
		}
		*l = stringList{value.Value}
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(value.Content))
		for _, node := range value.Content {
			var str string
			if err := node.Decode(&str); err != nil {
				return err
			}
			items = append(items, str)
		}
		*l = stringList(items)
		return nil
	case yaml.AliasNode:
		return l.UnmarshalYAML(value.Alias)
	case 0:
		*l = nil
		return nil
	default:
		return fmt.Errorf("manifest: expected string or sequence for list but found %s", value.ShortTag())
	}
}

// decodeStrict decodes node into out rejecting unknown keys, which
// Node.Decode does not do on its own.
func decodeStrict(node *yaml.Node, out any) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (mf manifestFile) toManifest(path string) (*Manifest, error) {
	result := &Manifest{
		Path:          path,
		Dir:           filepath.Dir(path),
		Name:          sanitizeSegment(mf.Name),
		Entry:         strings.TrimSpace(mf.Entry),
		MaxCallDepth:  mf.MaxCallDepth,
		MaxAllocation: mf.MaxAllocation,
		CheckLeaks:    mf.CheckLeaks,
		Targets:       make(map[string]*TargetSpec, len(mf.Targets.items)),
		Suites:        make(map[string]*SuiteSpec, len(mf.Suites.items)),
	}
	for _, item := range mf.Targets.items {
		name := sanitizeSegment(item.name)
		if _, exists := result.Targets[name]; exists {
			return nil, fmt.Errorf("target %q defined twice", item.name)
		}
		var raw targetYAML
		if item.node.Kind == yaml.ScalarNode {
			// Shorthand: `fact: fact.json`.
			raw.Program = item.node.Value
		} else if err := decodeStrict(item.node, &raw); err != nil {
			return nil, fmt.Errorf("target %q: %w", item.name, err)
		}
		result.Targets[name] = &TargetSpec{
			Name:    name,
			Program: strings.TrimSpace(raw.Program),
			Args:    []string(raw.Args),
			Profile: raw.Profile,
			Entry:   strings.TrimSpace(raw.Entry),
		}
		result.TargetOrder = append(result.TargetOrder, name)
	}
	for _, item := range mf.Suites.items {
		name := sanitizeSegment(item.name)
		if _, exists := result.Suites[name]; exists {
			return nil, fmt.Errorf("suite %q defined twice", item.name)
		}
		var raw suiteYAML
		if item.node.Kind == yaml.ScalarNode {
			raw.Path = item.node.Value
		} else if err := decodeStrict(item.node, &raw); err != nil {
			return nil, fmt.Errorf("suite %q: %w", item.name, err)
		}
		result.Suites[name] = &SuiteSpec{
			Name:   name,
			Git:    strings.TrimSpace(raw.Git),
			Tag:    strings.TrimSpace(raw.Tag),
			Branch: strings.TrimSpace(raw.Branch),
			Rev:    strings.TrimSpace(raw.Rev),
			Path:   strings.TrimSpace(raw.Path),
		}
		result.SuiteOrder = append(result.SuiteOrder, name)
	}
	return result, nil
}

func sanitizeSegment(seg string) string {
	seg = strings.TrimSpace(seg)
	seg = strings.ReplaceAll(seg, "-", "_")
	return seg
}
