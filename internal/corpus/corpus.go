// Package corpus locates contracts, properties, versions and prompt
// templates on disk and builds the prompt for each verification task.
//
// A contract directory looks like:
//
//	<root>/<contract>/skeleton.json          {"properties": {"<prop>": "<description>"}}
//	<root>/<contract>/ground-truth.csv       property,version,truth
//	<root>/<contract>/versions/<name>_v<id>.sol
//	<root>/<contract>/specs/<prop>.spec      specification-mode prompts only
package corpus

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/propcheck/internal/groundtruth"
)

// ErrNotFound is returned when a contract, property, version or template
// cannot be located.
var ErrNotFound = errors.New("not found")

// AnnotationPrefix marks source lines that carry ground-truth annotations.
// They are stripped before the code is shown to the model.
const AnnotationPrefix = "/// @custom:"

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// NormalizeName lower-cases name and drops everything but ASCII letters and
// digits, so "Payment-Splitter" and "payment_splitter" compare equal.
func NormalizeName(name string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(name), "")
}

// Contract is one contract directory of the corpus.
type Contract struct {
	// Name is the directory name as it appears on disk.
	Name string
	// Dir is the contract directory.
	Dir string
}

// FindContract returns the contract under root whose directory name matches
// name after normalization.
func FindContract(root, name string) (*Contract, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read contracts dir: %w", err)
	}
	target := NormalizeName(name)
	for _, e := range entries {
		if e.IsDir() && NormalizeName(e.Name()) == target {
			return &Contract{Name: e.Name(), Dir: filepath.Join(root, e.Name())}, nil
		}
	}
	return nil, fmt.Errorf("contract %q in %s: %w", name, root, ErrNotFound)
}

// GroundTruthPath is the contract's ground-truth table.
func (c *Contract) GroundTruthPath() string {
	return filepath.Join(c.Dir, groundtruth.FileName)
}

// VersionsDir holds one source file per contract variant.
func (c *Contract) VersionsDir() string {
	return filepath.Join(c.Dir, "versions")
}

type skeleton struct {
	Properties map[string]json.RawMessage `json:"properties"`
}

func (c *Contract) skeleton() (skeleton, error) {
	path := filepath.Join(c.Dir, "skeleton.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return skeleton{}, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return skeleton{}, fmt.Errorf("read skeleton: %w", err)
	}
	var s skeleton
	if err := json.Unmarshal(data, &s); err != nil {
		return skeleton{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

// Properties returns the property names declared in skeleton.json, sorted.
func (c *Contract) Properties() ([]string, error) {
	s, err := c.skeleton()
	if err != nil {
		return nil, err
	}
	props := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		props = append(props, name)
	}
	sort.Strings(props)
	return props, nil
}

// PropertyDescription returns the natural-language description of property.
// Non-string descriptions are returned as their JSON text.
func (c *Contract) PropertyDescription(property string) (string, error) {
	s, err := c.skeleton()
	if err != nil {
		return "", err
	}
	raw, ok := s.Properties[property]
	if !ok {
		return "", fmt.Errorf("property %q of %s: %w", property, c.Name, ErrNotFound)
	}
	var desc string
	if err := json.Unmarshal(raw, &desc); err != nil {
		return string(raw), nil
	}
	return desc, nil
}

// Versions lists the version ids found in the versions directory, ordered by
// the integer value of their digits. A missing directory yields no versions.
func (c *Contract) Versions() ([]string, error) {
	entries, err := os.ReadDir(c.VersionsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read versions dir: %w", err)
	}
	var versions []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sol") {
			continue
		}
		parts := strings.Split(strings.TrimSuffix(name, ".sol"), "_v")
		if len(parts) == 2 {
			versions = append(versions, parts[1])
		}
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return versionKey(versions[i]) < versionKey(versions[j])
	})
	return versions, nil
}

var nonDigit = regexp.MustCompile(`\D`)

func versionKey(v string) int {
	n, err := strconv.Atoi(nonDigit.ReplaceAllString(v, ""))
	if err != nil {
		return 0
	}
	return n
}

// Code returns the source of version with annotation lines removed.
func (c *Contract) Code(version string) (string, error) {
	entries, err := os.ReadDir(c.VersionsDir())
	if err != nil {
		return "", fmt.Errorf("read versions dir: %w", err)
	}
	target := NormalizeName(c.Name) + "v" + NormalizeName(version)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sol") {
			continue
		}
		if NormalizeName(strings.TrimSuffix(name, ".sol")) == target {
			return stripAnnotations(filepath.Join(c.VersionsDir(), name))
		}
	}
	return "", fmt.Errorf("source for %s v%s: %w", c.Name, version, ErrNotFound)
}

func stripAnnotations(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if !strings.HasPrefix(strings.TrimSpace(line), AnnotationPrefix) {
			b.WriteString(line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", fmt.Errorf("read source: %w", err)
		}
	}
	return b.String(), nil
}

// Specification returns the formal specification text of property, used by
// specification-mode prompts.
func (c *Contract) Specification(property string) (string, error) {
	path := filepath.Join(c.Dir, "specs", property+".spec")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return "", fmt.Errorf("read specification: %w", err)
	}
	return string(data), nil
}
