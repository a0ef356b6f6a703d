package vocabulary

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// AllDomains selects every built-in domain.
const AllDomains = "all"

// ErrUnknownDomain is returned for domain names that are not built in.
var ErrUnknownDomain = errors.New("unknown vocabulary domain")

//go:embed domains.yaml
var domainsYAML []byte

// Domain is a built-in vocabulary.
type Domain struct {
	Name        string   `yaml:"-"`
	Description string   `yaml:"description"`
	Words       []string `yaml:"words"`
}

var (
	domainsOnce sync.Once
	domains     map[string]Domain
	domainsErr  error
)

func loadDomains() (map[string]Domain, error) {
	domainsOnce.Do(func() {
		var raw map[string]Domain
		if err := yaml.Unmarshal(domainsYAML, &raw); err != nil {
			domainsErr = fmt.Errorf("parse built-in vocabularies: %w", err)
			return
		}
		domains = make(map[string]Domain, len(raw))
		for name, d := range raw {
			d.Name = name
			domains[name] = d
		}
	})
	return domains, domainsErr
}

// Domains lists the built-in domain names in sorted order.
func Domains() []string {
	ds, err := loadDomains()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(ds))
	for n := range ds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LookupDomain returns the named built-in domain. Names are case-insensitive.
func LookupDomain(name string) (Domain, error) {
	ds, err := loadDomains()
	if err != nil {
		return Domain{}, err
	}
	d, ok := ds[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Domain{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownDomain, name, strings.Join(Domains(), ", "))
	}
	return d, nil
}

// ForDomains builds one list from the named domains in the given order.
// The name "all" expands to every domain in sorted order.
func ForDomains(names []string) (*List, error) {
	var words []string
	for _, n := range expandDomains(names) {
		d, err := LookupDomain(n)
		if err != nil {
			return nil, err
		}
		words = append(words, d.Words...)
	}
	return New(words)
}

func expandDomains(names []string) []string {
	var out []string
	for _, n := range names {
		if strings.EqualFold(strings.TrimSpace(n), AllDomains) {
			out = append(out, Domains()...)
			continue
		}
		out = append(out, n)
	}
	return out
}
