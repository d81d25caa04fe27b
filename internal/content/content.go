// Package content holds the per-locale copy every section renders.
//
// Dictionaries are YAML documents embedded in the binary, one per locale.
// They are parsed once, validated for completeness and never mutated.
package content

import (
	"bytes"
	"embed"
	"io/fs"
	"path"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/kydev/portfolio/internal/locale"
)

//go:embed locales/*.yaml
var embedded embed.FS

// Section names a top-level dictionary entry.
type Section string

const (
	SectionMeta       Section = "meta"
	SectionNav        Section = "nav"
	SectionHero       Section = "hero"
	SectionMarquee    Section = "marquee"
	SectionAbout      Section = "about"
	SectionExperience Section = "experience"
	SectionSkills     Section = "skills"
	SectionProjects   Section = "projects"
	SectionContact    Section = "contact"
	SectionFooter     Section = "footer"
)

// Sections lists every section key in page order.
func Sections() []Section {
	return []Section{
		SectionMeta, SectionNav, SectionHero, SectionMarquee, SectionAbout,
		SectionExperience, SectionSkills, SectionProjects, SectionContact, SectionFooter,
	}
}

// ErrUnknownSection is returned by Catalog.Section for keys outside Sections.
var ErrUnknownSection = errors.New("unknown section")

// Catalog maps each supported locale to its dictionary.
type Catalog struct {
	dicts map[locale.Locale]*Dictionary
}

// Load parses the embedded dictionaries and checks them for completeness.
func Load() (*Catalog, error) {
	sub, err := fs.Sub(embedded, "locales")
	if err != nil {
		return nil, errors.Wrap(err, "opening embedded locales")
	}
	return LoadFS(sub)
}

// LoadFS parses <locale>.yaml for every supported locale from fsys.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	c := &Catalog{dicts: make(map[locale.Locale]*Dictionary)}
	for _, l := range locale.All() {
		name := string(l) + ".yaml"
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", name)
		}
		d, err := parse(data)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", path.Base(name))
		}
		c.dicts[l] = d
	}
	if err := c.Check(); err != nil {
		return nil, err
	}
	return c, nil
}

func parse(data []byte) (*Dictionary, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var d Dictionary
	if err := dec.Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Get returns the dictionary for l. Every supported locale has one by
// construction; unsupported values get the default locale's.
func (c *Catalog) Get(l locale.Locale) *Dictionary {
	if d, ok := c.dicts[l]; ok {
		return d
	}
	return c.dicts[locale.Default]
}

// Section returns one section of l's dictionary.
func (c *Catalog) Section(l locale.Locale, key Section) (any, error) {
	d := c.Get(l)
	switch key {
	case SectionMeta:
		return d.Meta, nil
	case SectionNav:
		return d.Nav, nil
	case SectionHero:
		return d.Hero, nil
	case SectionMarquee:
		return d.Marquee, nil
	case SectionAbout:
		return d.About, nil
	case SectionExperience:
		return d.Experience, nil
	case SectionSkills:
		return d.Skills, nil
	case SectionProjects:
		return d.Projects, nil
	case SectionContact:
		return d.Contact, nil
	case SectionFooter:
		return d.Footer, nil
	}
	return nil, errors.Wrapf(ErrUnknownSection, "%q", string(key))
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Check validates that every locale has every field populated.
func (c *Catalog) Check() error {
	var problems []string
	for _, l := range locale.All() {
		d, ok := c.dicts[l]
		if !ok {
			problems = append(problems, string(l)+": missing dictionary")
			continue
		}
		if err := validate.Struct(d); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				return errors.Wrapf(err, "validating %s", l)
			}
			for _, fe := range verrs {
				problems = append(problems, string(l)+": "+fe.Namespace()+" ("+fe.Tag()+")")
			}
		}
	}
	if len(problems) > 0 {
		return &IncompleteError{Problems: problems}
	}
	return nil
}

// IncompleteError lists every missing or empty field across locales.
type IncompleteError struct {
	Problems []string
}

func (e *IncompleteError) Error() string {
	var b bytes.Buffer
	b.WriteString("incomplete content:")
	for _, p := range e.Problems {
		b.WriteString("\n  ")
		b.WriteString(p)
	}
	return b.String()
}
