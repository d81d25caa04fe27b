// Package view builds the per-section models the page templates render.
//
// A Page is built from exactly one prefs.State snapshot and every section
// carries that same Theme, so no section can render with a stale locale or
// theme while another renders with the new one.
package view

import (
	"html/template"
	"strings"
	"time"

	"github.com/kydev/portfolio/internal/content"
	"github.com/kydev/portfolio/internal/locale"
	"github.com/kydev/portfolio/internal/prefs"
)

// Classes returns darkCls when dark is set and lightCls otherwise.
func Classes(dark bool, darkCls, lightCls string) string {
	if dark {
		return darkCls
	}
	return lightCls
}

// Join concatenates non-empty class lists with single spaces.
func Join(classes ...string) string {
	parts := make([]string, 0, len(classes))
	for _, c := range classes {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

// Theme is the theme marker a section renders with. Templates call
// {{.Theme.C "dark classes" "light classes"}}.
type Theme struct {
	Dark bool
}

func (t Theme) C(darkCls, lightCls string) string { return Classes(t.Dark, darkCls, lightCls) }

// Accent maps a content color key to text and background classes.
func (t Theme) Accent(color string) string {
	switch color {
	case "blue", "orange", "green", "purple", "red":
	default:
		color = "blue"
	}
	if t.Dark {
		return "text-" + color + "-400 bg-" + color + "-900/30"
	}
	return "text-" + color + "-600 bg-" + color + "-50"
}

type NavLink struct {
	Href  string
	Label string
}

type LanguageOption struct {
	locale.Language
	Active bool
}

type Navbar struct {
	Theme     Theme
	SessionID string
	Brand     string
	Copy      content.Nav
	Links     []NavLink
	Current   locale.Language
	Languages []LanguageOption
	NextTheme string
}

type HeroSection struct {
	Theme       Theme
	SessionID   string
	Copy        content.Hero
	Description template.HTML
	// Text is shown until the hero stream connects and takes over.
	Text string
}

// marqueeCopies is how often the badge list repeats. site.css scrolls the
// track by one copy per cycle.
const marqueeCopies = 3

type MarqueeSection struct {
	Theme Theme
	// Items holds the list twice so the scrolling track can wrap seamlessly.
	Items []content.Badge
}

type AboutSection struct {
	Theme       Theme
	Copy        content.About
	Intro       template.HTML
	Description template.HTML
}

type ExperienceSection struct {
	Theme Theme
	Copy  content.Experience
}

type SkillsSection struct {
	Theme Theme
	Copy  content.Skills
}

type ProjectsSection struct {
	Theme Theme
	Copy  content.Projects
}

// FormStatus is the outcome shown under the contact form.
type FormStatus string

const (
	FormIdle        FormStatus = ""
	FormSent        FormStatus = "sent"
	FormFailed      FormStatus = "failed"
	FormInvalid     FormStatus = "invalid"
	FormRateLimited FormStatus = "rate_limited"
)

type ContactForm struct {
	Theme     Theme
	SessionID string
	Copy      content.ContactForm
	Status    FormStatus
	Name      string
	Email     string
	Message   string
}

// Notice returns the localized message for the form status.
func (f ContactForm) Notice() string {
	switch f.Status {
	case FormSent:
		return f.Copy.Success
	case FormFailed:
		return f.Copy.Failure
	case FormInvalid:
		return f.Copy.Invalid
	case FormRateLimited:
		return f.Copy.RateLimited
	}
	return ""
}

type ContactSection struct {
	Theme       Theme
	Copy        content.Contact
	Description template.HTML
	Form        ContactForm
}

type FooterSection struct {
	Theme Theme
	Brand string
	Nav   []NavLink
	Copy  content.Footer
	Year  int
}

// Page is everything the page template renders.
type Page struct {
	SessionID string
	State     prefs.State
	Lang      string
	Title     string
	Theme     Theme

	Navbar     Navbar
	Hero       HeroSection
	Marquee    MarqueeSection
	About      AboutSection
	Experience ExperienceSection
	Skills     SkillsSection
	Projects   ProjectsSection
	Contact    ContactSection
	Footer     FooterSection
}

// Build assembles a Page for one session from a single state snapshot.
func Build(cat *content.Catalog, st prefs.State, sessionID string, now time.Time) *Page {
	d := cat.Get(st.Locale)
	th := Theme{Dark: st.Theme.IsDark()}
	links := navLinks(d.Nav)

	langs := make([]LanguageOption, 0, len(locale.All()))
	for _, l := range locale.Languages() {
		langs = append(langs, LanguageOption{Language: l, Active: l.Code == st.Locale})
	}

	marquee := make([]content.Badge, 0, marqueeCopies*len(d.Marquee.Items))
	for i := 0; i < marqueeCopies; i++ {
		marquee = append(marquee, d.Marquee.Items...)
	}

	return &Page{
		SessionID: sessionID,
		State:     st,
		Lang:      string(st.Locale),
		Title:     d.Meta.Title,
		Theme:     th,
		Navbar: Navbar{
			Theme:     th,
			SessionID: sessionID,
			Brand:     d.Meta.Brand,
			Copy:      d.Nav,
			Links:     links,
			Current:   st.Locale.Info(),
			Languages: langs,
			NextTheme: st.Theme.Toggle().String(),
		},
		Hero: HeroSection{
			Theme:       th,
			SessionID:   sessionID,
			Copy:        d.Hero,
			Description: content.Markdown(d.Hero.Description),
			Text:        firstRole(d.Hero.Roles),
		},
		Marquee: MarqueeSection{Theme: th, Items: marquee},
		About: AboutSection{
			Theme:       th,
			Copy:        d.About,
			Intro:       content.Markdown(d.About.Intro),
			Description: content.Markdown(d.About.Description),
		},
		Experience: ExperienceSection{Theme: th, Copy: d.Experience},
		Skills:     SkillsSection{Theme: th, Copy: d.Skills},
		Projects:   ProjectsSection{Theme: th, Copy: d.Projects},
		Contact: ContactSection{
			Theme:       th,
			Copy:        d.Contact,
			Description: content.Markdown(d.Contact.Description),
			Form:        NewContactForm(cat, st, sessionID),
		},
		Footer: FooterSection{
			Theme: th,
			Brand: d.Meta.Brand,
			Nav:   links,
			Copy:  d.Footer,
			Year:  now.Year(),
		},
	}
}

// NewContactForm returns an empty form localized for st.
func NewContactForm(cat *content.Catalog, st prefs.State, sessionID string) ContactForm {
	return ContactForm{
		Theme:     Theme{Dark: st.Theme.IsDark()},
		SessionID: sessionID,
		Copy:      cat.Get(st.Locale).Contact.Form,
	}
}

func navLinks(n content.Nav) []NavLink {
	return []NavLink{
		{Href: "#home", Label: n.Home},
		{Href: "#about", Label: n.About},
		{Href: "#experience", Label: n.Experience},
		{Href: "#skills", Label: n.Skills},
		{Href: "#projects", Label: n.Projects},
		{Href: "#contact", Label: n.Contact},
	}
}

// Themes returns the theme marker of every section, in page order.
func (p *Page) Themes() []Theme {
	return []Theme{
		p.Navbar.Theme, p.Hero.Theme, p.Marquee.Theme, p.About.Theme,
		p.Experience.Theme, p.Skills.Theme, p.Projects.Theme,
		p.Contact.Theme, p.Contact.Form.Theme, p.Footer.Theme,
	}
}

func firstRole(roles []string) string {
	if len(roles) == 0 {
		return ""
	}
	return roles[0]
}
