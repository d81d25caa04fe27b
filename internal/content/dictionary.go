package content

// Dictionary is the complete copy for one locale.
type Dictionary struct {
	Meta       Meta       `yaml:"meta" validate:"required"`
	Nav        Nav        `yaml:"nav" validate:"required"`
	Hero       Hero       `yaml:"hero" validate:"required"`
	Marquee    Marquee    `yaml:"marquee" validate:"required"`
	About      About      `yaml:"about" validate:"required"`
	Experience Experience `yaml:"experience" validate:"required"`
	Skills     Skills     `yaml:"skills" validate:"required"`
	Projects   Projects   `yaml:"projects" validate:"required"`
	Contact    Contact    `yaml:"contact" validate:"required"`
	Footer     Footer     `yaml:"footer" validate:"required"`
}

type Meta struct {
	Title string `yaml:"title" validate:"required"`
	Brand string `yaml:"brand" validate:"required"`
}

type Nav struct {
	Home           string `yaml:"home" validate:"required"`
	About          string `yaml:"about" validate:"required"`
	Experience     string `yaml:"experience" validate:"required"`
	Skills         string `yaml:"skills" validate:"required"`
	Projects       string `yaml:"projects" validate:"required"`
	Contact        string `yaml:"contact" validate:"required"`
	SelectLanguage string `yaml:"select_language" validate:"required"`
	ToggleTheme    string `yaml:"toggle_theme" validate:"required"`
	ToggleMenu     string `yaml:"toggle_menu" validate:"required"`
}

type Hero struct {
	Greeting     string   `yaml:"greeting" validate:"required"`
	Name         string   `yaml:"name" validate:"required"`
	Roles        []string `yaml:"roles" validate:"required,min=1,dive,required"`
	Description  string   `yaml:"description" validate:"required"`
	CTA          string   `yaml:"cta" validate:"required"`
	CTASecondary string   `yaml:"cta_secondary" validate:"required"`
	Location     string   `yaml:"location" validate:"required"`
	Availability string   `yaml:"availability" validate:"required"`
}

// Badge is a named item with an icon key.
type Badge struct {
	Name string `yaml:"name" validate:"required"`
	Icon string `yaml:"icon" validate:"required"`
}

type Marquee struct {
	Items []Badge `yaml:"items" validate:"required,min=1,dive"`
}

type Highlight struct {
	Icon        string `yaml:"icon" validate:"required"`
	Title       string `yaml:"title" validate:"required"`
	Description string `yaml:"description" validate:"required"`
}

type Stat struct {
	Label string `yaml:"label" validate:"required"`
	Value string `yaml:"value" validate:"required"`
}

type About struct {
	Title        string      `yaml:"title" validate:"required"`
	Subtitle     string      `yaml:"subtitle" validate:"required"`
	Intro        string      `yaml:"intro" validate:"required"`
	Description  string      `yaml:"description" validate:"required"`
	ProfileTitle string      `yaml:"profile_title" validate:"required"`
	Highlights   []Highlight `yaml:"highlights" validate:"required,min=1,dive"`
	Stats        []Stat      `yaml:"stats" validate:"required,min=1,dive"`
}

type Job struct {
	Company          string   `yaml:"company" validate:"required"`
	Position         string   `yaml:"position" validate:"required"`
	Period           string   `yaml:"period" validate:"required"`
	Location         string   `yaml:"location" validate:"required"`
	Type             string   `yaml:"type" validate:"required"`
	Responsibilities []string `yaml:"responsibilities" validate:"required,min=1,dive,required"`
}

type Experience struct {
	Title    string `yaml:"title" validate:"required"`
	Subtitle string `yaml:"subtitle" validate:"required"`
	Jobs     []Job  `yaml:"jobs" validate:"required,min=1,dive"`
}

type SkillCategory struct {
	Name   string  `yaml:"name" validate:"required"`
	Icon   string  `yaml:"icon" validate:"required"`
	Color  string  `yaml:"color" validate:"required,oneof=blue orange green purple red"`
	Skills []Badge `yaml:"skills" validate:"required,min=1,dive"`
}

type Skills struct {
	Title      string          `yaml:"title" validate:"required"`
	Subtitle   string          `yaml:"subtitle" validate:"required"`
	Categories []SkillCategory `yaml:"categories" validate:"required,min=1,dive"`
}

// Project.Github is either a repository URL or "private".
type Project struct {
	Name        string   `yaml:"name" validate:"required"`
	Description string   `yaml:"description" validate:"required"`
	Tech        []string `yaml:"tech" validate:"required,min=1,dive,required"`
	Link        string   `yaml:"link" validate:"required,url"`
	Github      string   `yaml:"github" validate:"required"`
	Image       string   `yaml:"image" validate:"required"`
}

// IsPrivate reports whether the source is not public.
func (p Project) IsPrivate() bool { return p.Github == "private" }

type ProjectCategory struct {
	Type        string    `yaml:"type" validate:"required"`
	Icon        string    `yaml:"icon" validate:"required"`
	Color       string    `yaml:"color" validate:"required,oneof=blue orange green purple red"`
	Description string    `yaml:"description" validate:"required"`
	Projects    []Project `yaml:"projects" validate:"required,min=1,dive"`
}

type Projects struct {
	Title      string            `yaml:"title" validate:"required"`
	Subtitle   string            `yaml:"subtitle" validate:"required"`
	Visit      string            `yaml:"visit" validate:"required"`
	Private    string            `yaml:"private" validate:"required"`
	Categories []ProjectCategory `yaml:"categories" validate:"required,min=1,dive"`
}

type ContactItem struct {
	Icon  string `yaml:"icon" validate:"required"`
	Label string `yaml:"label" validate:"required"`
	Value string `yaml:"value" validate:"required"`
	Link  string `yaml:"link" validate:"required"`
	Color string `yaml:"color" validate:"required,oneof=blue orange green purple red"`
}

// ContactForm is the copy around the message form.
type ContactForm struct {
	Title       string `yaml:"title" validate:"required"`
	Name        string `yaml:"name" validate:"required"`
	Email       string `yaml:"email" validate:"required"`
	Message     string `yaml:"message" validate:"required"`
	Submit      string `yaml:"submit" validate:"required"`
	Success     string `yaml:"success" validate:"required"`
	Failure     string `yaml:"failure" validate:"required"`
	Invalid     string `yaml:"invalid" validate:"required"`
	RateLimited string `yaml:"rate_limited" validate:"required"`
}

type Contact struct {
	Title        string        `yaml:"title" validate:"required"`
	Subtitle     string        `yaml:"subtitle" validate:"required"`
	Description  string        `yaml:"description" validate:"required"`
	InfoTitle    string        `yaml:"info_title" validate:"required"`
	Items        []ContactItem `yaml:"items" validate:"required,min=1,dive"`
	MapTitle     string        `yaml:"map_title" validate:"required"`
	Availability string        `yaml:"availability" validate:"required"`
	ResponseTime string        `yaml:"response_time" validate:"required"`
	Pitch        string        `yaml:"pitch" validate:"required"`
	PitchDetail  string        `yaml:"pitch_detail" validate:"required"`
	SendEmail    string        `yaml:"send_email" validate:"required"`
	Form         ContactForm   `yaml:"form" validate:"required"`
}

type FooterItem struct {
	Icon string `yaml:"icon" validate:"required"`
	Text string `yaml:"text" validate:"required"`
	Href string `yaml:"href" validate:"required"`
}

type Social struct {
	Icon  string `yaml:"icon" validate:"required"`
	Label string `yaml:"label" validate:"required"`
	Href  string `yaml:"href" validate:"required,url"`
}

type Footer struct {
	Tagline         string       `yaml:"tagline" validate:"required"`
	QuickLinksTitle string       `yaml:"quick_links_title" validate:"required"`
	ContactTitle    string       `yaml:"contact_title" validate:"required"`
	Items           []FooterItem `yaml:"items" validate:"required,min=1,dive"`
	SocialTitle     string       `yaml:"social_title" validate:"required"`
	Socials         []Social     `yaml:"socials" validate:"required,min=1,dive"`
	Copyright       string       `yaml:"copyright" validate:"required"`
	Rights          string       `yaml:"rights" validate:"required"`
	Privacy         string       `yaml:"privacy" validate:"required"`
}
