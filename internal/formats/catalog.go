package formats

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtin []byte

var (
	ErrUnknownFormat = errors.New("unknown format")
	ErrUnknownMode   = errors.New("unknown mode")
)

const (
	UnitMetric   = "metric"
	UnitImperial = "imperial"
)

// Format пример строки, под структуру которой модель подгоняет ответ.
type Format struct {
	ID      string `yaml:"id" json:"id"`
	Example string `yaml:"example" json:"example"`
	Unit    string `yaml:"unit" json:"unit"`
}

// Mode переключатель на форме: свой набор шаблонов и свои инструкции модели.
type Mode struct {
	ID           string   `yaml:"id" json:"id"`
	Label        string   `yaml:"label" json:"label"`
	Default      bool     `yaml:"default" json:"default"`
	FormatIDs    []string `yaml:"formats" json:"formats"`
	SystemPrompt string   `yaml:"system_prompt" json:"-"`
	UserPrompt   string   `yaml:"user_prompt" json:"-"`

	userTmpl *template.Template
}

// Allows сообщает, доступен ли формат в этом режиме.
func (m *Mode) Allows(formatID string) bool {
	for _, id := range m.FormatIDs {
		if id == formatID {
			return true
		}
	}
	return false
}

// RenderUser подставляет ввод пользователя и пример формата в user-шаблон.
func (m *Mode) RenderUser(input string, f Format) (string, error) {
	var buf bytes.Buffer
	err := m.userTmpl.Execute(&buf, struct {
		Input  string
		Format string
	}{Input: input, Format: f.Example})
	if err != nil {
		return "", fmt.Errorf("render user prompt for mode %s: %w", m.ID, err)
	}
	return buf.String(), nil
}

type Catalog struct {
	Formats []Format `yaml:"formats" json:"formats"`
	Modes   []*Mode  `yaml:"modes" json:"modes"`

	formatByID map[string]Format
	modeByID   map[string]*Mode
	defaultID  string
}

// Default возвращает встроенный каталог.
func Default() *Catalog {
	c, err := Load(bytes.NewReader(builtin))
	if err != nil {
		panic(fmt.Sprintf("builtin catalog: %v", err))
	}
	return c
}

// LoadFile читает каталог из YAML-файла. Пустой путь означает встроенный каталог.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func Load(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	if len(c.Formats) == 0 || len(c.Modes) == 0 {
		return errors.New("catalog needs at least one format and one mode")
	}

	c.formatByID = make(map[string]Format, len(c.Formats))
	for _, f := range c.Formats {
		if f.ID == "" || f.Example == "" {
			return fmt.Errorf("format %q: id and example are required", f.ID)
		}
		if _, dup := c.formatByID[f.ID]; dup {
			return fmt.Errorf("duplicate format %q", f.ID)
		}
		c.formatByID[f.ID] = f
	}

	c.modeByID = make(map[string]*Mode, len(c.Modes))
	for _, m := range c.Modes {
		if m.ID == "" {
			return errors.New("mode id is required")
		}
		if _, dup := c.modeByID[m.ID]; dup {
			return fmt.Errorf("duplicate mode %q", m.ID)
		}
		if len(m.FormatIDs) == 0 {
			return fmt.Errorf("mode %q has no formats", m.ID)
		}
		for _, id := range m.FormatIDs {
			if _, ok := c.formatByID[id]; !ok {
				return fmt.Errorf("mode %q: %w %q", m.ID, ErrUnknownFormat, id)
			}
		}
		if m.SystemPrompt == "" || m.UserPrompt == "" {
			return fmt.Errorf("mode %q: system_prompt and user_prompt are required", m.ID)
		}
		tmpl, err := template.New(m.ID).Option("missingkey=error").Parse(m.UserPrompt)
		if err != nil {
			return fmt.Errorf("mode %q: parse user_prompt: %w", m.ID, err)
		}
		m.userTmpl = tmpl

		if m.Default {
			if c.defaultID != "" {
				return fmt.Errorf("modes %q and %q are both default", c.defaultID, m.ID)
			}
			c.defaultID = m.ID
		}
		c.modeByID[m.ID] = m
	}
	if c.defaultID == "" {
		c.defaultID = c.Modes[0].ID
	}
	return nil
}

// Mode возвращает режим по id; пустой или неизвестный id даёт режим по умолчанию.
func (c *Catalog) Mode(id string) *Mode {
	if m, ok := c.modeByID[id]; ok {
		return m
	}
	return c.modeByID[c.defaultID]
}

// LookupMode строгий вариант Mode.
func (c *Catalog) LookupMode(id string) (*Mode, error) {
	m, ok := c.modeByID[id]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownMode, id)
	}
	return m, nil
}

func (c *Catalog) Format(id string) (Format, error) {
	f, ok := c.formatByID[id]
	if !ok {
		return Format{}, fmt.Errorf("%w %q", ErrUnknownFormat, id)
	}
	return f, nil
}

// FormatsFor возвращает форматы режима в порядке объявления.
func (c *Catalog) FormatsFor(m *Mode) []Format {
	out := make([]Format, 0, len(m.FormatIDs))
	for _, id := range m.FormatIDs {
		out = append(out, c.formatByID[id])
	}
	return out
}
