package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed modules.yaml
var defaultModules []byte

type MediaType string

const (
	MediaYouTube     MediaType = "youtube"
	MediaExternal    MediaType = "external"
	MediaPDF         MediaType = "pdf"
	MediaPlaceholder MediaType = "placeholder"
)

type Media struct {
	Type     MediaType `yaml:"type" json:"videoType"`
	VideoURL string    `yaml:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	PDFURL   string    `yaml:"pdfUrl,omitempty" json:"pdfUrl,omitempty"`
}

type Question struct {
	Prompt  string   `yaml:"prompt" json:"question"`
	Options []string `yaml:"options" json:"options"`
	Correct int      `yaml:"correct" json:"correct"`
}

// ModuleDefinition 目录中的一个培训模块（内容 + 测验）
type ModuleDefinition struct {
	ID          string     `yaml:"id" json:"id"`
	Number      int        `yaml:"number" json:"number"`
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description" json:"description"`
	Media       Media      `yaml:"media" json:"media"`
	Duration    string     `yaml:"duration" json:"duration"`
	Objectives  []string   `yaml:"objectives" json:"objectives"`
	Questions   []Question `yaml:"questions" json:"questions"`
}

type document struct {
	Modules []ModuleDefinition `yaml:"modules"`
}

// Catalog 只读，构建后可被多个 goroutine 共享
type Catalog struct {
	modules []ModuleDefinition
	index   map[string]int
}

// Default 返回内置的模块目录
func Default() (*Catalog, error) {
	return Parse(defaultModules)
}

func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse module catalog: %w", err)
	}
	return New(doc.Modules)
}

func New(modules []ModuleDefinition) (*Catalog, error) {
	c := &Catalog{
		modules: make([]ModuleDefinition, 0, len(modules)),
		index:   make(map[string]int, len(modules)),
	}
	for _, m := range modules {
		if m.ID == "" {
			return nil, fmt.Errorf("module %q: empty id", m.Name)
		}
		if _, dup := c.index[m.ID]; dup {
			return nil, fmt.Errorf("module %q: duplicate id", m.ID)
		}
		for i, q := range m.Questions {
			if len(q.Options) < 2 || len(q.Options) > 4 {
				return nil, fmt.Errorf("module %q question %d: want 2-4 options, got %d", m.ID, i, len(q.Options))
			}
			if q.Correct < 0 || q.Correct >= len(q.Options) {
				return nil, fmt.Errorf("module %q question %d: correct option %d out of range", m.ID, i, q.Correct)
			}
		}
		c.index[m.ID] = len(c.modules)
		c.modules = append(c.modules, m)
	}
	return c, nil
}

func (c *Catalog) Get(id string) (ModuleDefinition, bool) {
	i, ok := c.index[id]
	if !ok {
		return ModuleDefinition{}, false
	}
	return c.modules[i], true
}

func (c *Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// All 按目录顺序返回全部模块的副本
func (c *Catalog) All() []ModuleDefinition {
	out := make([]ModuleDefinition, len(c.modules))
	copy(out, c.modules)
	return out
}

func (c *Catalog) Len() int { return len(c.modules) }
