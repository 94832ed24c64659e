package templates

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
	"jordanella.com/autoclick/internal/cv"
)

var (
	// ErrEmptySet is returned when a template source yields no templates
	ErrEmptySet = errors.New("template set is empty")
	// ErrEmptyImage is returned for images with a zero dimension
	ErrEmptyImage = errors.New("template image has no pixels")
	// ErrDuplicateName is returned when two templates share a name
	ErrDuplicateName = errors.New("duplicate template name")
)

// TemplateRegistry holds an ordered template set. Order is load order and
// decides fallback priority when the set is resolved against a frame.
type TemplateRegistry struct {
	mu         sync.RWMutex
	order      []string
	templates  map[string]cv.Template
	fs         afero.Fs
	imageCache *ImageCache
}

// TemplateDefinition represents a template in the YAML manifest
type TemplateDefinition struct {
	Name     string `yaml:"name"`
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// TemplateFile represents the structure of a template YAML manifest
type TemplateFile struct {
	Templates []TemplateDefinition `yaml:"templates"`
}

// NewTemplateRegistry creates a new template registry reading from fs
func NewTemplateRegistry(fs afero.Fs) *TemplateRegistry {
	return &TemplateRegistry{
		templates:  make(map[string]cv.Template),
		fs:         fs,
		imageCache: NewImageCache(fs),
	}
}

// LoadSet loads the template set found at path and fails if it is empty
func LoadSet(fs afero.Fs, path string) ([]cv.Template, error) {
	tr := NewTemplateRegistry(fs)
	if err := tr.Load(path); err != nil {
		return nil, err
	}
	if tr.Count() == 0 {
		return nil, errors.Wrapf(ErrEmptySet, "no templates found at %s", path)
	}
	return tr.Set(), nil
}

// Load accepts a directory of images, a YAML manifest or a single image file
func (tr *TemplateRegistry) Load(path string) error {
	info, err := tr.fs.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read template source %s", path)
	}

	switch {
	case info.IsDir():
		return tr.LoadFromDirectory(path)
	case isManifest(path):
		return tr.LoadFromFile(path)
	case IsImageFile(path):
		return tr.LoadImage(nameFromPath(path), path)
	default:
		return errors.Errorf("unsupported template source %s", path)
	}
}

// LoadFromFile loads templates listed in a YAML manifest, in listed order.
// Paths are relative to the manifest's directory.
func (tr *TemplateRegistry) LoadFromFile(filePath string) error {
	data, err := afero.ReadFile(tr.fs, filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read template file %s", filePath)
	}

	var templateFile TemplateFile
	if err := yaml.Unmarshal(data, &templateFile); err != nil {
		return errors.Wrap(err, "failed to unmarshal template YAML")
	}

	baseDir := filepath.Dir(filePath)
	for i, def := range templateFile.Templates {
		if def.Disabled {
			continue
		}
		if def.Path == "" {
			return errors.Errorf("template %d (%s): path cannot be empty", i+1, def.Name)
		}

		name := def.Name
		if name == "" {
			name = nameFromPath(def.Path)
		}

		path := def.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}

		if err := tr.LoadImage(name, path); err != nil {
			return errors.Wrapf(err, "template %d", i+1)
		}
	}

	return nil
}

// LoadFromDirectory loads every image file in a directory, sorted by file
// name so the fallback order is stable between runs
func (tr *TemplateRegistry) LoadFromDirectory(dirPath string) error {
	entries, err := afero.ReadDir(tr.fs, dirPath)
	if err != nil {
		return errors.Wrapf(err, "failed to read template directory %s", dirPath)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsImageFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	// ok.png and ok.bmp are both kept; the later one is named with its extension
	for _, name := range names {
		templateName := nameFromPath(name)
		if tr.Has(templateName) {
			templateName = name
		}
		if err := tr.LoadImage(templateName, filepath.Join(dirPath, name)); err != nil {
			return err
		}
	}

	return nil
}

// LoadImage decodes one image and appends it to the set
func (tr *TemplateRegistry) LoadImage(name, path string) error {
	img, err := tr.imageCache.Get(path)
	if err != nil {
		return err
	}

	return tr.Register(cv.Template{
		Name:  name,
		Path:  path,
		Image: img,
	})
}

// Register appends a template to the end of the set
func (tr *TemplateRegistry) Register(template cv.Template) error {
	if template.Name == "" {
		return errors.New("template name cannot be empty")
	}
	if !template.Valid() {
		return errors.Wrapf(ErrEmptyImage, "template %s", template.Name)
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	if _, ok := tr.templates[template.Name]; ok {
		return errors.Wrapf(ErrDuplicateName, "%s", template.Name)
	}

	tr.templates[template.Name] = template
	tr.order = append(tr.order, template.Name)
	return nil
}

// Get retrieves a template by name
func (tr *TemplateRegistry) Get(name string) (cv.Template, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	template, ok := tr.templates[name]
	return template, ok
}

// Has checks if a template exists in the registry
func (tr *TemplateRegistry) Has(name string) bool {
	_, ok := tr.Get(name)
	return ok
}

// List returns all template names in set order
func (tr *TemplateRegistry) List() []string {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	names := make([]string, len(tr.order))
	copy(names, tr.order)
	return names
}

// Set returns the templates in set order
func (tr *TemplateRegistry) Set() []cv.Template {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	set := make([]cv.Template, 0, len(tr.order))
	for _, name := range tr.order {
		set = append(set, tr.templates[name])
	}
	return set
}

// Count returns the number of templates in the registry
func (tr *TemplateRegistry) Count() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	return len(tr.order)
}

// CacheStats returns image cache statistics
func (tr *TemplateRegistry) CacheStats() CacheStats {
	return tr.imageCache.Stats()
}

func isManifest(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func nameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
