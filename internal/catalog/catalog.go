// Package catalog resolves categories from built-ins and category files.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/tiltup/internal/model"
	"github.com/verte-zerg/tiltup/internal/wordlist"
)

var (
	// ErrUnknownCategory reports a slug that no source provides.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrEmptyCategory reports a category without words.
	ErrEmptyCategory = errors.New("category has no words")
)

// Catalog is an ordered set of categories keyed by slug.
type Catalog struct {
	categories []model.Category
	bySlug     map[string]int
}

type catalogFile struct {
	Categories []struct {
		Name  string   `toml:"name"`
		Slug  string   `toml:"slug"`
		Words []string `toml:"words"`
	} `toml:"category"`
}

// New builds a catalog. Later categories replace earlier ones with the same
// slug, so files can override built-ins.
func New(categories ...model.Category) (*Catalog, error) {
	c := &Catalog{bySlug: map[string]int{}}
	for _, cat := range categories {
		if err := c.add(cat); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Load returns the built-ins plus every *.toml and *.txt file in dir. A
// missing directory is not an error.
func Load(dir string) (*Catalog, error) {
	c, err := New(Builtin()...)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return c, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read category directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(dir, name)
		switch strings.ToLower(filepath.Ext(name)) {
		case ".toml":
			cats, err := LoadTOML(path)
			if err != nil {
				return nil, err
			}
			for _, cat := range cats {
				if err := c.add(cat); err != nil {
					return nil, fmt.Errorf("%s: %w", path, err)
				}
			}
		case ".txt":
			cat, err := FromWordFile(path)
			if err != nil {
				return nil, err
			}
			if err := c.add(cat); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	return c, nil
}

// LoadTOML reads [[category]] tables from a catalog file.
func LoadTOML(path string) ([]model.Category, error) {
	var file catalogFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("failed to decode catalog %s: %w", path, err)
	}
	out := make([]model.Category, 0, len(file.Categories))
	for _, raw := range file.Categories {
		slug := raw.Slug
		if slug == "" {
			slug = Slugify(raw.Name)
		}
		out = append(out, model.Category{
			Name:     raw.Name,
			Slug:     slug,
			WordList: wordlist.Clean(raw.Words),
		})
	}
	return out, nil
}

// FromWordFile builds a category from a one-entry-per-line file. The file
// name becomes the category name.
func FromWordFile(path string) (model.Category, error) {
	words, err := wordlist.LoadWords(path)
	if err != nil {
		return model.Category{}, fmt.Errorf("failed to load word list %s: %w", path, err)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return model.Category{
		Name:     titleCase(strings.NewReplacer("-", " ", "_", " ").Replace(base)),
		Slug:     Slugify(base),
		WordList: words,
	}, nil
}

// Get returns the category with slug.
func (c *Catalog) Get(slug string) (model.Category, error) {
	idx, ok := c.bySlug[strings.ToLower(strings.TrimSpace(slug))]
	if !ok {
		return model.Category{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownCategory, slug, strings.Join(c.Slugs(), ", "))
	}
	return c.categories[idx], nil
}

// List returns the categories in insertion order.
func (c *Catalog) List() []model.Category {
	return append([]model.Category(nil), c.categories...)
}

// Slugs returns the known slugs in insertion order.
func (c *Catalog) Slugs() []string {
	out := make([]string, len(c.categories))
	for i, cat := range c.categories {
		out[i] = cat.Slug
	}
	return out
}

func (c *Catalog) add(cat model.Category) error {
	cat.Slug = Slugify(cat.Slug)
	if cat.Slug == "" {
		cat.Slug = Slugify(cat.Name)
	}
	if cat.Slug == "" {
		return fmt.Errorf("category %q needs a name or slug", cat.Name)
	}
	if cat.Name == "" {
		cat.Name = cat.Slug
	}
	if len(cat.WordList) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyCategory, cat.Slug)
	}
	if idx, ok := c.bySlug[cat.Slug]; ok {
		c.categories[idx] = cat
		return nil
	}
	c.bySlug[cat.Slug] = len(c.categories)
	c.categories = append(c.categories, cat)
	return nil
}

// Slugify lowercases s and joins its letter and digit runs with dashes.
func Slugify(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, "-")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
