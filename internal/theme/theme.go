package theme

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gotheme "github.com/goliatone/go-theme"
	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/identity"
)

const (
	templatesDir = "templates"
	assetsDir    = "assets"
)

// Config selects the theme used for rendering.
type Config struct {
	// Path points at a theme directory on disk. Empty selects the embedded
	// default theme.
	Path string
	// Name overrides the manifest theme name when set.
	Name string
	// Variant selects a manifest variant ("dark").
	Variant string
}

// Theme bundles the filesystem, manifest selection, and identity of the
// active theme.
type Theme struct {
	ID        uuid.UUID
	Name      string
	Variant   string
	FS        fs.FS
	Selection *gotheme.Selection
}

// Resolve loads the configured theme. Directory themes may carry a go-theme
// manifest; when none is present a minimal manifest is synthesised so
// selection and asset listing still work.
func Resolve(cfg Config) (*Theme, error) {
	var (
		filesystem fs.FS
		name       = strings.TrimSpace(cfg.Name)
		themePath  = strings.TrimSpace(cfg.Path)
	)

	if themePath == "" {
		sub, err := fs.Sub(defaultFS, DefaultName)
		if err != nil {
			return nil, fmt.Errorf("theme: open embedded default: %w", err)
		}
		filesystem = sub
		if name == "" {
			name = DefaultName
		}
		themePath = DefaultName
	} else {
		cleaned := filepath.Clean(themePath)
		if _, err := os.Stat(cleaned); err != nil {
			return nil, fmt.Errorf("theme: stat theme path %s: %w", cleaned, err)
		}
		filesystem = os.DirFS(cleaned)
		if name == "" {
			name = filepath.Base(cleaned)
		}
	}

	manifest, err := gotheme.LoadDir(filesystem, ".")
	if err != nil || manifest == nil {
		// No manifest in the theme directory; templates and assets are still
		// discoverable by convention.
		manifest = &gotheme.Manifest{}
	}
	normalized := *manifest
	if strings.TrimSpace(normalized.Name) == "" {
		normalized.Name = name
	}

	registry := gotheme.NewRegistry()
	if err := registry.Register(&normalized); err != nil {
		return nil, fmt.Errorf("theme: register manifest %s: %w", normalized.Name, err)
	}

	selector := gotheme.Selector{
		Registry:     registry,
		DefaultTheme: normalized.Name,
	}
	selection, err := selector.Select(normalized.Name, strings.TrimSpace(cfg.Variant))
	if err != nil {
		return nil, fmt.Errorf("theme: select %s: %w", normalized.Name, err)
	}

	return &Theme{
		ID:        identity.ThemeUUID(themePath),
		Name:      normalized.Name,
		Variant:   strings.TrimSpace(cfg.Variant),
		FS:        filesystem,
		Selection: selection,
	}, nil
}

// Templates returns the filesystem subtree holding the theme's templates.
func (t *Theme) Templates() (fs.FS, error) {
	sub, err := fs.Sub(t.FS, templatesDir)
	if err != nil {
		return nil, fmt.Errorf("theme %s: open templates: %w", t.Name, err)
	}
	return sub, nil
}

// Assets lists the theme's copyable asset paths relative to the theme root.
// Manifest-declared files win; otherwise the assets directory is walked.
func (t *Theme) Assets() ([]string, error) {
	if assets := manifestAssets(t.Selection); len(assets) > 0 {
		return assets, nil
	}

	var assets []string
	err := fs.WalkDir(t.FS, assetsDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		assets = append(assets, filepath.ToSlash(path))
		return nil
	})
	if err != nil {
		if errorsIsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("theme %s: walk assets: %w", t.Name, err)
	}
	sort.Strings(assets)
	return assets, nil
}

// Open returns a reader for the named asset.
func (t *Theme) Open(asset string) (fs.File, error) {
	return t.FS.Open(strings.TrimPrefix(filepath.ToSlash(asset), "/"))
}

func manifestAssets(selection *gotheme.Selection) []string {
	if selection == nil || selection.Manifest == nil {
		return nil
	}

	files := selection.Manifest.Assets.Files
	if variant := strings.TrimSpace(selection.Variant); variant != "" {
		if v, ok := selection.Manifest.Variants[variant]; ok && len(v.Assets.Files) > 0 {
			merged := make(map[string]string, len(files)+len(v.Assets.Files))
			for key, path := range files {
				merged[key] = path
			}
			for key, path := range v.Assets.Files {
				merged[key] = path
			}
			files = merged
		}
	}

	seen := map[string]struct{}{}
	var out []string
	for _, asset := range files {
		asset = strings.TrimPrefix(strings.TrimSpace(asset), "/")
		if asset == "" {
			continue
		}
		if _, ok := seen[asset]; ok {
			continue
		}
		seen[asset] = struct{}{}
		out = append(out, filepath.ToSlash(asset))
	}
	sort.Strings(out)
	return out
}

func errorsIsNotExist(err error) bool {
	return err != nil && (os.IsNotExist(err) || strings.Contains(err.Error(), "file does not exist"))
}
