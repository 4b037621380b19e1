package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/zeusync/scripthost/internal/core/metadata"
	"github.com/zeusync/scripthost/internal/core/observability/log"
)

// Catalog returns the Go-declared entity types. It is called once per generation and
// must return fresh descriptors each time.
type Catalog func() []*metadata.TypeDescriptor

// ScriptLoader is the default Loader. It registers the Go catalog and every Lua
// script found in the domain root.
type ScriptLoader struct {
	domain  *Domain
	catalog Catalog
	runtime *luaRuntime
	logger  log.Log
}

var (
	_ Loader   = (*ScriptLoader)(nil)
	_ Restorer = (*ScriptLoader)(nil)
)

// NewLoaderFactory returns a factory building a ScriptLoader for every generation.
func NewLoaderFactory(catalog Catalog) LoaderFactory {
	return func(d *Domain) (Loader, error) {
		return NewScriptLoader(d, catalog)
	}
}

func NewScriptLoader(d *Domain, catalog Catalog) (*ScriptLoader, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	rt, err := newLuaRuntime(d)
	if err != nil {
		return nil, err
	}
	return &ScriptLoader{
		domain:  d,
		catalog: catalog,
		runtime: rt,
		logger:  d.Logger().Named("loader"),
	}, nil
}

// Register registers the catalog types, then runs the Lua scripts in lexical order.
func (l *ScriptLoader) Register() error {
	if l.catalog != nil {
		for _, desc := range l.catalog() {
			if err := l.domain.RegisterType(desc); err != nil {
				return err
			}
		}
	}

	files, err := l.scripts()
	if err != nil {
		return err
	}
	for _, path := range files {
		if err = l.runtime.run(path); err != nil {
			return err
		}
		l.logger.Debug("script loaded", log.String("path", path))
	}
	return nil
}

// Initialize extracts every type's config and runs the type init hooks.
// Types with configuration errors stay registered but cannot be instantiated.
func (l *ScriptLoader) Initialize() error {
	types, err := l.domain.Types()
	if err != nil {
		return err
	}

	var broken []string
	for _, desc := range types {
		if _, err = l.domain.ExtractConfig(desc.Name); err != nil {
			broken = append(broken, desc.Name)
			l.logger.Error("entity type misconfigured", log.String("type", desc.Name), log.Error(err))
			continue
		}
		if desc.Init == nil {
			continue
		}
		if err = desc.Init(); err != nil {
			l.logger.Warn("type init failed", log.String("type", desc.Name), log.Error(err))
		}
	}

	l.logger.Info("entity types initialized",
		log.Int("types", len(types)),
		log.Strings("misconfigured", broken),
	)
	return nil
}

func (l *ScriptLoader) scripts() ([]string, error) {
	root := l.domain.Root()
	if root == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		l.logger.Warn("script root missing", log.String("root", root))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read script root: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".lua") {
			continue
		}
		files = append(files, filepath.Join(root, entry.Name()))
	}
	slices.Sort(files)
	return files, nil
}
