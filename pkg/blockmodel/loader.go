package blockmodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"
)

// Loader reads block models and blockstates from an assets tree. Models
// registered with AddBuiltin are used when no file exists. It is safe for
// concurrent use.
type Loader struct {
	fsys fs.FS

	mu         sync.Mutex
	modelCache map[string]*Model
	builtins   map[string]*Model
}

// NewLoader creates a loader rooted at assetsPath. An empty path gives a
// loader that only knows builtin models.
func NewLoader(assetsPath string) *Loader {
	var fsys fs.FS
	if assetsPath != "" {
		fsys = os.DirFS(assetsPath)
	}
	return NewLoaderFS(fsys)
}

// NewLoaderFS creates a loader reading from fsys, which may be nil.
func NewLoaderFS(fsys fs.FS) *Loader {
	return &Loader{
		fsys:       fsys,
		modelCache: make(map[string]*Model),
		builtins:   make(map[string]*Model),
	}
}

func normalizeName(name string) string {
	name = strings.TrimPrefix(name, "minecraft:")
	if !strings.Contains(name, "/") {
		name = "block/" + name
	}
	return name
}

// AddBuiltin registers an in-memory fallback model under name.
func (l *Loader) AddBuiltin(name string, m *Model) {
	name = normalizeName(name)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.builtins[name] = m
	delete(l.modelCache, name)
}

// LoadModel returns the named model with its parent chain merged and texture
// references resolved. Returned models are shared and must not be mutated.
func (l *Loader) LoadModel(name string) (*Model, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadModel(normalizeName(name), 0)
}

func (l *Loader) loadModel(name string, depth int) (*Model, error) {
	if depth > 16 {
		return nil, fmt.Errorf("model parent chain too deep at '%s'", name)
	}
	if model, ok := l.modelCache[name]; ok {
		return model, nil
	}

	model, err := l.readModel(name)
	if err != nil {
		return nil, err
	}
	if model.Textures == nil {
		model.Textures = make(map[string]string)
	}

	if model.Parent != "" && !strings.HasPrefix(model.Parent, "builtin/") {
		parentName := normalizeName(model.Parent)
		parent, err := l.loadModel(parentName, depth+1)
		if err != nil {
			return nil, fmt.Errorf("could not load parent model '%s': %w", parentName, err)
		}

		if model.AmbientOcclusion == nil {
			model.AmbientOcclusion = parent.AmbientOcclusion
		}
		if len(model.Elements) == 0 {
			model.Elements = cloneElements(parent.unresolved)
		}
		for key, val := range parent.Textures {
			if _, ok := model.Textures[key]; !ok {
				model.Textures[key] = val
			}
		}
	}

	model.unresolved = cloneElements(model.Elements)
	l.resolveTextures(model)
	l.modelCache[name] = model
	return model, nil
}

func (l *Loader) readModel(name string) (*Model, error) {
	var data []byte
	err := fs.ErrNotExist
	if l.fsys != nil {
		data, err = fs.ReadFile(l.fsys, path.Join("models", name+".json"))
	}
	if errors.Is(err, fs.ErrNotExist) {
		if b, ok := l.builtins[name]; ok {
			return b.Clone(), nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("could not read model file: %w", err)
	}
	model := &Model{}
	if err := json.Unmarshal(data, model); err != nil {
		return nil, fmt.Errorf("could not unmarshal model json: %w", err)
	}
	return model, nil
}

func (l *Loader) resolveTextures(m *Model) {
	for i := range m.Elements {
		for faceName, face := range m.Elements[i].Faces {
			resolved := l.ResolveTexture(face.Texture, m)
			if resolved != face.Texture {
				face.Texture = resolved
				m.Elements[i].Faces[faceName] = face
			}
		}
	}
}

// ResolveTexture follows "#name" references through m's texture map.
func (l *Loader) ResolveTexture(textureName string, m *Model) string {
	for i := 0; i < 10 && strings.HasPrefix(textureName, "#"); i++ {
		key := strings.TrimPrefix(textureName, "#")
		if resolved, ok := m.Textures[key]; ok {
			textureName = resolved
		} else {
			break
		}
	}
	return textureName
}

// LoadBlockState reads blockstates/<name>.json.
func (l *Loader) LoadBlockState(name string) (*BlockState, error) {
	if l.fsys == nil {
		return nil, fmt.Errorf("could not read blockstate file: %w", fs.ErrNotExist)
	}
	data, err := fs.ReadFile(l.fsys, path.Join("blockstates", name+".json"))
	if err != nil {
		return nil, fmt.Errorf("could not read blockstate file: %w", err)
	}

	var blockState BlockState
	if err := json.Unmarshal(data, &blockState); err != nil {
		return nil, fmt.Errorf("could not unmarshal blockstate json: %w", err)
	}

	return &blockState, nil
}

// DefaultVariantModel picks the model for a block's default variant: "normal",
// then "", then the first variant name in sorted order.
func (bs *BlockState) DefaultVariantModel() string {
	for _, key := range []string{"normal", ""} {
		if v, ok := bs.Variants[key]; ok && len(v) > 0 {
			return v[0].Model
		}
	}
	first := ""
	for k, v := range bs.Variants {
		if len(v) > 0 && (first == "" || k < first) {
			first = k
		}
	}
	if first == "" {
		return ""
	}
	return bs.Variants[first][0].Model
}
