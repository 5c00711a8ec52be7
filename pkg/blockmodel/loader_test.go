package blockmodel

import (
	"testing"
	"testing/fstest"
)

func testAssets() fstest.MapFS {
	return fstest.MapFS{
		"models/block/test_cube.json": {Data: []byte(`{
			"textures": { "all": "block/stone" },
			"elements": [ { "from": [0,0,0], "to": [16,16,16], "faces": { "down": { "texture": "#all" } } } ]
		}`)},
		"models/block/test_child.json": {Data: []byte(`{
			"parent": "block/test_cube",
			"textures": { "particle": "block/dirt" }
		}`)},
		"models/block/test_texture_resolve.json": {Data: []byte(`{
			"textures": { "primary": "block/diamond_block", "secondary": "#primary" },
			"elements": [ { "from": [0,0,0], "to": [16,16,16], "faces": { "north": { "texture": "#secondary" } } } ]
		}`)},
		"models/block/parent.json": {Data: []byte(`{
			"textures": { "dummy": "ignore" },
			"elements": [ { "from": [0,0,0], "to": [16,16,16], "faces": { "up": { "texture": "#all" } } } ]
		}`)},
		"models/block/child1.json": {Data: []byte(`{ "parent": "block/parent", "textures": { "all": "block/skin1" } }`)},
		"models/block/child2.json": {Data: []byte(`{ "parent": "block/parent", "textures": { "all": "block/skin2" } }`)},
		"blockstates/grass.json": {Data: []byte(`{ "variants": { "snowy=false": { "model": "grass_normal" }, "snowy=true": [ { "model": "grass_snowed" } ] } }`)},
	}
}

func TestLoadSimpleModel(t *testing.T) {
	loader := NewLoaderFS(testAssets())
	model, err := loader.LoadModel("block/test_cube")
	if err != nil {
		t.Fatalf("Failed to load model: %v", err)
	}

	if len(model.Elements) != 1 {
		t.Errorf("Expected 1 element, got %d", len(model.Elements))
	}

	if model.Textures["all"] != "block/stone" {
		t.Errorf("Expected texture 'all' to be 'block/stone', got '%s'", model.Textures["all"])
	}
	if !model.Elements[0].IsFullCube() {
		t.Errorf("Expected a full cube element")
	}
}

func TestLoadChildModel(t *testing.T) {
	loader := NewLoaderFS(testAssets())
	model, err := loader.LoadModel("test_child")
	if err != nil {
		t.Fatalf("Failed to load model: %v", err)
	}

	if len(model.Elements) != 1 {
		t.Errorf("Expected 1 element from parent, got %d", len(model.Elements))
	}
	if model.Textures["all"] != "block/stone" {
		t.Errorf("Expected texture 'all' to be inherited as 'block/stone', got '%s'", model.Textures["all"])
	}
	if model.Textures["particle"] != "block/dirt" {
		t.Errorf("Expected texture 'particle' to be 'block/dirt', got '%s'", model.Textures["particle"])
	}
}

func TestTextureResolve(t *testing.T) {
	loader := NewLoaderFS(testAssets())
	model, err := loader.LoadModel("block/test_texture_resolve")
	if err != nil {
		t.Fatalf("Failed to load model: %v", err)
	}

	face := model.Elements[0].Faces["north"]
	if face.Texture != "block/diamond_block" {
		t.Errorf("Expected texture to be resolved to 'block/diamond_block', got '%s'", face.Texture)
	}
}

func TestCache(t *testing.T) {
	loader := NewLoaderFS(testAssets())
	model1, err := loader.LoadModel("block/test_cube")
	if err != nil {
		t.Fatalf("Failed to load model first time: %v", err)
	}
	model2, err := loader.LoadModel("block/test_cube")
	if err != nil {
		t.Fatalf("Failed to load model second time: %v", err)
	}
	if model1 != model2 {
		t.Errorf("Expected the same model instance to be returned from cache")
	}
}

func TestSharedParentNotMutated(t *testing.T) {
	loader := NewLoaderFS(testAssets())

	c1, err := loader.LoadModel("block/child1")
	if err != nil {
		t.Fatalf("Failed to load child1: %v", err)
	}
	if got := c1.Elements[0].Faces["up"].Texture; got != "block/skin1" {
		t.Errorf("Child1 should have skin1, got %s", got)
	}

	c2, err := loader.LoadModel("block/child2")
	if err != nil {
		t.Fatalf("Failed to load child2: %v", err)
	}
	if got := c2.Elements[0].Faces["up"].Texture; got != "block/skin2" {
		t.Errorf("Child2 should have skin2, got %s", got)
	}

	parent, _ := loader.LoadModel("block/parent")
	if got := parent.Elements[0].Faces["up"].Texture; got != "#all" {
		t.Errorf("Parent model in cache was mutated! Got %s", got)
	}
}

func TestFilesOverrideBuiltins(t *testing.T) {
	loader := NewLoaderFS(testAssets())
	loader.AddBuiltin("test_cube", CubeAll("block/gold"))
	loader.AddBuiltin("only_builtin", CubeAll("block/gold"))

	model, err := loader.LoadModel("block/test_cube")
	if err != nil {
		t.Fatalf("Failed to load model: %v", err)
	}
	if got := model.Elements[0].Faces["down"].Texture; got != "block/stone" {
		t.Errorf("Expected file texture, got %s", got)
	}

	model, err = loader.LoadModel("only_builtin")
	if err != nil {
		t.Fatalf("Failed to load builtin: %v", err)
	}
	if got := model.Elements[0].Faces["up"].Texture; got != "block/gold" {
		t.Errorf("Expected builtin texture, got %s", got)
	}
}

func TestMissingModel(t *testing.T) {
	if _, err := NewLoader("").LoadModel("nothing"); err == nil {
		t.Fatalf("Expected an error for a missing model")
	}
}

func TestDefaultVariantModel(t *testing.T) {
	loader := NewLoaderFS(testAssets())
	bs, err := loader.LoadBlockState("grass")
	if err != nil {
		t.Fatalf("Failed to load blockstate: %v", err)
	}
	if got := bs.DefaultVariantModel(); got != "grass_normal" {
		t.Errorf("Expected grass_normal, got %s", got)
	}
}

func TestCrossIsNotFullCube(t *testing.T) {
	m := Cross("block/seagrass", false)
	for _, e := range m.Elements {
		if e.IsFullCube() {
			t.Fatalf("cross plane reported as full cube")
		}
		if e.Shaded() {
			t.Fatalf("cross plane should not be shaded")
		}
	}
}
