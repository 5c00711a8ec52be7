package blockmodel

func intPtr(v int) *int { return &v }

func cubeFaces(textures [6]string, tinted [6]bool, cull bool) map[string]Face {
	faces := make(map[string]Face, 6)
	for i, name := range FaceNames {
		f := Face{UV: [4]float32{0, 0, 16, 16}, Texture: textures[i]}
		if cull {
			f.CullFace = name
		}
		if tinted[i] {
			f.TintIndex = intPtr(0)
		}
		faces[name] = f
	}
	return faces
}

// CubeAll is a full cube with one texture on every face.
func CubeAll(texture string) *Model {
	return CubeBottomTop(texture, texture, texture, false)
}

// CubeBottomTop is a full cube with distinct top, side and bottom textures.
// When tintTop is set the top face takes the block tint.
func CubeBottomTop(top, side, bottom string, tintTop bool) *Model {
	textures := [6]string{bottom, top, side, side, side, side}
	var tinted [6]bool
	tinted[1] = tintTop
	return &Model{
		Textures: map[string]string{"top": top, "side": side, "bottom": bottom},
		Elements: []Element{{
			From:  [3]float32{0, 0, 0},
			To:    [3]float32{16, 16, 16},
			Faces: cubeFaces(textures, tinted, true),
		}},
	}
}

// Cross is two diagonal planes through the block centre, as used by plants.
func Cross(texture string, tinted bool) *Model {
	plane := func(angle float32) Element {
		faces := map[string]Face{
			"north": {UV: [4]float32{0, 0, 16, 16}, Texture: texture},
			"south": {UV: [4]float32{0, 0, 16, 16}, Texture: texture},
		}
		if tinted {
			for k, f := range faces {
				f.TintIndex = intPtr(0)
				faces[k] = f
			}
		}
		shade := false
		return Element{
			From:     [3]float32{0.8, 0, 8},
			To:       [3]float32{15.2, 16, 8},
			Rotation: &Rotation{Origin: [3]float32{8, 8, 8}, Axis: "y", Angle: angle, Rescale: true},
			Shade:    &shade,
			Faces:    faces,
		}
	}
	return &Model{
		Textures: map[string]string{"cross": texture},
		Elements: []Element{plane(45), plane(-45)},
	}
}

// Slab is a flat element of the given height in 1/16 units, textured on all
// faces. Only the bottom face is culled by neighbours.
func Slab(texture string, height float32) *Model {
	faces := cubeFaces([6]string{texture, texture, texture, texture, texture, texture}, [6]bool{}, false)
	down := faces["down"]
	down.CullFace = "down"
	faces["down"] = down
	return &Model{
		Textures: map[string]string{"all": texture},
		Elements: []Element{{
			From:  [3]float32{0, 0, 0},
			To:    [3]float32{16, height, 16},
			Faces: faces,
		}},
	}
}
