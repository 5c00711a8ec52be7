package glbackend

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Attribute locations follow vertex.BlockFormat element order.
const sectionVertexShader = `#version 410 core
layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec4 aColor;
layout(location = 2) in vec2 aUV;
layout(location = 3) in ivec2 aLight;
layout(location = 4) in vec3 aNormal;

uniform mat4 projection;
uniform mat4 view;
uniform vec3 sectionOffset;

out vec4 vColor;
out vec2 vUV;
out float vLight;

void main() {
    gl_Position = projection * view * vec4(aPosition + sectionOffset, 1.0);
    vColor = aColor;
    vUV = aUV;
    float block = float(aLight.x) / 240.0;
    float sky = float(aLight.y) / 240.0;
    vLight = clamp(max(block, sky), 0.05, 1.0);
}
`

const sectionFragmentShader = `#version 410 core
in vec4 vColor;
in vec2 vUV;
in float vLight;

uniform float alphaCutoff;

out vec4 FragColor;

void main() {
    // 16x16 atlas cells, checkered so faces read without textures.
    vec2 cell = floor(vUV * 256.0);
    float checker = mod(cell.x + cell.y, 2.0) * 0.08 + 0.92;
    vec4 color = vec4(vColor.rgb * checker * vLight, vColor.a);
    if (color.a < alphaCutoff) {
        discard;
    }
    FragColor = color;
}
`

// Shader is a linked GL program.
type Shader struct {
	ID uint32
}

// NewSectionShader compiles the program used to draw section meshes.
func NewSectionShader() (*Shader, error) {
	program, err := compileProgram(sectionVertexShader, sectionFragmentShader)
	if err != nil {
		return nil, err
	}
	return &Shader{ID: program}, nil
}

func (s *Shader) Use() {
	gl.UseProgram(s.ID)
}

func (s *Shader) SetFloat(name string, value float32) {
	gl.Uniform1f(s.location(name), value)
}

func (s *Shader) SetVector3(name string, v mgl32.Vec3) {
	gl.Uniform3f(s.location(name), v.X(), v.Y(), v.Z())
}

func (s *Shader) SetMatrix4(name string, m mgl32.Mat4) {
	gl.UniformMatrix4fv(s.location(name), 1, false, &m[0])
}

func (s *Shader) Delete() {
	gl.DeleteProgram(s.ID)
}

func (s *Shader) location(name string) int32 {
	return gl.GetUniformLocation(s.ID, gl.Str(name+"\x00"))
}

func compileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertexShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fragmentShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)
	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)

		return 0, fmt.Errorf("failed to link program: %v", log)
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)

		return 0, fmt.Errorf("failed to compile shader: %v", log)
	}
	return shader, nil
}
