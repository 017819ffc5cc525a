//go:build opengl

package compute

import (
	"embed"
	"fmt"
	"math"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"
)

//go:embed shaders
var shaderFS embed.FS

const groupSize = 256

const (
	bindCellsIn = iota
	bindCellsOut
	bindCellsI
	bindLinks
	bindRules
	bindRuleIndex
	bindReactions
)

// OpenGLDevice runs the passes as compute shaders. It must be created and
// used on the goroutine that owns a current OpenGL 4.3 context.
type OpenGLDevice struct {
	ready    bool
	programs [3]uint32

	ssbo      [7]uint32
	total     int32
	cellsPer  int32
	width     int32
	materials int32

	packedF []float32
	packedI []int32
}

func NewOpenGLDevice() *OpenGLDevice {
	d := &OpenGLDevice{}
	if err := gl.Init(); err != nil {
		return d
	}
	if gl.GetString(gl.VERSION) == nil {
		return d
	}
	for i, name := range []string{"heat.comp", "pressure.comp", "react.comp"} {
		program, err := createComputeProgram(name)
		if err != nil {
			return d
		}
		d.programs[i] = program
	}
	gl.GenBuffers(int32(len(d.ssbo)), &d.ssbo[0])
	d.ready = true
	return d
}

func (d *OpenGLDevice) Name() string    { return "opengl" }
func (d *OpenGLDevice) Available() bool { return d.ready }

func (d *OpenGLDevice) Upload(f *Frame) error {
	if !d.ready {
		return ErrDeviceUnavailable
	}
	n := f.Cells()
	d.total = int32(n)
	d.cellsPer = int32(f.CellsPerChunk)
	d.width = int32(f.Width)
	d.materials = int32(len(f.RuleIndex) / 2)

	d.packedF = d.packedF[:0]
	for i := 0; i < n; i++ {
		d.packedF = append(d.packedF, f.Temperature[i], f.Quantity[i], f.HeatCapacity[i], f.Conductivity[i])
	}
	d.packedI = d.packedI[:0]
	for i := 0; i < n; i++ {
		d.packedI = append(d.packedI, f.Material[i], f.Mobile[i])
	}
	rules := make([]int32, 0, len(f.Rules)*4+4)
	for _, r := range f.Rules {
		rules = append(rules, r.Material, r.With, r.Produces, int32(math.Float32bits(r.Rate)))
	}
	if len(rules) == 0 {
		rules = append(rules, 0, 0, 0, 0)
	}
	ruleIndex := f.RuleIndex
	if len(ruleIndex) == 0 {
		ruleIndex = []int32{0, 0}
	}

	upload(d.ssbo[bindCellsIn], bindCellsIn, len(d.packedF)*4, gl.Ptr(d.packedF))
	upload(d.ssbo[bindCellsOut], bindCellsOut, len(d.packedF)*4, nil)
	upload(d.ssbo[bindCellsI], bindCellsI, len(d.packedI)*4, gl.Ptr(d.packedI))
	upload(d.ssbo[bindLinks], bindLinks, len(f.Links)*4, gl.Ptr(f.Links))
	upload(d.ssbo[bindRules], bindRules, len(rules)*4, gl.Ptr(rules))
	upload(d.ssbo[bindRuleIndex], bindRuleIndex, len(ruleIndex)*4, gl.Ptr(ruleIndex))
	// count header padded to 16 bytes, then one ivec4 per cell
	upload(d.ssbo[bindReactions], bindReactions, 16+n*16, nil)
	return nil
}

func upload(buffer uint32, binding, size int, data unsafe.Pointer) {
	if size == 0 {
		size = 16
		data = nil
	}
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, buffer)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, data, gl.DYNAMIC_DRAW)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, uint32(binding), buffer)
}

func (d *OpenGLDevice) Dispatch(p Pass, params Params) error {
	if !d.ready {
		return ErrDeviceUnavailable
	}
	if p < PassHeat || p > PassReactions {
		return fmt.Errorf("compute: unknown pass %v", p)
	}
	program := d.programs[p]
	gl.UseProgram(program)

	gl.Uniform1i(uniform(program, "total"), d.total)
	gl.Uniform1i(uniform(program, "cellsPerChunk"), d.cellsPer)
	gl.Uniform1i(uniform(program, "width"), d.width)
	gl.Uniform1i(uniform(program, "materials"), d.materials)
	gl.Uniform1f(uniform(program, "heatRate"), params.HeatRate)
	gl.Uniform1f(uniform(program, "pressureRate"), params.PressureRate)
	gl.Uniform1ui(uniform(program, "seed"), params.Seed)
	gl.Uniform1ui(uniform(program, "tick"), params.Tick)

	if p == PassReactions {
		var zero uint32
		gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, d.ssbo[bindReactions])
		gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, 4, gl.Ptr(&zero))
	}

	groups := (uint32(d.total) + groupSize - 1) / groupSize
	gl.DispatchCompute(groups, 1, 1)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT | gl.BUFFER_UPDATE_BARRIER_BIT)
	gl.Finish()

	if p != PassReactions {
		d.ssbo[bindCellsIn], d.ssbo[bindCellsOut] = d.ssbo[bindCellsOut], d.ssbo[bindCellsIn]
		gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, bindCellsIn, d.ssbo[bindCellsIn])
		gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, bindCellsOut, d.ssbo[bindCellsOut])
	}
	return nil
}

func (d *OpenGLDevice) readCells() {
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, d.ssbo[bindCellsIn])
	gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(d.packedF)*4, gl.Ptr(d.packedF))
}

func (d *OpenGLDevice) ReadTemperature(dst []float32) error {
	if len(dst) < int(d.total) {
		return ErrFrameMismatch
	}
	d.readCells()
	for i := 0; i < int(d.total); i++ {
		dst[i] = d.packedF[i*4]
	}
	return nil
}

func (d *OpenGLDevice) ReadQuantity(dst []float32) error {
	if len(dst) < int(d.total) {
		return ErrFrameMismatch
	}
	d.readCells()
	for i := 0; i < int(d.total); i++ {
		dst[i] = d.packedF[i*4+1]
	}
	return nil
}

func (d *OpenGLDevice) ReadReactions() ([]ReactionRecord, error) {
	var count uint32
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, d.ssbo[bindReactions])
	gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, 0, 4, gl.Ptr(&count))
	if count == 0 {
		return nil, nil
	}
	raw := make([]int32, count*4)
	gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, 16, len(raw)*4, gl.Ptr(raw))

	out := make([]ReactionRecord, count)
	for i := range out {
		out[i] = ReactionRecord{Material: raw[i*4], Local: raw[i*4+1], Ticket: raw[i*4+2]}
	}
	return out, nil
}

func (d *OpenGLDevice) Cleanup() {
	if !d.ready {
		return
	}
	gl.DeleteBuffers(int32(len(d.ssbo)), &d.ssbo[0])
	for _, p := range d.programs {
		gl.DeleteProgram(p)
	}
	d.ready = false
}

func uniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func createComputeProgram(name string) (uint32, error) {
	common, err := shaderFS.ReadFile("shaders/common.glsl")
	if err != nil {
		return 0, err
	}
	body, err := shaderFS.ReadFile("shaders/" + name)
	if err != nil {
		return 0, err
	}
	content := string(common) + "\n" + string(body) + "\x00"

	shader := gl.CreateShader(gl.COMPUTE_SHADER)
	csources, free := gl.Strs(content)
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
		return 0, fmt.Errorf("compile %s: %v", name, log)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, shader)
	gl.LinkProgram(program)

	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		return 0, fmt.Errorf("link %s", name)
	}

	gl.DeleteShader(shader)
	return program, nil
}
