// Package game contains demo content for the shell: self-contained Game
// implementations that exercise the full frame protocol.
package game

import (
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/controls"
	"github.com/Carmen-Shannon/oxy-xr/shell"
	"github.com/Carmen-Shannon/oxy-xr/xr"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	nearZ = 0.01
	farZ  = 50.0

	// The first two instances are reserved for the hand markers; the rest form
	// the floating grid.
	handInstances = 2

	defaultRectCount = 64
	matrixFloats     = 16
)

// rectShaderWGSL draws instanced rectangles with a checkerboard debug pattern.
// Each instance reads its world transform from a storage buffer; the eye's
// screen-from-world matrix comes from a per-eye uniform.
const rectShaderWGSL = `
struct EyeData {
    screen_from_world: mat4x4<f32>,
};

@group(0) @binding(0) var<uniform> eye: EyeData;
@group(0) @binding(1) var<storage, read> world_from_rect: array<mat4x4<f32>>;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
    @location(1) hue: f32,
};

var<private> corners: array<vec2<f32>, 6> = array<vec2<f32>, 6>(
    vec2<f32>(-0.5, -0.5),
    vec2<f32>( 0.5, -0.5),
    vec2<f32>( 0.5,  0.5),
    vec2<f32>(-0.5, -0.5),
    vec2<f32>( 0.5,  0.5),
    vec2<f32>(-0.5,  0.5),
);

@vertex
fn vs_main(@builtin(vertex_index) vi: u32, @builtin(instance_index) ii: u32) -> VertexOutput {
    let corner = corners[vi];
    let world = world_from_rect[ii] * vec4<f32>(corner, 0.0, 1.0);

    var out: VertexOutput;
    out.position = eye.screen_from_world * world;
    out.uv = corner + vec2<f32>(0.5, 0.5);
    out.hue = f32(ii % 7u) / 7.0;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let checker = (u32(in.uv.x * 8.0) + u32(in.uv.y * 8.0)) % 2u;
    let base = vec3<f32>(in.hue, 1.0 - in.hue, 0.6);
    let shade = 0.4 + 0.6 * f32(checker);
    return vec4<f32>(base * shade, 1.0);
}
`

// eyeMatrices is the uniform block for one eye.
type eyeMatrices struct {
	ScreenFromWorld [matrixFloats]float32
}

// RectViewer is a minimal scene: a grid of spinning rectangles in stage space
// plus one marker rectangle per tracked hand. It exists to light up every part
// of the frame protocol with something visible in the headset.
type RectViewer interface {
	shell.Game

	// Input returns the most recently sampled controller state.
	Input() controls.PointAndClickInput
}

type rectViewer struct {
	logger *slog.Logger

	gpu   shell.GPUDevice
	stage xr.Space

	session xr.Session
	input   controls.PointAndClick
	sampled controls.PointAndClickInput

	elapsed   float32
	rectCount int

	// updatePool spreads the per-tick instance transform rebuild across a
	// bounded set of reusable workers.
	updatePool  worker.DynamicWorkerPool
	workerCount int

	instances      []float32
	instanceBuffer *wgpu.Buffer

	pipeline   *wgpu.RenderPipeline
	resolution shell.Extent2D

	eyeBuffers    [2]*wgpu.Buffer
	eyeBindGroups [2]*wgpu.BindGroup
}

var _ RectViewer = &rectViewer{}

// NewRectViewer builds the demo scene against a negotiated shell: pipeline,
// instance storage, per-eye uniforms, stage reference space, and the
// point-and-click control scheme.
//
// Parameters:
//   - sh: the negotiated shell
//   - options: functional options for scene configuration
//
// Returns:
//   - RectViewer: the scene, ready to hand to shell.NewApp
//   - error: error if GPU or input setup fails
func NewRectViewer(sh shell.Shell, options ...RectViewerBuilderOption) (RectViewer, error) {
	v := &rectViewer{
		logger:     slog.Default(),
		gpu:        sh.GPU(),
		session:    sh.Session(),
		resolution: sh.Swapchain().Resolution(),
	}
	for _, option := range options {
		option(v)
	}
	v.rectCount = common.Coalesce(v.rectCount, defaultRectCount)
	v.workerCount = common.Coalesce(v.workerCount, max(runtime.NumCPU()-1, 1))

	// Stage space keeps content anchored to the center of the play area rather
	// than wherever the headset booted.
	stage, err := sh.Session().CreateReferenceSpace(xr.ReferenceSpaceStage, xr.IdentityPose)
	if err != nil {
		return nil, fmt.Errorf("creating stage space: %w", err)
	}
	v.stage = stage

	input, err := controls.NewPointAndClick(sh.Runtime(), sh.Session(), "input", "Input Pose Information")
	if err != nil {
		return nil, fmt.Errorf("creating controls: %w", err)
	}
	if err := controls.Attach(sh.Runtime(), sh.Session(), input); err != nil {
		return nil, fmt.Errorf("attaching controls: %w", err)
	}
	v.input = input

	if err := v.initGPU(); err != nil {
		return nil, err
	}

	v.updatePool = worker.NewDynamicWorkerPool(v.workerCount, 256, 1*time.Second)

	return v, nil
}

func (v *rectViewer) initGPU() error {
	device := v.gpu.Device()

	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "rect_viewer",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: rectShaderWGSL,
		},
	})
	if err != nil {
		return fmt.Errorf("creating shader module: %w", err)
	}

	bindGroupLayout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "rect_viewer Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeUniform,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeReadOnlyStorage,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating bind group layout: %w", err)
	}

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "rect_viewer Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bindGroupLayout},
	})
	if err != nil {
		return fmt.Errorf("creating pipeline layout: %w", err)
	}

	v.pipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "rect_viewer Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    wgpu.TextureFormatRGBA8UnormSrgb,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("creating render pipeline: %w", err)
	}

	totalInstances := handInstances + v.rectCount
	v.instances = make([]float32, totalInstances*matrixFloats)
	v.instanceBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "rect_viewer Instance Buffer",
		Size:  uint64(len(v.instances) * 4),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("creating instance buffer: %w", err)
	}

	for eye := 0; eye < 2; eye++ {
		var matrices eyeMatrices
		v.eyeBuffers[eye], err = device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "rect_viewer Eye Buffer",
			Size:  uint64(len(common.StructToBytes(&matrices))),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("creating eye uniform buffer: %w", err)
		}

		v.eyeBindGroups[eye], err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "rect_viewer Eye Bind Group",
			Layout: bindGroupLayout,
			Entries: []wgpu.BindGroupEntry{
				{
					Binding: 0,
					Buffer:  v.eyeBuffers[eye],
					Offset:  0,
					Size:    wgpu.WholeSize,
				},
				{
					Binding: 1,
					Buffer:  v.instanceBuffer,
					Offset:  0,
					Size:    wgpu.WholeSize,
				},
			},
		})
		if err != nil {
			return fmt.Errorf("creating eye bind group: %w", err)
		}
	}

	return nil
}

func (v *rectViewer) ReferenceSpace() xr.Space {
	return v.stage
}

func (v *rectViewer) Input() controls.PointAndClickInput {
	return v.sampled
}

func (v *rectViewer) TickTo(displayTime xr.Time, delta shell.TimeDelta) {
	if !delta.FirstFrame {
		v.elapsed += delta.Secs
	}

	if err := v.session.SyncActions([]xr.ActionSet{v.input.ActionSet()}); err != nil {
		v.logger.Error("syncing actions", "error", err)
	} else {
		sampled, err := v.input.Locate(v.session, v.stage, displayTime)
		if err != nil {
			v.logger.Error("locating controllers", "error", err)
		} else {
			v.sampled = sampled
		}
	}

	v.updateHandInstances()
	v.updateGridInstances()

	v.gpu.Queue().WriteBuffer(v.instanceBuffer, 0, common.SliceToBytes(v.instances))
}

// updateHandInstances places a small marker rect at each tracked hand's grip
// pose. An untracked hand collapses its marker to zero scale.
func (v *rectViewer) updateHandInstances() {
	hands := [handInstances]*controls.PointAndClickHand{v.sampled.LH, v.sampled.RH}
	for i, hand := range hands {
		out := v.instances[i*matrixFloats : (i+1)*matrixFloats]
		if hand == nil {
			for j := range out {
				out[j] = 0
			}
			continue
		}
		common.PoseToMatrix(out,
			hand.Grip.Position.X, hand.Grip.Position.Y, hand.Grip.Position.Z,
			hand.Grip.Orientation.X, hand.Grip.Orientation.Y, hand.Grip.Orientation.Z, hand.Grip.Orientation.W,
		)
		// Clicking grows the marker.
		scale := float32(0.05)
		if hand.Click {
			scale = 0.1
		}
		scaleColumns(out, scale)
	}
}

// updateGridInstances rebuilds the floating grid's transforms in parallel.
// Workers persist across frames; a WaitGroup provides the per-tick barrier.
func (v *rectViewer) updateGridInstances() {
	side := int(math.Ceil(math.Sqrt(float64(v.rectCount))))
	chunk := max(v.rectCount/v.workerCount, 1)

	var wg sync.WaitGroup
	taskID := 0
	for start := 0; start < v.rectCount; start += chunk {
		end := min(start+chunk, v.rectCount)
		wg.Add(1)
		lo, hi := start, end
		id := taskID
		taskID++
		v.updatePool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for i := lo; i < hi; i++ {
					row := i / side
					col := i % side
					slot := (handInstances + i) * matrixFloats
					phase := v.elapsed + float32(i)*0.37
					common.BuildModelMatrix(v.instances[slot:slot+matrixFloats],
						float32(col-side/2)*0.6,
						1.2+0.2*float32(math.Sin(float64(phase))),
						-1.5-float32(row)*0.6,
						0, phase, 0,
						0.4, 0.4, 0.4,
					)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (v *rectViewer) PrepareRender(target *shell.Framebuffer) ([]*wgpu.CommandBuffer, error) {
	encoder, err := v.gpu.Device().CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("creating command encoder: %w", err)
	}

	clear := wgpu.Color{
		R: 0.0,
		G: 0.05,
		B: 0.1 + math.Mod(float64(v.elapsed)*0.1, 0.2),
		A: 1.0,
	}

	totalInstances := uint32(handInstances + v.rectCount)
	for eye := 0; eye < 2; eye++ {
		pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			Label: "rect_viewer Eye Pass",
			ColorAttachments: []wgpu.RenderPassColorAttachment{
				{
					View:       target.Eyes[eye],
					LoadOp:     wgpu.LoadOpClear,
					StoreOp:    wgpu.StoreOpStore,
					ClearValue: clear,
				},
			},
		})

		pass.SetViewport(0, 0, float32(v.resolution.Width), float32(v.resolution.Height), 0, 1)
		pass.SetScissorRect(0, 0, v.resolution.Width, v.resolution.Height)
		pass.SetPipeline(v.pipeline)
		pass.SetBindGroup(0, v.eyeBindGroups[eye], nil)
		pass.Draw(6, totalInstances, 0, 0)
		pass.End()
		pass.Release()
	}

	buffer, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("finishing command encoder: %w", err)
	}
	return []*wgpu.CommandBuffer{buffer}, nil
}

func (v *rectViewer) LoadViewTransforms(flags xr.ViewStateFlags, views []xr.View) error {
	if len(views) < 2 {
		return fmt.Errorf("expected 2 views, got %d", len(views))
	}
	// Stale poses still render; the compositor reprojects what it can.
	if flags&(xr.ViewStateOrientationValid|xr.ViewStatePositionValid) == 0 {
		v.logger.Debug("view poses invalid this frame", "flags", flags)
	}

	var projection, worldFromView, viewFromWorld, screenFromWorld [matrixFloats]float32
	for eye := 0; eye < 2; eye++ {
		view := views[eye]
		common.ProjectionFromFov(projection[:],
			view.Fov.AngleLeft, view.Fov.AngleRight, view.Fov.AngleUp, view.Fov.AngleDown,
			nearZ, farZ,
		)
		common.PoseToMatrix(worldFromView[:],
			view.Pose.Position.X, view.Pose.Position.Y, view.Pose.Position.Z,
			view.Pose.Orientation.X, view.Pose.Orientation.Y, view.Pose.Orientation.Z, view.Pose.Orientation.W,
		)
		common.RigidInverse(viewFromWorld[:], worldFromView[:])
		common.Mul4(screenFromWorld[:], projection[:], viewFromWorld[:])

		matrices := eyeMatrices{ScreenFromWorld: screenFromWorld}
		v.gpu.Queue().WriteBuffer(v.eyeBuffers[eye], 0, common.StructToBytes(&matrices))
	}
	return nil
}

// scaleColumns applies a uniform scale to the rotation block of a column-major
// transform, leaving translation intact.
func scaleColumns(m []float32, scale float32) {
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			m[col*4+row] *= scale
		}
	}
}
