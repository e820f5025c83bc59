package shell

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-xr/xr"
	"github.com/cogentcore/webgpu/wgpu"
)

// Game is the simulation and rendering half of an application. The shell
// drives it once per predicted display frame; all methods are called from the
// main loop thread.
type Game interface {
	// TickTo advances the simulation to the given predicted display time.
	// Called once per frame regardless of whether the frame will be rendered.
	//
	// Parameters:
	//   - displayTime: the predicted display time of the current frame
	//   - delta: the clamped time step since the previous frame
	TickTo(displayTime xr.Time, delta TimeDelta)

	// PrepareRender records the command buffers that draw the frame into the
	// acquired swapchain framebuffer, one attachment view per eye. The
	// returned buffers are not submitted immediately: LoadViewTransforms runs
	// first, so the final submission lands as close to the located head poses
	// as possible.
	//
	// Parameters:
	//   - target: the acquired swapchain framebuffer
	//
	// Returns:
	//   - []*wgpu.CommandBuffer: the recorded command buffers to submit
	//   - error: error if recording fails
	PrepareRender(target *Framebuffer) ([]*wgpu.CommandBuffer, error)

	// LoadViewTransforms uploads the per-eye view poses and projections for
	// the frame being rendered. Always called after PrepareRender and before
	// submission, so uploads land ahead of the recorded work.
	//
	// Parameters:
	//   - flags: validity flags for the located views
	//   - views: one view per eye, left then right
	//
	// Returns:
	//   - error: error if the upload fails
	LoadViewTransforms(flags xr.ViewStateFlags, views []xr.View) error

	// ReferenceSpace returns the space views are located in and layers are
	// composed against.
	ReferenceSpace() xr.Space
}

// App couples a Shell to a Game and runs the frame protocol: wait, begin,
// tick, render, end. Per-frame errors are logged and the loop continues, so a
// transient runtime hiccup doesn't kill the process.
type App struct {
	shell  Shell
	game   Game
	time   TimeTracker
	logger *slog.Logger
}

// NewApp creates an App over an already negotiated shell.
//
// Parameters:
//   - shell: the negotiated shell
//   - game: the game to drive
//   - options: functional options for app configuration
//
// Returns:
//   - *App: the app, ready to Run
func NewApp(shell Shell, game Game, options ...AppBuilderOption) *App {
	a := &App{
		shell:  shell,
		game:   game,
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Run drives the main loop until the shell reports quit. Poll errors are
// fatal; frame errors are logged and skipped.
//
// Returns:
//   - error: error if event polling fails
func (a *App) Run() error {
	for {
		status, err := a.shell.PollEvents()
		if err != nil {
			return err
		}
		if status.Has(PollQuit) {
			a.logger.Info("quit requested, exiting main loop")
			return nil
		}
		if !status.Has(PollFrame) {
			continue
		}
		if err := a.FrameUpdate(); err != nil {
			a.logger.Error("frame failed", "error", err)
		}
	}
}

// FrameUpdate runs one full frame: wait for pacing, begin the frame, tick the
// simulation, render if the compositor wants imagery, and end the frame
// exactly once. Begin and end are paired even when rendering fails; a failed
// frame ends with no layers.
//
// Returns:
//   - error: error if any stage of the frame fails
func (a *App) FrameUpdate() error {
	state, err := a.shell.FrameWaiter().Wait()
	if err != nil {
		return fmt.Errorf("waiting for frame: %w", err)
	}
	if err := a.shell.FrameStream().Begin(); err != nil {
		return fmt.Errorf("beginning frame: %w", err)
	}

	a.game.TickTo(state.PredictedDisplayTime, a.time.Delta(state.PredictedDisplayTime))

	var layers []xr.CompositionLayer
	var renderErr error
	if state.ShouldRender {
		layers, renderErr = a.render(state)
		if renderErr != nil {
			layers = nil
		}
	}

	endErr := a.shell.FrameStream().End(state.PredictedDisplayTime, a.shell.BlendMode(), layers)
	if renderErr != nil {
		return fmt.Errorf("rendering frame: %w", renderErr)
	}
	if endErr != nil {
		return fmt.Errorf("ending frame: %w", endErr)
	}
	return nil
}

// render produces the projection layer for one frame: acquire a swapchain
// image, record and submit the game's work, release the image, and build one
// projection layer with a sub-image per eye. On failure the acquired image is
// released so the swapchain stays usable for the next frame.
func (a *App) render(state xr.FrameState) ([]xr.CompositionLayer, error) {
	sc := a.shell.Swapchain()

	image, err := sc.Acquire()
	if err != nil {
		return nil, fmt.Errorf("acquiring swapchain image: %w", err)
	}
	ok := false
	defer func() {
		if !ok {
			if relErr := image.Release(); relErr != nil && !errors.Is(relErr, ErrImageNotAcquired) {
				a.logger.Error("releasing swapchain image after failed frame", "error", relErr)
			}
		}
	}()

	if err := image.Wait(xr.InfiniteDuration); err != nil {
		return nil, fmt.Errorf("waiting for swapchain image: %w", err)
	}

	buffers, err := a.game.PrepareRender(image.Framebuffer())
	if err != nil {
		return nil, fmt.Errorf("preparing render: %w", err)
	}

	// Views are located as late as possible so the poses match the predicted
	// display time as closely as the runtime allows.
	flags, views, err := a.shell.Session().LocateViews(ViewType, state.PredictedDisplayTime, a.game.ReferenceSpace())
	if err != nil {
		return nil, fmt.Errorf("locating views: %w", err)
	}
	if len(views) != 2 {
		return nil, fmt.Errorf("locating views: %w: got %d views", ErrViewMismatch, len(views))
	}
	if err := a.game.LoadViewTransforms(flags, views); err != nil {
		return nil, fmt.Errorf("loading view transforms: %w", err)
	}

	if err := a.shell.GPU().Submit(buffers...); err != nil {
		return nil, fmt.Errorf("submitting frame: %w", err)
	}

	if err := image.Release(); err != nil {
		return nil, fmt.Errorf("releasing swapchain image: %w", err)
	}
	ok = true

	resolution := sc.Resolution()
	fullExtent := xr.Rect2Di{
		Offset: xr.Offset2Di{},
		Extent: xr.Extent2Di{Width: int32(resolution.Width), Height: int32(resolution.Height)},
	}
	projViews := make([]xr.CompositionLayerProjectionView, 2)
	for eye := range projViews {
		projViews[eye] = xr.CompositionLayerProjectionView{
			Pose: views[eye].Pose,
			Fov:  views[eye].Fov,
			SubImage: xr.SwapchainSubImage{
				Swapchain:       sc.Handle(),
				ImageRect:       fullExtent,
				ImageArrayIndex: uint32(eye),
			},
		}
	}
	return []xr.CompositionLayer{
		&xr.CompositionLayerProjection{
			Space: a.game.ReferenceSpace(),
			Views: projViews,
		},
	}, nil
}
