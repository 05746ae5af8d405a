// diorama - terminal scene demo
// Renders a small scene covering every shape style and render pass with the
// software backend, in your terminal.
//
// Controls:
//
//	A/D or ←/→  - Nudge the orbit
//	W/S or ↑/↓  - Raise/lower the camera
//	Scroll, +/- - Zoom in/out
//	F           - Toggle fog
//	Space       - Random spin
//	R           - Reset view
//	P           - Save a PNG snapshot
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/diorama/pkg/config"
	"github.com/taigrr/diorama/pkg/math3d"
	"github.com/taigrr/diorama/pkg/models"
	"github.com/taigrr/diorama/pkg/raster"
	"github.com/taigrr/diorama/pkg/scene"
)

var (
	configPath  = flag.String("config", "", "Path to a TOML config file")
	modelPath   = flag.String("model", "", "Path to a .glb model to place in the scene")
	texturePath = flag.String("texture", "", "Path to texture image (PNG/JPG)")
	targetFPS   = flag.Int("fps", 0, "Target FPS (overrides config)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "diorama - terminal scene demo\n\n")
		fmt.Fprintf(os.Stderr, "Usage: diorama [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  A/D         - Nudge the orbit\n")
		fmt.Fprintf(os.Stderr, "  W/S         - Raise/lower the camera\n")
		fmt.Fprintf(os.Stderr, "  Scroll, +/- - Zoom in/out\n")
		fmt.Fprintf(os.Stderr, "  F           - Toggle fog\n")
		fmt.Fprintf(os.Stderr, "  Space       - Random spin\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset view\n")
		fmt.Fprintf(os.Stderr, "  P           - Save a PNG snapshot\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *modelPath != "" {
		cfg.Model = *modelPath
	}
	if *texturePath != "" {
		cfg.Texture = *texturePath
	}
	if *targetFPS > 0 {
		cfg.FPS = *targetFPS
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// OrbitAxis tracks position and velocity for one orbit axis with spring decay
type OrbitAxis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64 // internal spring velocity (for animating Velocity toward 0)
}

// NewOrbitAxis creates an axis with harmonica spring for smooth velocity decay
func NewOrbitAxis(fps int) OrbitAxis {
	return OrbitAxis{
		// Frequency 4.0 = moderate speed, damping 1.0 = critically damped (no overshoot)
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update applies velocity to position and decays velocity toward 0 using spring
func (a *OrbitAxis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

// Orbit is a camera circling the origin. Distance is eased toward its
// target with a position spring.
type Orbit struct {
	Yaw, Height OrbitAxis

	Distance     float64
	distVel      float64
	distTarget   float64
	distSpring   harmonica.Spring
	fps          int
	baseDistance float64
}

func NewOrbit(fps int, distance float64) *Orbit {
	o := &Orbit{fps: fps, baseDistance: distance}
	o.Reset()
	return o
}

func (o *Orbit) Reset() {
	o.Yaw = NewOrbitAxis(o.fps)
	o.Height = NewOrbitAxis(o.fps)
	o.Height.Position = 1.5
	o.Distance = o.baseDistance
	o.distTarget = o.baseDistance
	o.distVel = 0
	o.distSpring = harmonica.NewSpring(harmonica.FPS(o.fps), 6.0, 1.0)
}

func (o *Orbit) Zoom(delta float64) {
	o.distTarget = max(1.5, min(40, o.distTarget+delta))
}

func (o *Orbit) Update() {
	o.Yaw.Update()
	o.Height.Update()
	o.Height.Position = max(-4, min(8, o.Height.Position))
	o.Distance, o.distVel = o.distSpring.Update(o.Distance, o.distVel, o.distTarget)
}

// Apply places the camera on the orbit, looking at the origin.
func (o *Orbit) Apply(d *scene.Display) {
	cam := d.Camera()
	cam.Position = math3d.V3(
		math.Sin(o.Yaw.Position)*o.Distance,
		o.Height.Position,
		math.Cos(o.Yaw.Position)*o.Distance,
	)
	cam.LookAt(math3d.Zero3())
	d.SetCamera(cam.Position, cam.Rotation)
}

func openLog(cfg config.Config) (*slog.Logger, func(), error) {
	if cfg.Log.File == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	h := slog.NewTextHandler(f, &slog.HandlerOptions{Level: cfg.LogLevel()})
	return slog.New(h), func() { f.Close() }, nil
}

func run(cfg config.Config) error {
	log, closeLog, err := openLog(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	// Create terminal
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Enable mouse mode
	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Enable any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	fbWidth, fbHeight := raster.FramebufferSize(width, height)
	backend, err := raster.New(fbWidth, fbHeight, raster.NewTerminalPresenter(term))
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}

	events := scene.NewChanEvents(64)
	d, err := scene.New(backend, fbWidth, fbHeight,
		scene.WithLogger(log),
		scene.WithEvents(events),
		scene.WithProjection(cfg.Projection(1)),
		scene.WithWorldBounds(cfg.WorldBounds(), cfg.World.Depth),
	)
	if err != nil {
		return fmt.Errorf("create display: %w", err)
	}
	d.SetBackground(cfg.BackgroundColor())

	fogOn := cfg.Fog.Enabled
	applyFog := func() {
		if fogOn {
			d.SetFog(&scene.Fog{Near: cfg.Fog.Near, Far: cfg.Fog.Far})
		} else {
			d.SetFog(nil)
		}
	}
	applyFog()

	demo, err := buildScene(d, cfg, log)
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}

	// Context for clean shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Input is handled on the render loop; this goroutine only forwards.
	go func() {
		for ev := range term.Events() {
			if !events.Push(ev) {
				log.Warn("dropped input event", "event", fmt.Sprintf("%T", ev))
			}
		}
	}()

	orbit := NewOrbit(cfg.FPS, cfg.Camera.Distance)
	targetDuration := time.Second / time.Duration(cfg.FPS)
	start := time.Now()
	lastFrame := start
	snapshots := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		ev, err := d.Update()
		if err != nil {
			return err
		}
		if ev != nil {
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				term.Resize(width, height)
				d.Resize(raster.FramebufferSize(width, height))

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape"), ev.MatchString("ctrl+c"):
					return nil
				case ev.MatchString("a", "left"):
					orbit.Yaw.Velocity -= 0.05
				case ev.MatchString("d", "right"):
					orbit.Yaw.Velocity += 0.05
				case ev.MatchString("w", "up"):
					orbit.Height.Velocity += 0.1
				case ev.MatchString("s", "down"):
					orbit.Height.Velocity -= 0.1
				case ev.MatchString("+", "="):
					orbit.Zoom(-1)
				case ev.MatchString("-", "_"):
					orbit.Zoom(1)
				case ev.MatchString("f"):
					fogOn = !fogOn
					applyFog()
				case ev.MatchString("space"):
					orbit.Yaw.Velocity += (rand.Float64() - 0.5) * 0.6
					orbit.Height.Velocity += (rand.Float64() - 0.5) * 0.4
				case ev.MatchString("r"):
					orbit.Reset()
				case ev.MatchString("p"):
					snapshots++
					path := fmt.Sprintf("diorama-%03d.png", snapshots)
					if err := backend.Framebuffer().SavePNG(path); err != nil {
						log.Error("snapshot failed", "path", path, "err", err)
					} else {
						log.Info("snapshot saved", "path", path)
					}
				}

			case uv.MouseWheelEvent:
				switch ev.Button {
				case uv.MouseWheelUp:
					orbit.Zoom(-0.5)
				case uv.MouseWheelDown:
					orbit.Zoom(0.5)
				}
			}
			// Drain every pending event before drawing the next frame.
			continue
		}

		now := time.Now()
		dt := min(now.Sub(lastFrame).Seconds(), 0.1)
		lastFrame = now

		orbit.Yaw.Position += cfg.Camera.OrbitSpeed * dt
		orbit.Update()
		orbit.Apply(d)
		if err := demo.animate(d, now.Sub(start).Seconds()); err != nil {
			return err
		}

		elapsed := time.Since(now)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}

// demoScene holds the handles the render loop animates.
type demoScene struct {
	spinner *scene.Handle // gradient cube
	ghost   *scene.Handle // faded quad
	tinted  *scene.Handle
	banner  *scene.Handle // overlay quad with the animated texture

	bannerTex scene.TextureID
	frame     int
}

func buildScene(d *scene.Display, cfg config.Config, log *slog.Logger) (*demoScene, error) {
	world := scene.Flags{Camera: true, Fog: true}
	blended := scene.Flags{Camera: true, Fog: true, Blending: true}
	overlay := scene.Flags{}

	cube := models.Cube(0.5)
	cubeModel, err := d.CreateModel(cube.Vertices, cube.Fans)
	if err != nil {
		return nil, err
	}
	cubeTC, err := d.CreateTexCoords(cube.TexCoords)
	if err != nil {
		return nil, err
	}
	cubeColors, err := d.CreateGradient(cube.Gradient(func(_ int, p math3d.Vec3) [4]float32 {
		return [4]float32{float32(p.X + 0.5), float32(p.Y + 0.5), float32(p.Z + 0.5), 1}
	}))
	if err != nil {
		return nil, err
	}

	quad := models.Quad(0.5)
	quadModel, err := d.CreateModel(quad.Vertices, quad.Fans)
	if err != nil {
		return nil, err
	}
	quadTC, err := d.CreateTexCoords(quad.TexCoords)
	if err != nil {
		return nil, err
	}
	quadColors, err := d.CreateGradient(quad.Gradient(func(i int, _ math3d.Vec3) [4]float32 {
		return [4]float32{float32(i % 2), float32(i / 2 % 2), 1, 0.9}
	}))
	if err != nil {
		return nil, err
	}

	var img image.Image = raster.CheckerImage(32, 32, 4,
		color.RGBA{220, 200, 160, 255}, color.RGBA{120, 80, 60, 255})
	if cfg.Texture != "" {
		loaded, err := raster.LoadImage(cfg.Texture)
		if err != nil {
			log.Warn("could not load texture, using checker", "path", cfg.Texture, "err", err)
		} else {
			img = loaded
		}
	}
	crate := d.CreateTexture(img)
	bannerTex := d.CreateTexture(bannerImage(0))

	// Floor of solid tiles.
	for x := -3; x <= 3; x++ {
		for z := -3; z <= 3; z++ {
			shade := 0.35
			if (x+z)%2 == 0 {
				shade = 0.55
			}
			m := math3d.Translate(math3d.V3(float64(x), -1, float64(z))).Mul(math3d.Scale(math3d.V3(1, 0.1, 1)))
			if _, err := d.MakeShapeSolid(cubeModel, m, math3d.V4(shade, shade*1.1, shade, 1), world); err != nil {
				return nil, err
			}
		}
	}

	s := &demoScene{bannerTex: bannerTex}
	if s.spinner, err = d.MakeShapeGradient(cubeModel, math3d.Identity(), cubeColors, world); err != nil {
		return nil, err
	}
	if _, err := d.MakeShapeTexture(cubeModel, math3d.Translate(math3d.V3(-2, -0.4, -1)), crate, cubeTC, world); err != nil {
		return nil, err
	}
	if s.tinted, err = d.MakeShapeTinted(cubeModel, math3d.Translate(math3d.V3(2, -0.4, -1)), crate, cubeTC, math3d.V4(1, 0.4, 0.4, 1), world); err != nil {
		return nil, err
	}
	if _, err := d.MakeShapeComplex(cubeModel, math3d.Translate(math3d.V3(0, -0.4, 2)), crate, cubeTC, cubeColors, world); err != nil {
		return nil, err
	}
	if s.ghost, err = d.MakeShapeFaded(quadModel, math3d.Translate(math3d.V3(0, 0.5, -2.5)).Mul(math3d.ScaleUniform(2)), crate, quadTC, 0.5, world); err != nil {
		return nil, err
	}
	if _, err := d.MakeShapeGradient(quadModel, math3d.Translate(math3d.V3(1.2, 0.2, 1.2)).Mul(math3d.RotateY(0.7)), quadColors, blended); err != nil {
		return nil, err
	}

	// Screen-space overlays, in NDC.
	corner := math3d.Translate(math3d.V3(-0.8, 0.8, 0)).Mul(math3d.ScaleUniform(0.3))
	if _, err := d.MakeShapeGradient(quadModel, corner, quadColors, overlay); err != nil {
		return nil, err
	}
	bar := math3d.Translate(math3d.V3(0.6, -0.85, 0)).Mul(math3d.Scale(math3d.V3(0.7, 0.12, 1)))
	if s.banner, err = d.MakeShapeTexture(quadModel, bar, bannerTex, quadTC, overlay); err != nil {
		return nil, err
	}

	if cfg.Model != "" {
		if err := addModel(d, cfg.Model, world); err != nil {
			log.Warn("could not load model", "path", cfg.Model, "err", err)
		}
	}
	log.Info("scene built",
		"opaque", d.Shapes().Len(scene.PassOpaque),
		"alpha", d.Shapes().Len(scene.PassAlpha),
		"overlay", d.Shapes().Len(scene.PassOverlay))
	return s, nil
}

// addModel places an imported model above the scene center, scaled to fit
// a 1.5 unit box.
func addModel(d *scene.Display, path string, flags scene.Flags) error {
	g, err := models.LoadGLB(path)
	if err != nil {
		return err
	}
	box := g.Bounds()
	size := box.Size()
	scale := 1.0
	if maxDim := max(size.X, size.Y, size.Z); maxDim > 0 {
		scale = 1.5 / maxDim
	}
	at := math3d.Translate(math3d.V3(0, 1.5, 0)).
		Mul(math3d.ScaleUniform(scale)).
		Mul(math3d.Translate(box.Center().Negate()))

	m, err := d.CreateModel(g.Vertices, g.Fans)
	if err != nil {
		return err
	}
	colors, err := d.CreateGradient(g.Colors)
	if err != nil {
		return err
	}
	if g.Texture == nil {
		_, err = d.MakeShapeGradient(m, at, colors, flags)
		return err
	}
	tc, err := d.CreateTexCoords(g.TexCoords)
	if err != nil {
		return err
	}
	_, err = d.MakeShapeComplex(m, at, d.CreateTexture(g.Texture), tc, colors, flags)
	return err
}

// animate moves the handles the demo keeps.
func (s *demoScene) animate(d *scene.Display, t float64) error {
	spin := math3d.Translate(math3d.V3(0, 0.2+0.2*math.Sin(t*2), 0)).
		Mul(math3d.RotateY(t)).
		Mul(math3d.RotateX(t * 0.7))
	d.SetTransform(s.spinner, spin)

	if err := d.SetAlpha(s.ghost, 0.35+0.3*math.Sin(t*1.3)); err != nil {
		return err
	}
	hue := 0.5 + 0.5*math.Sin(t)
	if err := d.SetTint(s.tinted, math3d.V4(1, hue, 1-hue, 1)); err != nil {
		return err
	}

	s.frame++
	if s.frame%4 == 0 {
		if err := d.UpdateTexture(s.bannerTex, bannerImage(s.frame/4)); err != nil {
			return err
		}
	}
	return nil
}

// bannerImage is a scrolling stripe pattern.
func bannerImage(offset int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 16, 4))
	for y := range 4 {
		for x := range 16 {
			c := color.RGBA{40, 40, 60, 255}
			if (x+y+offset)%6 < 2 {
				c = color.RGBA{255, 200, 40, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
