// Package render draws simulation frames to PNG images.
package render

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/quillaja/nbody2d/physics"
)

/*

image output section

*/

// Renderer writes one PNG per observed frame into Dir, named by step.
// The view is a square [-R, R] on both axes, R being Radius or, when that is
// zero, the universe's own radius.
//
// A Renderer holds no per-frame state, so several goroutines may share one.
type Renderer struct {
	Dir           string
	Width, Height int
	Radius        float64
	Tail          float64 // seconds of motion drawn behind each body, 0 for none
}

// New creates dir if needed and returns a renderer writing to it.
func New(dir string, width, height int) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render: bad image size %dx%d", width, height)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Renderer{Dir: dir, Width: width, Height: height}, nil
}

// Filename is the image name for a step.
func Filename(step int) string {
	return fmt.Sprintf("%010d.png", step)
}

// Observe draws f and writes it to disk.
func (r *Renderer) Observe(f physics.Frame) error {
	film := r.Draw(f.Universe)

	file, err := os.Create(filepath.Join(r.Dir, Filename(f.Step)))
	if err != nil {
		return err
	}
	if err := png.Encode(file, film); err != nil {
		file.Close()
		return fmt.Errorf("render: step %d: %w", f.Step, err)
	}
	return file.Close()
}

// Draw renders u to a new image.
func (r *Renderer) Draw(u physics.Universe) *image.RGBA {
	radius := r.Radius
	if radius == 0 {
		radius = u.Radius
	}
	proj := mgl64.Ortho2D(-radius, radius, -radius, radius)

	film := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	draw.Draw(film, film.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	plotline2d(film, vdarkgray, proj, mgl64.Vec2{-radius, 0}, mgl64.Vec2{radius, 0})
	plotline2d(film, vdarkgray, proj, mgl64.Vec2{0, -radius}, mgl64.Vec2{0, radius})

	// draw low-to-high mass, so "important" bodies end up on top
	order := make([]int, u.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return u.Bodies[order[i]].Mass < u.Bodies[order[j]].Mass
	})
	lo, hi := massRange(u)

	for _, i := range order {
		b := u.Bodies[i]
		col := labelColor(b.Label)
		if r.Tail > 0 {
			plotline2d(film, col, proj, b.Pos, b.Pos.Sub(b.Vel.Mul(r.Tail)))
		}
		if x, y, ok := screen(film, proj, b.Pos); ok {
			plotcirclefilled(film, col, x, y, discRadius(b.Mass, lo, hi))
		}
	}
	return film
}

// project p to pixel coordinates. ok is false for points far enough outside
// the view that drawing toward them would be pointless (or NaN).
func screen(img image.Image, proj mgl64.Mat4, p mgl64.Vec2) (x, y int, ok bool) {
	t := proj.Mul4x1(mgl64.Vec4{p[0], p[1], 0, 1})
	if !(math.Abs(t[0]) <= 4 && math.Abs(t[1]) <= 4) {
		return 0, 0, false
	}
	x, y = mgl64.GLToScreenCoords(t[0], t[1], img.Bounds().Dx(), img.Bounds().Dy())
	return x, y, true
}

// plotline2d draws a line from p1 to p2 if both ends are near the view.
func plotline2d(img draw.Image, c color.Color, proj mgl64.Mat4, p1, p2 mgl64.Vec2) {
	x1, y1, ok1 := screen(img, proj, p1)
	x2, y2, ok2 := screen(img, proj, p2)
	if ok1 && ok2 {
		plotline(img, c, x1, y1, x2, y2)
	}
}

func massRange(u physics.Universe) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, b := range u.Bodies {
		lo = math.Min(lo, b.Mass)
		hi = math.Max(hi, b.Mass)
	}
	return
}

// disc radius in pixels, on a log scale between the lightest and heaviest body.
func discRadius(m, lo, hi float64) int {
	const smallest, largest = 1, 6
	if !(hi > lo) {
		return (smallest + largest) / 2
	}
	t := (math.Log(m) - math.Log(lo)) / (math.Log(hi) - math.Log(lo))
	return smallest + int(math.Round(t*(largest-smallest)))
}

// a stable colour per label.
func labelColor(label string) color.Color {
	h := fnv.New32a()
	h.Write([]byte(label))
	hue := float64(h.Sum32()%360) + 0.5
	r, g, b := colorful.Hcl(hue, 0.5, 0.8).Clamped().RGB255()
	return color.RGBA{r, g, b, 255}
}

var vdarkgray = color.RGBA{32, 32, 32, 255}

// plotline draws the 1px line from (x0,y0) to (x1,y1) in pixel space, used
// for the axes and for each body's velocity tail. Points off the image are
// dropped by img.Set.
//
// Bresenham's line algorithm, from
// https://en.wikipedia.org/wiki/Bresenham%27s_line_algorithm.
func plotline(img draw.Image, c color.Color, x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// abs of a pixel delta.
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// plotcirclefilled draws a body's disc centred on pixel (x0,y0), r pixels
// across from the centre, clipped by img.Set at the image edges.
func plotcirclefilled(img draw.Image, c color.Color, x0, y0, r int) {
	rsqr := float64(r * r)
	for y := r; y >= 0; y-- {
		xright := int(math.Sqrt(rsqr - float64(y*y)))
		for x := -xright; x <= xright; x++ {
			img.Set(x0+x, y0+y, c)
			img.Set(x0+x, y0-y, c)
		}
	}
}
