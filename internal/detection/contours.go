package detection

// Point represents a 2D coordinate in working-copy pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Contour is the closed outer boundary of one foreground component, listed
// clockwise on screen. Runs of collinear boundary pixels are compressed to
// their end points.
type Contour []Point

// FindContours returns the outer contour of every foreground component in
// the mask.
//
// Components are 8-connected. Holes inside a component are filled first, so
// anything nested inside a photo (a dark subject surrounded by bright sky, a
// white border printed on the photo) belongs to the photo rather than
// producing a contour of its own.
//
// Contours are returned in raster order of each component's top-left-most
// pixel, which makes the result deterministic for a given mask.
func FindContours(m *Mask) []Contour {
	width, height := m.Width(), m.Height()
	if width == 0 || height == 0 {
		return nil
	}

	solid := fillHoles(m, width, height)

	labels := make([]int32, width*height)
	contours := make([]Contour, 0)
	var next int32

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if !solid[i] || labels[i] != 0 {
				continue
			}
			next++
			floodFill(solid, labels, x, y, width, height, next)
			contours = append(contours, traceBoundary(labels, x, y, width, height, next))
		}
	}

	return contours
}

// fillHoles returns a foreground map in which background pixels that cannot
// reach the image border are promoted to foreground.
//
// Background is walked with 4-connectivity, the complement of the
// 8-connected foreground, so a diagonal gap in a photo outline does not let
// the outside leak in.
func fillHoles(m *Mask, width, height int) []bool {
	outside := make([]bool, width*height)
	stack := make([]Point, 0, 2*(width+height))

	push := func(x, y int) {
		i := y*width + x
		if outside[i] || m.Foreground(x, y) {
			return
		}
		outside[i] = true
		stack = append(stack, Point{X: x, Y: y})
	}

	for x := 0; x < width; x++ {
		push(x, 0)
		push(x, height-1)
	}
	for y := 0; y < height; y++ {
		push(0, y)
		push(width-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.X > 0 {
			push(p.X-1, p.Y)
		}
		if p.X < width-1 {
			push(p.X+1, p.Y)
		}
		if p.Y > 0 {
			push(p.X, p.Y-1)
		}
		if p.Y < height-1 {
			push(p.X, p.Y+1)
		}
	}

	solid := make([]bool, width*height)
	for i := range solid {
		solid[i] = !outside[i]
	}
	return solid
}

// floodFill labels the 8-connected component containing (startX, startY).
//
// Uses a stack-based approach (not recursive) to avoid stack overflow on
// large components; a full-page photo at 900px is close to a million pixels.
func floodFill(solid []bool, labels []int32, startX, startY, width, height int, label int32) {
	stack := []Point{{X: startX, Y: startY}}
	labels[startY*width+startX] = label

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := p.X+dx, p.Y+dy
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				i := ny*width + nx
				if !solid[i] || labels[i] != 0 {
					continue
				}
				labels[i] = label
				stack = append(stack, Point{X: nx, Y: ny})
			}
		}
	}
}

// moore lists the 8 neighbour offsets clockwise on screen, starting west.
var moore = [8]Point{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

func mooreIndex(d Point) int {
	for i, m := range moore {
		if m == d {
			return i
		}
	}
	return 0
}

// traceBoundary walks the outer boundary of the component labelled label
// with Moore-neighbour tracing, starting from its top-left-most pixel
// (startX, startY). The walk stops when it is about to repeat its first move.
func traceBoundary(labels []int32, startX, startY, width, height int, label int32) Contour {
	in := func(x, y int) bool {
		return x >= 0 && x < width && y >= 0 && y < height && labels[y*width+x] == label
	}

	start := Point{X: startX, Y: startY}
	// The pixel west of the start is never part of the component because
	// the start is the first one met in raster order.
	back := 0

	step := func(cur Point, back int) (Point, int, bool) {
		for i := 1; i <= 8; i++ {
			d := (back + i) % 8
			n := Point{X: cur.X + moore[d].X, Y: cur.Y + moore[d].Y}
			if in(n.X, n.Y) {
				prev := moore[(d+7)%8]
				// Express the last background pixel checked relative to n.
				rel := Point{X: cur.X + prev.X - n.X, Y: cur.Y + prev.Y - n.Y}
				return n, mooreIndex(rel), true
			}
		}
		return cur, back, false
	}

	first, firstBack, ok := step(start, back)
	if !ok {
		return Contour{start}
	}

	boundary := []Point{start}
	cur, curBack := first, firstBack
	// A closed boundary is at most a few times the component's pixel count;
	// the limit guards against a tracing bug spinning forever.
	for limit := 4 * width * height; limit > 0; limit-- {
		if cur == start {
			n, _, _ := step(cur, curBack)
			if n == first {
				break
			}
		}
		boundary = append(boundary, cur)
		cur, curBack, _ = step(cur, curBack)
	}

	return compress(boundary)
}

// compress drops boundary points that lie on a straight run between their
// neighbours, keeping only the corners of the chain.
func compress(b []Point) Contour {
	n := len(b)
	if n < 3 {
		return Contour(b)
	}
	out := make(Contour, 0, n/4+4)
	for i := 0; i < n; i++ {
		prev := b[(i+n-1)%n]
		cur := b[i]
		next := b[(i+1)%n]
		if cur.X-prev.X == next.X-cur.X && cur.Y-prev.Y == next.Y-cur.Y {
			continue
		}
		out = append(out, cur)
	}
	if len(out) == 0 {
		return Contour{b[0]}
	}
	return out
}
