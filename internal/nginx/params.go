package nginx

import "fmt"

// Params is one tunable nginx configuration. Values are immutable once
// built; the search loop hands a fresh Params to Apply every iteration.
type Params struct {
	WorkerConnections int `json:"worker_connections"`
	KeepaliveTimeout  int `json:"keepalive_timeout"`
	UpstreamKeepalive int `json:"upstream_keepalive"`
}

// DefaultParams matches the values shipped in the stock nginx.conf.
func DefaultParams() Params {
	return Params{
		WorkerConnections: 1024,
		KeepaliveTimeout:  65,
		UpstreamKeepalive: 32,
	}
}

func (p Params) String() string {
	return fmt.Sprintf("worker_connections=%d, keepalive_timeout=%d, upstream_keepalive=%d",
		p.WorkerConnections, p.KeepaliveTimeout, p.UpstreamKeepalive)
}

// Axis bounds for the search grid. The first four points of each axis
// are hand-picked; wider grids interpolate across the same range.
var (
	workerConnValues = [4]int{512, 1024, 1536, 2048}
	keepaliveValues  = [4]int{30, 60, 90, 120}
	upstreamValues   = [4]int{16, 32, 48, 64}
)

// GenerateGrid returns the full cross product of the three parameter
// axes, each sampled at gridSize points. Result length is gridSize^3.
func GenerateGrid(gridSize int) []Params {
	if gridSize < 1 {
		return nil
	}

	wc := axisValues(workerConnValues, gridSize)
	kt := axisValues(keepaliveValues, gridSize)
	uk := axisValues(upstreamValues, gridSize)

	grid := make([]Params, 0, gridSize*gridSize*gridSize)
	for _, w := range wc {
		for _, k := range kt {
			for _, u := range uk {
				grid = append(grid, Params{
					WorkerConnections: w,
					KeepaliveTimeout:  k,
					UpstreamKeepalive: u,
				})
			}
		}
	}
	return grid
}

func axisValues(fixed [4]int, gridSize int) []int {
	if gridSize <= len(fixed) {
		return fixed[:gridSize]
	}

	// Evenly spaced across the axis range for wider grids.
	lo, hi := float64(fixed[0]), float64(fixed[len(fixed)-1])
	vals := make([]int, gridSize)
	for i := 0; i < gridSize; i++ {
		vals[i] = int(lo + float64(i)*(hi-lo)/float64(gridSize-1))
	}
	return vals
}
