// layers.go - Netzwerk-Schichten auf Basis von gonum BLAS
// Haupttypen: Linear, Conv2d, ConvTranspose3d
// Hauptfunktionen: relu, sigmoid
//
// Alle Tensoren sind flache float32-Slices in PyTorch-Reihenfolge
// (CHW bzw. CDHW, Batch-Groesse 1). Forward allokiert eigene Puffer,
// Schichten sind nach dem Laden read-only und nebenlaeufig nutzbar.
package vae

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// ============================================================================
// Linear
// ============================================================================

// Linear ist y = W x + b mit W der Form [Out, In].
type Linear struct {
	In, Out int
	Weight  []float32
	Bias    []float32
}

// Forward berechnet die affine Abbildung eines Vektors.
func (l *Linear) Forward(x []float32) ([]float32, error) {
	if len(x) != l.In {
		return nil, fmt.Errorf("linear: input length %d, expected %d", len(x), l.In)
	}

	y := make([]float32, l.Out)
	copy(y, l.Bias)

	blas32.Gemv(blas.NoTrans, 1,
		blas32.General{Rows: l.Out, Cols: l.In, Stride: l.In, Data: l.Weight},
		blas32.Vector{N: l.In, Inc: 1, Data: x},
		1,
		blas32.Vector{N: l.Out, Inc: 1, Data: y},
	)

	return y, nil
}

// ============================================================================
// Conv2d
// ============================================================================

// Conv2d ist eine quadratische 2D-Convolution, Gewicht [Out, In, K, K].
type Conv2d struct {
	In, Out                 int
	Kernel, Stride, Padding int
	Weight                  []float32
	Bias                    []float32
}

// OutputSize gibt die raeumliche Ausgabegroesse fuer h x w zurueck.
func (c *Conv2d) OutputSize(h, w int) (int, int) {
	return (h+2*c.Padding-c.Kernel)/c.Stride + 1, (w+2*c.Padding-c.Kernel)/c.Stride + 1
}

// Forward faltet x [In, h, w] zu [Out, oh, ow] (im2col + GEMM).
func (c *Conv2d) Forward(x []float32, h, w int) ([]float32, int, int, error) {
	if len(x) != c.In*h*w {
		return nil, 0, 0, fmt.Errorf("conv2d: input length %d, expected %d", len(x), c.In*h*w)
	}

	oh, ow := c.OutputSize(h, w)
	k := c.Kernel
	rows := c.In * k * k
	n := oh * ow

	cols := make([]float32, rows*n)
	for ci := 0; ci < c.In; ci++ {
		plane := x[ci*h*w : (ci+1)*h*w]
		for ki := 0; ki < k; ki++ {
			for kj := 0; kj < k; kj++ {
				row := cols[((ci*k+ki)*k+kj)*n:]
				for oy := 0; oy < oh; oy++ {
					iy := oy*c.Stride - c.Padding + ki
					if iy < 0 || iy >= h {
						continue
					}
					for ox := 0; ox < ow; ox++ {
						ix := ox*c.Stride - c.Padding + kj
						if ix < 0 || ix >= w {
							continue
						}
						row[oy*ow+ox] = plane[iy*w+ix]
					}
				}
			}
		}
	}

	out := make([]float32, c.Out*n)
	for co := 0; co < c.Out; co++ {
		b := c.Bias[co]
		for i := co * n; i < (co+1)*n; i++ {
			out[i] = b
		}
	}

	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1,
		blas32.General{Rows: c.Out, Cols: rows, Stride: rows, Data: c.Weight},
		blas32.General{Rows: rows, Cols: n, Stride: n, Data: cols},
		1,
		blas32.General{Rows: c.Out, Cols: n, Stride: n, Data: out},
	)

	return out, oh, ow, nil
}

// ============================================================================
// ConvTranspose3d
// ============================================================================

// ConvTranspose3d ist eine transponierte 3D-Convolution mit kubischem Kernel,
// Gewicht [In, Out, K, K, K] wie bei PyTorch.
type ConvTranspose3d struct {
	In, Out                 int
	Kernel, Stride, Padding int
	Weight                  []float32
	Bias                    []float32
}

// OutputSize gibt die Kantenlaenge der Ausgabe fuer eine Eingabe-Kante n zurueck.
func (c *ConvTranspose3d) OutputSize(n int) int {
	return (n-1)*c.Stride - 2*c.Padding + c.Kernel
}

// Forward berechnet x [In, d, d, d] -> [Out, od, od, od] (GEMM + col2vol).
func (c *ConvTranspose3d) Forward(x []float32, d int) ([]float32, int, error) {
	vol := d * d * d
	if len(x) != c.In*vol {
		return nil, 0, fmt.Errorf("conv_transpose3d: input length %d, expected %d", len(x), c.In*vol)
	}

	k := c.Kernel
	k3 := k * k * k
	rows := c.Out * k3

	// cols[co,kd,kh,kw][voxel] = sum_ci W[ci,co,kd,kh,kw] * x[ci][voxel]
	cols := make([]float32, rows*vol)
	blas32.Gemm(blas.Trans, blas.NoTrans, 1,
		blas32.General{Rows: c.In, Cols: rows, Stride: rows, Data: c.Weight},
		blas32.General{Rows: c.In, Cols: vol, Stride: vol, Data: x},
		0,
		blas32.General{Rows: rows, Cols: vol, Stride: vol, Data: cols},
	)

	od := c.OutputSize(d)
	ovol := od * od * od
	out := make([]float32, c.Out*ovol)
	for co := 0; co < c.Out; co++ {
		dst := out[co*ovol : (co+1)*ovol]
		for i := range dst {
			dst[i] = c.Bias[co]
		}

		for kd := 0; kd < k; kd++ {
			for kh := 0; kh < k; kh++ {
				for kw := 0; kw < k; kw++ {
					src := cols[(co*k3+(kd*k+kh)*k+kw)*vol:]
					for id := 0; id < d; id++ {
						z := id*c.Stride - c.Padding + kd
						if z < 0 || z >= od {
							continue
						}
						for ih := 0; ih < d; ih++ {
							y := ih*c.Stride - c.Padding + kh
							if y < 0 || y >= od {
								continue
							}
							base := (z*od + y) * od
							row := src[(id*d+ih)*d:]
							for iw := 0; iw < d; iw++ {
								xo := iw*c.Stride - c.Padding + kw
								if xo < 0 || xo >= od {
									continue
								}
								dst[base+xo] += row[iw]
							}
						}
					}
				}
			}
		}
	}

	return out, od, nil
}

// ============================================================================
// Aktivierungen
// ============================================================================

// relu setzt negative Werte in-place auf 0
func relu(x []float32) {
	for i, v := range x {
		if v < 0 {
			x[i] = 0
		}
	}
}

// sigmoid bildet in-place auf (0,1) ab
func sigmoid(x []float32) {
	for i, v := range x {
		x[i] = float32(1 / (1 + math.Exp(-float64(v))))
	}
}
