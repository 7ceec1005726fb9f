// Package diagnostics writes human-readable reports about engine state.
package diagnostics

import (
	"fmt"
	"io"
	"math/bits"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
)

// DumpCameras writes one row per camera: its name, render target, depth, culling mask and the
// layers the mask enables. Nil cameras are listed as such.
//
// Parameters:
//   - w: the destination
//   - cameras: the cameras in render order
//
// Returns:
//   - error: the first write error
func DumpCameras(w io.Writer, cameras []camera.Camera) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCAMERA\tTARGET\tDEPTH\tMASK\tLAYERS")
	for i, cam := range cameras {
		if cam == nil {
			fmt.Fprintf(tw, "%d\t<nil>\t-\t-\t-\t-\n", i)
			continue
		}
		mask := cam.CullingMask()
		fmt.Fprintf(tw, "%d\t%s\t%s\t%g\t0x%08X\t%s\n",
			i, cam.Name(), describeTarget(cam.TargetTexture()), cam.Depth(), mask, Layers(mask))
	}
	return tw.Flush()
}

func describeTarget(s texture.Surface) string {
	if s == nil {
		return "display"
	}
	return fmt.Sprintf("%s %dx%d %s", s.Name(), s.Width(), s.Height(), texture.FormatName(s.Format()))
}

// Layers formats the layer indices a culling mask enables, e.g. "0,3,5". Full and empty masks
// read "all" and "none".
//
// Parameters:
//   - mask: the culling mask
//
// Returns:
//   - string: the layer list
func Layers(mask uint32) string {
	switch mask {
	case camera.AllLayers:
		return "all"
	case 0:
		return "none"
	}
	layers := make([]string, 0, bits.OnesCount32(mask))
	for m := mask; m != 0; m &= m - 1 {
		layers = append(layers, strconv.Itoa(bits.TrailingZeros32(m)))
	}
	return strings.Join(layers, ",")
}
