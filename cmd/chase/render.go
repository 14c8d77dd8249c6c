package main

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/genesisgym/environment/genesisenv"
	"github.com/samuelfneumann/genesisgym/genesis"
	"github.com/samuelfneumann/genesisgym/internal/log"
)

func newRenderCmd(flags *rootFlags) *cobra.Command {
	var (
		out   string
		mode  string
		steps int
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Step the environment and write what each camera sees as PNGs",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if mode != "" {
				if c.RenderMode, err = genesisenv.ParseRenderMode(mode); err != nil {
					return err
				}
			}

			env, _, err := c.CreateChase(flags.seed)
			if err != nil {
				return err
			}

			// Drive straight ahead so that the scene is not at rest
			action := mat.NewVecDense(2, []float64{1, 1})
			for i := 0; i < steps; i++ {
				if _, _, err := env.Step(action); err != nil {
					return err
				}
			}

			result, err := env.Render()
			if err != nil {
				return err
			}
			outputs := result.Outputs()
			if single, ok := result.Single(); ok {
				outputs = []genesis.RenderOutput{single}
			}

			if err := os.MkdirAll(out, 0o755); err != nil {
				return err
			}
			cameras := env.Scene().Cameras()
			for i, o := range outputs {
				if err := writeOutput(out, cameras[i].Name(), o); err != nil {
					return err
				}
			}

			log.Provide().Info("rendered",
				log.String("dir", out),
				log.Int("cameras", len(outputs)),
				log.Int("steps", steps),
				log.Stringer("render_mode", c.RenderMode))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "frames", "output directory")
	cmd.Flags().StringVarP(&mode, "mode", "m", "",
		"render mode (overrides the configuration)")
	cmd.Flags().IntVar(&steps, "steps", 0, "steps to take before rendering")
	return cmd
}

// writeOutput writes each image of o as <camera>_<kind>.png in dir
func writeOutput(dir, camera string, o genesis.RenderOutput) error {
	images := map[string]image.Image{}
	if o.RGB != nil {
		images["rgb"] = rgbImage(o.RGB)
	}
	if o.Depth != nil {
		images["depth"] = depthImage(o.Depth)
	}
	if o.Segmentation != nil {
		if o.Segmentation.Dtype() == tensor.Uint8 {
			images["seg"] = rgbImage(o.Segmentation)
		} else {
			images["seg"] = segImage(o.Segmentation)
		}
	}
	if o.Normal != nil {
		images["normal"] = rgbImage(o.Normal)
	}

	for kind, img := range images {
		path := filepath.Join(dir, fmt.Sprintf("%v_%v.png", camera, kind))
		if err := gg.SavePNG(path, img); err != nil {
			return fmt.Errorf("writeOutput: %w", err)
		}
	}
	return nil
}

// rgbImage converts an (H, W, 3) uint8 tensor into an image
func rgbImage(t *tensor.Dense) image.Image {
	shape := t.Shape()
	h, w := shape[0], shape[1]
	data := t.Data().([]uint8)

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		copy(img.Pix[4*i:4*i+3], data[3*i:3*i+3])
		img.Pix[4*i+3] = 255
	}
	return img
}

// depthImage converts an (H, W) float32 depth tensor into a grey image,
// near being bright. Pixels where nothing is seen are black.
func depthImage(t *tensor.Dense) image.Image {
	shape := t.Shape()
	h, w := shape[0], shape[1]
	data := t.Data().([]float32)

	far := 0.0
	for _, d := range data {
		if !math.IsInf(float64(d), 1) && float64(d) > far {
			far = float64(d)
		}
	}

	img := image.NewGray(image.Rect(0, 0, w, h))
	for i, d := range data {
		if math.IsInf(float64(d), 1) || far == 0 {
			continue
		}
		img.Pix[i] = uint8(255 * (1 - 0.8*float64(d)/far))
	}
	return img
}

// segImage converts an (H, W) int32 segmentation tensor into a grey
// image with one shade per entity
func segImage(t *tensor.Dense) image.Image {
	shape := t.Shape()
	h, w := shape[0], shape[1]
	data := t.Data().([]int32)

	img := image.NewGray(image.Rect(0, 0, w, h))
	for i, id := range data {
		if id < 0 {
			continue
		}
		img.SetGray(i%w, i/w, color.Gray{Y: uint8(64 + (id*48)%192)})
	}
	return img
}
