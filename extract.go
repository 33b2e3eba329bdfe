package flowscene

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Extractor runs the ingestion pipeline (compile, parse, extract, build) and
// publishes results to a SceneStore. Failures keep the previous scene and
// record a one-line message on the store.
type Extractor struct {
	Store *SceneStore
	// Compiler converts non-SVG sources. Nil means sources must be SVG.
	Compiler Compiler
	// Geometry measures paths. Nil uses FlatGeometry.
	Geometry GeometryProvider
	// Rand seeds particles. Nil uses the global source.
	Rand *rand.Rand
	// Margin is passed to BuildScene.
	Margin float64
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (x *Extractor) logger() *slog.Logger {
	if x.Logger != nil {
		return x.Logger
	}
	return slog.Default()
}

// ExtractFile reads path and extracts it. Files ending in .svg are parsed
// directly; anything else goes through the Compiler.
func (x *Extractor) ExtractFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("flowscene: read source: %w", err)
		x.fail(err, err.Error())
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		return x.ExtractSVG(ctx, data)
	}
	return x.ExtractSource(ctx, data)
}

// ExtractSource compiles diagram source text and extracts the result.
func (x *Extractor) ExtractSource(ctx context.Context, source []byte) error {
	if x.Compiler == nil {
		return x.ExtractSVG(ctx, source)
	}
	svg, err := x.Compiler.Compile(ctx, source)
	if err != nil {
		var ce *CompileError
		if errors.As(err, &ce) {
			x.fail(err, ce.FirstLine())
		} else {
			x.fail(err, err.Error())
		}
		return err
	}
	return x.ExtractSVG(ctx, svg)
}

// ExtractSVG parses an SVG document, builds a scene and publishes it.
func (x *Extractor) ExtractSVG(ctx context.Context, svg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	root, err := ParseVectorTree(bytes.NewReader(svg))
	if err != nil {
		x.fail(err, err.Error())
		return err
	}
	pass := x.Store.NextPass()
	sc := BuildScene(root, BuildOptions{
		Geometry: x.Geometry,
		Rand:     x.Rand,
		Margin:   x.Margin,
		Pass:     pass,
	})
	x.Store.Publish(sc)
	x.logger().Info("flowscene: scene extracted",
		"pass", pass,
		"nodes", len(sc.Nodes),
		"edges", len(sc.Edges),
		"particles", sc.Particles.Len(),
		"elapsed", time.Since(start),
	)
	return nil
}

func (x *Extractor) fail(err error, msg string) {
	x.Store.SetError(msg)
	x.logger().Warn("flowscene: extraction failed", "error", err)
}
