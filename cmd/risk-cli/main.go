// risk-cli runs a single offline flood analysis over a local DEM and writes
// the flood extent as GeoJSON. Infrastructure overlay needs the server; the
// CLI covers the quick DEM-plus-sea-level workflow.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/mohammed-shakir/coastal-risk/internal/dem"
	"github.com/mohammed-shakir/coastal-risk/internal/flood"
	"github.com/mohammed-shakir/coastal-risk/internal/geom"
	"github.com/mohammed-shakir/coastal-risk/internal/logger"
	"github.com/mohammed-shakir/coastal-risk/internal/seawall"
	"github.com/mohammed-shakir/coastal-risk/internal/vectorize"
)

func main() {
	os.Exit(run())
}

func run() int {
	demPath := flag.String("dem", "", "path to an ESRI ASCII grid (.asc) DEM")
	seaLevel := flag.Float64("sea-level", 0, "sea level in DEM units")
	model := flag.String("model", "connected", "flood model: connected or bathtub")
	out := flag.String("out", "", "output GeoJSON path (stdout when empty)")
	wallArg := flag.String("wall", "", "optional sea wall polyline: \"x1,y1;x2,y2;...\"")
	wallHeight := flag.Float64("wall-height", 0, "sea wall crest height in DEM units")
	flag.Parse()

	log := logger.Build(logger.Config{Level: "info", Console: true, Component: "risk-cli"}, os.Stderr)

	if *demPath == "" {
		fmt.Fprintln(os.Stderr, "usage: risk-cli -dem <file.asc> -sea-level <m> [-model connected|bathtub] [-out flood.geojson]")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, err := dem.LoadASC(*demPath)
	if err != nil {
		log.Error().Err(err).Msg("loading DEM failed")
		return 1
	}
	log.Info().Int("rows", g.Rows()).Int("cols", g.Cols()).Msg("DEM loaded")

	if *wallArg != "" {
		wall, err := parseWall(*wallArg)
		if err != nil {
			log.Error().Err(err).Msg("invalid -wall")
			return 2
		}
		g, err = seawall.Apply(g, wall, *wallHeight)
		if err != nil {
			log.Error().Err(err).Msg("applying sea wall failed")
			return 1
		}
		log.Info().Float64("height", *wallHeight).Msg("sea wall applied")
	}

	engine, err := flood.ForModel(flood.Model(*model))
	if err != nil {
		log.Error().Err(err).Msg("invalid -model")
		return 2
	}
	mask, err := engine.ComputeFlood(ctx, g, *seaLevel)
	if err != nil {
		log.Error().Err(err).Msg("flood computation failed")
		return 1
	}
	total := g.CellCount()
	log.Info().
		Int("flooded_cells", mask.Count()).
		Int("total_cells", total).
		Float64("pct", float64(mask.Count())/float64(total)*100).
		Msg("inundation computed")

	gj, err := vectorize.Vectorize(mask, g).GeoJSON()
	if err != nil {
		log.Error().Err(err).Msg("geojson encoding failed")
		return 1
	}
	if *out == "" {
		fmt.Println(string(gj))
		return 0
	}
	if err := os.WriteFile(*out, append(json.RawMessage(gj), '\n'), 0o644); err != nil {
		log.Error().Err(err).Msg("writing output failed")
		return 1
	}
	log.Info().Str("path", *out).Msg("flood extent written")
	return 0
}

func parseWall(s string) (geom.Line, error) {
	var line geom.Line
	for _, part := range strings.Split(s, ";") {
		xy := strings.SplitN(strings.TrimSpace(part), ",", 2)
		if len(xy) != 2 {
			return nil, fmt.Errorf("bad point %q", part)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xy[0]), 64)
		if err != nil {
			return nil, err
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(xy[1]), 64)
		if err != nil {
			return nil, err
		}
		line = append(line, geom.Point{X: x, Y: y})
	}
	return line, nil
}
