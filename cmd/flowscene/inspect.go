package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/phanxgames/flowscene"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var inspectFormat string

var inspectCmd = &cobra.Command{
	Use:   "inspect <source>",
	Short: "Print the scene extracted from a diagram",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := flowscene.NewSceneStore()
		x, cleanup, err := newExtractor(cmd.Context(), store)
		if err != nil {
			return err
		}
		defer cleanup()
		if err := x.ExtractFile(cmd.Context(), args[0]); err != nil {
			return err
		}
		return printScene(os.Stdout, store.Load(), inspectFormat)
	},
}

func printScene(w io.Writer, sc *flowscene.Scene, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(sc, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(sc); err != nil {
			return err
		}
		return enc.Close()
	case "table":
		printSceneTable(w, sc)
		return nil
	}
	return fmt.Errorf("unknown format %q (json, yaml, table)", format)
}

func printSceneTable(w io.Writer, sc *flowscene.Scene) {
	labelColor.Fprintf(w, "Surface:   %.0fx%.0f (offset %.1f,%.1f)\n", sc.Width, sc.Height, sc.Offset.X, sc.Offset.Y)
	labelColor.Fprintf(w, "Particles: %d\n\n", sc.Particles.Len())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tSHAPE\tCENTER\tSIZE\tLABEL")
	for _, n := range sc.Nodes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f,%.1f\t%.1fx%.1f\t%q\n",
			n.ID, n.Kind, n.Shape, n.Center.X, n.Center.Y, n.Size.X, n.Size.Y, n.Label)
	}
	tw.Flush()
	fmt.Fprintln(w)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tLENGTH\tDASH")
	for _, e := range sc.Edges {
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%v\n", e.ID, e.Kind, flowscene.FlattenPath(e.Path).Length(), e.Dash)
	}
	tw.Flush()
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "table", "output format: table, json or yaml")
}
