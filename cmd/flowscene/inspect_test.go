package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/phanxgames/flowscene"
)

func testScene() *flowscene.Scene {
	sc := flowscene.EmptyScene()
	sc.Nodes = []flowscene.DiagramNode{{
		ID: "node-1", Label: "Start", Kind: flowscene.KindStandalone,
		Center: flowscene.Vec2{X: 50, Y: 50}, Size: flowscene.Vec2{X: 60, Y: 40},
		Fill: flowscene.ColorWhite, Stroke: flowscene.ColorBlack,
	}}
	sc.Width, sc.Height = 140, 140
	return sc
}

func TestPrintSceneJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printScene(&buf, testScene(), "json"); err != nil {
		t.Fatal(err)
	}
	var got struct {
		Nodes []struct {
			ID   string `json:"id"`
			Kind string `json:"kind"`
			Fill string `json:"fill"`
		} `json:"nodes"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if len(got.Nodes) != 1 || got.Nodes[0].ID != "node-1" || got.Nodes[0].Kind != "standalone" || got.Nodes[0].Fill != "#ffffff" {
		t.Errorf("nodes = %+v", got.Nodes)
	}
}

func TestPrintSceneYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := printScene(&buf, testScene(), "yaml"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"id: node-1", "kind: standalone", "label: Start"} {
		if !strings.Contains(out, want) {
			t.Errorf("yaml output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintSceneTable(t *testing.T) {
	var buf bytes.Buffer
	if err := printScene(&buf, testScene(), "table"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"140x140", "node-1", `"Start"`, "ID", "LENGTH"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintSceneUnknownFormat(t *testing.T) {
	if err := printScene(&bytes.Buffer{}, testScene(), "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
