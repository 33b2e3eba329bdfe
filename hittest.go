package flowscene

// SurfaceToScene maps surface-local coordinates into scene space by inverting
// the scene's coordinate offset.
func SurfaceToScene(offset Vec2, x, y float64) Vec2 {
	return Vec2{x - offset.X, y - offset.Y}
}

// SceneToSurface is the inverse of SurfaceToScene.
func SceneToSurface(offset Vec2, p Vec2) Vec2 {
	return p.Add(offset)
}

// HitTest returns the id of the first node, in extraction order, whose
// axis-aligned bounding box contains the surface point (x, y). Circles and
// diamonds are tested against their boxes too.
func HitTest(nodes []DiagramNode, offset Vec2, x, y float64) (string, bool) {
	p := SurfaceToScene(offset, x, y)
	for i := range nodes {
		if nodes[i].Bounds().Contains(p.X, p.Y) {
			return nodes[i].ID, true
		}
	}
	return "", false
}
