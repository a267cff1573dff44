package cull

import (
	"fmt"
	"math"
	"sync"
	"testing"
)

func testFrame() Frame {
	points, lines, polygons := randomDataset(11, 200)
	return Frame{
		Bounds: &testBounds,
		Zoom:   10,
		Points: []PointLayer{
			{Name: "gps", Records: points},
			{Name: "gps-capped", Records: points, Options: []Option{WithMaxFeatures(5)}},
			{Name: "gps-indexed", Index: NewPointIndex(points)},
		},
		Lines: []LineLayer{
			{Name: "tracks", Records: lines},
			{Name: "tracks-indexed", Index: NewLineIndex(lines), Options: []Option{WithBuffer(0)}},
		},
		Polygons: []PolygonLayer{
			{Name: "areas", Records: polygons, Options: []Option{WithMinZoom(12)}},
		},
	}
}

func checkFrameResult(t *testing.T, frame Frame, result FrameResult) {
	t.Helper()

	if len(result.Points) != len(frame.Points) || len(result.Lines) != len(frame.Lines) || len(result.Polygons) != len(frame.Polygons) {
		t.Fatalf("Expected %d/%d/%d layers, got %d/%d/%d",
			len(frame.Points), len(frame.Lines), len(frame.Polygons),
			len(result.Points), len(result.Lines), len(result.Polygons))
	}

	for i, layer := range frame.Points {
		records := layer.Records
		if layer.Index != nil {
			records = layer.Index.Records()
		}
		want := pointIDs(CullPoints(records, frame.Bounds, frame.Zoom, layer.Options...))
		if got := pointIDs(result.Points[i]); !equalIDs(got, want) {
			t.Errorf("Layer %s: expected %d records, got %d", layer.Name, len(want), len(got))
		}
	}
	for i, layer := range frame.Lines {
		records := layer.Records
		if layer.Index != nil {
			records = layer.Index.Records()
		}
		want := lineIDs(CullLines(records, frame.Bounds, frame.Zoom, layer.Options...))
		if got := lineIDs(result.Lines[i]); !equalIDs(got, want) {
			t.Errorf("Layer %s: expected %d records, got %d", layer.Name, len(want), len(got))
		}
	}
	for i, layer := range frame.Polygons {
		want := polygonIDs(CullPolygons(layer.Records, frame.Bounds, frame.Zoom, layer.Options...))
		if got := polygonIDs(result.Polygons[i]); !equalIDs(got, want) {
			t.Errorf("Layer %s: expected %d records, got %d", layer.Name, len(want), len(got))
		}
	}
}

func TestCullFrameSerial(t *testing.T) {
	frame := testFrame()
	result := CullFrame(frame, FrameOptions{Parallel: false})
	checkFrameResult(t, frame, result)
}

func TestCullFrameParallel(t *testing.T) {
	frame := testFrame()
	for _, workers := range []int{0, 1, 3, 100} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			result := CullFrame(frame, FrameOptions{Parallel: true, Workers: workers})
			checkFrameResult(t, frame, result)
		})
	}
}

func TestCullFrameStats(t *testing.T) {
	frame := testFrame()
	result := CullFrame(frame, DefaultFrameOptions())

	wantNames := []string{"gps", "gps-capped", "gps-indexed", "tracks", "tracks-indexed", "areas"}
	wantKinds := []Kind{KindPoint, KindPoint, KindPoint, KindLine, KindLine, KindPolygon}
	if len(result.Stats) != len(wantNames) {
		t.Fatalf("Expected %d stats, got %d", len(wantNames), len(result.Stats))
	}
	for i, s := range result.Stats {
		if s.Name != wantNames[i] || s.Kind != wantKinds[i] {
			t.Errorf("Stats[%d]: expected %s/%v, got %s/%v", i, wantNames[i], wantKinds[i], s.Name, s.Kind)
		}
		if s.Cached {
			t.Errorf("Stats[%d]: unexpected cache hit without caches", i)
		}
	}

	if result.Stats[0].Input != len(frame.Points[0].Records) {
		t.Errorf("Expected input %d, got %d", len(frame.Points[0].Records), result.Stats[0].Input)
	}
	wantCapped := min(5, result.Stats[0].Kept)
	if result.Stats[1].Kept != wantCapped {
		t.Errorf("Expected capped layer to keep %d, got %d", wantCapped, result.Stats[1].Kept)
	}
	if result.Stats[2].Input != frame.Points[2].Index.Len() {
		t.Errorf("Expected indexed input %d, got %d", frame.Points[2].Index.Len(), result.Stats[2].Input)
	}
	if result.Stats[5].Kept != len(frame.Polygons[0].Records) {
		t.Errorf("Expected bypassed layer to keep all %d, got %d", len(frame.Polygons[0].Records), result.Stats[5].Kept)
	}
}

func TestCullFrameProgress(t *testing.T) {
	frame := testFrame()
	total := len(frame.Points) + len(frame.Lines) + len(frame.Polygons)

	for _, parallel := range []bool{false, true} {
		var mu sync.Mutex
		var calls []int
		CullFrame(frame, FrameOptions{
			Parallel: parallel,
			Workers:  2,
			Progress: func(done, n int) {
				mu.Lock()
				defer mu.Unlock()
				if n != total {
					t.Errorf("Expected total %d, got %d", total, n)
				}
				calls = append(calls, done)
			},
		})

		if len(calls) != total {
			t.Fatalf("parallel=%v: expected %d progress calls, got %d", parallel, total, len(calls))
		}
		for i, done := range calls {
			if done != i+1 {
				t.Errorf("parallel=%v: progress call %d reported %d", parallel, i, done)
			}
		}
	}
}

func TestCullFrameCaches(t *testing.T) {
	frame := testFrame()
	caches := NewFrameCaches(16)
	opts := FrameOptions{Parallel: true, Caches: caches}

	first := CullFrame(frame, opts)
	for _, s := range first.Stats {
		if s.Cached {
			t.Errorf("Layer %s: unexpected cache hit on first frame", s.Name)
		}
	}

	second := CullFrame(frame, opts)
	for _, s := range second.Stats {
		if !s.Cached {
			t.Errorf("Layer %s: expected cache hit on second frame", s.Name)
		}
	}
	checkFrameResult(t, frame, second)

	if got := caches.Points.Stats().Entries; got != 3 {
		t.Errorf("Expected 3 cached point layers, got %d", got)
	}

	// Moving the viewport misses the cache
	moved := frame
	shifted := ExpandBounds(testBounds, 5)
	moved.Bounds = &shifted
	third := CullFrame(moved, opts)
	if third.Stats[0].Cached {
		t.Error("Expected cache miss after the viewport moved")
	}
}

func TestCullFrameCachesKeepLayersApart(t *testing.T) {
	a := []PointRecord{point("a", 35, 135)}
	b := []PointRecord{point("b", 36, 136)}

	tests := []struct {
		name   string
		layers []PointLayer
	}{
		{"unnamed", []PointLayer{{Records: a}, {Records: b}}},
		{"same name", []PointLayer{{Name: "gps", Records: a}, {Name: "gps", Records: b}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := Frame{Bounds: &testBounds, Zoom: 10, Points: tt.layers}
			caches := NewFrameCaches(8)

			for i := 0; i < 2; i++ {
				result := CullFrame(frame, FrameOptions{Caches: caches})
				checkFrameResult(t, frame, result)
				for _, s := range result.Stats {
					if s.Cached {
						t.Errorf("Frame %d: layer %q should not be served from the cache", i, s.Name)
					}
				}
			}
			if got := caches.Points.Stats().Entries; got != 0 {
				t.Errorf("Expected no cached entries, got %d", got)
			}
		})
	}

	// A unique name next to the repeated ones is still cached
	frame := Frame{Bounds: &testBounds, Zoom: 10, Points: []PointLayer{
		{Name: "gps", Records: a}, {Name: "gps", Records: b}, {Name: "buoys", Records: b},
	}}
	caches := NewFrameCaches(8)
	CullFrame(frame, FrameOptions{Caches: caches})
	result := CullFrame(frame, FrameOptions{Caches: caches})
	checkFrameResult(t, frame, result)
	if !result.Stats[2].Cached {
		t.Error("Expected uniquely named layer to be cached")
	}
}

func TestCullFrameNaNZoomSkipsCache(t *testing.T) {
	frame := testFrame()
	frame.Zoom = math.NaN()
	caches := NewFrameCaches(0)

	for i := 0; i < 3; i++ {
		result := CullFrame(frame, FrameOptions{Caches: caches})
		checkFrameResult(t, frame, result)
	}
	if got := caches.Points.Stats().Entries; got != 0 {
		t.Errorf("Expected nothing cached for NaN zoom, got %d", got)
	}
}

func TestCullFrameNilBoundsSkipsCache(t *testing.T) {
	frame := testFrame()
	frame.Bounds = nil
	caches := NewFrameCaches(16)

	result := CullFrame(frame, FrameOptions{Caches: caches})
	checkFrameResult(t, frame, result)
	if got := caches.Points.Stats().Entries; got != 0 {
		t.Errorf("Expected nothing cached for nil bounds, got %d", got)
	}
}

func TestCullFrameEmpty(t *testing.T) {
	result := CullFrame(Frame{Bounds: &testBounds, Zoom: 10}, DefaultFrameOptions())
	if len(result.Stats) != 0 || len(result.Points) != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}
}
