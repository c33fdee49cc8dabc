package translator

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/haakonRefsvik/VA-student-performance/engine"
	"github.com/haakonRefsvik/VA-student-performance/schema"
)

// ============================================================================
// PAYLOAD PARSER — Extracts engine events from UI payloads
// ============================================================================
// Per view kind:
//   scatter    selectedData.points[].pointIndex        → POINT_SELECTION
//   histogram  points[].binNumber (or bar pointNumber)  → BIN_SELECTION
//   boxplot    ["lower_25", …] checklist values        → BAND_SELECTION
//              selectedData.points[].customdata        → POINT_SELECTION
//   range      [lo, hi] slider value or selectedData.range.x → RANGE_SELECTION
// null, {}, [] and a selection without points are CLEAR.
// ============================================================================

// ParseSelectedData converts a raw UI payload for one view into an event.
func ParseSelectedData(viewID string, kind schema.ViewKind, raw []byte) (engine.Event, error) {
	ev := engine.Event{ViewID: viewID, Kind: engine.Clear}
	raw = bytes.TrimSpace(raw)
	if isEmptyPayload(raw) {
		return ev, nil
	}

	switch kind {
	case schema.ViewBoxPlot:
		if raw[0] == '[' {
			var bands []string
			if err := json.Unmarshal(raw, &bands); err != nil {
				return ev, errors.Wrapf(err, "view %q: band list", viewID)
			}
			ev.Kind = engine.BandSelection
			ev.Bands = bands
			return ev, nil
		}
	case schema.ViewRange:
		if raw[0] == '[' {
			var value []float64
			if err := json.Unmarshal(raw, &value); err != nil {
				return ev, errors.Wrapf(err, "view %q: slider value", viewID)
			}
			return rangeEvent(ev, value)
		}
	}

	var sd SelectedData
	if err := json.Unmarshal(raw, &sd); err != nil {
		return ev, errors.Wrapf(err, "view %q: selectedData", viewID)
	}

	switch kind {
	case schema.ViewScatter:
		rows, err := pointIndices(sd.Points)
		if err != nil {
			return ev, errors.Wrapf(err, "view %q", viewID)
		}
		return pointEvent(ev, rows), nil

	case schema.ViewHistogram:
		bins, err := binNumbers(sd.Points)
		if err != nil {
			return ev, errors.Wrapf(err, "view %q", viewID)
		}
		if len(bins) > 0 {
			ev.Kind = engine.BinSelection
			ev.Points = bins
		}
		return ev, nil

	case schema.ViewBoxPlot:
		rows, err := customRows(sd.Points)
		if err != nil {
			return ev, errors.Wrapf(err, "view %q", viewID)
		}
		return pointEvent(ev, rows), nil

	case schema.ViewRange:
		if sd.Range == nil {
			return ev, nil
		}
		return rangeEvent(ev, sd.Range.X)
	}
	return ev, errors.Errorf("view %q: unknown view kind %q", viewID, kind)
}

// ParseEvent decodes the engine's own JSON event envelope.
func ParseEvent(raw []byte) (engine.Event, error) {
	var ev engine.Event
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		return ev, errors.Wrap(err, "invalid event")
	}
	if ev.ViewID == "" {
		return ev, errors.New("invalid event: viewId is required")
	}
	ev.Kind = engine.EventKind(strings.ToUpper(string(ev.Kind)))
	switch ev.Kind {
	case engine.PointSelection, engine.BinSelection, engine.Clear, engine.RangeSelection, engine.BandSelection:
	case "":
		return ev, errors.New("invalid event: kind is required")
	default:
		return ev, errors.Errorf("invalid event: unknown kind %q", ev.Kind)
	}
	return ev, nil
}

// ReadEvents decodes newline-delimited events, skipping blank lines and
// lines starting with '#'.
func ReadEvents(r io.Reader) ([]engine.Event, error) {
	var events []engine.Event
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}
		ev, err := ParseEvent(text)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read events")
	}
	return events, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func isEmptyPayload(raw []byte) bool {
	switch string(raw) {
	case "", "null", "{}", "[]":
		return true
	}
	return false
}

func pointEvent(ev engine.Event, rows []int) engine.Event {
	if len(rows) == 0 {
		return ev
	}
	ev.Kind = engine.PointSelection
	ev.Points = rows
	return ev
}

func rangeEvent(ev engine.Event, value []float64) (engine.Event, error) {
	if len(value) != 2 {
		return ev, errors.Errorf("view %q: range needs [lo, hi], got %d values", ev.ViewID, len(value))
	}
	ev.Kind = engine.RangeSelection
	ev.Range = &engine.ValueRange{Lo: value[0], Hi: value[1]}
	return ev, nil
}

// pointIndices reads row indices from scatter points.
func pointIndices(points []SelectedPoint) ([]int, error) {
	rows := make([]int, 0, len(points))
	for i, p := range points {
		switch {
		case p.PointIndex != nil:
			rows = append(rows, *p.PointIndex)
		case p.PointNumber != nil:
			rows = append(rows, *p.PointNumber)
		default:
			return nil, errors.Errorf("point %d has neither pointIndex nor pointNumber", i)
		}
	}
	return rows, nil
}

// binNumbers reads the selected bins of a histogram. A bar trace has no
// binNumber; its pointNumber is the bin.
func binNumbers(points []SelectedPoint) ([]int, error) {
	seen := make(map[int]bool)
	for i, p := range points {
		switch {
		case p.BinNumber != nil:
			seen[*p.BinNumber] = true
		case p.PointNumber != nil:
			seen[*p.PointNumber] = true
		case p.PointIndex != nil:
			seen[*p.PointIndex] = true
		default:
			return nil, errors.Errorf("point %d has no binNumber", i)
		}
	}
	return sortedKeys(seen), nil
}

// customRows unions the row ids carried in customdata.
func customRows(points []SelectedPoint) ([]int, error) {
	seen := make(map[int]bool)
	for i, p := range points {
		if len(p.CustomData) == 0 {
			return nil, errors.Errorf("point %d carries no row id in customdata", i)
		}
		var one int
		if err := json.Unmarshal(p.CustomData, &one); err == nil {
			seen[one] = true
			continue
		}
		var many []json.RawMessage
		if err := json.Unmarshal(p.CustomData, &many); err != nil || len(many) == 0 {
			return nil, errors.Errorf("point %d: customdata is not a row id", i)
		}
		if err := json.Unmarshal(many[0], &one); err != nil {
			return nil, errors.Errorf("point %d: customdata is not a row id", i)
		}
		seen[one] = true
	}
	return sortedKeys(seen), nil
}

func sortedKeys(set map[int]bool) []int {
	if len(set) == 0 {
		return nil
	}
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
