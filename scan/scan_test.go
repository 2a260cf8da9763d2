package scan

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/panforge/pan/hwio"
	"github.com/panforge/pan/layout"
)

type levelPin struct{ level bool }

func (p *levelPin) Get() bool { return p.level }

type outPin struct{ level bool }

func (p *outPin) Set(level bool) { p.level = level }

// testBoard hands out pre-registered fake pins by name and fails lookups
// for everything else, like a real board map would.
type testBoard struct {
	inputs  map[string]*levelPin
	touch   map[string]*levelPin
	outputs map[string]*outPin
	analogs map[string]hwio.AnalogReader
}

func (b *testBoard) InputPin(name string) (hwio.InputPin, error) {
	if p, ok := b.inputs[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("no pin %s", name)
}

func (b *testBoard) TouchPin(name string) (hwio.InputPin, error) {
	if p, ok := b.touch[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("no touch pin %s", name)
}

func (b *testBoard) OutputPin(name string, level bool) (hwio.OutputPin, error) {
	if p, ok := b.outputs[name]; ok {
		p.Set(level)
		return p, nil
	}
	return nil, fmt.Errorf("no pin %s", name)
}

func (b *testBoard) Analog(name string) (hwio.AnalogReader, error) {
	if a, ok := b.analogs[name]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("no analog pin %s", name)
}

func (b *testBoard) I2C(sda, scl string) (hwio.RegisterBus, error) {
	return nil, fmt.Errorf("no i2c bus")
}

func testRegistry() *layout.Registry {
	return layout.NewRegistry([]layout.NoteEntry{
		{Name: "C", Octave: 4, Idx: "o1"},
		{Name: "E", Octave: 4, Idx: "o2"},
		{Name: "G", Octave: 4, Idx: "o3"},
	})
}

func collectLogs() (Logf, *[]string) {
	var mu sync.Mutex
	logs := &[]string{}
	return func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		*logs = append(*logs, fmt.Sprintf(format, args...))
	}, logs
}

func TestButtonsEdgeDetection(t *testing.T) {
	pin := &levelPin{level: true} // pulled up: not pressed
	board := &testBoard{inputs: map[string]*levelPin{"GP2": pin}}
	logf, _ := collectLogs()
	d := NewButtons(board, map[string]layout.PadRef{"GP2": {Note: "C4"}}, testRegistry(), logf)

	if d.Len() != 1 {
		t.Fatalf("Len() = %d", d.Len())
	}

	// No change: two consecutive scans report nothing.
	for i := 0; i < 2; i++ {
		p, r := d.Scan()
		if len(p) != 0 || len(r) != 0 {
			t.Fatalf("steady scan %d: %d pressed, %d released", i, len(p), len(r))
		}
	}

	// Press (active low) fires exactly once.
	pin.level = false
	p, r := d.Scan()
	if len(p) != 1 || len(r) != 0 {
		t.Fatalf("press edge: %d pressed, %d released", len(p), len(r))
	}
	if p[0].Note.Pitch != 60 || p[0].Velocity != DefaultVelocity {
		t.Errorf("strike = %+v", p[0])
	}
	if p, r = d.Scan(); len(p) != 0 || len(r) != 0 {
		t.Fatal("held pad reported an edge")
	}

	// Release fires exactly once.
	pin.level = true
	p, r = d.Scan()
	if len(p) != 0 || len(r) != 1 || r[0].Pitch != 60 {
		t.Fatalf("release edge: pressed=%v released=%v", p, r)
	}
	if p, r = d.Scan(); len(p) != 0 || len(r) != 0 {
		t.Fatal("idle pad reported an edge")
	}
}

func TestTouchActiveHigh(t *testing.T) {
	pin := &levelPin{level: false}
	board := &testBoard{touch: map[string]*levelPin{"GP6": pin}}
	logf, _ := collectLogs()
	d := NewTouch(board, map[string]layout.PadRef{"GP6": {Note: "E4"}}, testRegistry(), logf)

	if p, _ := d.Scan(); len(p) != 0 {
		t.Fatal("untouched pad pressed")
	}
	pin.level = true
	p, _ := d.Scan()
	if len(p) != 1 || p[0].Note.Pitch != 64 {
		t.Fatalf("touch edge: %v", p)
	}
}

func TestDroppedBindings(t *testing.T) {
	board := &testBoard{inputs: map[string]*levelPin{"GP2": {level: true}}}
	logf, logs := collectLogs()
	d := NewButtons(board, map[string]layout.PadRef{
		"GP2": {Note: "Z9"},  // unknown note
		"GP9": {Note: "C4"},  // unregistered pin
	}, testRegistry(), logf)

	if d.Len() != 0 {
		t.Errorf("Len() = %d, want 0", d.Len())
	}
	if len(*logs) != 2 {
		t.Errorf("warnings = %v, want 2", *logs)
	}
	for _, msg := range *logs {
		if !strings.Contains(msg, "dropped") {
			t.Errorf("warning %q does not mention dropping", msg)
		}
	}
}

// chAnalog serves a per-channel value table, decoding the channel from the
// select lines like the real mux wiring would.
type chAnalog struct {
	sel  []*outPin
	vals map[int]uint16
}

func (a *chAnalog) channel() int {
	ch := 0
	for i, p := range a.sel {
		if p.level {
			ch |= 1 << i
		}
	}
	return ch
}

func (a *chAnalog) ReadU16() (uint16, error) {
	return a.vals[a.channel()], nil
}

func TestMuxTouchVelocity(t *testing.T) {
	s0, s1 := &outPin{}, &outPin{}
	trigger := &levelPin{level: true}
	vals := map[int]uint16{2: 65535}
	board := &testBoard{
		inputs:  map[string]*levelPin{"GP2": trigger},
		outputs: map[string]*outPin{"S0": s0, "S1": s1},
		analogs: map[string]hwio.AnalogReader{"A0": &chAnalog{sel: []*outPin{s0, s1}, vals: vals}},
	}
	ch := 2
	hw := &layout.Hardware{
		Pins: map[string]layout.PadRef{"GP2": {Note: "C4", MuxChannel: &ch}},
		Mux:  layout.MuxConfig{SelectPins: []string{"S0", "S1"}, AnalogPin: "A0"},
	}
	logf, _ := collectLogs()
	m, err := NewMuxTouch(board, hw, testRegistry(), logf)
	if err != nil {
		t.Fatal(err)
	}

	trigger.level = false
	p, _ := m.Scan()
	if len(p) != 1 {
		t.Fatalf("pressed = %v", p)
	}
	if p[0].Velocity != 127 {
		t.Errorf("full-scale raw: velocity = %d, want 127", p[0].Velocity)
	}

	// Release, then strike again with a silent channel: minimum velocity.
	trigger.level = true
	m.Scan()
	vals[2] = 0
	trigger.level = false
	p, _ = m.Scan()
	if len(p) != 1 || p[0].Velocity != 1 {
		t.Errorf("zero raw: pressed = %+v, want velocity 1", p)
	}
}

func TestMuxTouchNoChannelUsesDefault(t *testing.T) {
	trigger := &levelPin{level: true}
	board := &testBoard{inputs: map[string]*levelPin{"GP2": trigger}}
	hw := &layout.Hardware{
		Pins: map[string]layout.PadRef{"GP2": {Note: "C4"}},
	}
	logf, _ := collectLogs()
	m, err := NewMuxTouch(board, hw, testRegistry(), logf)
	if err != nil {
		t.Fatal(err)
	}
	trigger.level = false
	p, _ := m.Scan()
	if len(p) != 1 || p[0].Velocity != DefaultVelocity {
		t.Errorf("pressed = %+v, want default velocity", p)
	}
}

// bankAnalog is chAnalog plus an enable-discipline assertion: the reading
// is only valid while this side is enabled (low) and the other disabled.
type bankAnalog struct {
	chAnalog
	own, other *outPin
	violations *int
}

func (a *bankAnalog) ReadU16() (uint16, error) {
	if a.own.level || !a.other.level {
		*a.violations++
	}
	return a.chAnalog.ReadU16()
}

func muxScanFixture(t *testing.T, threshold int) (*MuxScan, map[int]uint16, map[int]uint16, *testBoard, *int) {
	t.Helper()
	s0, s1 := &outPin{}, &outPin{}
	enA, enB := &outPin{}, &outPin{}
	valsA := map[int]uint16{}
	valsB := map[int]uint16{}
	violations := 0
	board := &testBoard{
		outputs: map[string]*outPin{"S0": s0, "S1": s1, "EA": enA, "EB": enB},
		analogs: map[string]hwio.AnalogReader{
			"AA": &bankAnalog{chAnalog{sel: []*outPin{s0, s1}, vals: valsA}, enA, enB, &violations},
			"AB": &bankAnalog{chAnalog{sel: []*outPin{s0, s1}, vals: valsB}, enB, enA, &violations},
		},
	}
	hw := &layout.Hardware{
		Pads: []layout.PadConfig{
			{Note: "C4", Mux: "a", Channel: 0},
			{Note: "E4", Mux: "b", Channel: 1},
			{Note: "G4", Mux: "a", Channel: 3},
		},
		Mux: layout.MuxConfig{
			SelectPins: []string{"S0", "S1"},
			MuxA:       layout.BankConfig{EnablePin: "EA", AnalogPin: "AA"},
			MuxB:       layout.BankConfig{EnablePin: "EB", AnalogPin: "AB"},
			Threshold:  threshold,
		},
	}
	logf, _ := collectLogs()
	m, err := NewMuxScan(board, hw, testRegistry(), logf)
	if err != nil {
		t.Fatal(err)
	}
	return m, valsA, valsB, board, &violations
}

func TestMuxScanThresholdAndVelocity(t *testing.T) {
	const threshold = 3000
	m, valsA, valsB, board, violations := muxScanFixture(t, threshold)
	if m.Len() != 3 {
		t.Fatalf("Len() = %d", m.Len())
	}

	// At the threshold exactly: inactive.
	valsA[0] = threshold
	p, r := m.Scan()
	if len(p) != 0 || len(r) != 0 {
		t.Fatalf("at threshold: pressed=%v released=%v", p, r)
	}

	// One count above: minimum velocity.
	valsA[0] = threshold + 1
	p, _ = m.Scan()
	if len(p) != 1 || p[0].Note.Pitch != 60 || p[0].Velocity != 1 {
		t.Fatalf("threshold+1: pressed = %+v, want C4 vel 1", p)
	}

	// Full scale on the other bank: velocity 127, and no repeat event
	// for the still-held C4.
	valsB[1] = 65535
	p, _ = m.Scan()
	if len(p) != 1 || p[0].Note.Pitch != 64 || p[0].Velocity != 127 {
		t.Fatalf("full scale: pressed = %+v, want E4 vel 127", p)
	}

	// Both fall silent: two releases, then steady silence.
	valsA[0] = 0
	valsB[1] = 0
	p, r = m.Scan()
	if len(p) != 0 || len(r) != 2 {
		t.Fatalf("silence: pressed=%v released=%v", p, r)
	}
	p, r = m.Scan()
	if len(p) != 0 || len(r) != 0 {
		t.Fatalf("steady silence: pressed=%v released=%v", p, r)
	}

	// The enable lines were switched exclusively during every read...
	if *violations != 0 {
		t.Errorf("%d reads happened without exclusive enable", *violations)
	}
	// ...and both muxes are disabled between passes.
	if !board.outputs["EA"].level || !board.outputs["EB"].level {
		t.Error("muxes left enabled after a scan pass")
	}
}

// flakyAnalog fails reads on the channels listed in errs.
type flakyAnalog struct {
	chAnalog
	errs map[int]error
}

func (a *flakyAnalog) ReadU16() (uint16, error) {
	if err := a.errs[a.channel()]; err != nil {
		return 0, err
	}
	return a.chAnalog.ReadU16()
}

func TestMuxScanReadFailureLogsOnce(t *testing.T) {
	s0, s1 := &outPin{}, &outPin{}
	enA, enB := &outPin{}, &outPin{}
	valsA := map[int]uint16{}
	flaky := &flakyAnalog{
		chAnalog: chAnalog{sel: []*outPin{s0, s1}, vals: valsA},
		errs:     map[int]error{0: errors.New("conversion stuck")},
	}
	board := &testBoard{
		outputs: map[string]*outPin{"S0": s0, "S1": s1, "EA": enA, "EB": enB},
		analogs: map[string]hwio.AnalogReader{
			"AA": flaky,
			"AB": &chAnalog{sel: []*outPin{s0, s1}, vals: map[int]uint16{}},
		},
	}
	hw := &layout.Hardware{
		Pads: []layout.PadConfig{
			{Note: "C4", Mux: "a", Channel: 0},
			{Note: "E4", Mux: "a", Channel: 1},
		},
		Mux: layout.MuxConfig{
			SelectPins: []string{"S0", "S1"},
			MuxA:       layout.BankConfig{EnablePin: "EA", AnalogPin: "AA"},
			MuxB:       layout.BankConfig{EnablePin: "EB", AnalogPin: "AB"},
			Threshold:  3000,
		},
	}
	logf, logs := collectLogs()
	m, err := NewMuxScan(board, hw, testRegistry(), logf)
	if err != nil {
		t.Fatal(err)
	}

	// The healthy neighbor keeps scanning while channel 0 fails.
	valsA[1] = 65535
	p, _ := m.Scan()
	if len(p) != 1 || p[0].Note.Pitch != 64 {
		t.Fatalf("pressed = %+v, want E4", p)
	}
	if len(*logs) != 1 || !strings.Contains((*logs)[0], "C4") {
		t.Fatalf("warnings = %v, want one naming C4", *logs)
	}

	// A continuing failure streak does not repeat the warning every tick.
	m.Scan()
	m.Scan()
	if len(*logs) != 1 {
		t.Fatalf("warnings after repeated failures = %v, want still 1", *logs)
	}

	// Recovery: the pad reads again and the warning is rearmed.
	delete(flaky.errs, 0)
	valsA[0] = 65535
	p, _ = m.Scan()
	if len(p) != 1 || p[0].Note.Pitch != 60 {
		t.Fatalf("pressed after recovery = %+v, want C4", p)
	}
	flaky.errs[0] = errors.New("conversion stuck again")
	_, r := m.Scan()
	if len(r) != 1 || r[0].Pitch != 60 {
		t.Fatalf("released = %v, want C4 (failed read is inactive)", r)
	}
	if len(*logs) != 2 {
		t.Fatalf("warnings = %v, want 2 after a second streak", *logs)
	}
}

func TestVelocityAboveThreshold(t *testing.T) {
	tests := []struct {
		raw       uint16
		threshold int
		want      int
	}{
		{3001, 3000, 1},
		{65535, 3000, 127},
		{34268, 3000, 64}, // midpoint of the active span
		{65535, 0, 127},
		{1, 0, 1},
	}
	for _, tt := range tests {
		if got := velocityAboveThreshold(tt.raw, tt.threshold); got != tt.want {
			t.Errorf("velocityAboveThreshold(%d, %d) = %d, want %d", tt.raw, tt.threshold, got, tt.want)
		}
	}
}

type scriptScanner struct {
	strikes  []Strike
	releases []*layout.Note
}

func (s *scriptScanner) Scan() ([]Strike, []*layout.Note) {
	p, r := s.strikes, s.releases
	s.strikes, s.releases = nil, nil
	return p, r
}

func (s *scriptScanner) Len() int { return 1 }

type recordPlayer struct {
	mu  sync.Mutex
	ons []int
	off []int
}

func (r *recordPlayer) NoteOn(pitch, velocity int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ons = append(r.ons, pitch)
}

func (r *recordPlayer) NoteOff(pitch int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.off = append(r.off, pitch)
}

func TestPump(t *testing.T) {
	reg := testRegistry()
	sc := &scriptScanner{
		strikes:  []Strike{{Note: reg.ByPitch(60), Velocity: 90}},
		releases: []*layout.Note{reg.ByPitch(64)},
	}
	player := &recordPlayer{}
	stop := make(chan struct{})
	done := make(chan struct{})
	logf, _ := collectLogs()
	go func() {
		defer close(done)
		Pump(sc, player, time.Millisecond, stop, logf)
	}()

	deadline := time.After(time.Second)
	for {
		player.mu.Lock()
		got := len(player.ons) == 1 && len(player.off) == 1
		player.mu.Unlock()
		if got {
			break
		}
		select {
		case <-deadline:
			t.Fatal("pump did not forward events")
		case <-time.After(time.Millisecond):
		}
	}
	close(stop)
	<-done

	if player.ons[0] != 60 || player.off[0] != 64 {
		t.Errorf("forwarded ons=%v offs=%v", player.ons, player.off)
	}
}
