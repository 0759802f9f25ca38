package commands

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"skull_controller/internal/console"
	"skull_controller/internal/hardware"
	"skull_controller/internal/models"
	"skull_controller/internal/repository"
	"skull_controller/internal/service"
)

type eventsStub struct {
	mu     sync.Mutex
	events []models.ControllerEvent
}

func (s *eventsStub) Append(_ context.Context, e models.ControllerEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *eventsStub) List(context.Context, time.Time, time.Time, string) ([]models.ControllerEvent, error) {
	return nil, nil
}

func (s *eventsStub) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

type failingBlobs struct {
	*repository.MemoryBlobs
}

func (failingBlobs) PutBlob(context.Context, string, []byte) error {
	return errors.New("flash worn out")
}

type rig struct {
	svc    *service.Service
	sim    *hardware.Sim
	events *eventsStub
	out    *bytes.Buffer
	sess   *console.Session
}

// newRig boots a controller over store the way the binary does.
func newRig(t *testing.T, store repository.BlobStore) *rig {
	t.Helper()
	events := &eventsStub{}
	sim := hardware.NewSim(nil)
	svc := service.NewService(&repository.Repository{Blobs: store, EventRepo: events}, service.Deps{Driver: sim})
	if _, err := svc.Calibration.LoadAll(context.Background(), false); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	tbl := console.NewTable()
	Register(tbl, svc, Options{})
	out := &bytes.Buffer{}
	return &rig{
		svc:    svc,
		sim:    sim,
		events: events,
		out:    out,
		sess:   console.NewSession(console.NewDispatcher(tbl, nil), out, console.SessionOptions{}),
	}
}

// run executes one line and returns everything written for it.
func (r *rig) run(line string) (string, console.Outcome) {
	r.out.Reset()
	outcome := r.sess.ExecLine(line)
	return r.out.String(), outcome
}

func (r *rig) mustOK(t *testing.T, line string) string {
	t.Helper()
	out, outcome := r.run(line)
	if outcome != console.OutcomeOK {
		t.Fatalf("%q: outcome %v, output %q", line, outcome, out)
	}
	return out
}

func TestSetLimit_CommitSurvivesRestart(t *testing.T) {
	store := repository.NewMemoryBlobs()

	first := newRig(t, store)
	first.mustOK(t, "setlimit rot 500 2600")
	first.mustOK(t, "setangle rot -60 60")
	first.mustOK(t, "commit")
	if keys := first.svc.Calibration.DirtyKeys(); len(keys) != 0 {
		t.Fatalf("dirty after commit: %v", keys)
	}

	second := newRig(t, store)
	rep, err := second.svc.Calibration.LoadAll(context.Background(), false)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if rep.FullReset || len(rep.Defaulted) != 0 {
		t.Fatalf("report %+v", rep)
	}
	out := second.mustOK(t, "getlimit rot")
	if out != "ROTATE duty 500..2600 angle -60..60\r\n*OK\r\n" {
		t.Fatalf("output %q", out)
	}
}

func TestSetLimit_InvertedRangeRejected(t *testing.T) {
	r := newRig(t, repository.NewMemoryBlobs())
	r.mustOK(t, "commit")

	before, _ := r.svc.Limits.Get(models.Rotate)
	out, outcome := r.run("setlimit rot 2600 500")
	if outcome != console.OutcomeFailed {
		t.Fatalf("outcome %v", outcome)
	}
	if out != "ROTATE duty range 2600..500 rejected: min must be below max\r\n*ERR\r\n" {
		t.Fatalf("output %q", out)
	}
	after, _ := r.svc.Limits.Get(models.Rotate)
	if after != before || after.Dirty {
		t.Fatalf("record changed: %+v -> %+v", before, after)
	}
}

func TestSetLimit_DecodeFailures(t *testing.T) {
	r := newRig(t, repository.NewMemoryBlobs())
	tests := []struct {
		line string
		want string
	}{
		{"setlimit rot abc 2600", `min: "abc" is not a number`},
		{"setlimit rot 500 26x0", `max: "26x0" has trailing characters`},
		{"setlimit rot 500 5000", "max: 5000 is out of range [0..4095]"},
		{"setlimit tail 500 2600", "unknown actuator 'tail'"},
		{"setangle leye 0 150", "LEYE angle range 0..150 rejected: outside 0..100"},
		{"setangle rot 0 181", "max: 181 is out of range [-180..180]"},
	}

	for _, tt := range tests {
		out, outcome := r.run(tt.line)
		if outcome != console.OutcomeFailed || !strings.HasSuffix(out, "*ERR\r\n") {
			t.Errorf("%q: outcome %v output %q", tt.line, outcome, out)
			continue
		}
		if !strings.Contains(out, tt.want) {
			t.Errorf("%q: output %q, want %q", tt.line, out, tt.want)
		}
	}
}

func TestDispatch_UnknownAndWrongArity(t *testing.T) {
	r := newRig(t, repository.NewMemoryBlobs())

	out, outcome := r.run("frobnicate")
	if outcome != console.OutcomeUnknown || out != "Unknown command 'frobnicate'.\r\n*ERR\r\n" {
		t.Fatalf("unknown: %v %q", outcome, out)
	}
	out, outcome = r.run("setAngle rot 10")
	if outcome != console.OutcomeWrongArity || out != "Wrong number of arguments for 'setAngle' command.\r\n*ERR\r\n" {
		t.Fatalf("arity: %v %q", outcome, out)
	}
}

func TestLimit_Overloads(t *testing.T) {
	r := newRig(t, repository.NewMemoryBlobs())
	r.mustOK(t, "limit jaw 900 2000")
	out := r.mustOK(t, "LIMIT jaw")
	if out != "JAW    duty 900..2000 angle 0..60 (uncommitted)\r\n*OK\r\n" {
		t.Fatalf("output %q", out)
	}
}

func TestMove_ClampsAndDrives(t *testing.T) {
	r := newRig(t, repository.NewMemoryBlobs())

	r.mustOK(t, "jaw 200")
	if out := r.mustOK(t, "getangle jaw"); out != "JAW 60\r\n*OK\r\n" {
		t.Fatalf("getangle %q", out)
	}
	if duty, ok := r.sim.Duty(models.Jaw.Channel()); !ok || duty != 2600 {
		t.Fatalf("jaw duty %d %v", duty, ok)
	}

	r.mustOK(t, "move rot -90")
	if duty, _ := r.sim.Duty(models.Rotate.Channel()); duty != 500 {
		t.Fatalf("rot duty %d", duty)
	}

	if out, outcome := r.run("move rot x"); outcome != console.OutcomeFailed || !strings.Contains(out, "angle:") {
		t.Fatalf("bad angle: %v %q", outcome, out)
	}
}

func TestComposite_DrivesEveryMember(t *testing.T) {
	r := newRig(t, repository.NewMemoryBlobs())

	r.mustOK(t, "eyes 50")
	for _, id := range []models.ActuatorID{models.LeftEye, models.RightEye} {
		if duty, ok := r.sim.Duty(id.Channel()); !ok || duty != 1550 {
			t.Errorf("%s duty %d %v", id, duty, ok)
		}
	}
	if out := r.mustOK(t, "eyes"); out != "LEYE 50\r\nREYE 50\r\n*OK\r\n" {
		t.Fatalf("eyes read %q", out)
	}
	if out, outcome := r.run("getangle nod"); outcome != console.OutcomeFailed || !strings.Contains(out, "unknown actuator 'nod'") {
		t.Fatalf("getangle composite: %v %q", outcome, out)
	}
}

func TestPreferences(t *testing.T) {
	r := newRig(t, repository.NewMemoryBlobs())
	r.mustOK(t, "commit")

	r.mustOK(t, "port 8080")
	if out := r.mustOK(t, "port"); out != "port 8080\r\n*OK\r\n" {
		t.Fatalf("port %q", out)
	}
	if out, outcome := r.run("port 0"); outcome != console.OutcomeFailed || !strings.Contains(out, "port: 0 is out of range") {
		t.Fatalf("port 0: %v %q", outcome, out)
	}

	r.mustOK(t, "pass hunter22")
	if out := r.mustOK(t, "pass"); out != "pass ********\r\n*OK\r\n" {
		t.Fatalf("pass %q", out)
	}
	if r.svc.Prefs.Get().NetworkSecret != "hunter22" {
		t.Fatal("secret not stored")
	}

	r.mustOK(t, "name Yorick")
	out := r.mustOK(t, "prefs")
	for _, want := range []string{"version 1\r\n", "name Yorick (uncommitted)\r\n", "ssid defnet\r\n", "dirty: pass name port\r\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("prefs output missing %q:\n%s", want, out)
		}
	}
}

func TestVerbose_PerSession(t *testing.T) {
	r := newRig(t, repository.NewMemoryBlobs())

	if out := r.mustOK(t, "setlimit jaw 900 2000"); out != "*OK\r\n" {
		t.Fatalf("quiet %q", out)
	}
	if out := r.mustOK(t, "verbose on"); out != "verbose on\r\n*OK\r\n" {
		t.Fatalf("verbose on %q", out)
	}
	if out := r.mustOK(t, "setlimit jaw 900 2100"); out != "JAW duty range 900..2100\r\n*OK\r\n" {
		t.Fatalf("chatty %q", out)
	}
	if out, outcome := r.run("verbose maybe"); outcome != console.OutcomeFailed || !strings.Contains(out, "expected on or off") {
		t.Fatalf("bad arg %v %q", outcome, out)
	}
}

func TestReloadAndReset(t *testing.T) {
	r := newRig(t, repository.NewMemoryBlobs())
	r.mustOK(t, "commit")

	r.mustOK(t, "setlimit jaw 900 2000")
	r.mustOK(t, "reload")
	rec, _ := r.svc.Limits.Get(models.Jaw)
	if rec != models.DefaultCalibration(models.Jaw) {
		t.Fatalf("reload kept edit: %+v", rec)
	}

	r.mustOK(t, "reset")
	keys := r.svc.Calibration.DirtyKeys()
	if len(keys) != 11 || keys[0] != service.KeyVersion {
		t.Fatalf("dirty after reset: %v", keys)
	}
}

func TestCommit_FailureKeepsDirty(t *testing.T) {
	r := newRig(t, failingBlobs{repository.NewMemoryBlobs()})

	out, outcome := r.run("commit")
	if outcome != console.OutcomeFailed || !strings.Contains(out, "flash worn out") {
		t.Fatalf("commit: %v %q", outcome, out)
	}
	if len(r.svc.Calibration.DirtyKeys()) != 11 {
		t.Fatalf("dirty keys %v", r.svc.Calibration.DirtyKeys())
	}
}

func TestCommit_NothingDirty(t *testing.T) {
	r := newRig(t, repository.NewMemoryBlobs())
	r.mustOK(t, "commit")
	r.mustOK(t, "verbose on")
	if out := r.mustOK(t, "commit"); out != "nothing to commit\r\n*OK\r\n" {
		t.Fatalf("output %q", out)
	}
}

func TestEvents_Recorded(t *testing.T) {
	r := newRig(t, repository.NewMemoryBlobs())
	r.mustOK(t, "setlimit rot 600 2400")
	r.mustOK(t, "ssid attic")
	r.mustOK(t, "commit")

	got := strings.Join(r.events.types(), ",")
	want := strings.Join([]string{models.EventReset, models.EventCalibration, models.EventPreference, models.EventCommit}, ",")
	if got != want {
		t.Fatalf("events %s, want %s", got, want)
	}
}

func TestHelp_ListsSections(t *testing.T) {
	r := newRig(t, repository.NewMemoryBlobs())
	for _, line := range []string{"help", "?", "help me please"} {
		out := r.mustOK(t, line)
		for _, want := range []string{"General:\r\n", "Preferences:\r\n", "  setlimit   setlimit <act> <min> <max>"} {
			if !strings.Contains(out, want) {
				t.Errorf("%q missing %q", line, want)
			}
		}
	}
}
