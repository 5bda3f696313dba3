package remote

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"wavpod/internal/metrics"
	"wavpod/internal/player"
	"wavpod/internal/transport"
)

type fakeTransport struct {
	in       []byte
	out      bytes.Buffer
	writable bool
	failNext bool
	gen      uint64
}

func (f *fakeTransport) Readable() bool { return len(f.in) > 0 }
func (f *fakeTransport) Writable() bool { return f.writable }
func (f *fakeTransport) Generation() uint64 { return f.gen }

func (f *fakeTransport) ReadByte() (byte, error) {
	if len(f.in) == 0 {
		return 0, errors.New("empty")
	}
	b := f.in[0]
	f.in = f.in[1:]
	return b, nil
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	if f.failNext {
		f.failNext = false
		return 0, errors.New("tx busy")
	}
	return f.out.Write(p)
}

type names []string

func (n names) Name(i int) string { return n[i] }

func newSession(t *testing.T, tr *fakeTransport) (*Session, *player.Control) {
	t.Helper()
	lib := names{"alpha.wav", "bravo.wav", "charlie.wav"}
	st, err := player.NewState(len(lib))
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	ctrl := player.NewControl(st, nil)
	return NewSession(tr, ctrl, lib, 0), ctrl
}

func TestDecoder_Frames(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Result
		op    player.Op
	}{
		{"play release", "!B10", []Result{Pending, Pending, Pending, Command}, player.OpTogglePlay},
		{"next release", "!B20", []Result{Pending, Pending, Pending, Command}, player.OpNext},
		{"prev release", "!B30", []Result{Pending, Pending, Pending, Command}, player.OpPrev},
		{"shuffle release", "!B40", []Result{Pending, Pending, Pending, Command}, player.OpShuffle},
		{"press edge", "!B11", []Result{Pending, Pending, Pending, Ignored}, player.OpNone},
		{"unknown code", "!B90", []Result{Pending, Pending, Pending, Ignored}, player.OpNone},
		{"bad preamble", "!XY0", []Result{Pending, Dropped, Dropped, Dropped}, player.OpNone},
		{"bang twice", "!!B20", []Result{Pending, Dropped, Dropped, Dropped, Dropped}, player.OpNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Decoder
			var op player.Op
			for i, b := range []byte(tt.input) {
				res, o := d.Feed(b)
				if res != tt.want[i] {
					t.Fatalf("byte %d (%q): expected %v, got %v", i, b, tt.want[i], res)
				}
				if res == Command {
					op = o
				}
			}
			if op != tt.op {
				t.Errorf("expected op %v, got %v", tt.op, op)
			}
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	for _, op := range []player.Op{player.OpTogglePlay, player.OpNext, player.OpPrev, player.OpShuffle} {
		var d Decoder
		var res Result
		var got player.Op
		for _, b := range Encode(op) {
			res, got = d.Feed(b)
		}
		if res != Command || got != op {
			t.Errorf("Encode(%v) decoded as %v/%v", op, res, got)
		}
	}
	if Encode(player.OpNone) != nil {
		t.Error("Encode(OpNone) should be nil")
	}
}

func TestSession_PlayFrameStartsPlayback(t *testing.T) {
	tr := &fakeTransport{in: []byte("!B10")}
	s, ctrl := newSession(t, tr)

	s.Step()
	if !ctrl.State().Playing() {
		t.Error("expected playing after !B10")
	}
}

func TestSession_PressEdgeIgnored(t *testing.T) {
	tr := &fakeTransport{in: []byte("!B11")}
	s, ctrl := newSession(t, tr)

	s.Step()
	if ctrl.State().Playing() {
		t.Error("press edge must not toggle")
	}
}

func TestSession_CountsFrameOutcomes(t *testing.T) {
	ignored := metrics.RemoteFrames.WithLabelValues(Ignored.String())
	commands := metrics.RemoteFrames.WithLabelValues(Command.String())
	ops := metrics.ControlOps.WithLabelValues(player.OpNext.String(), player.SourceRemote)
	beforeIgnored := testutil.ToFloat64(ignored)
	beforeCommands := testutil.ToFloat64(commands)
	beforeOps := testutil.ToFloat64(ops)

	tr := &fakeTransport{in: []byte("!B21!B20")}
	s, _ := newSession(t, tr)
	s.Step()
	s.Step()

	if got := testutil.ToFloat64(ignored) - beforeIgnored; got != 1 {
		t.Errorf("expected 1 ignored frame, got %v", got)
	}
	if got := testutil.ToFloat64(commands) - beforeCommands; got != 1 {
		t.Errorf("expected 1 command frame, got %v", got)
	}
	if got := testutil.ToFloat64(ops) - beforeOps; got != 1 {
		t.Errorf("expected 1 remote next op, got %v", got)
	}
}

func TestSession_NextFrameAdvancesOnce(t *testing.T) {
	tr := &fakeTransport{in: []byte("!B20")}
	s, ctrl := newSession(t, tr)

	s.Step()
	s.Step()
	if got := ctrl.State().Current(); got != 1 {
		t.Errorf("expected track 1, got %d", got)
	}
}

func TestSession_MalformedFrameNoChange(t *testing.T) {
	tr := &fakeTransport{in: []byte("!XY0")}
	s, ctrl := newSession(t, tr)

	s.Step()
	if ctrl.State().Current() != 0 || ctrl.State().Playing() {
		t.Error("malformed frame changed state")
	}
	if len(tr.in) != 0 {
		t.Errorf("expected garbage consumed, %d bytes left", len(tr.in))
	}
}

func TestSession_OneFramePerPoll(t *testing.T) {
	tr := &fakeTransport{in: []byte("!B20!B20")}
	s, ctrl := newSession(t, tr)

	s.Step()
	if got := ctrl.State().Current(); got != 1 {
		t.Fatalf("after first poll expected 1, got %d", got)
	}
	s.Step()
	if got := ctrl.State().Current(); got != 2 {
		t.Errorf("after second poll expected 2, got %d", got)
	}
}

func TestSession_SplitFrameResumes(t *testing.T) {
	tr := &fakeTransport{in: []byte("!B")}
	s, ctrl := newSession(t, tr)

	s.Step()
	if ctrl.State().Current() != 0 {
		t.Fatal("half a frame must not act")
	}
	tr.in = append(tr.in, '2', '0')
	s.Step()
	if got := ctrl.State().Current(); got != 1 {
		t.Errorf("expected resumed frame to advance, got %d", got)
	}
}

func TestSession_NewPeerDropsHalfFrame(t *testing.T) {
	tr := &fakeTransport{in: []byte("!B")}
	s, ctrl := newSession(t, tr)

	s.Step()
	tr.gen++
	tr.in = []byte("!B20")
	s.Step()
	if got := ctrl.State().Current(); got != 1 {
		t.Errorf("expected the new peer's frame to advance, got %d", got)
	}
}

func TestSession_NewPeerGetsStatus(t *testing.T) {
	tr := &fakeTransport{writable: true}
	s, _ := newSession(t, tr)

	s.Step()
	tr.out.Reset()
	tr.gen++
	s.Step()
	if got := tr.out.String(); got != "Current Song: alpha\n" {
		t.Errorf("expected status for the new peer, got %q", got)
	}
}

func readLines(c net.Conn) <-chan string {
	lines := make(chan string, 16)
	go func() {
		defer close(lines)
		r := bufio.NewReader(c)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			lines <- line
		}
	}()
	return lines
}

func TestSession_ReattachOverLink(t *testing.T) {
	link := transport.NewLink()
	defer link.Close()
	lib := names{"alpha.wav", "bravo.wav", "charlie.wav"}
	st, err := player.NewState(len(lib))
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	s := NewSession(link, player.NewControl(st, nil), lib, 0)

	a, peerA := net.Pipe()
	if err := link.Attach(a); err != nil {
		t.Fatalf("attach first: %v", err)
	}
	readLines(peerA)
	if _, err := peerA.Write([]byte("!B")); err != nil {
		t.Fatalf("first peer write: %v", err)
	}
	for i := 0; i < 5; i++ {
		s.Step()
	}
	peerA.Close()
	deadline := time.Now().Add(2 * time.Second)
	for link.Attached() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	b, peerB := net.Pipe()
	defer peerB.Close()
	if err := link.Attach(b); err != nil {
		t.Fatalf("attach second: %v", err)
	}
	lines := readLines(peerB)
	if _, err := peerB.Write([]byte("!B20")); err != nil {
		t.Fatalf("second peer write: %v", err)
	}

	deadline = time.Now().Add(2 * time.Second)
	for st.Current() != 1 && time.Now().Before(deadline) {
		s.Step()
		time.Sleep(5 * time.Millisecond)
	}
	if got := st.Current(); got != 1 {
		t.Fatalf("expected the second controller's next to land, got %d", got)
	}

	deadline = time.Now().Add(2 * time.Second)
	for {
		select {
		case line := <-lines:
			if !strings.HasPrefix(line, "Current Song: ") {
				t.Errorf("unexpected line %q", line)
			}
			return
		case <-time.After(10 * time.Millisecond):
		}
		if time.Now().After(deadline) {
			t.Fatal("second controller got no status line")
		}
		s.Step()
	}
}

func TestSession_PushesOnChangeOnly(t *testing.T) {
	tr := &fakeTransport{writable: true}
	s, ctrl := newSession(t, tr)

	s.Step()
	if got := tr.out.String(); got != "Current Song: alpha\n" {
		t.Fatalf("unexpected first push %q", got)
	}

	tr.out.Reset()
	s.Step()
	if tr.out.Len() != 0 {
		t.Errorf("expected no push without change, got %q", tr.out.String())
	}

	ctrl.Advance()
	s.Step()
	if got := tr.out.String(); got != "Current Song: bravo\n" {
		t.Errorf("unexpected push %q", got)
	}
}

func TestSession_NotWritableCoalesces(t *testing.T) {
	tr := &fakeTransport{}
	s, ctrl := newSession(t, tr)

	s.Step()
	ctrl.Advance()
	ctrl.Advance()
	s.Step()
	if tr.out.Len() != 0 {
		t.Fatal("must not write while not writable")
	}

	tr.writable = true
	s.Step()
	if got := tr.out.String(); got != "Current Song: charlie\n" {
		t.Errorf("expected only the latest track, got %q", got)
	}
}

func TestSession_FailedPushRetries(t *testing.T) {
	tr := &fakeTransport{writable: true, failNext: true}
	s, _ := newSession(t, tr)

	s.Step()
	if tr.out.Len() != 0 {
		t.Fatal("failed write should leave nothing")
	}
	s.Step()
	if got := tr.out.String(); got != "Current Song: alpha\n" {
		t.Errorf("expected retry, got %q", got)
	}
}
