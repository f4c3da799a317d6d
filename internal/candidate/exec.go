package candidate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/opentrust/otpconform/internal/protocol"
)

// ProtocolVersion is the handshake token an SDK executable must answer
// with before any probe runs.
const ProtocolVersion = "otp/1"

// Wire ops understood by SDK executables.
const (
	opHandshake         = "handshake"
	opConstructJudgment = "construct_judgment"
	opFuse              = "fuse"
	opAppendProvenance  = "append_provenance"
)

// request is one line sent to the candidate's stdin.
type request struct {
	ID     int64  `json:"id"`
	Op     string `json:"op"`
	Params any    `json:"params,omitempty"`
}

type constructParams struct {
	T               float64                `json:"T"`
	I               float64                `json:"I"`
	F               float64                `json:"F"`
	ProvenanceChain []protocol.Attestation `json:"provenance_chain"`
}

type fuseParams struct {
	Operator  string    `json:"operator"`
	Judgments []string  `json:"judgments"`
	Weights   []float64 `json:"weights,omitempty"`
}

type appendParams struct {
	Judgment string               `json:"judgment"`
	Record   protocol.Attestation `json:"record"`
}

// wireJudgment is the candidate's serialized view of a judgment plus the
// handle it assigned.
type wireJudgment struct {
	Handle          string                 `json:"handle"`
	T               float64                `json:"T"`
	I               float64                `json:"I"`
	F               float64                `json:"F"`
	ProvenanceChain []protocol.Attestation `json:"provenance_chain"`
}

// response is one line read from the candidate's stdout.
type response struct {
	ID       int64         `json:"id"`
	OK       bool          `json:"ok"`
	Protocol string        `json:"protocol,omitempty"`
	Judgment *wireJudgment `json:"judgment,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// conn speaks the line-oriented JSON protocol over a reader/writer pair.
// Calls are strictly sequential; the mutex guards against accidental
// concurrent use if categories are ever parallelized.
type conn struct {
	mu     sync.Mutex
	enc    *json.Encoder
	in     *bufio.Scanner
	out    io.WriteCloser
	nextID int64
}

func newConn(r io.Reader, w io.WriteCloser) *conn {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &conn{enc: json.NewEncoder(w), in: sc, out: w}
}

// call sends one request and waits for its response. A candidate-reported
// failure (ok=false) is returned as a *CallError carrying the raw message;
// anything else is a transport error.
func (c *conn) call(op string, params any) (*response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	req := request{ID: c.nextID, Op: op, Params: params}
	if err := c.enc.Encode(req); err != nil {
		return nil, fmt.Errorf("write %s request: %w", op, err)
	}

	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return nil, fmt.Errorf("read %s response: %w", op, err)
		}
		return nil, fmt.Errorf("read %s response: candidate closed its output", op)
	}

	var resp response
	if err := json.Unmarshal(c.in.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", op, err)
	}
	if resp.ID != req.ID {
		return nil, fmt.Errorf("%s response id %d does not match request id %d", op, resp.ID, req.ID)
	}
	if !resp.OK {
		return nil, &CallError{Message: resp.Error}
	}
	return &resp, nil
}

func (c *conn) close() error {
	return c.out.Close()
}

// lockedBuffer is the stderr capture. os/exec copies the child's stderr
// into it from a goroutine of its own, while error paths read it before
// Wait returns, so every access must hold the mutex.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// ExecCandidate drives an SDK executable over stdin/stdout. One process is
// started per run; a start or handshake failure is a LoadError that aborts
// the run before any probe executes.
type ExecCandidate struct {
	path   string
	cmd    *exec.Cmd
	conn   *conn
	stderr lockedBuffer
}

// Exec starts the SDK executable at path and performs the handshake.
func Exec(ctx context.Context, path string) (*ExecCandidate, error) {
	cmd := exec.CommandContext(ctx, path)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	c := &ExecCandidate{path: path, cmd: cmd}
	cmd.Stderr = &c.stderr

	if err := cmd.Start(); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	c.conn = newConn(stdout, stdin)

	resp, err := c.conn.call(opHandshake, nil)
	if err != nil {
		_ = c.Close()
		return nil, &LoadError{Path: path, Err: c.withStderr(fmt.Errorf("handshake: %w", err))}
	}
	if resp.Protocol != ProtocolVersion {
		_ = c.Close()
		return nil, &LoadError{
			Path: path,
			Err:  fmt.Errorf("handshake: candidate speaks %q, want %q", resp.Protocol, ProtocolVersion),
		}
	}
	return c, nil
}

// ConstructJudgment implements Candidate.
func (c *ExecCandidate) ConstructJudgment(ctx context.Context, t, i, f float64, chain []protocol.Attestation) (*Judgment, error) {
	if chain == nil {
		chain = []protocol.Attestation{}
	}
	resp, err := c.conn.call(opConstructJudgment, constructParams{T: t, I: i, F: f, ProvenanceChain: chain})
	if err != nil {
		return nil, c.classify(err)
	}
	return fromWire(resp.Judgment)
}

// Fuse implements Candidate.
func (c *ExecCandidate) Fuse(ctx context.Context, operator string, judgments []*Judgment, weights []float64) (*Judgment, error) {
	handles := make([]string, len(judgments))
	for n, j := range judgments {
		if j == nil || j.Handle == "" {
			return nil, fmt.Errorf("fuse input %d has no candidate handle", n)
		}
		handles[n] = j.Handle
	}
	resp, err := c.conn.call(opFuse, fuseParams{Operator: operator, Judgments: handles, Weights: weights})
	if err != nil {
		return nil, c.classify(err)
	}
	return fromWire(resp.Judgment)
}

// AppendProvenance implements Candidate. The candidate's error, if any, is
// the proof of immutability the engine is probing for.
func (c *ExecCandidate) AppendProvenance(ctx context.Context, j *Judgment, rec protocol.Attestation) error {
	if j == nil || j.Handle == "" {
		return fmt.Errorf("judgment has no candidate handle")
	}
	_, err := c.conn.call(opAppendProvenance, appendParams{Judgment: j.Handle, Record: rec})
	if err != nil {
		return c.classify(err)
	}
	return nil
}

// Close implements Candidate. Closing stdin signals the candidate to exit;
// a non-zero exit status on the way out is not an error.
func (c *ExecCandidate) Close() error {
	if err := c.conn.close(); err != nil {
		_ = c.cmd.Wait()
		return err
	}
	err := c.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

// classify leaves candidate-reported errors untouched and annotates
// transport errors with captured stderr.
func (c *ExecCandidate) classify(err error) error {
	if IsCallError(err) {
		return err
	}
	return c.withStderr(err)
}

func (c *ExecCandidate) withStderr(err error) error {
	tail := strings.TrimSpace(c.stderr.String())
	if tail == "" {
		return err
	}
	return fmt.Errorf("%w (stderr: %s)", err, tail)
}

// fromWire converts a candidate-reported judgment. A missing judgment in a
// successful reply is a protocol violation by the candidate.
func fromWire(w *wireJudgment) (*Judgment, error) {
	if w == nil {
		return nil, fmt.Errorf("candidate reply carries no judgment")
	}
	return &Judgment{
		Judgment: protocol.Judgment{
			T: w.T, I: w.I, F: w.F,
			ProvenanceChain: w.ProvenanceChain,
		},
		Handle: w.Handle,
	}, nil
}
