package serial

// Public API to easy create serial device stubs to test your code.
import (
	"io"
	"strings"
	"sync"
	"time"
)

type MockRead struct {
	Line  string
	Err   error
	Delay time.Duration
}

// MockLines is shortcut for successful reads.
func MockLines(lines ...string) []MockRead {
	rs := make([]MockRead, len(lines))
	for i, l := range lines {
		rs[i] = MockRead{Line: l}
	}
	return rs
}

// MockPort replays scripted reads and records writes.
// When script is exhausted, ReadLine sleeps IdleDelay and returns Exhausted (default io.EOF).
type MockPort struct {
	sync.Mutex
	Exhausted error
	IdleDelay time.Duration
	WriteErr  error

	reads  []MockRead
	writes []string
	clears int
	closed bool
}

var _ Port = &MockPort{}

func NewMockPort(reads ...MockRead) *MockPort {
	return &MockPort{reads: reads}
}

func (m *MockPort) Push(reads ...MockRead) {
	m.Lock()
	m.reads = append(m.reads, reads...)
	m.Unlock()
}

func (m *MockPort) WriteAll(p []byte) error {
	m.Lock()
	defer m.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.writes = append(m.writes, string(p))
	return nil
}

func (m *MockPort) ReadLine(timeout time.Duration) ([]byte, error) {
	m.Lock()
	if len(m.reads) == 0 {
		err, delay := m.Exhausted, m.IdleDelay
		m.Unlock()
		if err == nil {
			err = io.EOF
		}
		time.Sleep(delay)
		return nil, err
	}
	r := m.reads[0]
	m.reads = m.reads[1:]
	m.Unlock()

	time.Sleep(r.Delay)
	if r.Err != nil {
		return []byte(r.Line), r.Err
	}
	return []byte(r.Line), nil
}

func (m *MockPort) Clear() error {
	m.Lock()
	m.clears++
	m.Unlock()
	return nil
}

func (m *MockPort) Close() error {
	m.Lock()
	m.closed = true
	m.Unlock()
	return nil
}

// Writes returns copy of everything written, one entry per WriteAll.
func (m *MockPort) Writes() []string {
	m.Lock()
	defer m.Unlock()
	return append([]string(nil), m.writes...)
}

func (m *MockPort) WritesJoined() string { return strings.Join(m.Writes(), "") }

func (m *MockPort) Clears() int {
	m.Lock()
	defer m.Unlock()
	return m.clears
}

func (m *MockPort) Closed() bool {
	m.Lock()
	defer m.Unlock()
	return m.closed
}

func (m *MockPort) Pending() int {
	m.Lock()
	defer m.Unlock()
	return len(m.reads)
}
