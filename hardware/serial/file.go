package serial

import (
	"bufio"
	"io"
	"os"
	"time"
	"unsafe"

	"github.com/juju/errors"
	"github.com/temoto/btgate/helpers"
	"github.com/temoto/btgate/log2"
	"golang.org/x/sys/unix"
)

const (
	cBOTHER   = 0x1000
	cNCCS     = 19
	cTCSETSF2 = 0x402c542d

	lineBufferSize = 4 << 10
)

type cc_t byte
type speed_t uint32
type tcflag_t uint32
type termios2 struct {
	c_iflag  tcflag_t    // input mode flags
	c_oflag  tcflag_t    // output mode flags
	c_cflag  tcflag_t    // control mode flags
	c_lflag  tcflag_t    // local mode flags
	c_line   cc_t        // line discipline
	c_cc     [cNCCS]cc_t // control characters
	c_ispeed speed_t     // input speed
	c_ospeed speed_t     // output speed
}

// Stat receives byte counts, may be nil.
type Stat struct {
	Rx helpers.Adder
	Tx helpers.Adder
}

// FilePort is a tty device opened in raw 8N1 mode.
type FilePort struct {
	f      *os.File
	log    *log2.Log
	path   string
	reader *fdReader
	src    io.Reader
	r      *bufio.Reader
	w      io.Writer
	t2     termios2

	// bytes of unterminated line left by timed out ReadLine
	partial []byte
}

var _ Port = &FilePort{}

func Open(path string, baud int, log *log2.Log, stat Stat) (*FilePort, error) {
	f, err := os.OpenFile(path, unix.O_RDWR|unix.O_NOCTTY, 0600)
	if err != nil {
		return nil, errors.Annotatef(err, "serial open path=%s", path)
	}
	p := newFilePort(f, log, stat)
	p.path = path
	if err = io_reset_termios(f.Fd(), &p.t2, baud); err != nil {
		f.Close()
		return nil, errors.Annotatef(err, "serial termios path=%s baud=%d", path, baud)
	}
	log.Debugf("serial open path=%s baud=%d", path, baud)
	return p, nil
}

// newFilePort skips termios setup, used with pipes in tests.
func newFilePort(f *os.File, log *log2.Log, stat Stat) *FilePort {
	p := &FilePort{
		f:      f,
		log:    log,
		path:   f.Name(),
		reader: &fdReader{fd: int(f.Fd())},
		w:      helpers.NewStatWriter(f, stat.Tx),
	}
	p.src = helpers.NewStatReader(p.reader, stat.Rx)
	p.r = bufio.NewReaderSize(p.src, lineBufferSize)
	return p
}

func (p *FilePort) String() string { return p.path }

func (p *FilePort) WriteAll(b []byte) error {
	err := helpers.WriteAll(p.w, b)
	return errors.Annotatef(err, "serial write path=%s", p.path)
}

// ReadLine keeps bytes of a line cut by timeout and prepends them on next call,
// so a line straddling timeout boundary is returned whole.
func (p *FilePort) ReadLine(timeout time.Duration) ([]byte, error) {
	p.reader.deadline = time.Now().Add(timeout)
	b, err := p.r.ReadSlice('\n')
	// ReadSlice result is only valid until next read
	line := append(p.partial, b...)
	p.partial = nil
	if err == bufio.ErrBufferFull || len(line) > lineBufferSize {
		return line, errors.Errorf("serial line longer than %d path=%s", lineBufferSize, p.path)
	}
	if err != nil && IsTimeout(err) {
		p.partial = line
		return nil, err
	}
	return line, err
}

func (p *FilePort) Clear() error {
	p.r.Reset(p.src)
	p.partial = nil
	if err := ioctl(p.f.Fd(), unix.TCFLSH, unix.TCIOFLUSH); err != nil {
		return errors.Annotatef(err, "serial clear path=%s", p.path)
	}
	return nil
}

func (p *FilePort) Close() error { return p.f.Close() }

type fdReader struct {
	fd       int
	deadline time.Time
}

func (r *fdReader) Read(p []byte) (int, error) {
	if err := io_wait_read(r.fd, r.deadline); err != nil {
		return 0, err
	}
	n, err := unix.Read(r.fd, p)
	if err != nil {
		return 0, os.NewSyscallError("read", err)
	}
	if n == 0 {
		// hangup, device gone
		return 0, io.EOF
	}
	return n, nil
}

func io_wait_read(fd int, deadline time.Time) error {
	for {
		wait := time.Until(deadline)
		if wait <= 0 {
			return ErrTimeout
		}
		ms := int(wait / time.Millisecond)
		if ms == 0 {
			ms = 1
		}
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return os.NewSyscallError("poll", err)
		}
		if n > 0 {
			return nil
		}
	}
}

func ioctl(fd uintptr, op, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, op, arg)
	if errno != 0 {
		return os.NewSyscallError("SYS_IOCTL", errno)
	}
	return nil
}

// Raw mode, 8 data bits, no parity, custom baud via BOTHER.
// Flushes input and output.
func io_reset_termios(fd uintptr, t2 *termios2, baud int) error {
	if baud <= 0 {
		return errors.NotValidf("baud=%d", baud)
	}
	*t2 = termios2{
		c_iflag:  unix.IGNBRK | unix.IGNPAR,
		c_cflag:  cBOTHER | unix.CLOCAL | unix.CREAD | unix.CS8,
		c_ispeed: speed_t(baud),
		c_ospeed: speed_t(baud),
	}
	t2.c_cc[unix.VMIN] = 0
	t2.c_cc[unix.VTIME] = 0
	return ioctl(fd, uintptr(cTCSETSF2), uintptr(unsafe.Pointer(t2)))
}
