package adfcfg

import (
	"fmt"
	"io"
	"io/ioutil"
	"sync"

	"github.com/gosuri/uilive"
	"github.com/gosuri/uiprogress"

	"github.com/vorteil/adflib/pkg/elog"
	"github.com/vorteil/adflib/pkg/vio"
)

// View builds an elog.View backed by this Config's UseProgressBar knob:
// a real bar when it's set, a silent logger-only view otherwise. Neither
// uiprogress nor uilive turn up in any reference import of this library's
// ancestry, so this adapter is wired straight against their published
// APIs (New/AddBar/Set for uiprogress, New/Start/Stop for uilive) rather
// than an in-house pattern.
func (c Config) View(log elog.Logger) elog.View {
	if !c.UseProgressBar {
		return &flatView{Logger: log}
	}
	return &flatView{Logger: log, bars: true}
}

// flatView adapts elog.Logger into elog.View, reporting progress as a
// single flat 0..100 percentage instead of the teacher's multi-bar
// mpb.Progress container — this library only ever tracks one operation
// (a format, a copy, a scan) at a time.
type flatView struct {
	elog.Logger
	bars bool

	mu     sync.Mutex
	writer *uilive.Writer
	active int
}

func (v *flatView) NewProgress(label string, units string, total int64) elog.Progress {
	if !v.bars {
		return &nilFlatProgress{total: total}
	}

	v.mu.Lock()
	if v.active == 0 {
		v.writer = uilive.New()
		v.writer.Start()
	}
	v.active++
	v.mu.Unlock()

	prog := uiprogress.New()
	prog.Out = v.writer
	var bar *uiprogress.Bar
	if total > 0 {
		bar = prog.AddBar(int(total))
		bar.AppendCompleted()
		bar.PrependFunc(func(b *uiprogress.Bar) string {
			return fmt.Sprintf("%s (%s)", label, units)
		})
	}
	prog.Start()

	return &flatProgress{
		view:  v,
		prog:  prog,
		bar:   bar,
		total: total,
	}
}

type flatProgress struct {
	view   *flatView
	prog   *uiprogress.Progress
	bar    *uiprogress.Bar
	total  int64
	cursor int64
	done   bool
}

func (p *flatProgress) Increment(n int64) {
	p.cursor += n
	if p.bar != nil {
		_ = p.bar.Set(int(p.cursor))
	}
}

func (p *flatProgress) Finish(success bool) {
	if p.done {
		return
	}
	p.done = true
	if p.bar != nil && success {
		_ = p.bar.Set(int(p.total))
	}
	p.prog.Stop()

	p.view.mu.Lock()
	defer p.view.mu.Unlock()
	p.view.active--
	if p.view.active == 0 {
		p.view.writer.Stop()
		p.view.writer = nil
	}
}

func (p *flatProgress) Write(b []byte) (int, error) {
	n := len(b)
	p.Increment(int64(n))
	return n, nil
}

func (p *flatProgress) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekCurrent:
		abs = p.cursor + offset
	case io.SeekStart:
		abs = offset
	case io.SeekEnd:
		abs = p.total + offset
	default:
		return 0, fmt.Errorf("adfcfg: invalid whence %d", whence)
	}
	if abs > p.cursor {
		p.Increment(abs - p.cursor)
	} else {
		p.cursor = abs
	}
	return abs, nil
}

func (p *flatProgress) ProxyReader(r io.Reader) io.ReadCloser {
	rc, ok := r.(io.ReadCloser)
	if !ok {
		rc = ioutil.NopCloser(r)
	}
	return vio.LazyReadCloser(
		func() (io.Reader, error) {
			return &countingReader{r: rc, p: p}, nil
		},
		func() error {
			p.Finish(true)
			return rc.Close()
		},
	)
}

type countingReader struct {
	r io.Reader
	p *flatProgress
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	if n > 0 {
		c.p.Increment(int64(n))
	}
	return n, err
}

// nilFlatProgress is used when progress bars are disabled: it tracks a
// cursor for Seek/Write callers but draws nothing.
type nilFlatProgress struct {
	cursor int64
	total  int64
}

func (np *nilFlatProgress) Increment(n int64) { np.cursor += n }

func (np *nilFlatProgress) Finish(success bool) {}

func (np *nilFlatProgress) Write(p []byte) (int, error) {
	np.cursor += int64(len(p))
	return len(p), nil
}

func (np *nilFlatProgress) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekCurrent:
		abs = np.cursor + offset
	case io.SeekStart:
		abs = offset
	case io.SeekEnd:
		abs = np.total + offset
	default:
		return 0, fmt.Errorf("adfcfg: invalid whence %d", whence)
	}
	np.cursor = abs
	return abs, nil
}

func (np *nilFlatProgress) ProxyReader(r io.Reader) io.ReadCloser {
	if rc, ok := r.(io.ReadCloser); ok {
		return rc
	}
	return ioutil.NopCloser(r)
}
