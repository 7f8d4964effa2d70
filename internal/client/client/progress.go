package client

import (
	"io"
	"math"
)

// progressReader reports whole-percent progress as the wrapped reader
// drains. Repeated values are suppressed so a sink only sees changes.
type progressReader struct {
	r      io.Reader
	total  int64
	sent   int64
	report ProgressFunc
	last   int
}

func newProgressReader(r io.Reader, total int64, report ProgressFunc) *progressReader {
	return &progressReader{r: r, total: total, report: report, last: -1}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.notify()
	}
	return n, err
}

func (p *progressReader) notify() {
	if p.report == nil || p.total <= 0 {
		return
	}
	pct := int(math.Round(float64(p.sent) / float64(p.total) * 100))
	if pct > 100 {
		pct = 100
	}
	if pct != p.last {
		p.last = pct
		p.report(pct)
	}
}
