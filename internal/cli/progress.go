package cli

import (
	"io"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

var spinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// progressBars draws one bar per download.
type progressBars struct {
	mu        sync.Mutex
	container *mpb.Progress
	bars      []*mpb.Bar
}

func newProgressBars(w io.Writer) *progressBars {
	return &progressBars{
		container: mpb.New(
			mpb.WithOutput(w),
			mpb.WithRefreshRate(150*time.Millisecond),
		),
	}
}

func barOptions(description string) []mpb.BarOption {
	return []mpb.BarOption{
		mpb.BarRemoveOnComplete(),
		mpb.PrependDecorators(
			decor.Spinner(spinner, decor.WCSyncSpaceR),
			decor.Name(description, decor.WCSyncSpaceR),
			decor.CountersKibiByte("%.2f/%.2f", decor.WCSyncSpace),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.EwmaSpeed(decor.SizeB1024(0), "%.2f", 30, decor.WCSyncSpace),
			decor.EwmaETA(decor.ET_STYLE_GO, 30, decor.WCSyncSpace),
		),
	}
}

// Wrap matches download.ProgressFunc. Bodies of unknown size are not drawn.
func (p *progressBars) Wrap(label string, size int64, body io.Reader) io.Reader {
	if size <= 0 {
		return body
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	bar := p.container.AddBar(size, barOptions(label)...)
	p.bars = append(p.bars, bar)
	return bar.ProxyReader(body)
}

// Wait aborts bars of interrupted downloads and waits for rendering to finish.
func (p *progressBars) Wait() {
	p.mu.Lock()
	for _, bar := range p.bars {
		if !bar.Completed() {
			bar.Abort(true)
		}
	}
	p.bars = nil
	p.mu.Unlock()
	p.container.Wait()
}
