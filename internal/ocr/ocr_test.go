package ocr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/nfse-extractor/internal/common"
)

type fakePages struct {
	pages  []string
	errs   map[int]error
	closed bool
}

func (f *fakePages) NumPages() int { return len(f.pages) }
func (f *fakePages) PageText(n int) (string, error) {
	if err := f.errs[n]; err != nil {
		return "", err
	}
	return f.pages[n-1], nil
}
func (f *fakePages) Close() error { f.closed = true; return nil }

type fakeRasterizer struct {
	mu    sync.Mutex
	calls []int
	fail  map[int]error
}

func (f *fakeRasterizer) Rasterize(_ context.Context, _ string, page int) (string, func(), error) {
	f.mu.Lock()
	f.calls = append(f.calls, page)
	f.mu.Unlock()
	if err := f.fail[page]; err != nil {
		return "", func() {}, err
	}
	return fmt.Sprintf("page-%d.png", page), func() {}, nil
}

type fakeRecognizer map[string]string

func (f fakeRecognizer) Recognize(_ context.Context, img string) (string, error) {
	text, ok := f[img]
	if !ok {
		return "", fmt.Errorf("no ocr fixture for %s", img)
	}
	return text, nil
}

func newTestAcquirer(src PageSource, r Rasterizer, rec Recognizer, opts ...Option) *Acquirer {
	base := []Option{
		WithPageOpener(func(string) (PageSource, error) { return src, nil }),
		WithPageCounter(func(string) (int, error) { return 0, errors.New("no page tree") }),
		WithRasterizer(r),
		WithRecognizer(rec),
	}
	return NewAcquirer(Config{PSM: 6, RetryBackoff: time.Millisecond}, nil, append(base, opts...)...)
}

func TestAcquireMixedPages(t *testing.T) {
	page1 := "NFS-e - NOTA FISCAL DE SERVIÇOS ELETRÔNICA Nº:2024/9918\nEmitida em: 15/07/2024"
	page2OCR := "Valor dos serviços: R$ 2.921,54\n"
	src := &fakePages{pages: []string{page1, "  \n "}}
	rast := &fakeRasterizer{}
	a := newTestAcquirer(src, rast, fakeRecognizer{"page-2.png": page2OCR})

	res := a.Acquire(context.Background(), "nota.pdf")

	require.NoError(t, res.Err)
	assert.Equal(t, page1+"\n"+page2OCR, res.Text)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, []string{SourceText, SourceOCR}, res.PageSources)
	assert.Equal(t, "mixed", res.Method())
	assert.Equal(t, []int{2}, rast.calls, "only the image-only page is rasterized")
	assert.False(t, res.Partial())
	assert.True(t, src.closed)
}

func TestAcquireSkipsFailedPage(t *testing.T) {
	src := &fakePages{pages: []string{"um", "", "três"}}
	rast := &fakeRasterizer{fail: map[int]error{2: errors.New("pdftoppm: exit status 99")}}
	a := newTestAcquirer(src, rast, fakeRecognizer{})

	res := a.Acquire(context.Background(), "nota.pdf")

	assert.NoError(t, res.Err)
	assert.Equal(t, "um\ntrês", res.Text)
	assert.Equal(t, 1, res.FailedPages)
	assert.True(t, res.Partial())
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "page 2")
}

func TestAcquireTextLayerErrorFallsBackToOCR(t *testing.T) {
	src := &fakePages{pages: []string{"ignored"}, errs: map[int]error{1: errors.New("bad font")}}
	a := newTestAcquirer(src, &fakeRasterizer{}, fakeRecognizer{"page-1.png": "texto ocr"})

	res := a.Acquire(context.Background(), "nota.pdf")

	assert.Equal(t, "texto ocr", res.Text)
	assert.Equal(t, SourceOCR, res.Method())
}

func TestAcquireUnreadableDocument(t *testing.T) {
	calls := 0
	a := NewAcquirer(Config{}, nil,
		WithPageOpener(func(string) (PageSource, error) {
			calls++
			return nil, &fs.PathError{Op: "open", Path: "x.pdf", Err: syscall.ENOENT}
		}),
		WithPageCounter(func(string) (int, error) { return 0, errors.New("no page tree") }),
	)

	res := a.Acquire(context.Background(), "x.pdf")

	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, common.ErrDocumentRead))
	assert.Empty(t, res.Text)
	assert.Equal(t, 1, calls, "permanent errors are not retried")
}

func TestAcquireRetriesTransientOpenOnce(t *testing.T) {
	calls := 0
	src := &fakePages{pages: []string{"ok"}}
	a := NewAcquirer(Config{RetryBackoff: time.Millisecond}, nil,
		WithPageOpener(func(string) (PageSource, error) {
			calls++
			if calls == 1 {
				return nil, &fs.PathError{Op: "open", Path: "x.pdf", Err: syscall.EBUSY}
			}
			return src, nil
		}),
	)

	res := a.Acquire(context.Background(), "x.pdf")

	assert.NoError(t, res.Err)
	assert.Equal(t, "ok", res.Text)
	assert.Equal(t, 2, calls)
}

func TestAcquireTransientOpenFailsTwice(t *testing.T) {
	calls := 0
	a := NewAcquirer(Config{RetryBackoff: time.Millisecond}, nil,
		WithPageOpener(func(string) (PageSource, error) {
			calls++
			return nil, &fs.PathError{Op: "open", Path: "x.pdf", Err: syscall.EAGAIN}
		}),
		WithPageCounter(func(string) (int, error) { return 0, errors.New("no page tree") }),
	)

	res := a.Acquire(context.Background(), "x.pdf")

	assert.True(t, errors.Is(res.Err, common.ErrDocumentRead))
	assert.Equal(t, 2, calls)
}

func TestAcquireOCRsEveryPageWhenTextLayerUnreadable(t *testing.T) {
	rast := &fakeRasterizer{}
	a := NewAcquirer(Config{}, nil,
		WithPageOpener(func(string) (PageSource, error) { return nil, errors.New("malformed xref") }),
		WithPageCounter(func(string) (int, error) { return 2, nil }),
		WithRasterizer(rast),
		WithRecognizer(fakeRecognizer{"page-1.png": "a", "page-2.png": "b"}),
	)

	res := a.Acquire(context.Background(), "scan.pdf")

	assert.NoError(t, res.Err)
	assert.Equal(t, "a\nb", res.Text)
	assert.Equal(t, []int{1, 2}, rast.calls)
	assert.Equal(t, SourceOCR, res.Method())
}

func TestAcquireStopsWhenContextDone(t *testing.T) {
	src := &fakePages{pages: []string{"um", "dois"}}
	a := newTestAcquirer(src, &fakeRasterizer{}, fakeRecognizer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := a.Acquire(ctx, "nota.pdf")

	assert.True(t, errors.Is(res.Err, common.ErrTimeout))
	assert.True(t, errors.Is(res.Err, context.Canceled))
	assert.Empty(t, res.Text)
	assert.True(t, res.Partial())
}

// stallingPages decodes page 1 and then hangs on page 2 until release is closed.
type stallingPages struct {
	release chan struct{}
	closed  atomic.Bool
}

func (s *stallingPages) NumPages() int { return 3 }
func (s *stallingPages) PageText(n int) (string, error) {
	if n == 1 {
		return "Número da Nota: 2024/9918", nil
	}
	<-s.release
	return "", errors.New("decoder gave up")
}
func (s *stallingPages) Close() error { s.closed.Store(true); return nil }

func TestAcquireReturnsAtDeadlineWhenDecodeStalls(t *testing.T) {
	src := &stallingPages{release: make(chan struct{})}
	a := newTestAcquirer(src, &fakeRasterizer{}, fakeRecognizer{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	res := a.Acquire(ctx, "travado.pdf")
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 2*time.Second)
	assert.True(t, errors.Is(res.Err, common.ErrTimeout))
	assert.True(t, errors.Is(res.Err, context.DeadlineExceeded))
	assert.Equal(t, "Número da Nota: 2024/9918", res.Text, "pages read before the stall are kept")
	assert.Equal(t, 1, res.Pages)
	assert.True(t, res.Partial())

	close(src.release)
	assert.Eventually(t, src.closed.Load, 2*time.Second, 10*time.Millisecond, "the stalled read still closes its source")
}

func TestAcquireMaxPages(t *testing.T) {
	src := &fakePages{pages: []string{"1", "2", "3"}}
	a := NewAcquirer(Config{MaxPages: 2}, nil, WithPageOpener(func(string) (PageSource, error) { return src, nil }))

	res := a.Acquire(context.Background(), "nota.pdf")

	assert.Equal(t, "1\n2", res.Text)
	assert.Equal(t, 2, res.Pages)
	assert.Len(t, res.Warnings, 1)
}

func TestAcquireCorruptFileOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrompido.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\nthis is not really a pdf"), 0o644))

	a := NewAcquirer(Config{}, nil)
	res := a.Acquire(context.Background(), path)

	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, common.ErrDocumentRead))
	assert.Empty(t, res.Text)
}

func TestOpenPDFPagesClosesFileWhenDecoderPanics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panico.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n"), 0o644))

	var opened *os.File
	orig := newPDFReader
	newPDFReader = func(ra io.ReaderAt, _ int64) (*pdf.Reader, error) {
		opened = ra.(*os.File)
		panic("malformed xref")
	}
	t.Cleanup(func() { newPDFReader = orig })

	src, err := openPDFPages(path)

	require.Error(t, err)
	assert.Nil(t, src)
	assert.Contains(t, err.Error(), "malformed xref")
	require.NotNil(t, opened)
	assert.ErrorIs(t, opened.Close(), os.ErrClosed, "file was already closed")
}

type recordingRunner struct {
	mu    sync.Mutex
	calls [][]string
	out   []byte
	err   error
	// onRun lets a test create the files a real binary would write.
	onRun func(name string, args []string)
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	r.mu.Unlock()
	if r.onRun != nil {
		r.onRun(name, args)
	}
	return r.out, []byte("stderr text"), r.err
}

func TestPdftoppmRasterizer(t *testing.T) {
	runner := &recordingRunner{onRun: func(_ string, args []string) {
		prefix := args[len(args)-1]
		_ = os.WriteFile(prefix+".png", []byte("png"), 0o644)
	}}
	r := PdftoppmRasterizer{DPI: 150, runner: runner}

	img, cleanup, err := r.Rasterize(context.Background(), "/in/nota.pdf", 3)
	require.NoError(t, err)
	assert.FileExists(t, img)
	cleanup()
	assert.NoFileExists(t, img)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"pdftoppm", "-r", "150", "-png", "-f", "3", "-l", "3", "-singlefile", "/in/nota.pdf"}, runner.calls[0][:10])
}

func TestPdftoppmRasterizerNoOutput(t *testing.T) {
	r := PdftoppmRasterizer{runner: &recordingRunner{}}

	_, cleanup, err := r.Rasterize(context.Background(), "nota.pdf", 1)
	defer cleanup()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no image")
}

func TestTesseractRecognizer(t *testing.T) {
	tests := []struct {
		name     string
		rec      TesseractRecognizer
		wantArgs []string
	}{
		{
			name:     "defaults",
			rec:      TesseractRecognizer{PSM: 6},
			wantArgs: []string{"tesseract", "img.png", "stdout", "-l", "por", "--psm", "6"},
		},
		{
			name:     "custom language and tessdata",
			rec:      TesseractRecognizer{Bin: "/opt/tess", Lang: "por+eng", PSM: 11, TessdataDir: "/td"},
			wantArgs: []string{"/opt/tess", "img.png", "stdout", "-l", "por+eng", "--psm", "11", "--tessdata-dir", "/td"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &recordingRunner{out: []byte("Valor do ISS: R$ 146,08\n")}
			tt.rec.runner = runner

			text, err := tt.rec.Recognize(context.Background(), "img.png")
			require.NoError(t, err)
			assert.Equal(t, "Valor do ISS: R$ 146,08\n", text)
			assert.Equal(t, tt.wantArgs, runner.calls[0])
		})
	}
}

func TestTesseractRecognizerError(t *testing.T) {
	rec := TesseractRecognizer{runner: &recordingRunner{err: errors.New("exit status 1")}}

	_, err := rec.Recognize(context.Background(), "img.png")

	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "tesseract:"))
	assert.Contains(t, err.Error(), "stderr text")
}

func TestWithRunnerReachesDefaultBackends(t *testing.T) {
	runner := &recordingRunner{
		out: []byte("ocr"),
		onRun: func(name string, args []string) {
			if name == "pdftoppm" {
				_ = os.WriteFile(args[len(args)-1]+".png", []byte("png"), 0o644)
			}
		},
	}
	a := NewAcquirer(Config{PSM: 4}, nil,
		WithPageOpener(func(string) (PageSource, error) { return &fakePages{pages: []string{""}}, nil }),
		WithRunner(runner),
	)

	res := a.Acquire(context.Background(), "scan.pdf")

	assert.Equal(t, "ocr", res.Text)
	require.Len(t, runner.calls, 2)
	assert.Equal(t, "pdftoppm", runner.calls[0][0])
	assert.Equal(t, "tesseract", runner.calls[1][0])
	assert.Contains(t, runner.calls[1], "4")
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(&fs.PathError{Err: syscall.EINTR}))
	assert.True(t, isTransient(fmt.Errorf("read: %w", syscall.ETIMEDOUT)))
	assert.False(t, isTransient(&fs.PathError{Err: syscall.ENOENT}))
	assert.False(t, isTransient(errors.New("malformed PDF")))
}
