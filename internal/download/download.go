package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"modkit/internal/registry"
)

// Progress is one sample of an in-flight operation. Percent covers the
// whole install operation, not just the byte transfer: 0-10 preparing,
// 10-80 downloading, 80-100 installing. Within one operation the emitted
// percents never decrease and the last event of a success is exactly 100.
type Progress struct {
	Percent         float64
	BytesDownloaded int64
	TotalBytes      int64 // -1 when the server does not declare a length
	BytesPerSecond  float64
	ETA             time.Duration
	Status          string
}

// Func receives progress samples. It runs on whatever goroutine drives the
// operation; marshaling to a UI thread is the caller's business.
type Func func(Progress)

// Phase boundaries for mapping byte progress onto operation progress.
const (
	PercentPreparing  = 10.0
	PercentDownloaded = 80.0

	chunkSize      = 8 * 1024
	sampleInterval = 100 * time.Millisecond
)

// Downloader streams release payloads to disk.
type Downloader struct {
	httpClient *http.Client
}

// New creates a downloader. Payload transfers rely on the transport's
// default timeouts; there is no per-download deadline.
func New() *Downloader {
	return &Downloader{httpClient: &http.Client{}}
}

// Fetch streams url into dst in fixed 8 KiB chunks, reporting progress at
// most every 100 ms plus one final sample when the stream ends. The caller
// owns dst and its eventual removal.
func (d *Downloader) Fetch(ctx context.Context, url string, dst *os.File, report Func) error {
	emit := func(p Progress) {
		if report != nil {
			report(p)
		}
	}

	emit(Progress{Percent: 0, TotalBytes: -1, Status: "Preparing"})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return registry.NewEngineError(registry.ErrAssetMissing,
			fmt.Sprintf("bad download URL %s: %v", url, err))
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		if registry.IsTimeout(err) {
			return registry.NewEngineError(registry.ErrUnavailable, "download timed out")
		}
		return registry.NewEngineError(registry.ErrUnavailable,
			fmt.Sprintf("could not connect: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return registry.NewEngineError(registry.ClassifyHTTPStatus(resp.StatusCode),
			fmt.Sprintf("download returned status %d", resp.StatusCode))
	}

	total := resp.ContentLength // -1 when unknown
	emit(Progress{Percent: PercentPreparing, TotalBytes: total, Status: "Downloading"})

	var (
		written     int64
		lastSample  = time.Now()
		sampleBytes int64
		rate        float64
	)

	buf := make([]byte, chunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return registry.NewEngineError(registry.ErrFilesystem,
					fmt.Sprintf("could not write download: %v", err))
			}
			written += int64(n)

			if elapsed := time.Since(lastSample); elapsed >= sampleInterval {
				rate = float64(written-sampleBytes) / elapsed.Seconds()
				lastSample = time.Now()
				sampleBytes = written
				emit(sample(written, total, rate, "Downloading"))
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if registry.IsTimeout(readErr) || ctx.Err() != nil {
				return registry.NewEngineError(registry.ErrUnavailable, "download interrupted")
			}
			return registry.NewEngineError(registry.ErrUnavailable,
				fmt.Sprintf("download failed: %v", readErr))
		}
	}

	emit(Progress{
		Percent:         PercentDownloaded,
		BytesDownloaded: written,
		TotalBytes:      total,
		BytesPerSecond:  rate,
		Status:          "Downloaded",
	})

	return nil
}

// sample maps byte progress into the 10-80 operation window. With an
// unknown total the percent holds at the window floor so the sequence stays
// non-decreasing.
func sample(written, total int64, rate float64, status string) Progress {
	p := Progress{
		Percent:         PercentPreparing,
		BytesDownloaded: written,
		TotalBytes:      total,
		BytesPerSecond:  rate,
		Status:          status,
	}

	if total > 0 {
		fraction := float64(written) / float64(total)
		if fraction > 1 {
			fraction = 1
		}
		p.Percent = PercentPreparing + fraction*(PercentDownloaded-PercentPreparing)

		if rate > 0 && written < total {
			p.ETA = time.Duration(float64(total-written) / rate * float64(time.Second))
		}
	}

	return p
}

// HumanBytes renders a byte count for progress display.
func HumanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// HumanRate renders a transfer rate for progress display.
func HumanRate(bytesPerSecond float64) string {
	return HumanBytes(int64(bytesPerSecond)) + "/s"
}

// HumanETA renders an estimate, or a dash when there is none.
func HumanETA(eta time.Duration) string {
	if eta <= 0 {
		return "-"
	}
	return eta.Round(time.Second).String()
}
