package fetch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/atmovis/internal/grib"
)

// Client downloads GRIB2 files and their .idx inventories from the archive.
// Requests are made once; there is no retry.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	Log     logrus.FieldLogger
}

func NewClient(baseURL string, log logrus.FieldLogger) *Client {
	return &Client{HTTP: http.DefaultClient, BaseURL: baseURL, Log: log}
}

// ByteRange is an inclusive byte span. End < 0 means "to end of file".
type ByteRange struct {
	Start, End int64
}

func (b ByteRange) header() string {
	if b.End < 0 {
		return "bytes=" + strconv.FormatInt(b.Start, 10) + "-"
	}
	return "bytes=" + strconv.FormatInt(b.Start, 10) + "-" + strconv.FormatInt(b.End, 10)
}

func (c *Client) get(ctx context.Context, url string, rng *ByteRange) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if rng != nil {
		req.Header.Set("Range", rng.header())
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	want := http.StatusOK
	if rng != nil {
		want = http.StatusPartialContent
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("get %s: %w", url, fs.ErrNotExist)
	case resp.StatusCode != want:
		resp.Body.Close()
		return nil, fmt.Errorf("get %s: response status %d (%s)", url, resp.StatusCode, resp.Status)
	}
	return resp, nil
}

// Inventory reads the .idx file published next to the run's GRIB2 file.
func (c *Client) Inventory(ctx context.Context, run Run) ([]grib.Message, error) {
	url := run.URL(c.BaseURL) + ".idx"
	resp, err := c.get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	msgs, err := grib.ParseInventory(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return msgs, nil
}

// Download stores the whole GRIB2 file of run at dst.
func (c *Client) Download(ctx context.Context, run Run, dst string) (int64, error) {
	url := run.URL(c.BaseURL)
	c.Log.WithFields(logrus.Fields{"run": run.String(), "url": url}).Info("downloading")

	resp, err := c.get(ctx, url, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	f, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("download %s: %w", url, err)
	}
	return n, nil
}

// Ranges returns the byte span of each selected message within the file
// described by the full inventory. A message runs up to the next offset; the
// last one runs to end of file.
func Ranges(all, selected []grib.Message) []ByteRange {
	next := make(map[int64]int64, len(all))
	for i, m := range all {
		end := int64(-1)
		for _, n := range all[i+1:] {
			if n.Offset > m.Offset {
				end = n.Offset - 1
				break
			}
		}
		next[m.Offset] = end
	}
	out := make([]ByteRange, 0, len(selected))
	for _, m := range selected {
		out = append(out, ByteRange{Start: m.Offset, End: next[m.Offset]})
	}
	return out
}

// DownloadSubset fetches only the selected messages with ranged requests and
// concatenates them into dst, which is itself a valid GRIB2 file.
func (c *Client) DownloadSubset(ctx context.Context, run Run, all, selected []grib.Message, dst string) (int64, error) {
	url := run.URL(c.BaseURL)
	ranges := Ranges(all, selected)
	c.Log.WithFields(logrus.Fields{"run": run.String(), "url": url, "messages": len(ranges)}).Info("downloading subset")

	f, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var total int64
	for _, r := range ranges {
		r := r
		resp, err := c.get(ctx, url, &r)
		if err != nil {
			return total, err
		}
		n, err := io.Copy(f, resp.Body)
		resp.Body.Close()
		total += n
		if err != nil {
			return total, fmt.Errorf("download %s %s: %w", url, r.header(), err)
		}
	}
	return total, f.Close()
}
