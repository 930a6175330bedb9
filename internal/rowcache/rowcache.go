// Package rowcache provides low-latency access to individual rows of a
// staged CSV upload, keyed by job id and row index, without hitting the
// object store per request.
package rowcache

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/GSA/notifications-admin-sub001/internal/storage"
	"github.com/GSA/notifications-admin-sub001/pkg/logger"
	"github.com/GSA/notifications-admin-sub001/pkg/metrics"
)

const (
	// Cached rows outlive the longest data-retention window.
	rowTTL = 8 * 24 * time.Hour

	phoneColumn = "phone number"
)

// KV is the key/value store backing the cache.
type KV interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// Downloader reads staged upload objects; satisfied by *storage.Store.
type Downloader interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

type Cache struct {
	kv      KV
	store   Downloader
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewCache(kv KV, store Downloader, logger *logger.Logger, m *metrics.Metrics) *Cache {
	return &Cache{kv: kv, store: store, logger: logger, metrics: m}
}

func headerKey(jobID string) string {
	return fmt.Sprintf("job_%s_column_headers", jobID)
}

func rowKey(jobID string, i int) string {
	return fmt.Sprintf("job_%s_row_%d", jobID, i)
}

func phoneKey(jobID string, i int) string {
	return fmt.Sprintf("job_%s_row_%d_phone_number", jobID, i)
}

// Seed parses the CSV payload into a header line and row lines and writes
// them to the cache, together with a denormalized phone-number key per row.
// Rows are written as they are parsed. Row index 0 is the first data row.
func (c *Cache) Seed(ctx context.Context, jobID, csvText string) error {
	lines := SplitLines(csvText)
	if len(lines) == 0 {
		return fmt.Errorf("empty csv payload")
	}

	header := lines[0]
	if err := c.kv.Set(ctx, headerKey(jobID), header, rowTTL); err != nil {
		return fmt.Errorf("failed to cache column headers: %w", err)
	}

	phoneIdx := columnIndex(parseLine(header), phoneColumn)
	for i, line := range lines[1:] {
		if err := c.kv.Set(ctx, rowKey(jobID, i), line, rowTTL); err != nil {
			return fmt.Errorf("failed to cache row %d: %w", i, err)
		}
		if phoneIdx < 0 {
			continue
		}
		cells := parseLine(line)
		if phoneIdx < len(cells) {
			if err := c.kv.Set(ctx, phoneKey(jobID, i), cells[phoneIdx], rowTTL); err != nil {
				return fmt.Errorf("failed to cache phone for row %d: %w", i, err)
			}
		}
	}
	return nil
}

// GetRow combines the cached header line with the cached row text into a
// column-name to value mapping. Returns found=false when either key is
// missing. Rows shorter than the header are padded with empty values; longer
// rows are truncated positionally.
func (c *Cache) GetRow(ctx context.Context, jobID string, i int) (map[string]string, bool, error) {
	header, ok, err := c.kv.Get(ctx, headerKey(jobID))
	if err != nil || !ok {
		return nil, false, err
	}
	row, ok, err := c.kv.Get(ctx, rowKey(jobID, i))
	if err != nil || !ok {
		return nil, false, err
	}

	columns := parseLine(header)
	cells := parseLine(row)
	mapping := make(map[string]string, len(columns))
	for idx, col := range columns {
		if idx < len(cells) {
			mapping[col] = cells[idx]
		} else {
			mapping[col] = ""
		}
	}
	return mapping, true, nil
}

// GetPhone returns the denormalized phone column for a row.
func (c *Cache) GetPhone(ctx context.Context, jobID string, i int) (string, bool, error) {
	return c.kv.Get(ctx, phoneKey(jobID, i))
}

// Refresh repopulates the cache for a job from its staged upload object.
// The upload id becomes the job id on submission, so the object key is
// derived directly from the job id.
func (c *Cache) Refresh(ctx context.Context, serviceID, jobID string) error {
	payload, err := c.store.Download(ctx, storage.UploadKey(serviceID, jobID))
	if err != nil {
		return err
	}
	c.metrics.CacheRefreshes.Inc()
	c.logger.Debug("refreshing row cache", "job_id", jobID)
	return c.Seed(ctx, jobID, string(payload))
}

// Row is GetRow with a transparent refresh from the object store on a miss.
func (c *Cache) Row(ctx context.Context, serviceID, jobID string, i int) (map[string]string, bool, error) {
	mapping, ok, err := c.GetRow(ctx, jobID, i)
	if err != nil || ok {
		return mapping, ok, err
	}
	c.metrics.CacheMisses.Inc()
	if err := c.Refresh(ctx, serviceID, jobID); err != nil {
		return nil, false, err
	}
	return c.GetRow(ctx, jobID, i)
}

// Phone is GetPhone with a transparent refresh on a miss.
func (c *Cache) Phone(ctx context.Context, serviceID, jobID string, i int) (string, bool, error) {
	phone, ok, err := c.GetPhone(ctx, jobID, i)
	if err != nil || ok {
		return phone, ok, err
	}
	c.metrics.CacheMisses.Inc()
	if err := c.Refresh(ctx, serviceID, jobID); err != nil {
		return "", false, err
	}
	return c.GetPhone(ctx, jobID, i)
}

// SplitLines splits a CSV payload on CRLF and drops trailing blank lines.
// Browser file pickers on some platforms append empty lines that would
// otherwise be counted as invalid rows.
func SplitLines(csvText string) []string {
	lines := strings.Split(csvText, "\r\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// parseLine splits one CSV line into cells, honoring quoting.
func parseLine(line string) []string {
	r := csv.NewReader(strings.NewReader(line))
	cells, err := r.Read()
	if err != nil {
		return []string{line}
	}
	return cells
}

func columnIndex(columns []string, name string) int {
	for i, col := range columns {
		if strings.EqualFold(strings.TrimSpace(col), name) {
			return i
		}
	}
	return -1
}
