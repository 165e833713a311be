// Package ble implements the print driver for Bluetooth Low-Energy thermal
// printers speaking the TSPL raster protocol (Munbyn/Beeprt RW402B class).
// The bitmap is encoded as one TSPL program and written to a GATT
// characteristic in small sequential chunks.
package ble

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/labelpress/labelpress/internal/adapters/devcache"
	"github.com/labelpress/labelpress/internal/domain"
	"github.com/labelpress/labelpress/internal/ports"
	"github.com/labelpress/labelpress/internal/tspl"
	"github.com/labelpress/labelpress/pkg/log"
)

// Candidate write characteristics observed on RW402B hardware.
var writeCandidates = []string{
	"49535343-8841-43f4-a8d4-ecbe34729bb3", // Silabs RX (write)
	"0000fff2-0000-1000-8000-00805f9b34fb", // FFF2 (write)
}

// Name fragments that identify an RW402B-class printer when no device name
// is configured.
var knownNameFragments = []string{"rw402b", "munbyn", "beeprt"}

// Defaults for the chunked transfer. 20 bytes stays under the minimum BLE
// MTU; the inter-chunk delay keeps slow firmware from dropping writes.
const (
	DefaultChunkSize  = 20
	DefaultChunkDelay = 5 * time.Millisecond
	DefaultAckTimeout = 4 * time.Second
	DefaultScanWindow = 6 * time.Second
)

// Config parameterizes one BLE driver.
type Config struct {
	// DeviceName is the advertised name to match. Empty falls back to the
	// known RW402B name fragments.
	DeviceName string

	// Address pins the device MAC; matched against scan results before
	// names. The resolved address is also cached across jobs.
	Address string

	// ConnectWait is the pacing before connect retries.
	ConnectWait time.Duration

	ScanWindow time.Duration
	ChunkSize  int
	ChunkDelay time.Duration
	AckTimeout time.Duration

	// TSPL carries the label geometry and device tuning for the encoder.
	TSPL tspl.Options
}

// Driver sends bitmaps to a BLE thermal printer.
type Driver struct {
	cfg     Config
	adapter *bluetooth.Adapter
	cache   *devcache.Cache
	logger  log.Logger

	device    bluetooth.Device
	char      bluetooth.DeviceCharacteristic
	connected bool
}

var _ ports.Driver = (*Driver)(nil)

var (
	enableOnce sync.Once
	enableErr  error
)

// New creates a BLE driver. cache may be nil to disable identity caching.
func New(cfg Config, cache *devcache.Cache, logger log.Logger) (*Driver, error) {
	if cfg.ScanWindow <= 0 {
		cfg.ScanWindow = DefaultScanWindow
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkDelay <= 0 {
		cfg.ChunkDelay = DefaultChunkDelay
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = DefaultAckTimeout
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Driver{
		cfg:     cfg,
		adapter: bluetooth.DefaultAdapter,
		cache:   cache,
		logger:  logger,
	}, nil
}

func (d *Driver) Transport() string { return "ble" }

// Persistent is true: the GATT session survives across copies of one job.
func (d *Driver) Persistent() bool { return true }

func (d *Driver) ConnectDelay() time.Duration { return d.cfg.ConnectWait }

// Connect scans for the printer, connects, and resolves the write
// characteristic. The resolved identity is cached for the next job.
func (d *Driver) Connect(ctx context.Context) error {
	if d.connected {
		return nil
	}

	enableOnce.Do(func() { enableErr = d.adapter.Enable() })
	if enableErr != nil {
		return d.sendErr(domain.NotConnected, fmt.Errorf("enable adapter: %w", enableErr))
	}

	result, err := d.scan(ctx)
	if err != nil {
		return err
	}

	device, err := d.adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return d.sendErr(domain.NotConnected, fmt.Errorf("connect %s: %w", result.Address.String(), err))
	}

	char, err := d.resolveWriteChar(device)
	if err != nil {
		_ = device.Disconnect()
		return err
	}

	d.device = device
	d.char = char
	d.connected = true

	if d.cache != nil {
		entry := devcache.Entry{
			Address:        result.Address.String(),
			Characteristic: char.UUID().String(),
		}
		if err := d.cache.Store(d.cacheKey(), entry); err != nil {
			d.logger.Warn("device cache write failed", log.Err(err))
		}
	}

	d.logger.Info("printer connected",
		log.Str("transport", "ble"),
		log.Str("address", result.Address.String()),
		log.Str("characteristic", char.UUID().String()),
	)
	return nil
}

// Send encodes the bitmap into a TSPL program and streams it in chunks.
// A retry after failure restarts the transfer from the beginning of the
// program; the device has no resume notion.
func (d *Driver) Send(ctx context.Context, job *domain.PrintJob) error {
	if !d.connected {
		return d.sendErr(domain.NotConnected, nil)
	}

	blob, err := tspl.Encode(job.Bitmap, d.cfg.TSPL)
	if err != nil {
		return d.sendErr(domain.TransferAborted, err)
	}

	for off := 0; off < len(blob); off += d.cfg.ChunkSize {
		end := off + d.cfg.ChunkSize
		if end > len(blob) {
			end = len(blob)
		}
		if err := d.writeChunk(ctx, blob[off:end]); err != nil {
			return err
		}
		time.Sleep(d.cfg.ChunkDelay)
	}

	d.logger.Debug("tspl program transferred",
		log.Int("bytes", len(blob)),
		log.Int("chunks", (len(blob)+d.cfg.ChunkSize-1)/d.cfg.ChunkSize),
	)
	return nil
}

// Close tears down the GATT session.
func (d *Driver) Close() error {
	if !d.connected {
		return nil
	}
	d.connected = false
	return d.device.Disconnect()
}

// writeChunk writes one chunk, bounding the write by the ack timeout.
// GATT writes have no context support, so the write runs in a goroutine and
// a timeout abandons it.
func (d *Driver) writeChunk(ctx context.Context, chunk []byte) error {
	errCh := make(chan error, 1)
	go func() {
		_, err := d.char.WriteWithoutResponse(chunk)
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return d.sendErr(domain.TransferAborted, err)
		}
		return nil
	case <-time.After(d.cfg.AckTimeout):
		return d.sendErr(domain.Timeout, fmt.Errorf("no acknowledgment within %s", d.cfg.AckTimeout))
	case <-ctx.Done():
		return d.sendErr(domain.TransferAborted, ctx.Err())
	}
}

// scan finds the configured printer, preferring a pinned or cached address
// and otherwise taking the best-RSSI name match seen within the window.
func (d *Driver) scan(ctx context.Context) (bluetooth.ScanResult, error) {
	wantAddr := strings.ToLower(d.cfg.Address)
	if wantAddr == "" && d.cache != nil {
		if e, ok := d.cache.Lookup(d.cacheKey()); ok {
			wantAddr = strings.ToLower(e.Address)
		}
	}

	var (
		mu    sync.Mutex
		best  bluetooth.ScanResult
		found bool
	)

	done := make(chan error, 1)
	go func() {
		done <- d.adapter.Scan(func(a *bluetooth.Adapter, r bluetooth.ScanResult) {
			if !d.matches(r, wantAddr) {
				return
			}
			mu.Lock()
			if !found || r.RSSI > best.RSSI {
				best, found = r, true
			}
			addrMatch := wantAddr != "" && strings.ToLower(r.Address.String()) == wantAddr
			mu.Unlock()
			// A pinned address is unambiguous; stop early.
			if addrMatch {
				_ = a.StopScan()
			}
		})
	}()

	select {
	case <-ctx.Done():
		_ = d.adapter.StopScan()
		<-done
		return bluetooth.ScanResult{}, d.sendErr(domain.NotConnected, ctx.Err())
	case <-time.After(d.cfg.ScanWindow):
		_ = d.adapter.StopScan()
		if err := <-done; err != nil {
			return bluetooth.ScanResult{}, d.sendErr(domain.DeviceNotFound, err)
		}
	case err := <-done:
		if err != nil {
			return bluetooth.ScanResult{}, d.sendErr(domain.DeviceNotFound, err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if !found {
		// A stale cached address may be why nothing matched; drop it so the
		// next attempt falls back to name matching.
		if d.cache != nil && d.cfg.Address == "" && wantAddr != "" {
			_ = d.cache.Forget(d.cacheKey())
		}
		return bluetooth.ScanResult{}, d.sendErr(domain.DeviceNotFound,
			fmt.Errorf("no printer found within %s", d.cfg.ScanWindow))
	}
	return best, nil
}

func (d *Driver) matches(r bluetooth.ScanResult, wantAddr string) bool {
	if wantAddr != "" && strings.ToLower(r.Address.String()) == wantAddr {
		return true
	}
	name := strings.ToLower(r.LocalName())
	if name == "" {
		return false
	}
	if d.cfg.DeviceName != "" {
		return strings.Contains(name, strings.ToLower(d.cfg.DeviceName))
	}
	for _, frag := range knownNameFragments {
		if strings.Contains(name, frag) {
			return true
		}
	}
	return false
}

// resolveWriteChar discovers services and picks the write characteristic,
// preferring the cached uuid, then the known candidates in order.
func (d *Driver) resolveWriteChar(device bluetooth.Device) (bluetooth.DeviceCharacteristic, error) {
	var zero bluetooth.DeviceCharacteristic

	services, err := device.DiscoverServices(nil)
	if err != nil {
		return zero, d.sendErr(domain.NotConnected, fmt.Errorf("discover services: %w", err))
	}

	preferred := writeCandidates
	if d.cache != nil {
		if e, ok := d.cache.Lookup(d.cacheKey()); ok && e.Characteristic != "" {
			preferred = append([]string{e.Characteristic}, writeCandidates...)
		}
	}

	byUUID := make(map[string]bluetooth.DeviceCharacteristic)
	for _, svc := range services {
		chars, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			continue
		}
		for _, c := range chars {
			byUUID[strings.ToLower(c.UUID().String())] = c
		}
	}

	for _, uuid := range preferred {
		if c, ok := byUUID[strings.ToLower(uuid)]; ok {
			return c, nil
		}
	}
	return zero, d.sendErr(domain.NotConnected, fmt.Errorf("no writable characteristic among %d discovered", len(byUUID)))
}

func (d *Driver) cacheKey() string {
	if d.cfg.DeviceName != "" {
		return d.cfg.DeviceName
	}
	return "rw402b"
}

func (d *Driver) sendErr(kind domain.SendErrorKind, err error) *domain.SendError {
	return &domain.SendError{Kind: kind, Transport: d.Transport(), Err: err}
}

// Scan lists BLE printers visible within the window, as "address name"
// strings. Used by the printers listing command.
func Scan(ctx context.Context, window time.Duration) ([]string, error) {
	adapter := bluetooth.DefaultAdapter
	enableOnce.Do(func() { enableErr = adapter.Enable() })
	if enableErr != nil {
		return nil, fmt.Errorf("enable adapter: %w", enableErr)
	}

	var (
		mu   sync.Mutex
		seen = make(map[string]string)
	)
	done := make(chan error, 1)
	go func() {
		done <- adapter.Scan(func(a *bluetooth.Adapter, r bluetooth.ScanResult) {
			name := strings.ToLower(r.LocalName())
			for _, frag := range knownNameFragments {
				if strings.Contains(name, frag) {
					mu.Lock()
					seen[r.Address.String()] = r.LocalName()
					mu.Unlock()
				}
			}
		})
	}()

	select {
	case <-ctx.Done():
		_ = adapter.StopScan()
		<-done
		return nil, ctx.Err()
	case <-time.After(window):
		_ = adapter.StopScan()
		if err := <-done; err != nil {
			return nil, err
		}
	case err := <-done:
		if err != nil {
			return nil, err
		}
	}

	mu.Lock()
	defer mu.Unlock()
	var out []string
	for addr, name := range seen {
		out = append(out, addr+" "+name)
	}
	return out, nil
}
