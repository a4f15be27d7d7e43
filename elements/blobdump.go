// SPDX-License-Identifier: GPL-3.0-or-later

package elements

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/clickrouter/click"
)

// BlobDump is a one-input, zero-output push sink that batches packets
// and uploads each batch as a single timestamped blob, the Go analogue
// of Click's `ToDump` (spec.md §4.6). Packets are newline-length-framed
// within the blob so a reader can split them back apart.
type BlobDump struct {
	Container  *container.Client
	BatchSize  int
	Now        func() string

	mu      sync.Mutex
	batch   [][]byte
	uploads atomic.Uint64
	dropped atomic.Uint64
}

// NewBlobDump returns a [*BlobDump] uploading batches of batchSize
// packets into container, named by now() at upload time.
func NewBlobDump(c *container.Client, batchSize int, now func() string) *BlobDump {
	if batchSize < 1 {
		batchSize = 1
	}
	return &BlobDump{Container: c, BatchSize: batchSize, Now: now}
}

var _ click.Element = (*BlobDump)(nil)
var _ click.Pusher = (*BlobDump)(nil)
var _ click.HandlerProvider = (*BlobDump)(nil)

func (e *BlobDump) ClassName() string             { return "BlobDump" }
func (e *BlobDump) PortCount() click.PortCountSpec { return click.Fixed(1, 0) }
func (e *BlobDump) Processing(click.Direction, int) click.ProcessingKind { return click.Push }

func (e *BlobDump) Configure(context.Context, []string, *click.ErrorHandler) error { return nil }

func (e *BlobDump) Initialize(context.Context, *click.ErrorHandler) error { return nil }

func (e *BlobDump) Cleanup(click.CleanupStage) {}

// Push appends p's data to the pending batch and kills p; once the
// batch reaches BatchSize it is flushed as one blob upload.
func (e *BlobDump) Push(ctx context.Context, port int, p *click.Packet) error {
	data := append([]byte(nil), p.Data()...)
	p.Kill()

	e.mu.Lock()
	e.batch = append(e.batch, data)
	full := len(e.batch) >= e.BatchSize
	var flushing [][]byte
	if full {
		flushing = e.batch
		e.batch = nil
	}
	e.mu.Unlock()

	if !full {
		return nil
	}
	return e.upload(ctx, flushing)
}

func (e *BlobDump) upload(ctx context.Context, packets [][]byte) error {
	var buf bytes.Buffer
	for _, pkt := range packets {
		fmt.Fprintf(&buf, "%d\n", len(pkt))
		buf.Write(pkt)
	}
	name := fmt.Sprintf("dump-%s.bin", e.Now())
	blob := e.Container.NewBlockBlobClient(name)
	if _, err := blob.UploadBuffer(ctx, buf.Bytes(), nil); err != nil {
		e.dropped.Add(uint64(len(packets)))
		return nil
	}
	e.uploads.Add(1)
	return nil
}

// Handlers exposes read-only "uploads" and "dropped" counters.
func (e *BlobDump) Handlers() []click.HandlerSpec {
	return []click.HandlerSpec{
		{Name: "uploads", Flags: click.HandlerRead | click.HandlerCalm, Read: func(context.Context) (string, error) {
			return strconv.FormatUint(e.uploads.Load(), 10), nil
		}},
		{Name: "dropped", Flags: click.HandlerRead | click.HandlerCalm, Read: func(context.Context) (string, error) {
			return strconv.FormatUint(e.dropped.Load(), 10), nil
		}},
	}
}
