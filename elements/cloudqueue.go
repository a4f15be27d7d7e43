// SPDX-License-Identifier: GPL-3.0-or-later

package elements

import (
	"context"
	"encoding/base64"
	"strconv"
	"sync/atomic"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/clickrouter/click"
)

// CloudQueueSink is a one-input, zero-output push sink that enqueues
// every packet's payload as a message on an Azure Storage Queue, the
// cloud analogue of a ToDevice element useful for fan-out between
// router processes (spec.md §4.6).
type CloudQueueSink struct {
	Queue  *azqueue.QueueClient
	Logger click.SLogger

	sent  atomic.Uint64
	drops atomic.Uint64
}

// NewCloudQueueSink returns a [*CloudQueueSink] publishing to queue.
func NewCloudQueueSink(queue *azqueue.QueueClient, logger click.SLogger) *CloudQueueSink {
	return &CloudQueueSink{Queue: queue, Logger: logger}
}

var _ click.Element = (*CloudQueueSink)(nil)
var _ click.Pusher = (*CloudQueueSink)(nil)
var _ click.HandlerProvider = (*CloudQueueSink)(nil)

func (e *CloudQueueSink) ClassName() string             { return "CloudQueueSink" }
func (e *CloudQueueSink) PortCount() click.PortCountSpec { return click.Fixed(1, 0) }
func (e *CloudQueueSink) Processing(click.Direction, int) click.ProcessingKind {
	return click.Push
}

func (e *CloudQueueSink) Configure(context.Context, []string, *click.ErrorHandler) error {
	return nil
}

func (e *CloudQueueSink) Initialize(ctx context.Context, errh *click.ErrorHandler) error {
	if e.Logger == nil {
		e.Logger = click.NewDiscardLogger()
	}
	return nil
}

func (e *CloudQueueSink) Cleanup(click.CleanupStage) {}

// Push base64-encodes p's data (Storage Queue messages are text) and
// enqueues it, killing p either way.
func (e *CloudQueueSink) Push(ctx context.Context, port int, p *click.Packet) error {
	defer p.Kill()
	content := base64.StdEncoding.EncodeToString(p.Data())
	if _, err := e.Queue.EnqueueMessage(ctx, content, nil); err != nil {
		e.Logger.Debug("cloudQueueSinkError", "error", err.Error())
		e.drops.Add(1)
		return nil
	}
	e.sent.Add(1)
	return nil
}

// Handlers exposes read-only "sent" and "drops" counters.
func (e *CloudQueueSink) Handlers() []click.HandlerSpec {
	return []click.HandlerSpec{
		{Name: "sent", Flags: click.HandlerRead | click.HandlerCalm, Read: func(context.Context) (string, error) {
			return strconv.FormatUint(e.sent.Load(), 10), nil
		}},
		{Name: "drops", Flags: click.HandlerRead | click.HandlerCalm, Read: func(context.Context) (string, error) {
			return strconv.FormatUint(e.drops.Load(), 10), nil
		}},
	}
}

// CloudQueueSource is a zero-input, one-output tasked element that
// polls an Azure Storage Queue and pushes each dequeued message's
// decoded payload into the graph, the cloud analogue of a FromDevice
// element (spec.md §4.6).
type CloudQueueSource struct {
	Queue     *azqueue.QueueClient
	BatchSize int32
	Logger    click.SLogger

	self     *click.ElementInstance
	task     *click.Task
	received atomic.Uint64
}

// NewCloudQueueSource returns a [*CloudQueueSource] polling queue.
func NewCloudQueueSource(queue *azqueue.QueueClient, logger click.SLogger) *CloudQueueSource {
	return &CloudQueueSource{Queue: queue, BatchSize: 8, Logger: logger}
}

var _ click.Element = (*CloudQueueSource)(nil)
var _ click.SelfBinder = (*CloudQueueSource)(nil)
var _ click.Tasked = (*CloudQueueSource)(nil)
var _ click.HandlerProvider = (*CloudQueueSource)(nil)

func (e *CloudQueueSource) ClassName() string             { return "CloudQueueSource" }
func (e *CloudQueueSource) PortCount() click.PortCountSpec { return click.Fixed(0, 1) }
func (e *CloudQueueSource) Processing(click.Direction, int) click.ProcessingKind {
	return click.Push
}

func (e *CloudQueueSource) Configure(context.Context, []string, *click.ErrorHandler) error {
	return nil
}

func (e *CloudQueueSource) BindSelf(r *click.Router, self *click.ElementInstance) { e.self = self }

func (e *CloudQueueSource) Initialize(ctx context.Context, errh *click.ErrorHandler) error {
	if e.Logger == nil {
		e.Logger = click.NewDiscardLogger()
	}
	if e.BatchSize <= 0 {
		e.BatchSize = 8
	}
	e.task = click.NewTask(nil, e.runOnce)
	return nil
}

func (e *CloudQueueSource) Cleanup(click.CleanupStage) {}

// Task implements [click.Tasked].
func (e *CloudQueueSource) Task() *click.Task { return e.task }

func (e *CloudQueueSource) runOnce(ctx context.Context) bool {
	resp, err := e.Queue.DequeueMessages(ctx, &azqueue.DequeueMessagesOptions{
		NumberOfMessages: &e.BatchSize,
	})
	if err != nil || len(resp.Messages) == 0 {
		if err != nil {
			e.Logger.Debug("cloudQueueSourceError", "error", err.Error())
		}
		return false
	}
	for _, msg := range resp.Messages {
		decoded, err := base64.StdEncoding.DecodeString(*msg.MessageText)
		if err != nil {
			continue
		}
		p, err := click.MakePacket(0, len(decoded), 0, 0)
		if err != nil {
			continue
		}
		copy(p.Data(), decoded)
		e.received.Add(1)
		Push(ctx, e.self, 0, p)
		e.Queue.DeleteMessage(ctx, *msg.MessageID, *msg.PopReceipt, nil)
	}
	e.task.FastReschedule()
	return true
}

// Received returns the number of messages converted into packets.
func (e *CloudQueueSource) Received() uint64 { return e.received.Load() }

// Handlers exposes a read-only "received" counter.
func (e *CloudQueueSource) Handlers() []click.HandlerSpec {
	return []click.HandlerSpec{
		{Name: "received", Flags: click.HandlerRead | click.HandlerCalm, Read: func(context.Context) (string, error) {
			return strconv.FormatUint(e.received.Load(), 10), nil
		}},
	}
}
