package storage

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/firekit/errors"
	"github.com/kbukum/firekit/logger"
	"github.com/kbukum/firekit/observability"
)

// TaskState is the lifecycle state of an upload task.
type TaskState string

const (
	// StatePending means the task has been created but not started.
	StatePending TaskState = "pending"
	// StateRunning means bytes are being transferred.
	StateRunning TaskState = "running"
	// StatePaused means transfer is suspended until Resume.
	StatePaused TaskState = "paused"
	// StateSuccess means the object was stored.
	StateSuccess TaskState = "success"
	// StateCanceled means the task was canceled before completing.
	StateCanceled TaskState = "canceled"
	// StateError means the transfer failed.
	StateError TaskState = "error"
)

// terminal reports whether the state is final.
func (s TaskState) terminal() bool {
	return s == StateSuccess || s == StateCanceled || s == StateError
}

// Progress is a point-in-time view of an upload task.
type Progress struct {
	State            TaskState
	BytesTransferred int64
	// TotalBytes is the declared upload size, or 0 when unknown.
	TotalBytes int64
}

// ProgressFunc observes task progress. It is called on state changes
// and as bytes flow, always from the task's goroutine.
type ProgressFunc func(Progress)

// UploadTask is a single observable upload. It is created by Ref.Put
// (already started) or a MultiUploader (started per its auto setting).
type UploadTask struct {
	id          string
	ref         *Ref
	reader      io.Reader
	total       int64
	contentType string
	log         *logger.Logger

	mu          sync.Mutex
	cond        *sync.Cond
	state       TaskState
	transferred int64
	err         error
	info        *ObjectInfo
	observers   []ProgressFunc
	canceled    bool

	cancelCtx context.CancelFunc
	done      chan struct{}
}

func newUploadTask(ref *Ref, reader io.Reader, total int64, contentType string) *UploadTask {
	t := &UploadTask{
		id:          uuid.NewString(),
		ref:         ref,
		reader:      reader,
		total:       total,
		contentType: contentType,
		log:         logger.WithComponent("storage.task"),
		state:       StatePending,
		done:        make(chan struct{}),
	}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// ID returns the task's unique identifier.
func (t *UploadTask) ID() string { return t.id }

// Ref returns the destination reference.
func (t *UploadTask) Ref() *Ref { return t.ref }

// State returns the current lifecycle state.
func (t *UploadTask) State() TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Progress returns a point-in-time progress view.
func (t *UploadTask) Progress() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Progress{State: t.state, BytesTransferred: t.transferred, TotalBytes: t.total}
}

// Err returns the terminal error, if any.
func (t *UploadTask) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Info returns the stored object's metadata after a successful upload.
func (t *UploadTask) Info() *ObjectInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.info
}

// Done returns a channel closed when the task reaches a terminal state.
func (t *UploadTask) Done() <-chan struct{} { return t.done }

// Wait blocks until the task finishes or ctx expires, then returns the
// task's terminal error.
func (t *UploadTask) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Observe registers a progress observer. Observers registered after the
// task finished are called once with the final progress.
func (t *UploadTask) Observe(fn ProgressFunc) {
	t.mu.Lock()
	if t.state.terminal() {
		p := Progress{State: t.state, BytesTransferred: t.transferred, TotalBytes: t.total}
		t.mu.Unlock()
		fn(p)
		return
	}
	t.observers = append(t.observers, fn)
	t.mu.Unlock()
}

// Pause suspends the transfer after the current chunk. Pausing a task
// that is not running has no effect.
func (t *UploadTask) Pause() {
	t.mu.Lock()
	if t.state == StateRunning {
		t.setStateLocked(StatePaused)
	}
	t.mu.Unlock()
}

// Resume continues a paused transfer.
func (t *UploadTask) Resume() {
	t.mu.Lock()
	if t.state == StatePaused {
		t.setStateLocked(StateRunning)
		t.cond.Broadcast()
	}
	t.mu.Unlock()
}

// Cancel aborts the transfer. Finished tasks are unaffected.
func (t *UploadTask) Cancel() {
	t.mu.Lock()
	if t.state.terminal() {
		t.mu.Unlock()
		return
	}
	t.canceled = true
	t.cond.Broadcast()
	cancelCtx := t.cancelCtx
	t.mu.Unlock()
	if cancelCtx != nil {
		cancelCtx()
	}
}

// Start launches a pending task. Starting an already started task is a
// no-op.
func (t *UploadTask) Start(ctx context.Context) { t.start(ctx) }

// start launches the transfer goroutine. Starting twice is a no-op.
func (t *UploadTask) start(ctx context.Context) {
	t.mu.Lock()
	if t.state != StatePending {
		t.mu.Unlock()
		return
	}
	if t.canceled {
		t.finishLocked(StateCanceled, apperrors.UploadCanceled(t.ref.Path()), nil)
		t.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	t.cancelCtx = cancel
	t.setStateLocked(StateRunning)
	t.mu.Unlock()

	go t.run(ctx)
}

func (t *UploadTask) run(ctx context.Context) {
	defer t.cancelCtx()

	ctx, span := observability.StartSpan(ctx, observability.SpanUpload)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrBucket, t.ref.Bucket())
	observability.SetSpanAttribute(ctx, observability.AttrObject, t.ref.Path())
	observability.SetSpanAttribute(ctx, observability.AttrTaskID, t.id)

	info, err := t.ref.backend.Upload(ctx, t.ref.Path(), &taskReader{task: t, ctx: ctx, inner: t.reader}, t.contentType)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case t.canceled:
		t.finishLocked(StateCanceled, apperrors.UploadCanceled(t.ref.Path()), nil)
	case err != nil:
		appErr := apperrors.AsAppError(err)
		if appErr.Code != apperrors.ErrCodeObjectTooLarge {
			appErr = apperrors.UploadFailed(t.ref.Path(), err)
		}
		t.finishLocked(StateError, appErr, nil)
	default:
		t.ref.invalidate(info)
		t.finishLocked(StateSuccess, nil, info)
	}
	observability.DefaultMetrics().RecordUpload(ctx, t.ref.Bucket(), string(t.state), t.transferred)
}

// setStateLocked changes state and notifies observers. Callers hold mu.
func (t *UploadTask) setStateLocked(s TaskState) {
	t.state = s
	t.notifyLocked()
}

func (t *UploadTask) finishLocked(s TaskState, err error, info *ObjectInfo) {
	if t.state.terminal() {
		return
	}
	t.state = s
	t.err = err
	t.info = info
	t.notifyLocked()
	t.observers = nil
	close(t.done)

	if err != nil {
		t.log.Warn("upload finished with error", logger.Fields(
			logger.FieldTaskID, t.id,
			logger.FieldObject, t.ref.Path(),
			logger.FieldError, err.Error(),
		))
	}
}

func (t *UploadTask) notifyLocked() {
	p := Progress{State: t.state, BytesTransferred: t.transferred, TotalBytes: t.total}
	for _, fn := range t.observers {
		fn(p)
	}
}

// taskReader meters the upload stream, honoring pause, cancel, and the
// configured size limit between chunks.
type taskReader struct {
	task  *UploadTask
	ctx   context.Context
	inner io.Reader
}

func (r *taskReader) Read(p []byte) (int, error) {
	t := r.task

	t.mu.Lock()
	for t.state == StatePaused && !t.canceled {
		t.cond.Wait()
	}
	canceled := t.canceled
	t.mu.Unlock()

	if canceled || r.ctx.Err() != nil {
		return 0, apperrors.UploadCanceled(t.ref.Path())
	}

	n, err := r.inner.Read(p)
	if n > 0 {
		t.mu.Lock()
		t.transferred += int64(n)
		limit := t.ref.cfg.MaxObjectSize
		over := limit > 0 && t.transferred > limit
		size := t.transferred
		t.notifyLocked()
		t.mu.Unlock()
		if over {
			return n, apperrors.ObjectTooLarge(t.ref.Path(), size, limit)
		}
	}
	return n, err
}
