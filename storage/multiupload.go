package storage

import (
	"context"
	"io"
	"sync"

	"github.com/kbukum/firekit/logger"
)

// File is one input to a MultiUploader.
type File struct {
	// Name is the object name under the uploader's root reference.
	Name string
	// Reader supplies the content.
	Reader io.Reader
	// Size is the declared content size, or 0 when unknown.
	Size int64
	// ContentType overrides the type guessed from Name.
	ContentType string
}

// MultiOptions configures a MultiUploader.
type MultiOptions struct {
	// Auto starts each task as soon as its file is added. When false,
	// tasks stay pending until StartAll.
	Auto bool
	// OnChange fires with a copy of the task list every time it grows.
	OnChange func(tasks []*UploadTask)
}

// MultiUploader fans a batch of files out into one upload task per
// file under a common root reference. The task list only ever grows;
// finished and canceled tasks stay in it so observers see the full
// history of the batch.
type MultiUploader struct {
	root *Ref
	opts MultiOptions
	log  *logger.Logger

	mu    sync.Mutex
	tasks []*UploadTask
}

// NewMultiUploader creates an uploader writing under root.
func NewMultiUploader(root *Ref, opts MultiOptions) *MultiUploader {
	return &MultiUploader{
		root: root,
		opts: opts,
		log:  logger.WithComponent("storage.multiupload"),
	}
}

// Add creates a task for one file, appends it to the list, and starts
// it when Auto is set. The list grows by exactly one per call.
func (m *MultiUploader) Add(ctx context.Context, f File) *UploadTask {
	ref := m.root.Child(f.Name)
	contentType := f.ContentType
	if contentType == "" {
		contentType = ref.guessContentType()
	}
	task := newUploadTask(ref, f.Reader, f.Size, contentType)

	m.mu.Lock()
	m.tasks = append(m.tasks, task)
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.log.Debug("upload queued", logger.Fields(
		logger.FieldTaskID, task.ID(),
		logger.FieldObject, ref.Path(),
	))

	if m.opts.OnChange != nil {
		m.opts.OnChange(snapshot)
	}
	if m.opts.Auto {
		task.start(ctx)
	}
	return task
}

// AddAll adds every file and returns the created tasks in input order.
func (m *MultiUploader) AddAll(ctx context.Context, files ...File) []*UploadTask {
	tasks := make([]*UploadTask, 0, len(files))
	for _, f := range files {
		tasks = append(tasks, m.Add(ctx, f))
	}
	return tasks
}

// Tasks returns a copy of the task list in creation order.
func (m *MultiUploader) Tasks() []*UploadTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Len returns the number of tasks created so far.
func (m *MultiUploader) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// StartAll starts every pending task.
func (m *MultiUploader) StartAll(ctx context.Context) {
	for _, t := range m.Tasks() {
		t.start(ctx)
	}
}

// PauseAll pauses every running task.
func (m *MultiUploader) PauseAll() {
	for _, t := range m.Tasks() {
		t.Pause()
	}
}

// ResumeAll resumes every paused task.
func (m *MultiUploader) ResumeAll() {
	for _, t := range m.Tasks() {
		t.Resume()
	}
}

// CancelAll cancels every unfinished task.
func (m *MultiUploader) CancelAll() {
	for _, t := range m.Tasks() {
		t.Cancel()
	}
}

// Wait blocks until every task created so far has finished or ctx
// expires. It returns the first task error encountered in creation
// order, if any.
func (m *MultiUploader) Wait(ctx context.Context) error {
	var firstErr error
	for _, t := range m.Tasks() {
		if err := t.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return err
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (m *MultiUploader) snapshotLocked() []*UploadTask {
	out := make([]*UploadTask, len(m.tasks))
	copy(out, m.tasks)
	return out
}
