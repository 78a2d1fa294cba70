package rtdb

import (
	"context"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/kbukum/firekit/errors"
	"github.com/kbukum/firekit/logger"
)

// Ref points at a node in the database tree.
type Ref struct {
	client *Client
	path   string
}

// Path returns the slash-separated path of this reference.
func (r *Ref) Path() string { return "/" + r.path }

// Key returns the last path segment, or "" for the root.
func (r *Ref) Key() string {
	if r.path == "" {
		return ""
	}
	parts := strings.Split(r.path, "/")
	return parts[len(parts)-1]
}

// Child returns a reference to a descendant node.
func (r *Ref) Child(path string) *Ref {
	child := normalizePath(path)
	if r.path == "" {
		return &Ref{client: r.client, path: child}
	}
	if child == "" {
		return r
	}
	return &Ref{client: r.client, path: r.path + "/" + child}
}

// Parent returns the parent reference, or nil for the root.
func (r *Ref) Parent() *Ref {
	if r.path == "" {
		return nil
	}
	idx := strings.LastIndex(r.path, "/")
	if idx < 0 {
		return &Ref{client: r.client, path: ""}
	}
	return &Ref{client: r.client, path: r.path[:idx]}
}

// Get fetches the value at this reference.
func (r *Ref) Get(ctx context.Context) (*Snapshot, error) {
	value, err := r.client.get(ctx, r.path, nil)
	if err != nil {
		return nil, err
	}
	return newSnapshot(r.Key(), value, defaultOrder()), nil
}

// Set writes value at this reference, replacing any existing data.
func (r *Ref) Set(ctx context.Context, value any) error {
	if value == nil {
		return apperrors.InvalidInput("value", "use Delete to remove data")
	}
	_, err := r.client.write(ctx, http.MethodPut, r.path, value)
	if err == nil {
		r.client.log.Debug("set", logger.Fields(logger.FieldPath, r.Path()))
	}
	return err
}

// Update merges the given children into the existing data at this
// reference. Keys mapped to nil are removed.
func (r *Ref) Update(ctx context.Context, children map[string]any) error {
	if len(children) == 0 {
		return nil
	}
	_, err := r.client.write(ctx, http.MethodPatch, r.path, children)
	return err
}

// Push creates a child with a generated chronological key, writes value
// to it, and returns the new child reference.
func (r *Ref) Push(ctx context.Context, value any) (*Ref, error) {
	key := newPushID(time.Now())
	child := r.Child(key)
	if value != nil {
		if err := child.Set(ctx, value); err != nil {
			return nil, err
		}
	}
	return child, nil
}

// Delete removes the data at this reference.
func (r *Ref) Delete(ctx context.Context) error {
	return r.client.delete(ctx, r.path)
}

// --- Query entry points ---

// OrderByChild returns a query over this ref ordered by a child field.
func (r *Ref) OrderByChild(field string) *Query {
	return newQuery(r).OrderByChild(field)
}

// OrderByKey returns a query over this ref ordered by child key.
func (r *Ref) OrderByKey() *Query {
	return newQuery(r).OrderByKey()
}

// OrderByValue returns a query over this ref ordered by child value.
func (r *Ref) OrderByValue() *Query {
	return newQuery(r).OrderByValue()
}

// LimitToFirst returns a query limited to the first n children.
func (r *Ref) LimitToFirst(n int) *Query {
	return newQuery(r).LimitToFirst(n)
}

// LimitToLast returns a query limited to the last n children.
func (r *Ref) LimitToLast(n int) *Query {
	return newQuery(r).LimitToLast(n)
}

// Query returns an unconstrained query over this ref.
func (r *Ref) Query() *Query {
	return newQuery(r)
}
