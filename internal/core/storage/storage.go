// Package storage is the persistent document store the worker mirrors asteroids into.
package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zeusync/asteroidworker/internal/core/observability/log"
)

var (
	ErrDocumentExists   = errors.New("document already exists")
	ErrDocumentNotFound = errors.New("document not found")
	ErrStoreClosed      = errors.New("store closed")
)

// Fields is a document body.
type Fields map[string]any

// DocumentStore keeps documents grouped in collections.
type DocumentStore interface {
	// CreateDocument fails with ErrDocumentExists if id is taken in collection.
	CreateDocument(ctx context.Context, collection, id string, fields Fields) error
	// DeleteDocument fails with ErrDocumentNotFound if there is nothing to delete.
	DeleteDocument(ctx context.Context, collection, id string) error
	Close() error
}

// Detached issues store calls in the background. Callers never wait for the result;
// failures are logged and not retried.
type Detached struct {
	store   DocumentStore
	logger  log.Log
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDetached(store DocumentStore, timeout time.Duration, logger log.Log) *Detached {
	if logger == nil {
		logger = log.Provide()
	}
	return &Detached{
		store:   store,
		logger:  logger.Named("Storage"),
		timeout: timeout,
	}
}

func (d *Detached) Create(collection, id string, fields Fields) {
	d.run("create", collection, id, func(ctx context.Context) error {
		return d.store.CreateDocument(ctx, collection, id, fields)
	})
}

func (d *Detached) Delete(collection, id string) {
	d.run("delete", collection, id, func(ctx context.Context) error {
		return d.store.DeleteDocument(ctx, collection, id)
	})
}

func (d *Detached) run(op, collection, id string, call func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx := context.Background()
		if d.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}

		if err := call(ctx); err != nil {
			d.logger.Warn("Document store call failed",
				log.String("op", op),
				log.String("collection", collection),
				log.String("id", id),
				log.Error(err))
		}
	}()
}

// Wait blocks until every call issued so far has finished.
func (d *Detached) Wait() {
	d.wg.Wait()
}
