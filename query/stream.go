/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"context"
	"time"

	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/hydrate"
	"github.com/suparena/modelstore/storagemodels"
)

// Stream pages through a multi-result query, following LastKey cursors until the scan is
// exhausted. A limit set on the query caps the total number of streamed items.
// Hydration failures are delivered per item; an engine failure is delivered once and ends the
// stream.
func Stream[M any](ctx context.Context, engine datastore.Engine, q Resolver, ctor hydrate.Constructor[M], opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[M] {
	options := storagemodels.DefaultStreamOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.BufferSize < 0 {
		options.BufferSize = 0
	}

	resultCh := make(chan storagemodels.StreamResult[M], options.BufferSize)
	go streamWorker(ctx, engine, q, ctor, options, resultCh)
	return resultCh
}

func streamWorker[M any](
	ctx context.Context,
	engine datastore.Engine,
	q Resolver,
	ctor hydrate.Constructor[M],
	options storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult[M],
) {
	defer close(resultCh)

	var itemIndex int64
	var pageNumber int
	startTime := time.Now()

	fail := func(err error) {
		select {
		case <-ctx.Done():
		case resultCh <- storagemodels.StreamResult[M]{
			Error: err,
			Meta: storagemodels.StreamMeta{
				Index:      itemIndex,
				PageNumber: pageNumber,
				Timestamp:  time.Now(),
			},
		}:
		}
	}

	reportProgress := func(lastKey string) {
		if options.ProgressHandler == nil {
			return
		}
		progress := storagemodels.StreamProgress{
			ItemsProcessed: itemIndex,
			PagesProcessed: pageNumber,
			LastKey:        lastKey,
			StartTime:      startTime,
		}
		if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
			progress.CurrentRate = float64(itemIndex) / elapsed
		}
		options.ProgressHandler(progress)
	}

	if q.Single() {
		fail(errors.NewValidationError("query", "Stream requires a multi-result query"))
		return
	}

	key, err := q.Query()
	if err != nil {
		fail(err)
		return
	}
	getOpts, err := q.Options()
	if err != nil {
		fail(err)
		return
	}

	total := getOpts.Limit
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		pageOpts := getOpts
		pageOpts.Limit = options.PageSize
		if total > 0 {
			remaining := total - int(itemIndex)
			if remaining <= 0 {
				reportProgress("")
				return
			}
			if pageOpts.Limit <= 0 || remaining < pageOpts.Limit {
				pageOpts.Limit = remaining
			}
		}

		res, err := engine.Get(ctx, key, pageOpts)
		if err != nil {
			fail(err)
			return
		}
		pageNumber++

		if res != nil {
			for _, item := range res.Items {
				result := storagemodels.StreamResult[M]{
					Key: item.Key,
					Meta: storagemodels.StreamMeta{
						Index:      itemIndex,
						PageNumber: pageNumber,
						Timestamp:  time.Now(),
					},
				}
				result.Item, result.Error = ctor(item.Value)
				itemIndex++

				select {
				case <-ctx.Done():
					return
				case resultCh <- result:
				}
			}
		}

		if res == nil || res.LastKey == "" || (total > 0 && int(itemIndex) >= total) {
			reportProgress("")
			return
		}
		reportProgress(res.LastKey)
		getOpts.Start = res.LastKey
	}
}
