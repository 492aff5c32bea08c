package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/autospoty/internal/models"
)

// OffsetFetcher fetches the page of size limit starting at offset.
type OffsetFetcher[T any] func(ctx context.Context, limit, offset int) (*models.Page[T], error)

// CursorFetcher fetches the page addressed by cursor. An empty cursor means the first page;
// later calls receive the previous page's Next value verbatim.
type CursorFetcher[T any] func(ctx context.Context, cursor string) (*models.Page[T], error)

// CollectOffset materializes an offset-paged collection.
//
// Pages are requested at offsets 0, pageSize, 2*pageSize, ... and their items appended in arrival
// order. Fetching stops after an empty page or a page holding fewer than pageSize items; that last
// short page is still included.
func CollectOffset[T any](ctx context.Context, pageSize int, fetch OffsetFetcher[T]) ([]T, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}

	var all []T
	for offset := 0; ; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := fetch(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		if page == nil || len(page.Items) == 0 {
			break
		}

		all = append(all, page.Items...)

		if len(page.Items) < pageSize {
			break
		}
	}

	return all, nil
}

// CollectCursor materializes a cursor-paged collection by following each page's Next value.
//
// Fetching stops exactly when a page has no Next, whatever its item count. When max > 0 the
// aggregate is truncated to max items and no further pages are requested once it is reached.
func CollectCursor[T any](ctx context.Context, max int, fetch CursorFetcher[T]) ([]T, error) {
	var all []T
	cursor := ""

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}
		if page == nil {
			break
		}

		all = append(all, page.Items...)

		if max > 0 && len(all) >= max {
			return all[:max], nil
		}
		if !page.HasNext() {
			break
		}
		cursor = *page.Next
	}

	return all, nil
}
