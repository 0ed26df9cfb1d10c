package youtube

import "context"

// Page is one page of a cursor-based list response.
type Page[T any] struct {
	// Items are the page's entries, in server order.
	Items []T
	// NextToken is the continuation token for the following page. Empty
	// means the list is exhausted.
	NextToken string
}

// PageFunc fetches one page for the given continuation token. The empty
// token requests the first page.
type PageFunc[T any] func(ctx context.Context, pageToken string) (Page[T], error)

// EachPage walks a paginated list from the first page until the server
// stops returning a continuation token, handing each page's items to visit.
// No cursor survives the traversal: every call starts from page one.
// An error from fetch or visit aborts the traversal immediately; pages are
// never retried.
func EachPage[T any](ctx context.Context, fetch PageFunc[T], visit func(items []T) error) error {
	token := ""
	for {
		page, err := fetch(ctx, token)
		if err != nil {
			return err
		}
		if err := visit(page.Items); err != nil {
			return err
		}
		if page.NextToken == "" {
			return nil
		}
		token = page.NextToken
	}
}

// Each is EachPage flattened to one item at a time.
func Each[T any](ctx context.Context, fetch PageFunc[T], visit func(item T) error) error {
	return EachPage(ctx, fetch, func(items []T) error {
		for _, item := range items {
			if err := visit(item); err != nil {
				return err
			}
		}
		return nil
	})
}
