package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Shape records how a list endpoint answered.
type Shape int

const (
	// ShapeList is a bare JSON array.
	ShapeList Shape = iota
	// ShapeSingle is a single object where a list was expected.
	ShapeSingle
	// ShapePage is a wrapper object carrying results or items.
	ShapePage
)

func (s Shape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeSingle:
		return "single"
	case ShapePage:
		return "page"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Listing is the result of a list endpoint, normalised at the boundary so
// callers never inspect raw response shapes.
type Listing[T any] struct {
	Items []T
	Shape Shape
	// Total is the server-reported total for pages, len(Items) otherwise.
	Total int
}

// First returns the first item, if any.
func (l Listing[T]) First() (T, bool) {
	var zero T
	if len(l.Items) == 0 {
		return zero, false
	}
	return l.Items[0], true
}

type pageEnvelope[T any] struct {
	Results *[]T `json:"results"`
	Items   *[]T `json:"items"`
	Total   *int `json:"total"`
	Count   *int `json:"count"`
}

func decodeListing[T any](data []byte) (Listing[T], error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Listing[T]{Items: []T{}, Shape: ShapeList}, nil
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Listing[T]{}, fmt.Errorf("decode list: %w", err)
		}
		return Listing[T]{Items: items, Shape: ShapeList, Total: len(items)}, nil

	case '{':
		var page pageEnvelope[T]
		if err := json.Unmarshal(trimmed, &page); err == nil {
			var items *[]T
			switch {
			case page.Results != nil:
				items = page.Results
			case page.Items != nil:
				items = page.Items
			}
			if items != nil {
				total := len(*items)
				if page.Total != nil {
					total = *page.Total
				} else if page.Count != nil {
					total = *page.Count
				}
				return Listing[T]{Items: *items, Shape: ShapePage, Total: total}, nil
			}
		}

		var item T
		if err := json.Unmarshal(trimmed, &item); err != nil {
			return Listing[T]{}, fmt.Errorf("decode object: %w", err)
		}
		return Listing[T]{Items: []T{item}, Shape: ShapeSingle, Total: 1}, nil

	default:
		return Listing[T]{}, fmt.Errorf("unexpected list payload starting with %q", trimmed[0])
	}
}
