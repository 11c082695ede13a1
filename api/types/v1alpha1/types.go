// Package v1alpha1 contains the wire types for isoreplay test-case files and results.
package v1alpha1

// ListResponse wraps lists of items with metadata
type ListResponse struct {
	// Items contains the listed objects
	Items []interface{} `json:"items"`
	// TotalCount is the total number of matching items
	TotalCount int `json:"totalCount,omitempty"`
}
