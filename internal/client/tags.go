package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kelsos/rotki-client/internal/models"
)

// Tags fetches all tags.
func (c *APIClient) Tags(ctx context.Context) (models.Tags, error) {
	tags, err := call[models.Tags](ctx, c, http.MethodGet, "/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}
	return tags, nil
}

// AddTag creates a tag and returns the updated tag set.
func (c *APIClient) AddTag(ctx context.Context, tag models.Tag) (models.Tags, error) {
	return c.mutateTags(ctx, http.MethodPut, tag, tag.Name)
}

// EditTag updates an existing tag and returns the updated tag set.
func (c *APIClient) EditTag(ctx context.Context, tag models.Tag) (models.Tags, error) {
	return c.mutateTags(ctx, http.MethodPatch, tag, tag.Name)
}

// DeleteTag removes a tag and returns the remaining tags.
func (c *APIClient) DeleteTag(ctx context.Context, name string) (models.Tags, error) {
	return c.mutateTags(ctx, http.MethodDelete, models.TagDeletePayload{Name: name}, name)
}

func (c *APIClient) mutateTags(ctx context.Context, method string, payload interface{}, name string) (models.Tags, error) {
	if err := validatePayload(payload); err != nil {
		return nil, err
	}
	tags, err := call[models.Tags](ctx, c, method, "/tags", payload)
	if err != nil {
		return nil, fmt.Errorf("failed to %s tag %s: %w", tagVerb(method), name, err)
	}
	return tags, nil
}

func tagVerb(method string) string {
	switch method {
	case http.MethodPut:
		return "add"
	case http.MethodPatch:
		return "edit"
	default:
		return "delete"
	}
}
