package services

import (
	"context"

	"github.com/kelsos/rotki-client/internal/models"
)

// TagService manages the tags that can be attached to accounts.
type TagService struct {
	deps
}

func newTagService(d deps) *TagService {
	return &TagService{deps: d}
}

func (s *TagService) Fetch(ctx context.Context) (models.Tags, error) {
	return s.mutate("fetch tags", "", func() (models.Tags, error) {
		return s.client.Tags(ctx)
	})
}

func (s *TagService) Add(ctx context.Context, tag models.Tag) (models.Tags, error) {
	return s.mutate("add tag", tag.Name, func() (models.Tags, error) {
		return s.client.AddTag(ctx, tag)
	})
}

func (s *TagService) Edit(ctx context.Context, tag models.Tag) (models.Tags, error) {
	return s.mutate("edit tag", tag.Name, func() (models.Tags, error) {
		return s.client.EditTag(ctx, tag)
	})
}

func (s *TagService) Delete(ctx context.Context, name string) (models.Tags, error) {
	return s.mutate("delete tag", name, func() (models.Tags, error) {
		return s.client.DeleteTag(ctx, name)
	})
}

// mutate runs a tag request and stores the full tag set the backend answers with.
func (s *TagService) mutate(action, name string, request func() (models.Tags, error)) (models.Tags, error) {
	tags, err := request()
	if err != nil {
		s.fail(failureTitle(action, name), err)
		return nil, err
	}
	s.store.SetTags(tags)
	return tags, nil
}
