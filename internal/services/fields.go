package services

import (
	"context"
	"strings"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/internal/selection"
)

type fieldsService struct {
	fetcher sourceFetcher
}

func NewFieldsService(fetcher sourceFetcher) *fieldsService {
	return &fieldsService{fetcher: fetcher}
}

// DiscoverFields test-fetches a source URL and lists the field paths it
// offers, filtered the same way the editor filters them.
func (s *fieldsService) DiscoverFields(ctx context.Context, req dto.DiscoverFieldsRequest) (dto.DiscoverFieldsResponse, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return dto.DiscoverFieldsResponse{}, errs.NewValidationError("url is required")
	}

	session := selection.NewSession(s.fetcher)
	if err := session.Test(ctx, url); err != nil {
		return dto.DiscoverFieldsResponse{}, err
	}
	session.SetSearch(req.Search)
	session.SetArraysOnly(req.ArraysOnly)

	candidates := session.Candidates()
	return dto.DiscoverFieldsResponse{
		URL:    url,
		Fields: candidates,
		Count:  len(candidates),
	}, nil
}
