package procurement

import (
	"context"

	"github.com/erp/procurement/internal/domain/shared"
)

// JournalService lists posted journal entries
type JournalService struct {
	uow UnitOfWork
}

// NewJournalService creates a new JournalService
func NewJournalService(uow UnitOfWork) *JournalService {
	return &JournalService{uow: uow}
}

// List returns entries whose transaction number starts with filter.Search
func (s *JournalService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[JournalResponse], error) {
	entries, total, err := s.uow.Repositories().Journal.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]JournalResponse, len(entries))
	for i := range entries {
		items[i] = ToJournalResponse(&entries[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.Limit())
	return &page, nil
}
