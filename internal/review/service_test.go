package review

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/ecoshop/internal/model"
	"github.com/hitoshi/ecoshop/internal/repository"
)

// --- モック ---

type mockReviewRepo struct {
	createFn func(ctx context.Context, r *model.Review) error
	listFn   func(ctx context.Context, productID string) ([]*model.Review, error)
	created  []*model.Review
}

func (m *mockReviewRepo) Create(ctx context.Context, r *model.Review) error {
	if m.createFn != nil {
		if err := m.createFn(ctx, r); err != nil {
			return err
		}
	}
	m.created = append(m.created, r)
	return nil
}
func (m *mockReviewRepo) ListByProductID(ctx context.Context, productID string) ([]*model.Review, error) {
	return m.listFn(ctx, productID)
}

type mockProductRepo struct {
	products map[string]*model.Product
}

func (m *mockProductRepo) List(context.Context, model.SortField) ([]*model.Product, error) {
	return nil, nil
}
func (m *mockProductRepo) FindByID(_ context.Context, id string) (*model.Product, error) {
	return m.products[id], nil
}
func (m *mockProductRepo) Upsert(context.Context, *model.Product) error { return nil }

func newTestService(reviews *mockReviewRepo) *Service {
	products := &mockProductRepo{products: map[string]*model.Product{
		"p1": {ID: "p1", Name: "Bamboo Brush"},
	}}
	return NewService(reviews, products, nil, nil, nil)
}

// --- テスト ---

func TestService_AddReview_Success(t *testing.T) {
	repo := &mockReviewRepo{}
	svc := newTestService(repo)

	rv, err := svc.AddReview(context.Background(), "user-1", "p1", "  <p>Great</p><script>x</script> ", 5)
	if err != nil {
		t.Fatalf("AddReview() error = %v", err)
	}
	if rv.Content != "Great" {
		t.Errorf("Content = %q, want %q", rv.Content, "Great")
	}
	if len(repo.created) != 1 {
		t.Errorf("created = %d, want 1", len(repo.created))
	}
}

func TestService_AddReview_StoresTypedText(t *testing.T) {
	repo := &mockReviewRepo{}
	repo.listFn = func(context.Context, string) ([]*model.Review, error) {
		return repo.created, nil
	}
	svc := newTestService(repo)
	ctx := context.Background()

	inputs := []string{"Fish & chips", "I <3 it", `5 > 3 stars, "great"`}
	for _, content := range inputs {
		rv, err := svc.AddReview(ctx, "user-1", "p1", content, 4)
		if err != nil {
			t.Fatalf("AddReview(%q) error = %v", content, err)
		}
		if rv.Content != content {
			t.Errorf("Content = %q, want %q", rv.Content, content)
		}
	}

	reviews, err := svc.ListReviews(ctx, "p1")
	if err != nil {
		t.Fatalf("ListReviews() error = %v", err)
	}
	if len(reviews) != len(inputs) {
		t.Fatalf("reviews = %d, want %d", len(reviews), len(inputs))
	}
	for i, rv := range reviews {
		if rv.Content != inputs[i] {
			t.Errorf("reviews[%d].Content = %q, want %q", i, rv.Content, inputs[i])
		}
	}
}

func TestService_AddReview_RatingBounds(t *testing.T) {
	tests := []struct {
		rating  int
		wantErr bool
	}{
		{0, true},
		{1, false},
		{5, false},
		{6, true},
		{-3, true},
	}
	for _, tt := range tests {
		repo := &mockReviewRepo{}
		svc := newTestService(repo)

		_, err := svc.AddReview(context.Background(), "user-1", "p1", "ok", tt.rating)
		if tt.wantErr {
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRating {
				t.Errorf("rating %d: error = %v, want INVALID_RATING", tt.rating, err)
			}
			if len(repo.created) != 0 {
				t.Errorf("rating %d: review should not be created", tt.rating)
			}
		} else if err != nil {
			t.Errorf("rating %d: unexpected error %v", tt.rating, err)
		}
	}
}

func TestService_AddReview_EmptyContent(t *testing.T) {
	for _, content := range []string{"", "   ", "<script>alert(1)</script>"} {
		svc := newTestService(&mockReviewRepo{})

		_, err := svc.AddReview(context.Background(), "user-1", "p1", content, 3)
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEmptyReview {
			t.Errorf("content %q: error = %v, want EMPTY_REVIEW", content, err)
		}
	}
}

func TestService_AddReview_UnknownProduct(t *testing.T) {
	svc := newTestService(&mockReviewRepo{})

	_, err := svc.AddReview(context.Background(), "user-1", "missing", "nice", 4)
	if model.KindOf(err) != model.KindNotFound {
		t.Errorf("AddReview() error = %v, want not_found", err)
	}
}

func TestService_AddReview_ProductDeletedConcurrently(t *testing.T) {
	repo := &mockReviewRepo{
		createFn: func(context.Context, *model.Review) error {
			return repository.ErrReferenceNotFound
		},
	}
	svc := newTestService(repo)

	_, err := svc.AddReview(context.Background(), "user-1", "p1", "nice", 4)
	if model.KindOf(err) != model.KindNotFound {
		t.Errorf("AddReview() error = %v, want not_found", err)
	}
}

func TestService_ListReviews(t *testing.T) {
	repo := &mockReviewRepo{
		listFn: func(_ context.Context, productID string) ([]*model.Review, error) {
			return []*model.Review{{ID: "r2"}, {ID: "r1"}}, nil
		},
	}
	svc := newTestService(repo)

	reviews, err := svc.ListReviews(context.Background(), "p1")
	if err != nil {
		t.Fatalf("ListReviews() error = %v", err)
	}
	if len(reviews) != 2 || reviews[0].ID != "r2" {
		t.Errorf("reviews = %+v", reviews)
	}
}

func TestService_ListReviews_WrapsError(t *testing.T) {
	repo := &mockReviewRepo{
		listFn: func(context.Context, string) ([]*model.Review, error) {
			return nil, errors.New("db down")
		},
	}
	svc := newTestService(repo)

	_, err := svc.ListReviews(context.Background(), "p1")
	if err == nil || !strings.Contains(err.Error(), "db down") {
		t.Errorf("ListReviews() error = %v", err)
	}
}
