package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/marketplace_reviews/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return sqlx.NewDb(db, "sqlmock"), mock
}

func reviewRow(review *domain.Review) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "product_id", "order_id", "rating",
		"title", "comment", "media", "is_verified", "created_at", "updated_at",
	}).AddRow(
		review.ID, review.UserID, review.ProductID, review.OrderID, review.Rating,
		review.Title, review.Comment, "{}", review.IsVerified, review.CreatedAt, review.UpdatedAt,
	)
}

func TestReviewRepository_CreateVerified_Success(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)

	review := &domain.Review{
		UserID:    uuid.New(),
		ProductID: uuid.New(),
		OrderID:   uuid.New(),
		Rating:    5,
		Media:     []string{},
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(review.OrderID, review.UserID,
			domain.OrderStatusDelivered, domain.OrderStatusCompleted,
			domain.PaymentStatusSuccess, review.ProductID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(review.ProductID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("INSERT INTO reviews").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(uuid.New(), time.Now(), time.Now()))
	mock.ExpectExec("UPDATE products").
		WithArgs(review.Rating, review.ProductID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreateVerified(context.Background(), review)

	assert.NoError(t, err)
	assert.True(t, review.IsVerified)
	assert.NotEqual(t, uuid.Nil, review.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_CreateVerified_NotEligible(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)

	review := &domain.Review{
		UserID:    uuid.New(),
		ProductID: uuid.New(),
		OrderID:   uuid.New(),
		Rating:    4,
		Media:     []string{},
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	err := repo.CreateVerified(context.Background(), review)

	assert.Equal(t, domain.ErrNotEligible, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_CreateVerified_InactiveProduct(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)

	review := &domain.Review{
		UserID:    uuid.New(),
		ProductID: uuid.New(),
		OrderID:   uuid.New(),
		Rating:    4,
		Media:     []string{},
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(review.ProductID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	err := repo.CreateVerified(context.Background(), review)

	assert.Equal(t, domain.ErrNotEligible, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_CreateVerified_DuplicateConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)

	review := &domain.Review{
		UserID:    uuid.New(),
		ProductID: uuid.New(),
		OrderID:   uuid.New(),
		Rating:    5,
		Media:     []string{},
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("INSERT INTO reviews").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.CreateVerified(context.Background(), review)

	assert.Equal(t, domain.ErrConflict, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_UpdateOwned_AppliesRatingDelta(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)

	reviewID := uuid.New()
	userID := uuid.New()
	productID := uuid.New()
	existing := &domain.Review{
		ID: reviewID, UserID: userID, ProductID: productID, OrderID: uuid.New(),
		Rating: 2, IsVerified: true, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	updated := *existing
	updated.Rating = 5

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(reviewID, userID).
		WillReturnRows(reviewRow(existing))
	mock.ExpectQuery("UPDATE reviews").
		WillReturnRows(reviewRow(&updated))
	// delta is new minus old: 5 - 2 = 3
	mock.ExpectExec("UPDATE products").
		WithArgs(3, productID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.UpdateOwned(context.Background(), reviewID, userID, domain.ReviewUpdate{Rating: 5})

	assert.NoError(t, err)
	assert.Equal(t, 5, result.Rating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_UpdateOwned_SameRatingSkipsAggregate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)

	reviewID := uuid.New()
	userID := uuid.New()
	existing := &domain.Review{
		ID: reviewID, UserID: userID, ProductID: uuid.New(), OrderID: uuid.New(),
		Rating: 4, IsVerified: true, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(reviewID, userID).
		WillReturnRows(reviewRow(existing))
	mock.ExpectQuery("UPDATE reviews").
		WillReturnRows(reviewRow(existing))
	mock.ExpectCommit()

	_, err := repo.UpdateOwned(context.Background(), reviewID, userID, domain.ReviewUpdate{Rating: 4})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_UpdateOwned_NotOwned(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)

	reviewID := uuid.New()
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(reviewID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.UpdateOwned(context.Background(), reviewID, userID, domain.ReviewUpdate{Rating: 3})

	assert.Equal(t, domain.ErrNotFound, err)
}

func TestReviewRepository_DeleteOwned_DecrementsAggregate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)

	reviewID := uuid.New()
	userID := uuid.New()
	productID := uuid.New()
	existing := &domain.Review{
		ID: reviewID, UserID: userID, ProductID: productID, OrderID: uuid.New(),
		Rating: 4, IsVerified: true, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(reviewID, userID).
		WillReturnRows(reviewRow(existing))
	mock.ExpectExec("DELETE FROM reviews").
		WithArgs(reviewID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products").
		WithArgs(existing.Rating, productID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := repo.DeleteOwned(context.Background(), reviewID, userID)

	assert.NoError(t, err)
	assert.Equal(t, 4, deleted.Rating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Summary_BuildsHistogram(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)

	productID := uuid.New()

	mock.ExpectQuery("GROUP BY rating").
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"rating", "n"}).
			AddRow(5, 2).
			AddRow(3, 1))

	summary, err := repo.Summary(context.Background(), productID)

	assert.NoError(t, err)
	assert.Equal(t, 3, summary.Count)
	assert.InDelta(t, 13.0/3.0, summary.Average, 1e-9)
	assert.Equal(t, 2, summary.Histogram[5])
	assert.Equal(t, 1, summary.Histogram[3])
	assert.Equal(t, 0, summary.Histogram[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Summary_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)

	productID := uuid.New()

	mock.ExpectQuery("GROUP BY rating").
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"rating", "n"}))

	summary, err := repo.Summary(context.Background(), productID)

	assert.NoError(t, err)
	assert.Equal(t, 0, summary.Count)
	assert.Equal(t, 0.0, summary.Average)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_ListByProduct_WithRatingFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)

	productID := uuid.New()
	rating := 5
	review := &domain.Review{
		ID: uuid.New(), UserID: uuid.New(), ProductID: productID, OrderID: uuid.New(),
		Rating: 5, IsVerified: true, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(productID, rating).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM reviews").
		WithArgs(productID, rating).
		WillReturnRows(reviewRow(review))

	p := domain.ListParams{Page: 1, Limit: 20}.Normalize(domain.SortByCreatedAt)
	reviews, total, err := repo.ListByProduct(context.Background(), productID, domain.ReviewFilter{Rating: &rating}, p)

	assert.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, reviews, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
