package services

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"vecindario/models"
	"vecindario/repository"
)

type postRepoStub struct {
	countFn                func(context.Context, repository.PostFilter) (int64, error)
	findPageFn             func(context.Context, repository.PostFilter, int, int) ([]models.Post, error)
	findActiveByIDFn       func(context.Context, primitive.ObjectID) (*models.Post, error)
	findByIDFn             func(context.Context, primitive.ObjectID) (*models.Post, error)
	findActiveByCategoryFn func(context.Context, string) ([]models.Post, error)
	insertFn               func(context.Context, *models.Post) error
	updateFieldsFn         func(context.Context, primitive.ObjectID, models.PostUpdate) (*models.Post, error)
	softDeleteFn           func(context.Context, primitive.ObjectID) error
}

func (s *postRepoStub) Count(ctx context.Context, f repository.PostFilter) (int64, error) {
	return s.countFn(ctx, f)
}
func (s *postRepoStub) FindPage(ctx context.Context, f repository.PostFilter, skip, limit int) ([]models.Post, error) {
	return s.findPageFn(ctx, f, skip, limit)
}
func (s *postRepoStub) FindActiveByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	return s.findActiveByIDFn(ctx, id)
}
func (s *postRepoStub) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	return s.findByIDFn(ctx, id)
}
func (s *postRepoStub) FindActiveByCategory(ctx context.Context, category string) ([]models.Post, error) {
	return s.findActiveByCategoryFn(ctx, category)
}
func (s *postRepoStub) Insert(ctx context.Context, post *models.Post) error {
	return s.insertFn(ctx, post)
}
func (s *postRepoStub) UpdateFields(ctx context.Context, id primitive.ObjectID, upd models.PostUpdate) (*models.Post, error) {
	return s.updateFieldsFn(ctx, id, upd)
}
func (s *postRepoStub) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	return s.softDeleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		countFn: func(context.Context, repository.PostFilter) (int64, error) { return 0, nil },
		findPageFn: func(context.Context, repository.PostFilter, int, int) ([]models.Post, error) {
			return []models.Post{}, nil
		},
		findActiveByIDFn: func(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
			return &models.Post{ID: id}, nil
		},
		findByIDFn: func(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
			return &models.Post{ID: id}, nil
		},
		findActiveByCategoryFn: func(context.Context, string) ([]models.Post, error) {
			return []models.Post{}, nil
		},
		insertFn:       func(context.Context, *models.Post) error { return nil },
		updateFieldsFn: func(_ context.Context, id primitive.ObjectID, _ models.PostUpdate) (*models.Post, error) {
			return &models.Post{ID: id}, nil
		},
		softDeleteFn: func(context.Context, primitive.ObjectID) error { return nil },
	}
}

type mediaStub struct {
	uploadFn func(context.Context, []*multipart.FileHeader, []*multipart.FileHeader) ([]string, []string, error)
	deleteFn func(context.Context, []string, []string) models.CleanupReport
}

func (s *mediaStub) UploadPostFiles(ctx context.Context, images, documents []*multipart.FileHeader) ([]string, []string, error) {
	return s.uploadFn(ctx, images, documents)
}
func (s *mediaStub) DeletePostFiles(ctx context.Context, images, documents []string) models.CleanupReport {
	return s.deleteFn(ctx, images, documents)
}

func noopMedia() *mediaStub {
	return &mediaStub{
		uploadFn: func(context.Context, []*multipart.FileHeader, []*multipart.FileHeader) ([]string, []string, error) {
			return []string{}, []string{}, nil
		},
		deleteFn: func(context.Context, []string, []string) models.CleanupReport {
			return models.CleanupReport{Attempted: true, Outcome: models.CleanupClean}
		},
	}
}

func requireAppError(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestGetAllPostsSanitizesPageAndLimit(t *testing.T) {
	cases := []struct {
		name      string
		page      string
		limit     string
		wantPage  int
		wantLimit int
	}{
		{"defaults", "", "", 1, 10},
		{"non numeric", "abc", "xyz", 1, 10},
		{"negative", "-3", "-5", 1, 1},
		{"floats", "2.5", "3.7", 1, 10},
		{"zero", "0", "0", 1, 1},
		{"over max limit", "3", "250", 3, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := noopPostRepo()
			var gotSkip, gotLimit int
			repo.findPageFn = func(_ context.Context, _ repository.PostFilter, skip, limit int) ([]models.Post, error) {
				gotSkip, gotLimit = skip, limit
				return []models.Post{}, nil
			}

			svc := NewPostService(repo, noopMedia(), nil)
			page, err := svc.GetAllPosts(context.Background(), ListPostsQuery{Page: tc.page, Limit: tc.limit})
			require.NoError(t, err)

			assert.Equal(t, tc.wantPage, page.Pagination.Page)
			assert.Equal(t, tc.wantLimit, page.Pagination.Limit)
			assert.Equal(t, tc.wantLimit, gotLimit)
			assert.Equal(t, (tc.wantPage-1)*tc.wantLimit, gotSkip)
			assert.GreaterOrEqual(t, page.Pagination.Page, 1)
			assert.GreaterOrEqual(t, page.Pagination.Limit, 1)
			assert.LessOrEqual(t, page.Pagination.Limit, 100)
		})
	}
}

func TestGetAllPostsSecondPageOfFifteen(t *testing.T) {
	repo := noopPostRepo()
	repo.countFn = func(context.Context, repository.PostFilter) (int64, error) { return 15, nil }
	repo.findPageFn = func(_ context.Context, _ repository.PostFilter, skip, limit int) ([]models.Post, error) {
		require.Equal(t, 10, skip)
		require.Equal(t, 10, limit)
		return make([]models.Post, 5), nil
	}

	svc := NewPostService(repo, noopMedia(), nil)
	page, err := svc.GetAllPosts(context.Background(), ListPostsQuery{Page: "2", Limit: "10"})
	require.NoError(t, err)

	assert.Len(t, page.Posts, 5)
	assert.Equal(t, int64(15), page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.HasNextPage)
	assert.True(t, page.Pagination.HasPrevPage)
	assert.Equal(t, models.Showing{From: 11, To: 15, Total: 15}, page.Pagination.Showing)
	assert.Nil(t, page.SearchInfo)
}

func TestGetAllPostsEmptyFirstPageShowing(t *testing.T) {
	svc := NewPostService(noopPostRepo(), noopMedia(), nil)

	page, err := svc.GetAllPosts(context.Background(), ListPostsQuery{})
	require.NoError(t, err)

	assert.Equal(t, models.Showing{From: 0, To: 0, Total: 0}, page.Pagination.Showing)
	assert.False(t, page.Pagination.HasNextPage)
	assert.False(t, page.Pagination.HasPrevPage)
}

func TestGetAllPostsSearchInfo(t *testing.T) {
	repo := noopPostRepo()
	var gotFilter repository.PostFilter
	repo.countFn = func(_ context.Context, f repository.PostFilter) (int64, error) {
		gotFilter = f
		return 1, nil
	}
	repo.findPageFn = func(context.Context, repository.PostFilter, int, int) ([]models.Post, error) {
		return []models.Post{{Title: "Corte de agua", Description: "mantenimiento programado"}}, nil
	}

	svc := NewPostService(repo, noopMedia(), nil)
	page, err := svc.GetAllPosts(context.Background(), ListPostsQuery{Search: "  agua  "})
	require.NoError(t, err)

	assert.Equal(t, "agua", gotFilter.Search)
	require.NotNil(t, page.SearchInfo)
	assert.Equal(t, "agua", page.SearchInfo.Query)
	assert.Equal(t, int64(1), page.SearchInfo.ResultsFound)
	assert.True(t, page.SearchInfo.HasResults)
}

func TestGetAllPostsNoSearchInfoWithoutTerm(t *testing.T) {
	svc := NewPostService(noopPostRepo(), noopMedia(), nil)

	page, err := svc.GetAllPosts(context.Background(), ListPostsQuery{Search: "   "})
	require.NoError(t, err)
	assert.Nil(t, page.SearchInfo)
}

func TestGetAllPostsIgnoresMalformedAuthor(t *testing.T) {
	repo := noopPostRepo()
	var gotFilter repository.PostFilter
	repo.countFn = func(_ context.Context, f repository.PostFilter) (int64, error) {
		gotFilter = f
		return 0, nil
	}

	svc := NewPostService(repo, noopMedia(), nil)
	_, err := svc.GetAllPosts(context.Background(), ListPostsQuery{Author: "not-an-object-id"})
	require.NoError(t, err)
	assert.Nil(t, gotFilter.Author)
}

func TestResolveDateRange(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)
	now := time.Date(2024, 5, 15, 14, 30, 0, 0, loc)

	t.Run("all and empty disable filtering", func(t *testing.T) {
		for _, v := range []string{"", "all"} {
			from, to := resolveDateRange(v, now)
			assert.Nil(t, from)
			assert.Nil(t, to)
		}
	})

	t.Run("today", func(t *testing.T) {
		from, to := resolveDateRange("today", now)
		require.NotNil(t, from)
		require.NotNil(t, to)
		assert.Equal(t, time.Date(2024, 5, 15, 0, 0, 0, 0, loc), *from)
		assert.Equal(t, time.Date(2024, 5, 15, 23, 59, 59, 999000000, loc), *to)
	})

	t.Run("week", func(t *testing.T) {
		from, to := resolveDateRange("week", now)
		require.NotNil(t, from)
		assert.Equal(t, now.Add(-7*24*time.Hour), *from)
		assert.Equal(t, time.Date(2024, 5, 15, 23, 59, 59, 999000000, loc), *to)
	})

	t.Run("month", func(t *testing.T) {
		from, to := resolveDateRange("month", now)
		require.NotNil(t, from)
		assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, loc), *from)
		assert.Equal(t, time.Date(2024, 5, 15, 23, 59, 59, 999000000, loc), *to)
	})

	t.Run("explicit date", func(t *testing.T) {
		from, to := resolveDateRange("2024-01-20", now)
		require.NotNil(t, from)
		assert.Equal(t, time.Date(2024, 1, 20, 0, 0, 0, 0, loc), *from)
		assert.Equal(t, time.Date(2024, 1, 20, 23, 59, 59, 999000000, loc), *to)
	})

	t.Run("unknown value disables filtering", func(t *testing.T) {
		from, to := resolveDateRange("yesterday-ish", now)
		assert.Nil(t, from)
		assert.Nil(t, to)
	})
}

func TestCreatePostRejectsTooManyAttachments(t *testing.T) {
	repo := noopPostRepo()
	media := noopMedia()
	uploadCalled := false
	media.uploadFn = func(context.Context, []*multipart.FileHeader, []*multipart.FileHeader) ([]string, []string, error) {
		uploadCalled = true
		return nil, nil, nil
	}

	svc := NewPostService(repo, media, nil)

	images := make([]*multipart.FileHeader, 11)
	_, err := svc.CreatePost(context.Background(), CreatePostInput{Title: "t", Images: images})
	requireAppError(t, err, models.CodeValidation)
	assert.False(t, uploadCalled)

	documents := make([]*multipart.FileHeader, 6)
	_, err = svc.CreatePost(context.Background(), CreatePostInput{Title: "t", Documents: documents})
	requireAppError(t, err, models.CodeValidation)
}

func TestCreatePostUploadFailureAbortsInsert(t *testing.T) {
	repo := noopPostRepo()
	inserted := false
	repo.insertFn = func(context.Context, *models.Post) error {
		inserted = true
		return nil
	}
	media := noopMedia()
	media.uploadFn = func(context.Context, []*multipart.FileHeader, []*multipart.FileHeader) ([]string, []string, error) {
		return nil, nil, errors.New("upstream down")
	}

	svc := NewPostService(repo, media, nil)
	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		Title:  "Corte de agua",
		Images: []*multipart.FileHeader{{Filename: "a.jpg"}},
	})

	requireAppError(t, err, models.CodeExternalService)
	assert.False(t, inserted)
}

func TestCreatePostStoresEmptySlicesWithoutFiles(t *testing.T) {
	repo := noopPostRepo()
	var stored *models.Post
	repo.insertFn = func(_ context.Context, p *models.Post) error {
		stored = p
		return nil
	}

	svc := NewPostService(repo, noopMedia(), nil)
	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		Title:       "Corte de agua",
		Category:    "avisos",
		Description: "mantenimiento programado",
		Author:      primitive.NewObjectID(),
	})
	require.NoError(t, err)

	require.NotNil(t, stored)
	assert.NotNil(t, stored.Images)
	assert.NotNil(t, stored.Documents)
	assert.Empty(t, stored.Images)
	assert.Empty(t, stored.Documents)
	assert.True(t, stored.IsActive)
}

func TestUpdatePostNotFound(t *testing.T) {
	repo := noopPostRepo()
	repo.findByIDFn = func(context.Context, primitive.ObjectID) (*models.Post, error) {
		return nil, mongo.ErrNoDocuments
	}

	svc := NewPostService(repo, noopMedia(), nil)
	title := "Nuevo título"
	_, err := svc.UpdatePost(context.Background(), primitive.NewObjectID().Hex(), primitive.NewObjectID(), models.PostUpdate{Title: &title})
	requireAppError(t, err, models.CodeNotFound)
}

func TestUpdatePostForbiddenForNonOwner(t *testing.T) {
	owner := primitive.NewObjectID()
	intruder := primitive.NewObjectID()

	repo := noopPostRepo()
	repo.findByIDFn = func(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
		return &models.Post{ID: id, Author: owner}, nil
	}
	mutated := false
	repo.updateFieldsFn = func(context.Context, primitive.ObjectID, models.PostUpdate) (*models.Post, error) {
		mutated = true
		return nil, nil
	}

	svc := NewPostService(repo, noopMedia(), nil)
	title := "Nuevo título"
	_, err := svc.UpdatePost(context.Background(), primitive.NewObjectID().Hex(), intruder, models.PostUpdate{Title: &title})

	requireAppError(t, err, models.CodeForbidden)
	assert.False(t, mutated, "a forbidden update must not mutate the document")
}

func TestUpdatePostInvalidID(t *testing.T) {
	svc := NewPostService(noopPostRepo(), noopMedia(), nil)
	_, err := svc.UpdatePost(context.Background(), "nope", primitive.NewObjectID(), models.PostUpdate{})
	requireAppError(t, err, models.CodeValidation)
}

func TestDeletePostCleanupFailureStillSoftDeletes(t *testing.T) {
	owner := primitive.NewObjectID()
	postID := primitive.NewObjectID()

	repo := noopPostRepo()
	repo.findByIDFn = func(context.Context, primitive.ObjectID) (*models.Post, error) {
		return &models.Post{
			ID:     postID,
			Author: owner,
			Images: []string{
				"https://res.cloudinary.com/demo/image/upload/v1/vecindario/posts/a.jpg",
				"https://res.cloudinary.com/demo/image/upload/v1/vecindario/posts/b.jpg",
			},
		}, nil
	}
	softDeleted := false
	repo.softDeleteFn = func(context.Context, primitive.ObjectID) error {
		softDeleted = true
		return nil
	}

	media := noopMedia()
	media.deleteFn = func(_ context.Context, images, _ []string) models.CleanupReport {
		report := models.CleanupReport{Attempted: true}
		report.Images = models.CleanupCounts{Failed: len(images), Errors: []string{"boom", "boom"}}
		report.Resolve()
		return report
	}

	svc := NewPostService(repo, media, nil)
	report, err := svc.DeletePost(context.Background(), postID.Hex(), owner)
	require.NoError(t, err)

	assert.True(t, softDeleted)
	assert.Equal(t, 2, report.Images.Failed)
	assert.Equal(t, models.CleanupPartial, report.Outcome)
}

func TestDeletePostForbiddenForNonOwner(t *testing.T) {
	repo := noopPostRepo()
	repo.findByIDFn = func(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
		return &models.Post{ID: id, Author: primitive.NewObjectID()}, nil
	}
	cleanupCalled := false
	media := noopMedia()
	media.deleteFn = func(context.Context, []string, []string) models.CleanupReport {
		cleanupCalled = true
		return models.CleanupReport{}
	}

	svc := NewPostService(repo, media, nil)
	_, err := svc.DeletePost(context.Background(), primitive.NewObjectID().Hex(), primitive.NewObjectID())

	requireAppError(t, err, models.CodeForbidden)
	assert.False(t, cleanupCalled)
}
