package notification

import (
	"context"
	"errors"
	"testing"

	"blog_backend/internal/common"
	"blog_backend/internal/platform/database/dbtest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockNotificationRepository is a mock type for notification.Repository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *Notification) error {
	args := m.Called(ctx, notification)
	if args.Error(0) == nil && notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockNotificationRepository) GetByUserID(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, pageSize int) ([]Notification, *common.Pagination, error) {
	args := m.Called(ctx, userID, unreadOnly, page, pageSize)
	var notifications []Notification
	if args.Get(0) != nil {
		notifications = args.Get(0).([]Notification)
	}
	var pagination *common.Pagination
	if args.Get(1) != nil {
		pagination = args.Get(1).(*common.Pagination)
	}
	return notifications, pagination, args.Error(2)
}

func (m *MockNotificationRepository) FindByID(ctx context.Context, notificationID uuid.UUID, userID uuid.UUID) (*Notification, error) {
	args := m.Called(ctx, notificationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkAsRead(ctx context.Context, notificationID uuid.UUID, userID uuid.UUID) error {
	return m.Called(ctx, notificationID, userID).Error(0)
}

func (m *MockNotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) DeleteForArticle(ctx context.Context, articleID uuid.UUID) error {
	return m.Called(ctx, articleID).Error(0)
}

func TestNotificationService_CreateNotification_Success(t *testing.T) {
	repo := new(MockNotificationRepository)
	svc := NewService(repo, zap.NewNop())
	ctx := context.Background()
	userID := uuid.New()
	articleID := uuid.New()

	repo.On("Create", ctx, mock.AnythingOfType("*notification.Notification")).Run(func(args mock.Arguments) {
		n := args.Get(1).(*Notification)
		assert.Equal(t, userID, n.UserID)
		assert.Equal(t, ArticleCommented, n.Type)
		assert.Equal(t, &articleID, n.RelatedArticleID)
		assert.False(t, n.IsRead)
	}).Return(nil)

	created, err := svc.CreateNotification(ctx, userID, ArticleCommented, "New comment", &articleID)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	repo.AssertExpectations(t)
}

func TestNotificationService_CreateNotification_Error(t *testing.T) {
	repo := new(MockNotificationRepository)
	svc := NewService(repo, zap.NewNop())
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*notification.Notification")).Return(errors.New("repo error"))

	created, err := svc.CreateNotification(ctx, uuid.New(), ArticleLiked, "test", nil)
	assert.Nil(t, created)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrInternalServer.Code, apiErr.Code)
}

func TestNotificationService_Notify_SkipsSelf(t *testing.T) {
	repo := new(MockNotificationRepository)
	svc := NewService(repo, zap.NewNop())
	self := uuid.New()

	svc.Notify(context.Background(), self, self, ArticleLiked, "liked", uuid.New())
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestNotificationService_Notify_SwallowsErrors(t *testing.T) {
	repo := new(MockNotificationRepository)
	svc := NewService(repo, zap.NewNop())
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	assert.NotPanics(t, func() {
		svc.Notify(context.Background(), uuid.New(), uuid.New(), ArticleLiked, "liked", uuid.New())
	})
	repo.AssertNumberOfCalls(t, "Create", 1)
}

func TestNotificationService_MarkNotificationAsRead_NotFound(t *testing.T) {
	repo := new(MockNotificationRepository)
	svc := NewService(repo, zap.NewNop())
	ctx := context.Background()
	userID, notificationID := uuid.New(), uuid.New()

	repo.On("MarkAsRead", ctx, notificationID, userID).Return(common.ErrNotFound.WithDetails("Notification not found or not owned by user."))

	err := svc.MarkNotificationAsRead(ctx, notificationID, userID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestNotificationRepository_Lifecycle(t *testing.T) {
	db := dbtest.New(t, &Notification{})
	repo := NewGORMRepository(db)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()
	articleID := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &Notification{UserID: owner, Type: ArticleLiked, Message: "liked", RelatedArticleID: &articleID}))
	}
	require.NoError(t, repo.Create(ctx, &Notification{UserID: other, Type: ArticleCommented, Message: "commented"}))

	list, p, err := repo.GetByUserID(ctx, owner, false, 1, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.EqualValues(t, 3, p.TotalItems)

	err = repo.MarkAsRead(ctx, list[0].ID, other)
	assert.ErrorIs(t, err, common.ErrNotFound)
	require.NoError(t, repo.MarkAsRead(ctx, list[0].ID, owner))

	unread, err := repo.CountUnread(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	n, err := repo.MarkAllAsRead(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, repo.DeleteForArticle(ctx, articleID))
	list, _, err = repo.GetByUserID(ctx, owner, false, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}
