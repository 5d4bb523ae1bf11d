package comment

import (
	"context"
	"strings"
	"testing"
	"time"

	"blog_backend/internal/article"
	"blog_backend/internal/captcha"
	"blog_backend/internal/common"
	"blog_backend/internal/notification"
	"blog_backend/internal/platform/attempts"
	"blog_backend/internal/platform/database/dbtest"
	"blog_backend/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MockCaptchaVerifier struct {
	mock.Mock
}

func (m *MockCaptchaVerifier) Verify(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, recipient, actor uuid.UUID, notifType notification.NotificationType, message string, articleID uuid.UUID) {
	m.Called(ctx, recipient, actor, notifType, message, articleID)
}

type CommentServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	captcha  *MockCaptchaVerifier
	notifier *MockNotifier
	service  Service
	author   *user.User
	reader   *user.User
	post     *article.Article
}

func (s *CommentServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = dbtest.New(s.T(), &user.User{}, &article.Article{}, &Comment{})
	users := user.NewGORMRepository(s.db)
	s.author = &user.User{Username: "author", PasswordHash: "x", Protect: "q", AnswerHash: "a", RegisteredTime: time.Now()}
	s.reader = &user.User{Username: "reader", PasswordHash: "x", Protect: "q", AnswerHash: "a", RegisteredTime: time.Now()}
	s.Require().NoError(users.Create(s.ctx, s.author))
	s.Require().NoError(users.Create(s.ctx, s.reader))

	articles := article.NewService(article.NewGORMRepository(s.db), nil, zap.NewNop())
	post, err := articles.CreateArticle(s.ctx, s.author.ID, article.CreateArticleRequest{Title: "Post", Content: "Body"})
	s.Require().NoError(err)
	s.post = post

	s.captcha = new(MockCaptchaVerifier)
	s.notifier = new(MockNotifier)
	s.service = NewService(NewGORMRepository(s.db), articles, s.captcha, s.notifier,
		attempts.New(3, 5*time.Minute, 5*time.Minute), zap.NewNop())
}

func TestCommentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CommentServiceTestSuite))
}

func (s *CommentServiceTestSuite) commentCount() int64 {
	var a article.Article
	s.Require().NoError(s.db.First(&a, "id = ?", s.post.ID).Error)
	return a.CommentCount
}

func (s *CommentServiceTestSuite) TestCreate_NotifiesAuthorAndCounts() {
	s.captcha.On("Verify", mock.Anything, "k", "v").Return(nil)
	s.notifier.On("Notify", mock.Anything, s.author.ID, s.reader.ID, notification.ArticleCommented, mock.Anything, s.post.ID).Return()

	c, err := s.service.CreateComment(s.ctx, s.reader.ID, s.post.ID, CreateCommentRequest{Content: "  Nice post  ", CaptchaKey: "k", CaptchaValue: "v"})
	s.Require().NoError(err)
	s.Equal("Nice post", c.Content)
	s.Require().NotNil(c.User)
	s.Equal("reader", c.User.Username)
	s.EqualValues(1, s.commentCount())
	s.notifier.AssertExpectations(s.T())
}

func (s *CommentServiceTestSuite) TestCreate_ContentBounds() {
	_, err := s.service.CreateComment(s.ctx, s.reader.ID, s.post.ID, CreateCommentRequest{Content: "   "})
	s.ErrorIs(err, common.ErrBadRequest)

	_, err = s.service.CreateComment(s.ctx, s.reader.ID, s.post.ID, CreateCommentRequest{Content: "<script>alert(1)</script>"})
	s.ErrorIs(err, common.ErrBadRequest, "markup-only content is empty once stripped")

	_, err = s.service.CreateComment(s.ctx, s.reader.ID, s.post.ID, CreateCommentRequest{Content: strings.Repeat("é", MaxContentRunes+1)})
	s.ErrorIs(err, common.ErrBadRequest)
	s.captcha.AssertNotCalled(s.T(), "Verify", mock.Anything, mock.Anything, mock.Anything)
}

func (s *CommentServiceTestSuite) TestCreate_CaptchaFailuresLockUser() {
	s.captcha.On("Verify", mock.Anything, "k", "bad").Return(captcha.ErrCaptchaInvalid)
	req := CreateCommentRequest{Content: "hi", CaptchaKey: "k", CaptchaValue: "bad"}

	_, err := s.service.CreateComment(s.ctx, s.reader.ID, s.post.ID, req)
	s.ErrorIs(err, captcha.ErrCaptchaInvalid)
	apiErr, ok := common.IsAPIError(err)
	s.Require().True(ok)
	s.Equal(map[string]int{"remaining_attempts": 2}, apiErr.Details)

	_, _ = s.service.CreateComment(s.ctx, s.reader.ID, s.post.ID, req)
	_, err = s.service.CreateComment(s.ctx, s.reader.ID, s.post.ID, req)
	s.ErrorIs(err, common.ErrTooManyRequests)

	// Locked users are rejected before the captcha is consulted.
	_, err = s.service.CreateComment(s.ctx, s.reader.ID, s.post.ID, CreateCommentRequest{Content: "hi", CaptchaKey: "k", CaptchaValue: "good"})
	s.ErrorIs(err, common.ErrTooManyRequests)
	s.captcha.AssertNumberOfCalls(s.T(), "Verify", 3)

	// Another user is unaffected.
	_, err = s.service.CreateComment(s.ctx, s.author.ID, s.post.ID, req)
	s.ErrorIs(err, captcha.ErrCaptchaInvalid)
}

func (s *CommentServiceTestSuite) TestCreate_UnknownArticle() {
	s.captcha.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	_, err := s.service.CreateComment(s.ctx, s.reader.ID, uuid.New(), CreateCommentRequest{Content: "hi", CaptchaKey: "k", CaptchaValue: "v"})
	s.ErrorIs(err, common.ErrNotFound)
}

func (s *CommentServiceTestSuite) TestDelete_OnlyOwner() {
	s.captcha.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	s.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
	c, err := s.service.CreateComment(s.ctx, s.reader.ID, s.post.ID, CreateCommentRequest{Content: "mine", CaptchaKey: "k", CaptchaValue: "v"})
	s.Require().NoError(err)

	s.ErrorIs(s.service.DeleteComment(s.ctx, s.author.ID, c.ID), common.ErrForbidden)
	s.Require().NoError(s.service.DeleteComment(s.ctx, s.reader.ID, c.ID))
	s.EqualValues(0, s.commentCount())
	s.ErrorIs(s.service.DeleteComment(s.ctx, s.reader.ID, c.ID), common.ErrNotFound)
}

func (s *CommentServiceTestSuite) TestList_NewestFirst() {
	s.captcha.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	s.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
	for _, text := range []string{"first", "second", "third"} {
		_, err := s.service.CreateComment(s.ctx, s.reader.ID, s.post.ID, CreateCommentRequest{Content: text, CaptchaKey: "k", CaptchaValue: "v"})
		s.Require().NoError(err)
		time.Sleep(2 * time.Millisecond)
	}

	comments, p, err := s.service.ListComments(s.ctx, s.post.ID, 1, 2)
	s.Require().NoError(err)
	s.EqualValues(3, p.TotalItems)
	s.Require().Len(comments, 2)
	s.Equal("third", comments[0].Content)

	_, _, err = s.service.ListComments(s.ctx, uuid.New(), 1, 10)
	s.ErrorIs(err, common.ErrNotFound)
}
