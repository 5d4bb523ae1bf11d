package feedback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blog_backend/internal/common"
	"blog_backend/internal/platform/database/dbtest"
	"blog_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type FeedbackServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	service Service
	owner   *user.User
	other   *user.User
}

func (s *FeedbackServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	db := dbtest.New(s.T(), &user.User{}, &Feedback{})
	users := user.NewGORMRepository(db)
	s.owner = &user.User{Username: "owner", PasswordHash: "x", Protect: "q", AnswerHash: "a", RegisteredTime: time.Now()}
	s.other = &user.User{Username: "other", PasswordHash: "x", Protect: "q", AnswerHash: "a", RegisteredTime: time.Now()}
	s.Require().NoError(users.Create(s.ctx, s.owner))
	s.Require().NoError(users.Create(s.ctx, s.other))
	s.service = NewService(NewGORMRepository(db), zap.NewNop())
}

func TestFeedbackServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FeedbackServiceTestSuite))
}

func (s *FeedbackServiceTestSuite) TestCreateAndFilter() {
	_, err := s.service.Create(s.ctx, s.owner.ID, CreateFeedbackRequest{IssueType: IssueUsageError, Description: "Broken link"})
	s.Require().NoError(err)
	f, err := s.service.Create(s.ctx, s.owner.ID, CreateFeedbackRequest{IssueType: IssueFeatureRequest, Description: "Dark mode"})
	s.Require().NoError(err)
	s.Equal(StatusUnresolved, f.Status)
	s.Require().NotNil(f.User)
	s.Equal("owner", f.User.Username)

	_, err = s.service.Create(s.ctx, s.owner.ID, CreateFeedbackRequest{IssueType: IssueUsageError, Description: "   "})
	s.ErrorIs(err, common.ErrBadRequest)

	items, p, err := s.service.List(s.ctx, ListQuery{IssueType: IssueFeatureRequest})
	s.Require().NoError(err)
	s.EqualValues(1, p.TotalItems)
	s.Equal("Dark mode", items[0].Description)
}

func (s *FeedbackServiceTestSuite) TestOwnership() {
	f, err := s.service.Create(s.ctx, s.owner.ID, CreateFeedbackRequest{IssueType: IssueUsageError, Description: "Typo"})
	s.Require().NoError(err)

	desc := "Typo on the home page"
	_, err = s.service.UpdateOwn(s.ctx, s.other.ID, f.ID, UpdateFeedbackRequest{Description: &desc})
	s.ErrorIs(err, common.ErrForbidden)
	_, err = s.service.UpdateOwn(s.ctx, s.owner.ID, f.ID, UpdateFeedbackRequest{})
	s.ErrorIs(err, common.ErrBadRequest)

	updated, err := s.service.UpdateOwn(s.ctx, s.owner.ID, f.ID, UpdateFeedbackRequest{Description: &desc})
	s.Require().NoError(err)
	s.Equal(desc, updated.Description)

	s.ErrorIs(s.service.DeleteOwn(s.ctx, s.other.ID, f.ID), common.ErrForbidden)
	s.Require().NoError(s.service.DeleteOwn(s.ctx, s.owner.ID, f.ID))
	_, err = s.service.Get(s.ctx, f.ID)
	s.ErrorIs(err, common.ErrNotFound)
}

func (s *FeedbackServiceTestSuite) TestResolvedAtSemantics() {
	f, err := s.service.Create(s.ctx, s.owner.ID, CreateFeedbackRequest{IssueType: IssueUsageError, Description: "Crash"})
	s.Require().NoError(err)
	s.Nil(f.ResolvedAt)

	resolved, err := s.service.UpdateStatus(s.ctx, f.ID, StatusResolved)
	s.Require().NoError(err)
	s.Require().NotNil(resolved.ResolvedAt)
	first := *resolved.ResolvedAt

	same, err := s.service.UpdateStatus(s.ctx, f.ID, StatusResolved)
	s.Require().NoError(err)
	s.Require().NotNil(same.ResolvedAt)
	s.WithinDuration(first, *same.ResolvedAt, time.Millisecond, "an unchanged status keeps the timestamp")

	reopened, err := s.service.UpdateStatus(s.ctx, f.ID, StatusUnresolved)
	s.Require().NoError(err)
	s.Nil(reopened.ResolvedAt)

	stored, err := s.service.Get(s.ctx, f.ID)
	s.Require().NoError(err)
	s.Nil(stored.ResolvedAt)
	s.Equal(StatusUnresolved, stored.Status)

	_, err = s.service.UpdateStatus(s.ctx, uuid.New(), StatusRejected)
	s.ErrorIs(err, common.ErrNotFound)
}

func TestHandler_ListRejectsUnknownIssueType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := dbtest.New(t, &user.User{}, &Feedback{})
	h := NewHandler(NewService(NewGORMRepository(db), zap.NewNop()), zap.NewNop())
	router := gin.New()
	pass := func(c *gin.Context) { c.Next() }
	h.RegisterRoutes(router.Group("/api/v1"), pass, pass)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/feedback?issue_type=bogus", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/feedback?issue_type=usage_error", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(strings.NewReader(w.Body.String())).Decode(&body))
	assert.Equal(t, "success", body["status"])
	assert.Contains(t, body, "pagination")
}
