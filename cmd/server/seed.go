package main

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"blog_backend/internal/app"
	"blog_backend/internal/article"
	"blog_backend/internal/comment"
	"blog_backend/internal/feedback"
	"blog_backend/internal/history"
	"blog_backend/internal/platform/output"
	"blog_backend/internal/user"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const seedPassword = "password123"

func newSeedCmd() *cobra.Command {
	var users, articles, comments int
	var seed int64
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill a development database with fake users and content",
		RunE: func(cmd *cobra.Command, args []string) error {
			if users < 1 || articles < 0 || comments < 0 {
				return fmt.Errorf("%w: --users must be positive and counts non-negative", errUsage)
			}
			cfg, appLogger, err := bootstrap()
			if err != nil {
				return err
			}
			db, cleanup, err := app.ProvideDatabase(cfg, appLogger)
			if err != nil {
				return err
			}
			defer cleanup()

			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			gofakeit.Seed(seed)
			rnd := rand.New(rand.NewSource(seed))
			ctx := cmd.Context()

			userRepo := user.NewGORMRepository(db)
			userSvc := user.NewService(userRepo, app.ProvideLoginLimiter(cfg), appLogger)
			var authorIDs []uuid.UUID
			for i := 0; i < users; i++ {
				u, err := userSvc.Register(ctx, user.RegisterRequest{
					Username: gofakeit.Username() + strconv.Itoa(rnd.Intn(1000)),
					Password: seedPassword,
					Protect:  "Favourite colour?",
					Answer:   gofakeit.Color(),
				})
				if err != nil {
					appLogger.Warn("Skipping fake user", zap.Error(err))
					continue
				}
				authorIDs = append(authorIDs, u.ID)
			}
			if len(authorIDs) == 0 {
				return fmt.Errorf("no users could be created")
			}

			articleSvc := article.NewService(article.NewGORMRepository(db), nil, appLogger)
			commentRepo := comment.NewGORMRepository(db)
			var articleCount, commentCount int
			for i := 0; i < articles; i++ {
				author := authorIDs[rnd.Intn(len(authorIDs))]
				published := time.Now().Add(-time.Duration(rnd.Intn(60*24)) * time.Hour)
				a, err := articleSvc.CreateArticle(ctx, author, article.CreateArticleRequest{
					Title:       gofakeit.Sentence(6),
					Content:     gofakeit.Paragraph(3, 4, 12, "\n\n"),
					PublishedAt: &published,
				})
				if err != nil {
					appLogger.Warn("Skipping fake article", zap.Error(err))
					continue
				}
				articleCount++
				for j := 0; j < comments; j++ {
					c := &comment.Comment{
						ArticleID: a.ID,
						UserID:    authorIDs[rnd.Intn(len(authorIDs))],
						Content:   gofakeit.Sentence(8),
					}
					if err := commentRepo.Create(ctx, c); err != nil {
						appLogger.Warn("Skipping fake comment", zap.Error(err))
						continue
					}
					commentCount++
				}
			}

			feedbackRepo := feedback.NewGORMRepository(db)
			issueTypes := []feedback.IssueType{feedback.IssueUsageError, feedback.IssueFeatureRequest}
			for _, id := range authorIDs {
				f := &feedback.Feedback{
					UserID:      id,
					IssueType:   issueTypes[rnd.Intn(len(issueTypes))],
					Description: gofakeit.Sentence(12),
					Status:      feedback.StatusUnresolved,
				}
				if err := feedbackRepo.Create(ctx, f); err != nil {
					appLogger.Warn("Skipping fake feedback", zap.Error(err))
				}
			}

			historyRepo := history.NewGORMRepository(db)
			if err := historyRepo.Create(ctx, &history.Entry{
				UpdateContent: "Seeded development data: " + gofakeit.Sentence(5),
				UpdateTime:    time.Now(),
			}); err != nil {
				return err
			}

			table := output.NewTable(cmd.OutOrStdout(), "kind", "created")
			table.AddRows([][]string{
				{"users", strconv.Itoa(len(authorIDs))},
				{"articles", strconv.Itoa(articleCount)},
				{"comments", strconv.Itoa(commentCount)},
				{"feedback", strconv.Itoa(len(authorIDs))},
			})
			table.Render()
			fmt.Fprintf(cmd.OutOrStdout(), "Seed %d, every user's password is %q.\n", seed, seedPassword)
			return nil
		},
	}
	cmd.Flags().IntVar(&users, "users", 10, "number of users")
	cmd.Flags().IntVar(&articles, "articles", 30, "number of articles")
	cmd.Flags().IntVar(&comments, "comments", 3, "comments per article")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}
