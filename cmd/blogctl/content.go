package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"blog_backend/internal/client"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newArticlesCmd(a *app) *cobra.Command {
	var page int
	var next, prev bool
	var search string
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "List articles, remembering the page between calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			pages := client.NewPaginationStore(a.storage, a.logger)
			switch {
			case page > 0:
				pages.SetCurrentPage(page)
			case next:
				pages.SetCurrentPage(pages.CurrentPage() + 1)
			case prev:
				pages.SetCurrentPage(pages.CurrentPage() - 1)
			}

			articles, p, err := a.client.ListArticles(ctx, search, pages.CurrentPage(), pages.PageSize())
			if err != nil {
				return err
			}
			if p != nil {
				pages.SetTotal(p.TotalItems)
			}
			rows := make([][]string, 0, len(articles))
			for _, art := range articles {
				author := ""
				if art.Author != nil {
					author = art.Author.Username
				}
				rows = append(rows, []string{
					art.ID.String(),
					art.Title,
					author,
					strconv.FormatInt(art.ViewCount, 10),
					strconv.FormatInt(art.LoveCount, 10),
					strconv.FormatInt(art.CommentCount, 10),
				})
			}
			a.out.Table([]string{"ID", "TITLE", "AUTHOR", "VIEWS", "LIKES", "COMMENTS"}, rows)
			a.out.Println("page %d of %d (%d articles)", pages.CurrentPage(), pages.TotalPages(), pages.Total())
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "jump to a page")
	cmd.Flags().BoolVar(&next, "next", false, "show the next page")
	cmd.Flags().BoolVar(&prev, "prev", false, "show the previous page")
	cmd.Flags().StringVar(&search, "search", "", "title or content filter")
	cmd.MarkFlagsMutuallyExclusive("page", "next", "prev")
	return cmd
}

func newArticleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "article <id>",
		Short: "Show an article and its first comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid article id: %w", err)
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			art, err := a.client.GetArticle(ctx, id)
			if err != nil {
				return err
			}
			a.out.Success("%s", art.Title)
			a.out.Println("%d views, %d likes, %d comments\n", art.ViewCount, art.LoveCount, art.CommentCount)
			a.out.Println("%s\n", art.Content)

			comments, _, err := a.client.ListComments(ctx, id, 1, 20)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(comments))
			for _, c := range comments {
				who := ""
				if c.User != nil {
					who = c.User.Username
				}
				rows = append(rows, []string{c.CreatedAt.Local().Format("2006-01-02 15:04"), who, c.Content})
			}
			if len(rows) > 0 {
				a.out.Table([]string{"WHEN", "WHO", "COMMENT"}, rows)
			}
			return nil
		},
	}
}

func newCommentCmd(a *app) *cobra.Command {
	var imagePath string
	cmd := &cobra.Command{
		Use:   "comment <article-id> <text>",
		Short: "Comment on an article (asks for a captcha)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid article id: %w", err)
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			ch, err := a.client.Captcha(ctx)
			if err != nil {
				return fmt.Errorf("fetch captcha: %w", err)
			}
			if err := writeCaptchaImage(imagePath, ch.ImageBase64); err != nil {
				return err
			}
			a.out.Println("Captcha image written to %s", imagePath)
			answer := prompt(cmd, bufio.NewReader(cmd.InOrStdin()), "Captcha: ")

			c, err := a.client.PostComment(ctx, id, args[1], ch.Key, answer)
			if err != nil {
				return err
			}
			a.out.Success("Comment %s posted", c.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&imagePath, "captcha-image", defaultCaptchaPath(), "where to write the captcha image")
	return cmd
}

func newLikeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "like <article-id>",
		Short: "Toggle your like on an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid article id: %w", err)
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			st, err := a.client.ToggleLike(ctx, id)
			if err != nil {
				return err
			}
			verb := "Unliked"
			if st.Liked {
				verb = "Liked"
			}
			a.out.Success("%s (%d likes)", verb, st.LoveCount)
			return nil
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the public site configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			cfg, err := client.NewConfigStore(a.client).Load(ctx)
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(cfg))
			for k := range cfg {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			rows := make([][]string, 0, len(keys))
			for _, k := range keys {
				rows = append(rows, []string{k, configValue(cfg[k])})
			}
			a.out.Table([]string{"KEY", "VALUE"}, rows)
			return nil
		},
	}
}

func configValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
