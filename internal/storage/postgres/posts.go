package postgres

import (
	"context"
	"fmt"
	"time"

	"signalnet/internal/models"

	"github.com/gocraft/dbr/v2"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// ListPosts returns unarchived, unexpired posts newest first with authors,
// linked signals and counts attached.
func (s *Store) ListPosts(ctx context.Context, q models.PostQuery) ([]models.Post, error) {
	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}

	stmt := s.sess.
		Select("*").
		From("posts").
		Where("archived = ?", false).
		Where(activeAt("expires_at", now)).
		OrderDesc("created_at")

	if q.AuthorID != "" {
		stmt = stmt.Where("user_id = ?", q.AuthorID)
	}
	if q.Limit > 0 {
		stmt = stmt.Limit(uint64(q.Limit))
	}

	var posts []models.Post
	if _, err := stmt.LoadContext(ctx, &posts); err != nil {
		s.logger.Error("failed to list posts",
			zap.String("author_id", q.AuthorID),
			zap.Int("limit", q.Limit),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list posts: %w", err)
	}

	if err := s.attachPostDetails(ctx, posts); err != nil {
		return nil, err
	}

	return posts, nil
}

// GetPost returns a post regardless of archive or expiry state.
func (s *Store) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post

	err := s.sess.
		Select("*").
		From("posts").
		Where("id = ?", postID).
		LoadOneContext(ctx, &post)

	if err == dbr.ErrNotFound {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get post",
			zap.String("post_id", postID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get post: %w", err)
	}

	posts := []models.Post{post}
	if err := s.attachPostDetails(ctx, posts); err != nil {
		return nil, err
	}

	return &posts[0], nil
}

// InsertPost stores the post and its signal links in one transaction.
func (s *Store) InsertPost(ctx context.Context, post *models.Post, signalIDs []string) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.RollbackUnlessCommitted()

	_, err = tx.InsertInto("posts").
		Columns("id", "user_id", "content", "post_type", "visibility", "expires_at",
			"city", "state", "country", "latitude", "longitude", "archived", "created_at", "updated_at").
		Values(post.ID, post.UserID, post.Content, post.PostType, post.Visibility, post.ExpiresAt,
			post.City, post.State, post.Country, post.Latitude, post.Longitude, post.Archived, post.CreatedAt, post.UpdatedAt).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to insert post",
			zap.String("user_id", post.UserID),
			zap.Error(err),
		)
		return fmt.Errorf("insert post: %w", err)
	}

	if err := insertPostSignals(ctx, tx, post.ID, signalIDs); err != nil {
		s.logger.Error("failed to link post signals",
			zap.String("post_id", post.ID),
			zap.Error(err),
		)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("post created",
		zap.String("post_id", post.ID),
		zap.String("user_id", post.UserID),
		zap.String("post_type", string(post.PostType)),
	)

	return nil
}

func (s *Store) UpdatePost(ctx context.Context, postID string, upd models.PostUpdate) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.RollbackUnlessCommitted()

	stmt := tx.Update("posts").
		Set("updated_at", upd.UpdatedAt).
		Where("id = ?", postID)

	if upd.Content != nil {
		stmt = stmt.Set("content", *upd.Content)
	}
	if upd.PostType != nil {
		stmt = stmt.Set("post_type", *upd.PostType)
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		s.logger.Error("failed to update post",
			zap.String("post_id", postID),
			zap.Error(err),
		)
		return fmt.Errorf("update post: %w", err)
	}

	if upd.SignalIDs != nil {
		if _, err := tx.DeleteFrom("post_signals").
			Where("post_id = ?", postID).
			ExecContext(ctx); err != nil {
			return fmt.Errorf("clear post signals: %w", err)
		}
		if err := insertPostSignals(ctx, tx, postID, *upd.SignalIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func (s *Store) SetPostArchived(ctx context.Context, postID string, archived bool) error {
	_, err := s.sess.
		Update("posts").
		Set("archived", archived).
		Set("updated_at", time.Now()).
		Where("id = ?", postID).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to set post archived",
			zap.String("post_id", postID),
			zap.Bool("archived", archived),
			zap.Error(err),
		)
		return fmt.Errorf("set post archived: %w", err)
	}

	return nil
}

func (s *Store) DeletePost(ctx context.Context, postID string) error {
	_, err := s.sess.
		DeleteFrom("posts").
		Where("id = ?", postID).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to delete post",
			zap.String("post_id", postID),
			zap.Error(err),
		)
		return fmt.Errorf("delete post: %w", err)
	}

	s.logger.Info("post deleted", zap.String("post_id", postID))

	return nil
}

func insertPostSignals(ctx context.Context, tx *dbr.Tx, postID string, signalIDs []string) error {
	if len(signalIDs) == 0 {
		return nil
	}

	stmt := tx.InsertInto("post_signals").Columns("post_id", "signal_id", "position")
	for i, id := range uniqueStrings(signalIDs) {
		stmt = stmt.Values(postID, id, i)
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("insert post signals: %w", err)
	}

	return nil
}

type postSignalRow struct {
	PostID     string `db:"post_id"`
	ID         string `db:"id"`
	Label      string `db:"label"`
	CategoryID string `db:"category_id"`
}

type postCountRow struct {
	PostID string `db:"post_id"`
	Count  int    `db:"count"`
}

func (s *Store) attachPostDetails(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	postIDs := make([]string, 0, len(posts))
	authorIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		authorIDs = append(authorIDs, p.UserID)
	}

	authors, err := s.authorsByID(ctx, uniqueStrings(authorIDs))
	if err != nil {
		return err
	}

	var links []postSignalRow
	_, err = s.sess.
		Select("ps.post_id", "s.id", "s.label", "s.category_id").
		From(dbr.I("post_signals").As("ps")).
		Join(dbr.I("signals").As("s"), "s.id = ps.signal_id").
		Where("ps.post_id = ANY(?)", pq.Array(postIDs)).
		OrderAsc("ps.position").
		LoadContext(ctx, &links)
	if err != nil {
		s.logger.Error("failed to load post signals", zap.Error(err))
		return fmt.Errorf("load post signals: %w", err)
	}

	reactions, err := s.countByPost(ctx, "post_reactions", postIDs)
	if err != nil {
		return err
	}
	comments, err := s.countByPost(ctx, "post_comments", postIDs)
	if err != nil {
		return err
	}

	signalsByPost := make(map[string][]models.SignalRef, len(posts))
	for _, l := range links {
		signalsByPost[l.PostID] = append(signalsByPost[l.PostID], models.SignalRef{
			ID:         l.ID,
			Label:      l.Label,
			CategoryID: l.CategoryID,
		})
	}

	for i := range posts {
		p := &posts[i]
		p.Author = authors[p.UserID]
		p.LinkedSignals = signalsByPost[p.ID]
		if p.LinkedSignals == nil {
			p.LinkedSignals = []models.SignalRef{}
		}
		p.ReactionCount = reactions[p.ID]
		p.CommentCount = comments[p.ID]
	}

	return nil
}

func (s *Store) countByPost(ctx context.Context, table string, postIDs []string) (map[string]int, error) {
	var rows []postCountRow

	_, err := s.sess.
		Select("post_id", "COUNT(*) AS count").
		From(table).
		Where("post_id = ANY(?)", pq.Array(postIDs)).
		GroupBy("post_id").
		LoadContext(ctx, &rows)

	if err != nil {
		s.logger.Error("failed to count post children",
			zap.String("table", table),
			zap.Error(err),
		)
		return nil, fmt.Errorf("count %s: %w", table, err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.PostID] = r.Count
	}

	return counts, nil
}
