package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/heyrat/heyrat-server/internal/domain"
	"github.com/heyrat/heyrat-server/internal/store"
)

// CreatePost inserts a post and its couplets atomically.
func (s *Store) CreatePost(ctx context.Context, p *domain.Post) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO posts (
			id, user_id, poet_id, book_id, section_id,
			poet_name, book_title, section_title, body, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.UserID, p.PoetID, p.BookID, p.SectionID,
			p.PoetName, p.BookTitle, p.SectionTitle, nullableString(p.Body), formatTime(p.CreatedAt),
		)
		switch {
		case isUniqueViolation(err):
			return store.ErrAlreadyExists
		case isForeignKeyViolation(err):
			return store.ErrNotFound
		case err != nil:
			return fmt.Errorf("insert post: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO post_couplets
			(post_id, couplet_index, verse_first, verse_second) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare couplet insert: %w", err)
		}
		defer stmt.Close()

		for _, c := range p.Couplets {
			if _, err := stmt.ExecContext(ctx, p.ID, c.Index, c.First, c.Second); err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("duplicate couplet %d: %w", c.Index, store.ErrAlreadyExists)
				}
				return fmt.Errorf("insert couplet %d: %w", c.Index, err)
			}
		}
		return nil
	})
}

// SetLike adds or removes the like of userID on postID and returns the count
// read inside the same transaction.
func (s *Store) SetLike(ctx context.Context, postID, userID string, liked bool, at time.Time) (domain.LikeState, error) {
	var state domain.LikeState
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = ?`, postID).Scan(&exists)
		if err != nil {
			return notFound(err)
		}

		if liked {
			_, err = tx.ExecContext(ctx, `INSERT INTO likes (post_id, user_id, created_at)
				VALUES (?, ?, ?) ON CONFLICT(post_id, user_id) DO NOTHING`,
				postID, userID, formatTime(at))
		} else {
			_, err = tx.ExecContext(ctx, `DELETE FROM likes WHERE post_id = ? AND user_id = ?`, postID, userID)
		}
		if isForeignKeyViolation(err) {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("set like: %w", err)
		}

		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM likes WHERE post_id = ?`, postID).Scan(&state.LikeCount); err != nil {
			return fmt.Errorf("count likes: %w", err)
		}
		state.Liked = liked
		return nil
	})
	if err != nil {
		return domain.LikeState{}, err
	}
	return state, nil
}

// feedSelect selects feed rows. The first argument is the viewer id.
const feedSelect = `SELECT
	p.id, p.user_id, p.poet_id, p.book_id, p.section_id,
	p.poet_name, p.book_title, p.section_title, p.body, p.created_at,
	COALESCE(u.display_name, ''),
	(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id),
	EXISTS (SELECT 1 FROM likes l WHERE l.post_id = p.id AND l.user_id = ?)
FROM posts p
JOIN users u ON u.id = p.user_id
WHERE EXISTS (SELECT 1 FROM post_couplets c WHERE c.post_id = p.id)`

func scanFeedPost(scanner interface{ Scan(dest ...any) error }) (*domain.FeedPost, error) {
	var (
		fp        domain.FeedPost
		body      sql.NullString
		createdAt string
		isLiked   int
	)
	err := scanner.Scan(
		&fp.ID, &fp.UserID, &fp.PoetID, &fp.BookID, &fp.SectionID,
		&fp.PoetName, &fp.BookTitle, &fp.SectionTitle, &body, &createdAt,
		&fp.AuthorName, &fp.LikeCount, &isLiked,
	)
	if err != nil {
		return nil, err
	}
	if body.Valid {
		fp.Body = &body.String
	}
	if fp.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	fp.IsLiked = isLiked != 0
	fp.Couplets = []domain.PostCouplet{}
	return &fp, nil
}

// GetFeedPost returns a single post with its couplets and like state.
func (s *Store) GetFeedPost(ctx context.Context, postID, viewerID string) (*domain.FeedPost, error) {
	row := s.db.QueryRowContext(ctx, feedSelect+` AND p.id = ?`, viewerID, postID)
	fp, err := scanFeedPost(row)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.attachCouplets(ctx, []*domain.FeedPost{fp}); err != nil {
		return nil, err
	}
	return fp, nil
}

// FeedPosts yields up to limit posts, newest first. Posts without couplets
// are skipped. An error ends the sequence.
func (s *Store) FeedPosts(ctx context.Context, viewerID string, limit int) iter.Seq2[*domain.FeedPost, error] {
	return func(yield func(*domain.FeedPost, error) bool) {
		posts, err := s.feedPage(ctx, viewerID, limit)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, p := range posts {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func (s *Store) feedPage(ctx context.Context, viewerID string, limit int) ([]*domain.FeedPost, error) {
	rows, err := s.db.QueryContext(ctx,
		feedSelect+` ORDER BY p.created_at DESC, p.id DESC LIMIT ?`, viewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query feed: %w", err)
	}
	defer rows.Close()

	var posts []*domain.FeedPost
	for rows.Next() {
		fp, err := scanFeedPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feed post: %w", err)
		}
		posts = append(posts, fp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed: %w", err)
	}
	rows.Close()

	if err := s.attachCouplets(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// attachCouplets loads couplets for all posts in one query, ordered by index.
func (s *Store) attachCouplets(ctx context.Context, posts []*domain.FeedPost) error {
	if len(posts) == 0 {
		return nil
	}

	byID := make(map[string]*domain.FeedPost, len(posts))
	args := make([]any, len(posts))
	for i, p := range posts {
		byID[p.ID] = p
		args[i] = p.ID
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(posts)), ",")

	rows, err := s.db.QueryContext(ctx, `SELECT post_id, couplet_index, verse_first, verse_second
		FROM post_couplets WHERE post_id IN (`+placeholders+`)
		ORDER BY post_id, couplet_index`, args...)
	if err != nil {
		return fmt.Errorf("query couplets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			postID string
			c      domain.PostCouplet
		)
		if err := rows.Scan(&postID, &c.Index, &c.First, &c.Second); err != nil {
			return fmt.Errorf("scan couplet: %w", err)
		}
		if p, ok := byID[postID]; ok {
			p.Couplets = append(p.Couplets, c)
		}
	}
	return rows.Err()
}
