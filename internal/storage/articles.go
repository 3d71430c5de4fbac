package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrArticleNotFound is returned when no article exists for an identifier.
var ErrArticleNotFound = errors.New("article not found")

func (db *DB) SaveArticle(ctx context.Context, a *Article) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO articles
			(id, title, title_localized, link, content, summary, category, score,
			 keywords, reason, summary_msg_id, full_text_msg_id, translated_content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		a.ID, a.Title, a.TitleLocalized, a.Link, a.Content, a.Summary, a.Category, a.Score,
		a.Keywords, a.Reason, a.SummaryMsgID, a.FullTextMsgID, a.TranslatedContent, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("save article: %w", err)
	}

	return nil
}

func (db *DB) GetArticle(ctx context.Context, id string) (*Article, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT id, title, title_localized, link, content, summary, category, score,
		       keywords, reason, summary_msg_id, full_text_msg_id, translated_content, created_at
		FROM articles WHERE id = $1`, id)

	var a Article

	err := row.Scan(&a.ID, &a.Title, &a.TitleLocalized, &a.Link, &a.Content, &a.Summary,
		&a.Category, &a.Score, &a.Keywords, &a.Reason, &a.SummaryMsgID, &a.FullTextMsgID,
		&a.TranslatedContent, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrArticleNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}

	return &a, nil
}

// SetSummaryMsgID records the channel message identifier of the summary card.
func (db *DB) SetSummaryMsgID(ctx context.Context, id string, msgID int64) error {
	if _, err := db.Pool.Exec(ctx,
		`UPDATE articles SET summary_msg_id = $2 WHERE id = $1`, id, msgID); err != nil {
		return fmt.Errorf("set summary msg id: %w", err)
	}

	return nil
}

// SetFullTextMsgID records the identifier of the last sent full-text message.
func (db *DB) SetFullTextMsgID(ctx context.Context, id string, msgID int64) error {
	if _, err := db.Pool.Exec(ctx,
		`UPDATE articles SET full_text_msg_id = $2 WHERE id = $1`, id, msgID); err != nil {
		return fmt.Errorf("set full text msg id: %w", err)
	}

	return nil
}

// SetTranslation persists a completed translation. The update touches only the
// translation column, so a concurrently running digest never loses fields to
// this write.
func (db *DB) SetTranslation(ctx context.Context, id, translated string) error {
	if _, err := db.Pool.Exec(ctx,
		`UPDATE articles SET translated_content = $2 WHERE id = $1`, id, translated); err != nil {
		return fmt.Errorf("set translation: %w", err)
	}

	return nil
}

// PruneArticlesBefore deletes articles created before the cutoff and returns
// how many were removed.
func (db *DB) PruneArticlesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM articles WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune articles: %w", err)
	}

	return tag.RowsAffected(), nil
}
