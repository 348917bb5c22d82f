package postgres

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postColumns = `id, title, content, excerpt, author, author_id, category, status, tags, read_time,
image_url, is_recommended, likes, dislikes, shares, published_at, updated_at`

var reactionColumns = map[model.ReactionType]string{
	model.ReactionLikes:    "likes",
	model.ReactionDislikes: "dislikes",
	model.ReactionShares:   "shares",
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner, prefix ...any) (*model.Post, error) {
	var (
		post     model.Post
		category string
		status   string
	)
	dest := append(prefix,
		&post.ID,
		&post.Title,
		&post.Content,
		&post.Excerpt,
		&post.Author,
		&post.AuthorID,
		&category,
		&status,
		&post.Tags,
		&post.ReadTime,
		&post.ImageURL,
		&post.IsRecommended,
		&post.Reactions.Likes,
		&post.Reactions.Dislikes,
		&post.Reactions.Shares,
		&post.PublishedAt,
		&post.UpdatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	post.Category = model.PostCategory(category)
	post.Status = model.PostStatus(status)
	if post.Tags == nil {
		post.Tags = []string{}
	}

	return &post, nil
}

type postRepo struct {
	db *pgxpool.Pool
}

func newPostRepo(db *pgxpool.Pool) Post {
	return &postRepo{
		db: db,
	}
}

func (r *postRepo) Create(ctx context.Context, post model.Post) (*model.Post, error) {
	if post.Tags == nil {
		post.Tags = []string{}
	}

	_, err := r.db.Exec(
		ctx,
		`INSERT INTO posts(`+postColumns+`)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		post.ID,
		post.Title,
		post.Content,
		post.Excerpt,
		post.Author,
		post.AuthorID,
		string(post.Category),
		string(post.Status),
		post.Tags,
		post.ReadTime,
		post.ImageURL,
		post.IsRecommended,
		post.Reactions.Likes,
		post.Reactions.Dislikes,
		post.Reactions.Shares,
		post.PublishedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &post, nil
}

func (r *postRepo) Update(ctx context.Context, id uuid.UUID, update model.PostUpdate, updatedAt time.Time) (model.PostStatus, *model.Post, error) {
	var (
		sets []string
		args []interface{}
	)
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if update.Title != nil {
		set("title", *update.Title)
	}
	if update.Content != nil {
		set("content", *update.Content)
	}
	if update.Excerpt != nil {
		set("excerpt", *update.Excerpt)
	}
	if update.Category != nil {
		set("category", string(*update.Category))
	}
	if update.Status != nil {
		set("status", string(*update.Status))
	}
	if update.Tags != nil {
		set("tags", update.Tags)
	}
	if update.ReadTime != nil {
		set("read_time", *update.ReadTime)
	}
	if update.ImageURL != nil {
		set("image_url", *update.ImageURL)
	}
	if update.IsRecommended != nil {
		set("is_recommended", *update.IsRecommended)
	}
	set("updated_at", updatedAt)

	args = append(args, id)
	idArg := "$" + strconv.Itoa(len(args))

	// The row lock in prev makes concurrent updaters observe each other's status change.
	query := `WITH prev AS (SELECT id, status FROM posts WHERE id = ` + idArg + ` FOR UPDATE)
	UPDATE posts p SET ` + strings.Join(sets, ", ") + `
	FROM prev
	WHERE p.id = prev.id
	RETURNING prev.status, ` + qualified("p", postColumns)

	var prevStatus string
	post, err := scanPost(r.db.QueryRow(ctx, query, args...), &prevStatus)
	if err != nil {
		return "", nil, err
	}

	return model.PostStatus(prevStatus), post, nil
}

func (r *postRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *postRepo) ToggleRecommended(ctx context.Context, id uuid.UUID, updatedAt time.Time) (*model.Post, error) {
	return scanPost(r.db.QueryRow(
		ctx,
		"UPDATE posts SET is_recommended = NOT is_recommended, updated_at = $1 WHERE id = $2 RETURNING "+postColumns,
		updatedAt,
		id,
	))
}

func (r *postRepo) IncrReaction(ctx context.Context, id uuid.UUID, reaction model.ReactionType) error {
	column, ok := reactionColumns[reaction]
	if !ok {
		return ErrFieldsNotAllowedToUpdate
	}

	tag, err := r.db.Exec(ctx, "UPDATE posts SET "+column+" = "+column+" + 1 WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *postRepo) FindAll(ctx context.Context) ([]model.Post, error) {
	rows, err := r.db.Query(ctx, "SELECT "+postColumns+" FROM posts ORDER BY published_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func qualified(alias string, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}
