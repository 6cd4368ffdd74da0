package repository

import (
	"context"

	"xiaonuan/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type MessageRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMessageRepository(db *pgxpool.Pool, logger *zap.Logger) *MessageRepository {
	return &MessageRepository{
		db:     db,
		logger: logger,
	}
}

func (r *MessageRepository) Create(ctx context.Context, msg *models.ChatMessage) (int64, error) {
	query := squirrel.Insert("chat_messages").
		Columns("user_id", "content", "is_user", "personality_id", "created_at").
		Values(msg.UserID, msg.Content, msg.IsUser, msg.PersonalityID, msg.CreatedAt).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	var id int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*models.ChatMessage, error) {
	query := squirrel.Select("id", "user_id", "content", "is_user", "personality_id", "created_at").
		From("chat_messages").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var msg models.ChatMessage
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&msg.ID, &msg.UserID, &msg.Content, &msg.IsUser, &msg.PersonalityID, &msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *MessageRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.ChatMessage, error) {
	query := squirrel.Select("id", "user_id", "content", "is_user", "personality_id", "created_at").
		From("chat_messages").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(
			&msg.ID, &msg.UserID, &msg.Content, &msg.IsUser, &msg.PersonalityID, &msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}
