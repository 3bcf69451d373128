package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/shandysiswandi/hirelens/internal/otp/entity"
	"github.com/shandysiswandi/hirelens/internal/pkg/goerror"
)

const (
	queryCreateOTP = `INSERT INTO otp (id, identifier, channel, code, consumed, expires_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	queryGetLatestOTP = `SELECT id, identifier, channel, code, consumed, expires_at, created_at, updated_at
FROM otp
WHERE identifier = ANY($1) AND code = $2
ORDER BY created_at DESC, id DESC
LIMIT 1`

	queryConsumeOTP = `UPDATE otp SET consumed = TRUE, updated_at = $2 WHERE id = $1 AND consumed = FALSE`
)

func (s *DB) CreateOTP(ctx context.Context, in entity.OTP) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CreateOTP")
	defer func() { s.endSpan(span, err) }()

	id := s.uid.Generate()
	_, err = s.conn.Exec(ctx, queryCreateOTP,
		id,
		in.Identifier,
		in.Channel.String(),
		in.Code,
		in.Consumed,
		in.ExpiresAt,
		in.CreatedAt,
		in.UpdatedAt,
	)
	if err != nil {
		return 0, s.mapError(err)
	}

	return id, nil
}

func (s *DB) GetLatestOTP(ctx context.Context, identifiers []string, code string) (_ *entity.OTP, err error) {
	ctx, span := s.startSpan(ctx, "GetLatestOTP")
	defer func() { s.endSpan(span, err) }()

	if len(identifiers) == 0 {
		return nil, goerror.ErrNotFound
	}

	var (
		row       entity.OTP
		channel   string
		expiresAt sql.NullTime
	)
	err = s.conn.QueryRow(ctx, queryGetLatestOTP, identifiers, code).Scan(
		&row.ID,
		&row.Identifier,
		&channel,
		&row.Code,
		&row.Consumed,
		&expiresAt,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	row.Channel = entity.Channel(channel)
	if expiresAt.Valid {
		row.ExpiresAt = expiresAt.Time.UTC()
	}

	return &row, nil
}

func (s *DB) ConsumeOTP(ctx context.Context, id int64, at time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeOTP")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryConsumeOTP, id, at)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}
