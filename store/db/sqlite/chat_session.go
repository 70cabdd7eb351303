package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/quillchat/quill/store"
)

func (d *DB) UpsertChatSession(ctx context.Context, upsert *store.ChatSession) (*store.ChatSession, error) {
	messages, err := json.Marshal(upsert.Messages)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal messages")
	}

	now := time.Now().Unix()
	createdTs := upsert.CreatedTs
	if createdTs == 0 {
		createdTs = now
	}

	stmt := `
		INSERT INTO chat_session (uid, name, messages, context, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (uid) DO UPDATE SET
			name = excluded.name,
			messages = excluded.messages,
			context = excluded.context,
			updated_ts = excluded.updated_ts
	`
	if _, err := d.db.ExecContext(ctx, stmt,
		upsert.UID,
		nullableString(upsert.Name),
		string(messages),
		upsert.Context,
		createdTs,
		now,
	); err != nil {
		return nil, errors.Wrap(err, "failed to upsert chat session")
	}

	return d.GetChatSession(ctx, &store.FindChatSession{UID: &upsert.UID})
}

func (d *DB) GetChatSession(ctx context.Context, find *store.FindChatSession) (*store.ChatSession, error) {
	list, err := d.ListChatSessions(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (d *DB) ListChatSessions(ctx context.Context, find *store.FindChatSession) ([]*store.ChatSession, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "uid = ?"), append(args, *v)
	}

	query := `
		SELECT id, uid, name, messages, context, created_ts, updated_ts
		FROM chat_session
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC
	`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chat sessions")
	}
	defer rows.Close()

	list := []*store.ChatSession{}
	for rows.Next() {
		session, err := scanChatSession(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) UpdateChatSession(ctx context.Context, update *store.UpdateChatSession) (*store.ChatSession, error) {
	set, args := []string{}, []any{}
	if v := update.Name; v != nil {
		set, args = append(set, "name = ?"), append(args, *v)
	}
	updatedTs := time.Now().Unix()
	if v := update.UpdatedTs; v != nil {
		updatedTs = *v
	}
	set, args = append(set, "updated_ts = ?"), append(args, updatedTs)
	args = append(args, update.UID)

	stmt := "UPDATE chat_session SET " + strings.Join(set, ", ") + " WHERE uid = ?"
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to update chat session")
	}

	return d.GetChatSession(ctx, &store.FindChatSession{UID: &update.UID})
}

func (d *DB) DeleteChatSession(ctx context.Context, delete *store.DeleteChatSession) error {
	// Deleting a missing session is a no-op.
	if _, err := d.db.ExecContext(ctx, "DELETE FROM chat_session WHERE uid = ?", delete.UID); err != nil {
		return errors.Wrap(err, "failed to delete chat session")
	}
	return nil
}

func (d *DB) DeleteAllChatSessions(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM chat_session"); err != nil {
		return errors.Wrap(err, "failed to delete chat sessions")
	}
	return nil
}

func scanChatSession(rows *sql.Rows) (*store.ChatSession, error) {
	var session store.ChatSession
	var name sql.NullString
	var messages string
	if err := rows.Scan(
		&session.ID,
		&session.UID,
		&name,
		&messages,
		&session.Context,
		&session.CreatedTs,
		&session.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan chat session")
	}
	session.Name = name.String

	session.Messages = []store.Message{}
	if err := json.Unmarshal([]byte(messages), &session.Messages); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal messages of session %s", session.UID)
	}
	return &session, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
