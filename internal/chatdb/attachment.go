package chatdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// GetAttachment returns the attachment with the given GUID, or nil if there
// is none. Width and Height are filled when the referenced file decodes as
// an image; probing failures never fail the call.
func (d *DB) GetAttachment(ctx context.Context, guid string) (*Attachment, error) {
	var out *Attachment
	err := d.withConn(ctx, func(ctx context.Context, q querier) error {
		r, err := scanAttachmentRow(q.QueryRowContext(ctx,
			`SELECT `+selectList("", attachmentColumns)+` FROM attachment WHERE guid = ?`, guid))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		width, height := d.probe(r.filename)
		a, err := newAttachment(r, width, height)
		if err != nil {
			return err
		}
		out = &a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get attachment %q: %w", guid, err)
	}
	return out, nil
}

func (d *DB) probe(filename sql.NullString) (width, height *int) {
	if !filename.Valid || filename.String == "" {
		return nil, nil
	}
	w, h, ok := d.opts.Prober.Dimensions(filename.String)
	if !ok {
		d.logger.Debug("attachment dimensions unavailable", zap.String("filename", filename.String))
		return nil, nil
	}
	return &w, &h
}
