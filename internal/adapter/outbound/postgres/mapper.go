package postgres

import (
	"github.com/0xsj/overwatch-nickserv/internal/domain/model"
)

// nickRow is the scanned shape of a nicks row. Times are epoch seconds and
// active_at is 0 until the nick is confirmed.
type nickRow struct {
	Nick       string
	Owner      string
	Credential string
	State      string
	CreatedAt  int64
	ActiveAt   int64
}

func toNickModel(row nickRow) model.NickRecord {
	return model.ReconstructNickRecord(
		row.Nick,
		row.Owner,
		row.Credential,
		model.NickState(row.State),
		row.CreatedAt,
		row.ActiveAt,
	)
}
