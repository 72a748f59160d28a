package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRepo     = "repository"
	KeyRemote   = "remote"
	KeyBranch   = "branch"
	KeyTag      = "tag"
	KeyCommit   = "commit"
	KeyPath     = "path"
	KeySnapshot = "snapshot"
	KeyRunID    = "run_id"
	KeyError    = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Repository(r string) slog.Attr { return slog.String(KeyRepo, r) }
func Remote(r string) slog.Attr     { return slog.String(KeyRemote, r) }
func Branch(b string) slog.Attr     { return slog.String(KeyBranch, b) }
func Tag(t string) slog.Attr        { return slog.String(KeyTag, t) }
func Commit(c string) slog.Attr     { return slog.String(KeyCommit, c) }
func Path(p string) slog.Attr       { return slog.String(KeyPath, p) }
func Snapshot(s string) slog.Attr   { return slog.String(KeySnapshot, s) }
func RunID(id string) slog.Attr     { return slog.String(KeyRunID, id) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
