package index

import (
	"strconv"
	"strings"

	domdoc "github.com/kailas-cloud/docsync/internal/domain/document"
)

const (
	fieldID   = "id"
	fieldText = "text"
)

func buildHashFields(e domdoc.Entry) map[string]string {
	return map[string]string{
		fieldID:   strconv.FormatInt(e.ID, 10),
		fieldText: e.Text,
	}
}

func parseHashFields(id int64, m map[string]string) domdoc.Entry {
	return domdoc.Entry{ID: id, Text: m[fieldText]}
}

func (r *Repo) key(id int64) string {
	return r.prefix + strconv.FormatInt(id, 10)
}

func (r *Repo) parseKey(key string) (int64, bool) {
	rest, ok := strings.CutPrefix(key, r.prefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
